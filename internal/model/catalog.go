package model

// CatalogKind selects one of the four name catalogs backing product
// attributes.
type CatalogKind string

// Catalog kinds.
const (
	KindColor    CatalogKind = "color"
	KindSize     CatalogKind = "size"
	KindTag      CatalogKind = "tag"
	KindCategory CatalogKind = "category"
)

// Valid reports whether k names a known catalog.
func (k CatalogKind) Valid() bool {
	switch k {
	case KindColor, KindSize, KindTag, KindCategory:
		return true
	}
	return false
}

// CatalogEntry is the shape shared by colors, sizes, tags and categories.
// HexCode is populated for colors only.
type CatalogEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	HexCode string `json:"hex_code,omitempty"`
}

// SaveCatalogRequest is the shared DTO for creating/updating colors, sizes,
// tags and categories. HexCode only applies to colors.
type SaveCatalogRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=255"`
	HexCode string `json:"hex_code" validate:"omitempty,max=16"`
}

// CatalogListResponse is the paginated catalog list DTO.
type CatalogListResponse struct {
	Entries    []CatalogEntry `json:"entries"`
	Page       int            `json:"page"`
	TotalDocs  int            `json:"total_docs"`
	TotalPages int            `json:"total_pages"`
}
