package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/internal/service"
)

// tableName maps a catalog kind to its fixed table identifier. Never
// interpolate user input into the identifier.
func tableName(k model.CatalogKind) string {
	switch k {
	case model.KindColor:
		return "colors"
	case model.KindSize:
		return "sizes"
	case model.KindTag:
		return "tags"
	case model.KindCategory:
		return "categories"
	}
	return ""
}

// CatalogRepository provides data access for the four name catalogs.
type CatalogRepository struct {
	pool PoolInterface
}

// NewCatalogRepository creates a new CatalogRepository with the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// NewCatalogRepositoryWithPool creates a CatalogRepository with a custom pool
// interface. This is primarily used for testing.
func NewCatalogRepositoryWithPool(pool PoolInterface) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// Insert inserts a catalog entry.
// Returns service.ErrCatalogNameExists when the name is taken.
func (r *CatalogRepository) Insert(ctx context.Context, kind model.CatalogKind, e *model.CatalogEntry) error {
	var err error
	if kind == model.KindColor {
		_, err = r.pool.Exec(ctx,
			`INSERT INTO colors (id, name, hex_code) VALUES ($1, $2, $3)`, e.ID, e.Name, e.HexCode)
	} else {
		_, err = r.pool.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (id, name) VALUES ($1, $2)`, tableName(kind)), e.ID, e.Name)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCatalogNameExists
		}
		return fmt.Errorf("insert %s: %w", kind, err)
	}
	return nil
}

// Update renames a catalog entry (and hex code for colors).
// Returns service.ErrCatalogItemNotFound if the id does not exist.
func (r *CatalogRepository) Update(ctx context.Context, kind model.CatalogKind, e *model.CatalogEntry) error {
	var tag pgconn.CommandTag
	var err error
	if kind == model.KindColor {
		tag, err = r.pool.Exec(ctx,
			`UPDATE colors SET name = $2, hex_code = $3 WHERE id = $1`, e.ID, e.Name, e.HexCode)
	} else {
		tag, err = r.pool.Exec(ctx,
			fmt.Sprintf(`UPDATE %s SET name = $2 WHERE id = $1`, tableName(kind)), e.ID, e.Name)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCatalogNameExists
		}
		return fmt.Errorf("update %s %s: %w", kind, e.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCatalogItemNotFound
	}
	return nil
}

// GetByID retrieves one catalog entry.
// Returns nil, nil if the entry is not found.
func (r *CatalogRepository) GetByID(ctx context.Context, kind model.CatalogKind, id string) (*model.CatalogEntry, error) {
	var e model.CatalogEntry
	var err error
	if kind == model.KindColor {
		err = r.pool.QueryRow(ctx,
			`SELECT id, name, hex_code FROM colors WHERE id = $1`, id).Scan(&e.ID, &e.Name, &e.HexCode)
	} else {
		err = r.pool.QueryRow(ctx,
			fmt.Sprintf(`SELECT id, name FROM %s WHERE id = $1`, tableName(kind)), id).Scan(&e.ID, &e.Name)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	return &e, nil
}

// List returns a page of catalog entries ordered by name.
func (r *CatalogRepository) List(ctx context.Context, kind model.CatalogKind, limit, offset int) ([]model.CatalogEntry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT count(*) FROM %s`, tableName(kind))).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", kind, err)
	}

	var rows pgx.Rows
	var err error
	if kind == model.KindColor {
		rows, err = r.pool.Query(ctx,
			`SELECT id, name, hex_code FROM colors ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	} else {
		rows, err = r.pool.Query(ctx,
			fmt.Sprintf(`SELECT id, name FROM %s ORDER BY name LIMIT $1 OFFSET $2`, tableName(kind)), limit, offset)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	entries := []model.CatalogEntry{}
	for rows.Next() {
		var e model.CatalogEntry
		if kind == model.KindColor {
			err = rows.Scan(&e.ID, &e.Name, &e.HexCode)
		} else {
			err = rows.Scan(&e.ID, &e.Name)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s row: %w", kind, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate %s rows: %w", kind, err)
	}
	return entries, total, nil
}
