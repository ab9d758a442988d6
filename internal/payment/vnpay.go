// Package payment implements the VNPay gateway boundary: building signed
// redirect URLs and verifying callback signatures.
package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/QuocDL/bitis-be/internal/config"
)

// VNPay response codes.
const (
	CodeSuccess         = "00"
	CodeOrderNotFound   = "01"
	CodeInvalidChecksum = "97"
)

// VNPay sends timestamps in the merchant's local zone.
var vnpayLocation = mustLoadLocation("Asia/Ho_Chi_Minh")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}

// VNPay signs and verifies payment-gateway requests.
type VNPay struct {
	cfg config.VNPayConfig
	now func() time.Time
}

// NewVNPay creates a VNPay client from configuration.
func NewVNPay(cfg config.VNPayConfig) *VNPay {
	return &VNPay{cfg: cfg, now: time.Now}
}

// PaymentRequest holds the per-order inputs for a redirect URL.
type PaymentRequest struct {
	OrderID  string
	Amount   decimal.Decimal
	IPAddr   string
	BankCode string
	Locale   string
}

// BuildPaymentURL returns the signed gateway redirect URL for an order.
// The gateway expects the amount multiplied by 100 and parameters signed with
// HMAC-SHA512 over the sorted, URL-encoded query string.
func (p *VNPay) BuildPaymentURL(req PaymentRequest) string {
	locale := req.Locale
	if locale == "" {
		locale = "vn"
	}

	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    p.cfg.TmnCode,
		"vnp_Locale":     locale,
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     req.OrderID,
		"vnp_OrderInfo":  fmt.Sprintf("Thanh toan cho ma GD:%s", req.OrderID),
		"vnp_OrderType":  "other",
		"vnp_Amount":     req.Amount.Mul(decimal.NewFromInt(100)).StringFixed(0),
		"vnp_ReturnUrl":  p.cfg.ReturnURL,
		"vnp_IpAddr":     req.IPAddr,
		"vnp_CreateDate": p.now().In(vnpayLocation).Format("20060102150405"),
	}
	if req.BankCode != "" {
		params["vnp_BankCode"] = req.BankCode
	}

	query := encodeSorted(params)
	signed := p.sign(query)
	return p.cfg.PayURL + "?" + query + "&vnp_SecureHash=" + signed
}

// VerifySignature checks a callback's vnp_SecureHash against the other
// parameters. Returns false when the hash is absent or does not match.
func (p *VNPay) VerifySignature(params map[string]string) bool {
	got := params["vnp_SecureHash"]
	if got == "" {
		return false
	}

	filtered := make(map[string]string, len(params))
	for k, v := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		filtered[k] = v
	}
	want := p.sign(encodeSorted(filtered))
	return hmac.Equal([]byte(strings.ToLower(got)), []byte(want))
}

func (p *VNPay) sign(query string) string {
	mac := hmac.New(sha512.New, []byte(p.cfg.HashSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// encodeSorted builds the canonical query string: keys sorted, values
// URL-encoded with spaces as '+', matching the gateway's signing rules.
func encodeSorted(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}
