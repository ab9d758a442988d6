// Package mailer sends transactional storefront email.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"

	"github.com/QuocDL/bitis-be/internal/config"
	"github.com/QuocDL/bitis-be/internal/model"
)

// Mailer sends order lifecycle email. Implementations must be safe for
// concurrent use.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order *model.Order) error
	SendPasswordReset(ctx context.Context, to, password string) error
}

// New returns a Resend-backed mailer, or a disabled no-op mailer when no API
// key is configured (local development).
func New(cfg config.MailConfig) Mailer {
	if cfg.ResendAPIKey == "" {
		log.Warn().Msg("mail disabled: no RESEND_API_KEY configured")
		return noopMailer{}
	}
	return &resendMailer{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   cfg.FromAddress,
	}
}

type resendMailer struct {
	client *resend.Client
	from   string
}

func (m *resendMailer) SendOrderConfirmation(ctx context.Context, order *model.Order) error {
	var items strings.Builder
	for _, it := range order.Items {
		fmt.Fprintf(&items, "<tr><td>%s (%s/%s)</td><td>x%d</td><td>%s</td></tr>",
			it.Name, it.Color, it.Size, it.Quantity, it.Price.StringFixed(0))
	}

	html := fmt.Sprintf(`<h2>Cảm ơn bạn đã đặt hàng!</h2>
<p>Mã đơn hàng: <strong>%s</strong></p>
<table>%s</table>
<p>Phí vận chuyển: %s</p>
<p>Giảm giá voucher: %s</p>
<p><strong>Tổng cộng: %s</strong></p>`,
		order.ID, items.String(),
		order.ShippingFee.StringFixed(0),
		order.VoucherDiscount.StringFixed(0),
		order.TotalPrice.StringFixed(0))

	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{order.CustomerInfo.Email},
		Subject: fmt.Sprintf("Xác nhận đơn hàng %s", order.ID),
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("send order confirmation: %w", err)
	}
	return nil
}

func (m *resendMailer) SendPasswordReset(ctx context.Context, to, password string) error {
	html := fmt.Sprintf(`<h2>Đặt lại mật khẩu</h2>
<p>Mật khẩu mới của bạn là: <strong>%s</strong></p>
<p>Vui lòng đăng nhập và đổi mật khẩu ngay.</p>`, password)

	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: "Đặt lại mật khẩu",
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

type noopMailer struct{}

func (noopMailer) SendOrderConfirmation(ctx context.Context, order *model.Order) error {
	log.Info().Str("order_id", order.ID).Msg("mail disabled, skipping order confirmation")
	return nil
}

func (noopMailer) SendPasswordReset(ctx context.Context, to, password string) error {
	log.Info().Str("to", to).Msg("mail disabled, skipping password reset")
	return nil
}
