package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/nextwallet-vault/internal/config"
	"github.com/nextwallet-vault/internal/domain"
)

// Mailer delivers one-time codes by email.
type Mailer struct {
	addr string
	host string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg *config.Config) *Mailer {
	m := &Mailer{
		addr: fmt.Sprintf("%s:%s", cfg.SMTPHost, cfg.SMTPPort),
		host: cfg.SMTPHost,
		from: cfg.SMTPFrom,
		send: smtp.SendMail,
	}
	if cfg.SMTPUsername != "" {
		m.auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return m
}

// SendCode mails code to the address. The expiry is stated in the body so the
// user knows how long the screen stays usable.
func (m *Mailer) SendCode(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("recipient %q: %w", to, domain.ErrBadRequest)
	}
	mins := int(domain.VerificationWindow.Minutes())
	body := fmt.Sprintf("Your NextWallet verification code is %s.\r\nIt expires in %d minutes.\r\n", code, mins)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, "Your verification code", body)
	return m.send(m.addr, m.auth, m.from, []string{to}, []byte(msg))
}
