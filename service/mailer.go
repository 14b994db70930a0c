package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-mail/mail/v2"

	"github.com/kevinaaaquil/bookshelf/models"
)

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

type sender interface {
	DialAndSend(m ...*mail.Message) error
}

// Mailer tells moderators about new suggestions over SMTP.
type Mailer struct {
	from   string
	to     string
	dialer sender
}

// NewMailer returns nil when SMTP or the moderator address is not configured.
func NewMailer(cfg MailConfig) *Mailer {
	if cfg.Host == "" || cfg.To == "" {
		return nil
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	return &Mailer{from: from, to: cfg.To, dialer: d}
}

func (m *Mailer) NotifySuggestion(ctx context.Context, s *models.Suggestion) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", fmt.Sprintf("New %s suggestion", s.Type))
	msg.SetBody("text/plain", suggestionBody(s))
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send suggestion mail: %w", err)
	}
	return nil
}

func suggestionBody(s *models.Suggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Type: %s\n", s.Type)
	if s.SubmittedBy != nil {
		fmt.Fprintf(&b, "Submitted by: %s\n", s.SubmittedBy.Hex())
	} else {
		b.WriteString("Submitted by: anonymous\n")
	}
	fmt.Fprintf(&b, "Id: %s\n\n%s\n", s.ID.Hex(), s.Text)
	return b.String()
}
