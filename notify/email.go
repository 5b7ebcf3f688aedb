package notify

import (
	"context"
	"fmt"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"gopkg.in/gomail.v2"
)

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

// Email sends the customer a receipt once an order is confirmed.
type Email struct {
	from   string
	sender mailSender
}

func NewEmail(cfg SMTPConfig) *Email {
	return &Email{
		from:   cfg.From,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (e *Email) Notify(_ context.Context, kind Kind, o *models.Order) error {
	if kind != KindOrderConfirmed || o.ContactEmail == "" {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", o.ContactEmail)
	m.SetHeader("Subject", subject(kind, o))
	m.SetBody("text/plain", renderText(kind, o))
	if err := e.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send email for %s: %w", o.OrderNumber, err)
	}
	return nil
}
