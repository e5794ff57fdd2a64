package email

import (
	"fmt"
	"net/smtp"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
	send sendFunc
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
		send: smtp.SendMail,
	}
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to string, summary OrderSummary) error {
	body, err := BuildOrderConfirmationBody(summary)
	if err != nil {
		return fmt.Errorf("rendering confirmation email: %w", err)
	}
	subject := fmt.Sprintf("Order confirmation %s", summary.Number)
	return s.deliver(to, subject, body)
}

// SendStatusUpdate sends a lifecycle notification
func (s *Service) SendStatusUpdate(to string, update StatusUpdate) error {
	body, err := BuildStatusUpdateBody(update)
	if err != nil {
		return fmt.Errorf("rendering status email: %w", err)
	}
	subject := fmt.Sprintf("%s: order %s", update.Headline, update.Number)
	return s.deliver(to, subject, body)
}

func (s *Service) deliver(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.send(addr, nil, s.from, []string{to}, []byte(msg))
}
