// Package mail delivers reminder notifications.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/felixgeelhaar/cyclist/internal/reminders/domain"
)

var (
	// ErrNotConfigured is returned when no SMTP relay is configured.
	ErrNotConfigured = errors.New("smtp relay not configured")
	// ErrInvalidRecipient marks a notification whose address cannot be used.
	ErrInvalidRecipient = errors.New("invalid recipient address")
)

// SMTPConfig configures the SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// Secure uses implicit TLS. Otherwise STARTTLS is used when offered.
	Secure  bool
	From    string
	Timeout time.Duration
}

// sender is the part of *gomail.Client the dispatcher uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPDispatcher sends notifications through an SMTP relay.
type SMTPDispatcher struct {
	from   string
	client sender
}

// NewSMTPDispatcher creates a dispatcher for config.
func NewSMTPDispatcher(config SMTPConfig) (*SMTPDispatcher, error) {
	if config.Host == "" {
		return nil, ErrNotConfigured
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	opts := []gomail.Option{
		gomail.WithPort(config.Port),
		gomail.WithTimeout(config.Timeout),
	}
	if config.Secure {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if config.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(config.Username),
			gomail.WithPassword(config.Password),
		)
	}

	client, err := gomail.NewClient(config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPDispatcher{from: config.From, client: client}, nil
}

// Validate checks that n can be rendered into a message without sending it.
func (d *SMTPDispatcher) Validate(n domain.Notification) error {
	_, err := d.buildMessage(n)
	return err
}

// Dispatch sends n as a multipart text and HTML message.
func (d *SMTPDispatcher) Dispatch(ctx context.Context, n domain.Notification) error {
	msg, err := d.buildMessage(n)
	if err != nil {
		return err
	}
	if err := d.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", n.To, err)
	}
	return nil
}

// IsRecipientRejected reports whether err only concerns the recipient of a
// single message: an unusable address or a permanent RCPT TO rejection.
// The relay itself is healthy in that case.
func IsRecipientRejected(err error) bool {
	if errors.Is(err, ErrInvalidRecipient) {
		return true
	}
	var sendErr *gomail.SendError
	if errors.As(err, &sendErr) {
		return sendErr.Reason == gomail.ErrSMTPRcptTo && !sendErr.IsTemp()
	}
	return false
}

func (d *SMTPDispatcher) buildMessage(n domain.Notification) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(d.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(n.To); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
	}
	msg.Subject(n.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, n.TextBody)
	if n.HTMLBody != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, n.HTMLBody)
	}
	return msg, nil
}
