// Package mailer sends the waitlist's transactional emails over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/gomail.v2"
)

// Mailer errors.
var (
	ErrDial       = errors.New("smtp session unavailable")
	ErrSendFailed = errors.New("smtp send failed")
	ErrRender     = errors.New("email template render failed")
)

// idleTimeout bounds how long a session may sit unused before it is redialled.
// Most servers drop idle clients after 30-60s.
const idleTimeout = 30 * time.Second

// Config holds SMTP session and message settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Brand    string
}

// dialer opens an SMTP session. *gomail.Dialer satisfies it.
type dialer interface {
	Dial() (gomail.SendCloser, error)
}

// SMTP sends email over one authenticated session shared by all requests.
// The session is dialled on first use, reused while fresh, and dropped after a
// send error or when idle too long.
type SMTP struct {
	dialer    dialer
	from      string
	brand     string
	templates *Templates
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	session  gomail.SendCloser
	lastUsed time.Time
}

// NewSMTP builds an SMTP mailer. Port 465 uses implicit TLS; any other port
// upgrades with STARTTLS. Server certificates are always verified.
func NewSMTP(cfg Config, logger *slog.Logger) (*SMTP, error) {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.Port == 465
	d.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	return newSMTP(d, cfg, logger)
}

func newSMTP(d dialer, cfg Config, logger *slog.Logger) (*SMTP, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	from := cfg.From
	if from == "" {
		from = cfg.User
	}

	return &SMTP{
		dialer:    d,
		from:      from,
		brand:     cfg.Brand,
		templates: templates,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// SendUserConfirmation sends the welcome email to a new signup.
func (s *SMTP) SendUserConfirmation(ctx context.Context, email string) error {
	body, err := s.templates.Confirmation(s.brand, email, s.now())
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.brand)
	m.SetHeader("To", email)
	m.SetHeader("Subject", fmt.Sprintf("Welcome to %s's Exclusive Waitlist", s.brand))
	m.SetBody("text/html", body)

	return s.send(ctx, m)
}

// SendAdminAlert tells the site owner about a new signup.
func (s *SMTP) SendAdminAlert(ctx context.Context, adminAddress, email string, at time.Time) error {
	body, err := s.templates.AdminAlert(email, at)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.brand+" System")
	m.SetHeader("To", adminAddress)
	m.SetHeader("Subject", "New Waitlist Entry")
	m.SetBody("text/html", body)

	return s.send(ctx, m)
}

func (s *SMTP) send(ctx context.Context, m *gomail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.session != nil && now.Sub(s.lastUsed) > idleTimeout {
		s.dropSessionLocked()
	}

	if s.session == nil {
		session, err := s.dialer.Dial()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDial, err)
		}
		s.session = session
		s.logger.Debug("smtp session opened")
	}

	if err := gomail.Send(s.session, m); err != nil {
		s.dropSessionLocked()
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	s.lastUsed = now
	return nil
}

// dropSessionLocked closes and forgets the current session. Caller holds mu.
func (s *SMTP) dropSessionLocked() {
	if s.session == nil {
		return
	}
	if err := s.session.Close(); err != nil {
		s.logger.Debug("smtp session close failed", "error", err)
	}
	s.session = nil
}

// Close ends the shared session, if one is open.
func (s *SMTP) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}

// Noop accepts every email without sending it. Used when SMTP is not configured.
type Noop struct {
	logger *slog.Logger
}

// NewNoop returns a mailer that only logs.
func NewNoop(logger *slog.Logger) *Noop {
	return &Noop{logger: logger}
}

// SendUserConfirmation logs and returns nil.
func (n *Noop) SendUserConfirmation(_ context.Context, email string) error {
	n.logger.Debug("email disabled, skipping confirmation", "to", email)
	return nil
}

// SendAdminAlert logs and returns nil.
func (n *Noop) SendAdminAlert(_ context.Context, adminAddress, email string, _ time.Time) error {
	n.logger.Debug("email disabled, skipping admin alert", "to", adminAddress, "signup", email)
	return nil
}

// Close is a no-op.
func (n *Noop) Close(_ context.Context) error {
	return nil
}
