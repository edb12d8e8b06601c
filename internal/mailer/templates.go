package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// AdminAlertTimeLayout formats the signup time in admin alerts.
const AdminAlertTimeLayout = "Jan 2, 2006 15:04:05 MST"

// Templates renders the transactional email bodies.
type Templates struct {
	confirmation *template.Template
	adminAlert   *template.Template
}

type confirmationData struct {
	Brand string
	Email string
	Year  int
}

type adminAlertData struct {
	Email string
	Time  string
}

// LoadTemplates parses the embedded email templates.
func LoadTemplates() (*Templates, error) {
	confirmation, err := template.ParseFS(templateFS, "templates/confirmation.html")
	if err != nil {
		return nil, fmt.Errorf("parse confirmation template: %w", err)
	}

	adminAlert, err := template.ParseFS(templateFS, "templates/admin_alert.html")
	if err != nil {
		return nil, fmt.Errorf("parse admin alert template: %w", err)
	}

	return &Templates{confirmation: confirmation, adminAlert: adminAlert}, nil
}

// Confirmation renders the welcome email sent to a new signup.
func (t *Templates) Confirmation(brand, email string, now time.Time) (string, error) {
	var buf bytes.Buffer
	data := confirmationData{Brand: brand, Email: email, Year: now.Year()}
	if err := t.confirmation.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: confirmation: %w", ErrRender, err)
	}
	return buf.String(), nil
}

// AdminAlert renders the notice sent to the site owner.
func (t *Templates) AdminAlert(email string, at time.Time) (string, error) {
	var buf bytes.Buffer
	data := adminAlertData{Email: email, Time: at.UTC().Format(AdminAlertTimeLayout)}
	if err := t.adminAlert.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: admin alert: %w", ErrRender, err)
	}
	return buf.String(), nil
}
