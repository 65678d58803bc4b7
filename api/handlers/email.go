package handlers

import (
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	templates "github.com/mindsell/tutor-portal-api/templates/html"
)

// Mailer sends a transactional email to the administrator. Booking
// notifications are fire-and-forget: failures are logged, never surfaced to
// the student.
type Mailer interface {
	Send(subject, body string) error
}

// SendgridMailer sends admin notifications through the SendGrid API
type SendgridMailer struct {
	APIKey     string
	AdminEmail string
}

// Send delivers a branded HTML email to the admin address
func (s SendgridMailer) Send(subject, body string) error {
	from := mail.NewEmail("MindSell Portal", "noreply@mindsell.it")
	to := mail.NewEmail("MindSell", s.AdminEmail)
	htmlContent := templates.RenderGenericEmail(subject, body)
	message := mail.NewSingleEmail(from, subject, to, body, htmlContent)
	client := sendgrid.NewSendClient(s.APIKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
