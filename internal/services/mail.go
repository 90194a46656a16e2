package services

import (
	"fmt"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

func SendInvitationEmail(toEmail, inviterName, loginURL string) error {
	from := mail.NewEmail("Penguin Query", os.Getenv("MAIL_FROM_ADDRESS"))
	subject := fmt.Sprintf("%s has invited you to Penguin Query", inviterName)
	to := mail.NewEmail("New User", toEmail)

	htmlContent := fmt.Sprintf(`
        <div style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
			<h1 style="color: #2c3e50;">You've been invited</h1>
			<p>Hello,</p>
			<p><strong>%s</strong> has invited you to Penguin Query, where you can upload spreadsheets and share restricted query links over them.</p>
			<a href="%s/login" style="display: inline-block; background-color: #3498db; color: #ffffff; text-decoration: none; padding: 12px 24px; border-radius: 4px; font-weight: bold; margin-top: 20px;">Sign in</a>
			<p>If you weren't expecting this invitation you can ignore this email.</p>
		</div>
        `, inviterName, loginURL)

	plainTextContent := fmt.Sprintf("%s has invited you to Penguin Query. Sign in here: %s/login", inviterName, loginURL)

	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	if _, err := client.Send(message); err != nil {
		return err
	}
	return nil
}
