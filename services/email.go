package services

import (
	"fmt"
	"log"
	"strings"

	"osint_casework_go/config"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// SendEmail sends an email using Resend API
func SendEmail(cfg *config.Config, email *Email) error {
	// In test mode, log the email instead of sending
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	if email.HTMLBody == "" && email.TextBody == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	client := resend.NewClient(cfg.ResendAPIKey)
	params := &resend.SendEmailRequest{
		From:    cfg.EmailFrom,
		To:      email.To,
		Subject: email.Subject,
	}
	if email.HTMLBody != "" {
		params.Html = email.HTMLBody
	}
	if email.TextBody != "" {
		params.Text = email.TextBody
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %v", err)
	}
	log.Printf("[Email] sent via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

func logEmailToConsole(email *Email) {
	separator := strings.Repeat("=", 80)
	log.Printf("\n%s\nEMAIL (test mode, not sent)\n%s", separator, separator)
	log.Printf("To: %v", email.To)
	log.Printf("Subject: %s", email.Subject)
	log.Printf("\n--- TEXT BODY ---\n%s", email.TextBody)
	log.Printf("%s\n", separator)
}

// SendEmailAsync sends an email in a goroutine so handlers never block on
// the mail provider.
func SendEmailAsync(cfg *config.Config, email *Email) {
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}
	go func() {
		if err := SendEmail(cfg, emailCopy); err != nil {
			log.Printf("[Email] async send failed: %v", err)
		}
	}()
}

// BuildReportReadyEmail notifies the configured recipient that a case
// report export finished.
func BuildReportReadyEmail(cfg *config.Config, caseID uint, caseTitle string, reportPath string, artifactCount int) *Email {
	if cfg.EmailTo == "" {
		return nil
	}
	subject := fmt.Sprintf("Отчёт по делу #%d готов", caseID)
	text := fmt.Sprintf(
		"Отчёт по делу #%d (%s) сформирован.\nАртефактов: %d\nФайл: %s\n",
		caseID, caseTitle, artifactCount, reportPath,
	)
	return &Email{
		To:       []string{cfg.EmailTo},
		Subject:  subject,
		TextBody: text,
	}
}
