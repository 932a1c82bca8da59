package notify

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/projtrack/apiserver/config"
	"gopkg.in/gomail.v2"
)

// SMTPSender delivers notifications as HTML email via SMTP.
type SMTPSender struct {
	dialer      *gomail.Dialer
	from        string
	appName     string
	frontendURL string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer:      gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:        cfg.From,
		appName:     cfg.AppName,
		frontendURL: cfg.FrontendURL,
	}
}

func (s *SMTPSender) Send(ctx context.Context, n Notification) error {
	var subject, body string
	switch n.Kind {
	case KindVerificationCode:
		subject = fmt.Sprintf("Verify your %s account", s.appName)
		body = s.codeEmailHTML("Verify Your Email Address",
			fmt.Sprintf("Hi %s,", n.FirstName),
			"Thank you for registering! Please use the verification code below to complete your registration:",
			n.Code,
			"If you didn't create an account with us, please ignore this email.")
	case KindPasswordResetCode:
		subject = fmt.Sprintf("Reset your %s password", s.appName)
		resetLink := fmt.Sprintf("%s/reset-password?email=%s&code=%s",
			s.frontendURL, url.QueryEscape(n.To), url.QueryEscape(n.Code))
		body = s.codeEmailHTML("Reset Your Password",
			fmt.Sprintf("Hi %s,", n.FirstName),
			fmt.Sprintf(`We received a request to reset your password. Use the code below or follow <a href=%q>this link</a>:`, resetLink),
			n.Code,
			"If you didn't request a password reset, please ignore this email or contact support if you have concerns.")
	case KindStatusUpdate:
		subject = fmt.Sprintf("Project Status Update - %s", n.ProjectName)
		body = s.statusEmailHTML(n.ProjectName, n.OldStatus, n.NewStatus)
	default:
		return fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", n.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		// Status updates are not critical; swallow so the worker does
		// not redeliver them forever.
		if n.Kind == KindStatusUpdate {
			log.Printf("notify: status update email to %s dropped: %v", n.To, err)
			return nil
		}
		return fmt.Errorf("send %s email to %s: %w", n.Kind, n.To, err)
	}
	return nil
}

func (s *SMTPSender) codeEmailHTML(heading, greeting, intro, code, footer string) string {
	return fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif;">
	<h1 style="color: #2563eb;">%s</h1>
	<h2>%s</h2>
	<p>%s</p>
	<p>%s</p>
	<div style="border: 2px dashed #2563eb; padding: 20px; text-align: center;">
		<span style="font-size: 32px; font-weight: bold; letter-spacing: 8px;">%s</span>
	</div>
	<p>This code will expire in <strong>15 minutes</strong>.</p>
	<p>%s</p>
	<hr>
	<p style="font-size: 12px; color: #999;">This is an automated message from %s. Please do not reply to this email.</p>
	</body></html>`, s.appName, heading, greeting, intro, code, footer, s.appName)
}

func (s *SMTPSender) statusEmailHTML(projectName, oldStatus, newStatus string) string {
	return fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif;">
	<h1 style="color: #2563eb;">%s</h1>
	<h2>Project Status Update</h2>
	<p>The status of your project has been updated.</p>
	<div style="background-color: #f8fafc; padding: 20px;">
		<p style="font-size: 18px; font-weight: bold;">%s</p>
		<p>%s &rarr; <strong>%s</strong></p>
	</div>
	<hr>
	<p style="font-size: 12px; color: #999;">This is an automated message from %s. Please do not reply to this email.</p>
	</body></html>`, s.appName, projectName, oldStatus, newStatus, s.appName)
}

// LogSender writes notifications to the process log instead of sending
// email. It is the developer-mode fallback when no SMTP or broker is
// configured.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (LogSender) Send(ctx context.Context, n Notification) error {
	switch n.Kind {
	case KindStatusUpdate:
		log.Printf("notify [DEV]: %s for %q to %s: %s -> %s", n.Kind, n.ProjectName, n.To, n.OldStatus, n.NewStatus)
	default:
		log.Printf("notify [DEV]: %s to %s: code %s", n.Kind, n.To, n.Code)
	}
	return nil
}
