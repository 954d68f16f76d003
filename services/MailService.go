package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"time"

	"github.com/JayJosh846/wishy/config"
	"github.com/sirupsen/logrus"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer prefers the Brevo HTTP API, then plain SMTP, and otherwise only
// logs outgoing mail.
func NewMailer(cfg *config.Config, log *logrus.Logger) Mailer {
	switch {
	case cfg.BrevoAPIKey != "":
		return &BrevoMailer{
			apiKey:      cfg.BrevoAPIKey,
			senderEmail: cfg.SenderEmail,
			senderName:  cfg.SenderName,
			endpoint:    brevoEndpoint,
			client:      &http.Client{Timeout: 10 * time.Second},
		}
	case cfg.SMTPHost != "":
		return &SMTPMailer{
			host:     cfg.SMTPHost,
			port:     cfg.SMTPPort,
			username: cfg.SMTPUser,
			password: cfg.SMTPPass,
			from:     cfg.SenderEmail,
		}
	default:
		return &LogMailer{log: log}
	}
}

type BrevoMailer struct {
	apiKey      string
	senderEmail string
	senderName  string
	endpoint    string
	client      *http.Client
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent,omitempty"`
	TextContent string         `json:"textContent,omitempty"`
}

func (m *BrevoMailer) Send(ctx context.Context, msg Message) error {
	requestBodyJSON, err := json.Marshal(brevoRequest{
		Sender:      brevoContact{Email: m.senderEmail, Name: m.senderName},
		To:          []brevoContact{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
		TextContent: msg.Text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(requestBodyJSON))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("api-key", m.apiKey)

	res, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("brevo responded %d: %s", res.StatusCode, body)
	}
	return nil
}

type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	body := msg.Text
	contentType := "text/plain; charset=UTF-8"
	if msg.HTML != "" {
		body = msg.HTML
		contentType = "text/html; charset=UTF-8"
	}

	raw := "From: " + m.from + "\r\n" +
		"To: " + msg.To + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: " + contentType + "\r\n\r\n" +
		body

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{msg.To}, []byte(raw))
}

// LogMailer is used when no mail provider is configured.
type LogMailer struct {
	log *logrus.Logger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Mail provider not configured, message not delivered")
	return nil
}

func verificationEmail(code string, appURL string) Message {
	if appURL == "" {
		appURL = "https://wishy.app"
	}
	html := fmt.Sprintf(`<div style="font-family:Inter,system-ui,sans-serif;background:#f7f7fb;padding:24px">
  <div style="max-width:560px;margin:0 auto;background:#ffffff;border-radius:16px;overflow:hidden">
    <div style="background:linear-gradient(135deg,#7c3aed,#a78bfa);padding:28px 24px;color:#fff">
      <div style="font-size:24px;font-weight:700">Your Wishy verification code</div>
    </div>
    <div style="padding:28px 24px">
      <div style="font-size:32px;letter-spacing:6px;font-weight:800;text-align:center">%s</div>
      <div style="margin-top:18px;color:#4b5563;font-size:14px">This code expires in 10 minutes.</div>
      <div style="margin-top:24px;font-size:14px">If you did not request this, you can ignore this email.</div>
    </div>
    <div style="padding:18px 24px;border-top:1px solid #eee;font-size:12px"><a href="%s">Open Wishy</a></div>
  </div>
</div>`, code, appURL)

	return Message{
		Subject: "Your Wishy verification code",
		Text:    fmt.Sprintf("Your Wishy verification code is %s. It expires in 10 minutes.", code),
		HTML:    html,
	}
}
