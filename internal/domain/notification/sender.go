package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/smtp"
	"time"
)

// Mailer delivers one email. The SMTP relay is an external collaborator;
// implementations should not retry.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one text message through the provider gateway.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, body string) error
}

type smtpMailer struct {
	addr string
	from string
}

func NewSMTPMailer(addr, from string) Mailer {
	return &smtpMailer{addr: addr, from: from}
}

func (m *smtpMailer) SendEmail(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.from, to, subject, body)
	return smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg))
}

type webhookSMS struct {
	url    string
	client *http.Client
}

func NewWebhookSMS(url string) SMSSender {
	return &webhookSMS{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *webhookSMS) SendSMS(ctx context.Context, phone, body string) error {
	if s.url == "" {
		return errors.New("sms gateway is not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"to":      phone,
		"message": body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
