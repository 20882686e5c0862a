// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package email sends contact-form notifications over SMTP.
package email

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
	"text/template"
	"time"

	"corpsite/internal/models"
)

// Config holds SMTP configuration.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	NotifyTo []string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Notifier mails new contact messages to the site operators.
type Notifier struct {
	config Config
	auth   smtp.Auth
	send   SendFunc
}

// NewNotifier creates a notifier. Without a host, sender or recipients it
// is disabled and Notify is a no-op.
func NewNotifier(cfg Config) *Notifier {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &Notifier{config: cfg, auth: auth, send: smtp.SendMail}
}

// Enabled reports whether notifications are configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.config.Host != "" && n.config.From != "" && len(n.config.NotifyTo) > 0
}

var contactTemplate = template.Must(template.New("contact").Parse(`New message from the contact form.

Name:    {{.Name}}
Email:   {{.Email}}
{{- with .Phone}}
Phone:   {{.}}{{end}}
{{- with .Company}}
Company: {{.}}{{end}}
Date:    {{.CreatedAt.Format "2006-01-02 15:04 MST"}}

{{.Message}}
`))

// Message builds the RFC 5322 message for a contact submission.
func (n *Notifier) Message(m *models.ContactMessage) ([]byte, error) {
	var body bytes.Buffer
	if err := contactTemplate.Execute(&body, m); err != nil {
		return nil, fmt.Errorf("render contact mail: %w", err)
	}

	subject := "Contact form: " + m.Name
	if m.Subject != nil && *m.Subject != "" {
		subject = "Contact form: " + *m.Subject
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", n.config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(n.config.NotifyTo, ", "))
	fmt.Fprintf(&msg, "Reply-To: %s\r\n", headerValue(m.Email))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(subject)))
	fmt.Fprintf(&msg, "Date: %s\r\n", m.CreatedAt.Format(time.RFC1123Z))
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	msg.WriteString(strings.ReplaceAll(body.String(), "\n", "\r\n"))
	return msg.Bytes(), nil
}

// Notify sends the notification for m. Delivery is best effort: failures
// are logged and never reach the visitor.
func (n *Notifier) Notify(ctx context.Context, m *models.ContactMessage) {
	if !n.Enabled() {
		return
	}
	msg, err := n.Message(m)
	if err != nil {
		slog.Error("contact notification", "error", err, "message_id", m.ID)
		return
	}
	addr := n.config.Host + ":" + n.config.Port
	if err := n.send(addr, n.auth, n.config.From, n.config.NotifyTo, msg); err != nil {
		slog.Warn("contact notification not sent", "error", err, "message_id", m.ID)
		return
	}
	slog.Info("contact notification sent", "message_id", m.ID)
}

// headerValue strips line breaks so user input cannot inject headers.
func headerValue(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
