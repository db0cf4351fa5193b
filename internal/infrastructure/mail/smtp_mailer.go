package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"time"

	"go.uber.org/zap"

	"github.com/wcpa/backend/internal/infrastructure/config"
)

// Attachment is a file sent along with a message
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is an outbound email
type Message struct {
	To          string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// SMTPMailer sends emails via SMTP
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
	// send is swappable for tests
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a mailer from SMTP configuration
func NewSMTPMailer(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		logger: logger,
		send:   smtp.SendMail,
	}
}

// Send delivers a message. A delivery failure is returned to the caller,
// who decides whether it is fatal for the surrounding flow.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail: recipient cannot be empty")
	}

	raw, err := buildMessage(m.cfg.Sender, msg)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	start := time.Now()
	if err := m.send(addr, auth, m.cfg.Sender, []string{msg.To}, raw); err != nil {
		m.logger.Error("Failed to send email",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return fmt.Errorf("mail: failed to send to %s: %w", msg.To, err)
	}

	m.logger.Info("Email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachment_count", len(msg.Attachments)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// buildMessage assembles the raw RFC 5322 message. Without attachments the
// body is plain text/html; with attachments it becomes multipart/mixed with
// base64-encoded parts.
func buildMessage(sender string, msg Message) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", sender)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Attachments) == 0 {
		buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		buf.WriteString(msg.HTMLBody)
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", "text/html; charset=UTF-8")
	bodyPart, err := writer.CreatePart(bodyHeader)
	if err != nil {
		return nil, fmt.Errorf("mail: failed to create body part: %w", err)
	}
	if _, err := bodyPart.Write([]byte(msg.HTMLBody)); err != nil {
		return nil, fmt.Errorf("mail: failed to write body: %w", err)
	}

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", contentType)
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("mail: failed to create attachment part: %w", err)
		}
		encoded := base64.StdEncoding.EncodeToString(att.Data)
		if _, err := part.Write([]byte(encoded)); err != nil {
			return nil, fmt.Errorf("mail: failed to write attachment: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("mail: failed to finalize message: %w", err)
	}
	return buf.Bytes(), nil
}
