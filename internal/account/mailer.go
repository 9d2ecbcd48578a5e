package account

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer delivers verification codes. Delivery is best effort: a false
// return means the code was not mailed and the caller should tell the user
// to look elsewhere for it.
type Mailer interface {
	SendOTP(recipient string, code string) bool
}

// SMTPMailer sends the verification mail over implicit TLS. When the
// credentials are missing it logs the code instead of sending, so local
// setups work without an SMTP account.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	logger   *slog.Logger
}

func NewSMTPMailer(host string, port int, username, password string, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, logger: logger}
}

func (m *SMTPMailer) SendOTP(recipient string, code string) bool {
	if m.username == "" || m.password == "" {
		m.logger.Warn("smtp credentials missing, otp not mailed",
			slog.String("recipient", recipient),
			slog.String("otp", code))
		return false
	}

	if err := m.send(recipient, code); err != nil {
		m.logger.Error("otp mail failed",
			slog.String("recipient", recipient),
			slog.String("error", err.Error()))
		return false
	}
	m.logger.Info("otp mail sent", slog.String("recipient", recipient))
	return true
}

func (m *SMTPMailer) send(recipient string, code string) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.host})
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(m.username); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := writer.Write([]byte(otpMessage(m.username, recipient, code))); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write mail body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish mail body: %w", err)
	}
	return client.Quit()
}

func otpMessage(from, to, code string) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Your Verification Code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString("<html><body>")
	b.WriteString("<div style=\"font-family: Arial, sans-serif; text-align: center; color: #333;\">")
	b.WriteString("<h2>Welcome to Query Genie!</h2>")
	b.WriteString("<p>Your one-time verification code is:</p>")
	b.WriteString("<p style=\"font-size: 24px; font-weight: bold; letter-spacing: 2px; color: #007BFF;\">" + code + "</p>")
	b.WriteString("<p>This code will expire in 5 minutes.</p>")
	b.WriteString("</div></body></html>\r\n")
	return b.String()
}
