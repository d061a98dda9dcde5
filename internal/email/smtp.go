// Package email delivers account notices over SMTP.
package email

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends the sign-in PIN to newly created employees.
type Mailer struct {
	Config  Config
	Timeout time.Duration
}

func NewMailer(cfg Config) *Mailer {
	return &Mailer{Config: cfg, Timeout: 10 * time.Second}
}

func (m *Mailer) SendPIN(to string, name string, pin string) error {
	subject := "Your Ero Security sign-in PIN"
	body := PINMessage(name, pin)
	return m.send(to, subject, body)
}

// PINMessage is the plain-text body of the PIN notice.
func PINMessage(name string, pin string) string {
	greeting := "Hello"
	if name = strings.TrimSpace(name); name != "" {
		greeting += " " + name
	}
	return greeting + ",\n\nAn account has been created for you. Sign in to the guard app with this PIN: " + pin +
		"\n\nKeep it private. Ask your administrator if you need a new one."
}

func (m *Mailer) send(to string, subject string, body string) error {
	cfg := m.Config
	message := buildMessage(cfg.From, to, subject, body)

	addr := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))
	client, err := smtpClient(addr, cfg.Host, cfg.Port, m.Timeout)
	if err != nil {
		return err
	}
	defer client.Close()

	if cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
			return err
		}
	}
	if err := client.Mail(parseAddress(cfg.From)); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func smtpClient(addr string, host string, port int, timeout time.Duration) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: timeout}
	if port == 465 {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: host})
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn, host)
	}

	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return client, nil
}

func buildMessage(from string, to string, subject string, body string) string {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"Date: " + time.Now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}
	return strings.Join(headers, "\r\n")
}

func parseAddress(from string) string {
	start := strings.Index(from, "<")
	end := strings.Index(from, ">")
	if start >= 0 && end > start {
		return strings.TrimSpace(from[start+1 : end])
	}
	return strings.TrimSpace(from)
}
