package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	gosmtp "net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keyxmakerx/courier/internal/plugins/settings"
)

// dialTimeout bounds the TCP connect to the relay. net/smtp has no context
// support, so the dial timeout is the only cancellation we get.
const dialTimeout = 10 * time.Second

// SMTPSender delivers messages over a direct SMTP relay connection. One
// connection per call, no pooling.
//
// TLS rule: port 465 means implicit TLS; any other port dials plaintext
// and upgrades with STARTTLS when the server offers it. This replaces the
// mixed secure-flag handling the old implementation had at different call
// sites.
type SMTPSender struct{}

// NewSMTPSender creates an SMTP transport.
func NewSMTPSender() *SMTPSender {
	return &SMTPSender{}
}

// Send transmits one message using the resolved settings. All recipients
// go into a single message; the To header joins them with ", ". Returns
// the locally generated Message-ID on success.
func (s *SMTPSender) Send(ctx context.Context, cfg settings.EmailSettings, msg *Message) (*Result, error) {
	addr := net.JoinHostPort(cfg.SMTPHost, cfg.SMTPPort)
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), cfg.SMTPHost)

	body, err := buildMessage(cfg, msg, messageID)
	if err != nil {
		return nil, err
	}

	client, err := s.connect(ctx, addr, cfg)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if cfg.SMTPUser != "" {
		auth := gosmtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return nil, fmt.Errorf("authenticating: %w", err)
		}
	}

	if err := client.Mail(cfg.FromEmail); err != nil {
		return nil, fmt.Errorf("MAIL FROM: %w", err)
	}
	for _, recipient := range msg.To {
		if err := client.Rcpt(recipient); err != nil {
			return nil, fmt.Errorf("RCPT TO %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return nil, fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing data: %w", err)
	}
	if err := client.Quit(); err != nil {
		return nil, fmt.Errorf("QUIT: %w", err)
	}

	return &Result{MessageID: messageID}, nil
}

// connect dials the relay and returns a ready SMTP client. Implicit TLS on
// port 465, otherwise plaintext with opportunistic STARTTLS.
func (s *SMTPSender) connect(ctx context.Context, addr string, cfg settings.EmailSettings) (*gosmtp.Client, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}
	tlsConfig := &tls.Config{ServerName: cfg.SMTPHost, MinVersion: tls.VersionTLS12}

	if cfg.SMTPPort == "465" {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s (TLS): %w", addr, err)
		}
		client, err := gosmtp.NewClient(conn, cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("creating smtp client: %w", err)
		}
		return client, nil
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	client, err := gosmtp.NewClient(conn, cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("starting TLS: %w", err)
		}
	}

	return client, nil
}

// buildMessage assembles the RFC 2822 message. Text-only and HTML-only
// bodies get a single part; both together become multipart/alternative
// with the HTML part last (preferred by readers).
func buildMessage(cfg settings.EmailSettings, msg *Message, messageID string) (string, error) {
	from := mail.Address{Name: cfg.FromName, Address: cfg.FromEmail}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", from.String()))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	b.WriteString(fmt.Sprintf("Message-ID: %s\r\n", messageID))
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case msg.Text != "" && msg.HTML != "":
		boundary := "b-" + uuid.NewString()
		b.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", boundary))
		b.WriteString("\r\n")
		b.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.Text)
		b.WriteString(fmt.Sprintf("\r\n--%s\r\n", boundary))
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.HTML)
		b.WriteString(fmt.Sprintf("\r\n--%s--\r\n", boundary))
	case msg.HTML != "":
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.HTML)
	default:
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.Text)
	}

	return b.String(), nil
}
