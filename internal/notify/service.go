// Package notify sends the one success or failure email each run ends
// with. An empty SMTP host disables notifications via a noop service.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"pharmatrack/internal/config"
)

// FileResult names one customer file outcome for the email body.
type FileResult struct {
	Customer string
	FileName string
	Message  string
}

// Service defines the notification surface exposed to the workflow.
type Service interface {
	NotifySuccess(ctx context.Context, runID int64, trackerName string, completed, failed []FileResult, attachments []string) error
	NotifyFailure(ctx context.Context, runID int64, trackerName, errorMessage string, attachment string) error
	TestNotification(ctx context.Context) error
}

// NewService builds an SMTP-backed notification service. When no host is
// configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if strings.TrimSpace(cfg.SMTP.Host) == "" {
		return noopService{}
	}
	return &smtpService{cfg: cfg.SMTP}
}

type smtpService struct {
	cfg config.SMTP
}

func (s *smtpService) NotifySuccess(ctx context.Context, runID int64, trackerName string, completed, failed []FileResult, attachments []string) error {
	body := BuildSuccessBody(trackerName, completed, failed)
	msg, err := buildMessage(s.cfg.From, s.cfg.SuccessTo, s.cfg.SuccessCc, s.cfg.SuccessSubject, body, attachments)
	if err != nil {
		return err
	}
	return s.send(ctx, s.cfg.SuccessTo, s.cfg.SuccessCc, msg)
}

func (s *smtpService) NotifyFailure(ctx context.Context, runID int64, trackerName, errorMessage string, attachment string) error {
	body := BuildFailureBody(runID, trackerName, errorMessage)
	var attachments []string
	if attachment != "" {
		attachments = []string{attachment}
	}
	msg, err := buildMessage(s.cfg.From, s.cfg.FailureTo, s.cfg.FailureCc, s.cfg.FailureSubject, body, attachments)
	if err != nil {
		return err
	}
	return s.send(ctx, s.cfg.FailureTo, s.cfg.FailureCc, msg)
}

func (s *smtpService) TestNotification(ctx context.Context) error {
	body := "This is a test notification. If you can read this, SMTP settings are working."
	msg, err := buildMessage(s.cfg.From, s.cfg.SuccessTo, "", "PharmaTrack - Test Notification", body, nil)
	if err != nil {
		return err
	}
	return s.send(ctx, s.cfg.SuccessTo, "", msg)
}

// send delivers a prepared message over STARTTLS. Context cancellation is
// honored up to connection establishment; SMTP dialogs after that are
// bounded by server timeouts.
func (s *smtpService) send(ctx context.Context, to, cc string, msg []byte) error {
	recipients := splitAddresses(to)
	recipients = append(recipients, splitAddresses(cc)...)
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, recipient := range recipients {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", recipient, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := writer.Write(msg); err != nil {
		_ = writer.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	return client.Quit()
}

func splitAddresses(value string) []string {
	var out []string
	for _, piece := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' }) {
		if trimmed := strings.TrimSpace(piece); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type noopService struct{}

func (noopService) NotifySuccess(context.Context, int64, string, []FileResult, []FileResult, []string) error {
	return nil
}
func (noopService) NotifyFailure(context.Context, int64, string, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
