package service

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"os"
	"strconv"
	"time"

	"applicant-review-api/internal/model"
	"applicant-review-api/internal/websocket"

	mail "github.com/go-mail/mail/v2"
)

// Notifier is the fire-and-forget side-effect boundary. Implementations
// are called strictly after the owning transaction commits; delivery is
// at-least-once attempted and failures are logged, never propagated.
type Notifier interface {
	SubmissionReceived(account *model.Account, submissionID int64, category model.Category)
	SubmissionDecided(account *model.Account, submissionID int64, status model.ReviewStatus, notes string)
	RevisionRequested(account *model.Account, archivedCount int)
}

// NoopNotifier is used in tests and when SMTP is not configured.
type NoopNotifier struct{}

func (NoopNotifier) SubmissionReceived(*model.Account, int64, model.Category)            {}
func (NoopNotifier) SubmissionDecided(*model.Account, int64, model.ReviewStatus, string) {}
func (NoopNotifier) RevisionRequested(*model.Account, int)                               {}

// MailConfig carries SMTP settings resolved from the environment.
type MailConfig struct {
	Host          string
	Port          int
	User          string
	Pass          string
	From          string
	SkipTLSVerify bool
}

// MailConfigFromEnv reads SMTP_* variables; an empty Host disables mail.
func MailConfigFromEnv() MailConfig {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}
	return MailConfig{
		Host:          os.Getenv("SMTP_HOST"),
		Port:          port,
		User:          os.Getenv("SMTP_USER"),
		Pass:          os.Getenv("SMTP_PASS"),
		From:          os.Getenv("SMTP_FROM"),
		SkipTLSVerify: os.Getenv("SMTP_SKIP_TLS_VERIFY") == "1",
	}
}

type mailNotifier struct {
	cfg MailConfig
	hub *websocket.Hub
}

// NewNotifier builds the production notifier: email to the applicant plus
// a websocket broadcast so connected reviewers see queue changes live.
// The hub may be nil.
func NewNotifier(cfg MailConfig, hub *websocket.Hub) Notifier {
	return &mailNotifier{cfg: cfg, hub: hub}
}

func (n *mailNotifier) send(to, subject, html string) {
	if to == "" {
		return
	}
	if n.cfg.Host == "" || n.cfg.From == "" {
		log.Printf("notify: mail skipped for %q (SMTP not configured)", subject)
		return
	}

	m := mail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	d := mail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.User, n.cfg.Pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         n.cfg.Host,
		InsecureSkipVerify: n.cfg.SkipTLSVerify,
	}

	if err := d.DialAndSend(m); err != nil {
		log.Printf("notify: failed to send %q to %s: %v", subject, to, err)
	}
}

func (n *mailNotifier) broadcast(event string, payload map[string]interface{}) {
	if n.hub == nil {
		return
	}
	payload["event"] = event
	payload["at"] = time.Now().Format(time.RFC3339)
	msg, err := json.Marshal(payload)
	if err != nil {
		log.Printf("notify: failed to encode %s broadcast: %v", event, err)
		return
	}
	select {
	case n.hub.Broadcast <- msg:
	default:
		log.Printf("notify: dropped %s broadcast (hub busy)", event)
	}
}

// Mail bodies are HTML; display names and reviewer notes are untrusted
// input and get escaped before interpolation.
func receivedMailBody(name string) string {
	return fmt.Sprintf("<p>Hi %s,</p><p>Your application has been received and is queued for review. You will hear from us once a reviewer has looked at it.</p>", html.EscapeString(name))
}

func approvedMailBody(name string) string {
	return fmt.Sprintf("<p>Hi %s,</p><p>Congratulations, your application has been approved and your profile is now published.</p>", html.EscapeString(name))
}

func rejectedMailBody(name, notes string) string {
	body := fmt.Sprintf("<p>Hi %s,</p><p>Unfortunately your application was not approved this time.</p>", html.EscapeString(name))
	if notes != "" {
		body += fmt.Sprintf("<p>Reviewer notes: %s</p>", html.EscapeString(notes))
	}
	return body
}

func revisionMailBody(name string) string {
	return fmt.Sprintf("<p>Hi %s,</p><p>Your previous submission has been taken offline so you can submit corrected data. Please resubmit the form when ready.</p>", html.EscapeString(name))
}

func (n *mailNotifier) SubmissionReceived(account *model.Account, submissionID int64, category model.Category) {
	if account != nil {
		n.send(account.Email, "We received your application", receivedMailBody(account.DisplayName))
	}
	n.broadcast("submission.received", map[string]interface{}{
		"submission_id": submissionID,
		"category":      category,
	})
}

func (n *mailNotifier) SubmissionDecided(account *model.Account, submissionID int64, status model.ReviewStatus, notes string) {
	if account != nil {
		switch status {
		case model.StatusApproved:
			n.send(account.Email, "Your application has been approved", approvedMailBody(account.DisplayName))
		case model.StatusRejected:
			n.send(account.Email, "Update on your application", rejectedMailBody(account.DisplayName, notes))
		}
	}
	n.broadcast("submission.decided", map[string]interface{}{
		"submission_id": submissionID,
		"status":        status,
	})
}

func (n *mailNotifier) RevisionRequested(account *model.Account, archivedCount int) {
	if account != nil {
		n.send(account.Email, "Your data is ready for revision", revisionMailBody(account.DisplayName))
	}
	n.broadcast("revision.requested", map[string]interface{}{
		"archived_count": archivedCount,
	})
}
