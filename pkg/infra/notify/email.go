package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/formshield/formshield/pkg/domain/message"
)

// Notifier announces an accepted contact message to the site owner.
// Failures must never bubble up to the submitter: the message is already
// persisted by the time a notification is attempted.
type Notifier interface {
	SendNewMessageNotification(ctx context.Context, entity *message.Message) error
}

type Config struct {
	Enabled   bool
	SMTPHost  string
	SMTPPort  int
	Username  string
	Password  string
	FromAddr  string
	Recipient string
}

type emailNotifier struct {
	logger *logrus.Logger
	config Config
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailNotifier(logger *logrus.Logger, config Config) Notifier {
	return &emailNotifier{
		logger: logger,
		config: config,
		send:   smtp.SendMail,
	}
}

func (n *emailNotifier) SendNewMessageNotification(_ context.Context, entity *message.Message) error {
	if !n.config.Enabled {
		return nil
	}
	if strings.TrimSpace(n.config.Recipient) == "" || strings.TrimSpace(n.config.FromAddr) == "" {
		n.logger.Warn("email notification enabled but recipient or sender address is missing")
		return nil
	}

	subject := "[Portfolio] New contact message: " + entity.Subject
	body := n.buildBody(entity)

	var headers strings.Builder
	headers.WriteString("From: " + n.config.FromAddr + "\r\n")
	headers.WriteString("To: " + n.config.Recipient + "\r\n")
	if entity.SenderEmail != "" {
		headers.WriteString("Reply-To: " + entity.SenderEmail + "\r\n")
	}
	headers.WriteString("Subject: " + subject + "\r\n")
	headers.WriteString("\r\n")

	addr := fmt.Sprintf("%s:%d", n.config.SMTPHost, n.config.SMTPPort)
	var auth smtp.Auth
	if n.config.Username != "" {
		auth = smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.SMTPHost)
	}

	err := n.send(addr, auth, n.config.FromAddr, []string{n.config.Recipient}, []byte(headers.String()+body))
	if err != nil {
		return fmt.Errorf("sending notification email: %w", err)
	}
	return nil
}

func (n *emailNotifier) buildBody(entity *message.Message) string {
	var sb strings.Builder
	sb.WriteString("You received a new message from your portfolio contact form.\n\n")
	sb.WriteString("Name: " + entity.SenderName + "\n")
	sb.WriteString("Email: " + entity.SenderEmail + "\n")
	sb.WriteString("Subject: " + entity.Subject + "\n\n")
	sb.WriteString("Message:\n" + entity.Message + "\n\n")
	if !entity.CreatedAt.IsZero() {
		sb.WriteString("Created At: " + entity.CreatedAt.String() + "\n")
	}
	sb.WriteString("Message ID: " + entity.ID.String() + "\n")
	return sb.String()
}
