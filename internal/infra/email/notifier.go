package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, logger: logger}
}

// NotifyFailure emails the video owner after processing has permanently
// failed. ownerID doubles as the recipient address in this deployment.
func (n *SMTPNotifier) NotifyFailure(_ context.Context, ownerID, videoID, reason string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	subject := fmt.Sprintf("ANB Rising Stars - Video Processing Failed [%s]", videoID)
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"Your video could not be processed after all retry attempts.\r\n\r\n"+
			"Video ID: %s\r\n"+
			"Error: %s\r\n\r\n"+
			"Please try uploading the video again or contact support.\r\n\r\n"+
			"-- ANB Rising Stars Showcase",
		videoID, reason,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, ownerID, subject, body,
	)

	if err := smtp.SendMail(addr, nil, n.from, []string{ownerID}, []byte(msg)); err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", ownerID),
			zap.String("video_id", videoID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", ownerID),
		zap.String("video_id", videoID),
	)
	return nil
}
