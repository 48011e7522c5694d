package infrastructure

import (
	"fmt"
	"os/exec"

	"github.com/yourusername/audio-extract-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService sends desktop notifications when sessions settle
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	name, args, err := notificationCommand(n.config.Method, title, message, n.config.Sound)
	if err != nil {
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err := exec.Command(name, args...).Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// notificationCommand returns the helper invocation for a notification method
func notificationCommand(method, title, message string, sound bool) (string, []string, error) {
	switch method {
	case "osascript":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`,
			escapeAppleScript(message), escapeAppleScript(title))
		if sound {
			script += ` sound name "Glass"`
		}
		return "osascript", []string{"-e", script}, nil
	case "notify-send":
		return "notify-send", []string{title, message}, nil
	default:
		return "", nil, fmt.Errorf("unknown notification method: %s", method)
	}
}

// NotifySessionSettled reports the outcome of a finished session
func (n *NotificationService) NotifySessionSettled(session *domain.Session, fileCount int) {
	var title, message string
	source := truncateString(session.SourceURL, 40)

	switch session.Outcome {
	case domain.OutcomeCompleted:
		title = "Download Completed"
		message = fmt.Sprintf("%d files from %s", fileCount, source)
	case domain.OutcomeStopped:
		title = "Download Stopped"
		message = fmt.Sprintf("Stopped after %d tracks: %s", session.CompletedCount, source)
	case domain.OutcomeTimedOut:
		title = "Download Timed Out"
		message = source
	default:
		title = "Download Failed"
		message = source
	}

	n.Send(title, message)
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
