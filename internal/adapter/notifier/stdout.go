package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StdoutNotifier is an implementation of Notifier that prints to standard
// output, useful for local runs and as a stand-in for a mail hook.
type StdoutNotifier struct{}

// NewStdoutNotifier creates a new StdoutNotifier.
func NewStdoutNotifier() *StdoutNotifier {
	return &StdoutNotifier{}
}

// Notify prints the alert details to stdout.
func (n *StdoutNotifier) Notify(ctx context.Context, subject, detail string) error {
	fmt.Printf(
		"--- ALERT ---\nSubject: %s\nDetail: %s\nTime: %s\n-------------\n",
		subject,
		detail,
		time.Now().UTC().Format(time.RFC3339),
	)
	return nil
}

// LogNotifier routes alerts into the structured log at error level. Used when
// no alert address is configured so persistence failures still stand out.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "alert")}
}

// Notify writes the alert to the log.
func (n *LogNotifier) Notify(ctx context.Context, subject, detail string) error {
	n.logger.Error("alert", "subject", subject, "detail", detail)
	return nil
}
