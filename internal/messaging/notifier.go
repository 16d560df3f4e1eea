package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pawhaus/signage/internal/models"
)

// SessionNotifier translates reminder-tracker events into guest SMS. It
// satisfies the tracker's Notifier interface; the tracker already guarantees
// each event fires at most once.
type SessionNotifier struct {
	sender Sender
}

// NewSessionNotifier creates a notifier sending through the given sender.
func NewSessionNotifier(sender Sender) *SessionNotifier {
	return &SessionNotifier{sender: sender}
}

// Notify sends the SMS matching the event kind. Sessions without a phone
// number are skipped silently; most walk-ins never leave one.
func (n *SessionNotifier) Notify(ctx context.Context, eventID string, session models.GuestSession) error {
	if session.Phone == "" {
		return nil
	}
	var body string
	switch {
	case strings.HasPrefix(eventID, "welcome:"):
		body = fmt.Sprintf("Welcome to the cat café! Your %d-minute visit has started. Enjoy the cats!", session.DurationMinutes)
	case strings.HasPrefix(eventID, "reminder:"):
		body = fmt.Sprintf("Heads up: your cat café session ends at %s. Visit the front desk to extend.", session.ExpiresAt.Local().Format("3:04 PM"))
	case strings.HasPrefix(eventID, "expired:"):
		body = "Your cat café session has ended. Thanks for visiting, and come see the cats again soon!"
	default:
		slog.Warn("SessionNotifier.Notify: unknown event kind, skipping", "eventID", eventID)
		return nil
	}
	return n.sender.SendSMS(ctx, session.Phone, body)
}
