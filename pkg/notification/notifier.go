package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lifelink-health/platform/pkg/matching"
)

// Notifier builds one pending notification per match candidate. It does not
// deliver anything.
type Notifier struct {
	now   func() time.Time
	newID func() string
}

func NewNotifier() *Notifier {
	return &Notifier{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
}

// WithClock overrides the timestamp source.
func (n *Notifier) WithClock(now func() time.Time) *Notifier {
	n.now = now
	return n
}

func Message(kind matching.Kind) string {
	return fmt.Sprintf("Urgent request for %s donation", kind)
}

func (n *Notifier) Notify(req matching.Request, candidates []matching.Candidate) []Notification {
	out := make([]Notification, 0, len(candidates))
	ts := n.now()
	msg := Message(req.Kind)
	for _, c := range candidates {
		out = append(out, Notification{
			ID:        n.newID(),
			DonorID:   c.DonorID,
			RequestID: req.ID,
			Message:   msg,
			Distance:  c.RoundedDistance(),
			Timestamp: ts,
			Status:    StatusPending,
		})
	}
	return out
}
