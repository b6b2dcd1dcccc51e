package notification

import (
	"errors"
	"time"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
)

var (
	ErrNotFound        = errors.New("notification not found")
	ErrAlreadyAccepted = errors.New("notification already accepted")
)

// Notification is a durable pending-match record a donor dashboard polls.
type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey;column:id"`
	DonorID   string    `json:"donor_id" gorm:"column:donor_id;index"`
	RequestID string    `json:"request_id" gorm:"column:request_id;index"`
	Message   string    `json:"message" gorm:"column:message"`
	Distance  float64   `json:"distance" gorm:"column:distance"`
	Timestamp time.Time `json:"timestamp" gorm:"column:timestamp"`
	Status    string    `json:"status" gorm:"column:status"`
}

func (Notification) TableName() string {
	return "notifications"
}

// Accept moves the notification from pending to accepted. The transition is
// one-way.
func (n *Notification) Accept() error {
	if n.Status == StatusAccepted {
		return ErrAlreadyAccepted
	}
	n.Status = StatusAccepted
	return nil
}
