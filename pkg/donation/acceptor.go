package donation

import (
	"context"
	"fmt"

	"github.com/lifelink-health/platform/pkg/notification"
	"github.com/lifelink-health/platform/pkg/request"
	"gorm.io/gorm"
)

// Acceptor applies the writes of an acceptance: close the request for the
// donor, mark the notification accepted and record the match.
type Acceptor interface {
	Accept(ctx context.Context, requestID, donorID, notificationID string, match *request.AcceptedMatch) error
}

// storeAcceptor runs the writes in order against the given stores. A failure
// after MarkMatched leaves the request closed without a match record; the
// memory stores only fail those later steps on a missing notification, which
// AcceptNotification rules out beforehand.
type storeAcceptor struct {
	requests      RequestStore
	notifications NotificationStore
}

func (a storeAcceptor) Accept(ctx context.Context, requestID, donorID, notificationID string, match *request.AcceptedMatch) error {
	if err := a.requests.MarkMatched(ctx, requestID, donorID); err != nil {
		return err
	}
	if err := a.notifications.MarkAccepted(ctx, notificationID); err != nil {
		return err
	}
	if err := a.requests.CreateMatch(ctx, match); err != nil {
		return fmt.Errorf("persisting match: %w", err)
	}
	return nil
}

// TxAcceptor runs the accept writes inside one postgres transaction, so a
// failed step rolls the request back to active.
type TxAcceptor struct {
	db *gorm.DB
}

func NewTxAcceptor(db *gorm.DB) *TxAcceptor {
	return &TxAcceptor{db: db}
}

func (a *TxAcceptor) Accept(ctx context.Context, requestID, donorID, notificationID string, match *request.AcceptedMatch) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return storeAcceptor{
			requests:      request.NewRepository(tx),
			notifications: notification.NewRepository(tx),
		}.Accept(ctx, requestID, donorID, notificationID, match)
	})
}
