package donation

import (
	"context"
	"errors"
	"fmt"

	"github.com/lifelink-health/platform/pkg/common/logger"
	"github.com/lifelink-health/platform/pkg/common/models"
	"github.com/lifelink-health/platform/pkg/matching"
	"github.com/lifelink-health/platform/pkg/request"
)

// HandleEvent consumes request.submitted events published by intake systems
// and matches the referenced request. Events for unknown, closed or
// malformed requests are logged and dropped so the consumer does not retry
// them forever.
func (s *Service) HandleEvent(ctx context.Context, event models.Event) error {
	if event.Type != models.EventRequestSubmitted {
		return nil
	}

	requestID, _ := event.Data["request_id"].(string)
	if requestID == "" {
		logger.Log.WithField("event_id", event.ID).Warn("request event without request_id")
		return nil
	}

	_, err := s.RematchRequest(ctx, requestID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, request.ErrNotFound),
		errors.Is(err, request.ErrRequestClosed),
		matching.IsValidationError(err):
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"request_id": requestID,
		}).Warn("skipping request event")
		return nil
	default:
		return fmt.Errorf("matching request %s: %w", requestID, err)
	}
}
