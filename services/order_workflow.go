package services

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/fantasteak-pos/models"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

// OrderWorkflow is the guarded path for status changes. It checks the state
// machine against this process's projection before touching the store.
type OrderWorkflow struct {
	Client *SyncClient

	// mu keeps check, write and refresh together for this process.
	mu sync.Mutex
}

func NewOrderWorkflow(client *SyncClient) *OrderWorkflow {
	return &OrderWorkflow{Client: client}
}

// Transition moves order id to status to on behalf of role and returns the
// refreshed order. Rejected transitions never reach the store.
func (w *OrderWorkflow) Transition(ctx context.Context, role Role, id string, to models.OrderStatus) (models.Order, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	current, ok := w.Client.Order(id)
	if !ok {
		return models.Order{}, errors.Wrapf(ErrOrderNotFound, "order %s", id)
	}

	fields := logrus.Fields{
		"order_id": id,
		"role":     role,
		"from":     current.Status,
		"to":       to,
	}
	if err := ValidateTransition(current.Status, to, role); err != nil {
		utils.InfoLogger.WithFields(fields).Info("Status change rejected")
		return current, err
	}

	if err := w.Client.UpdateStatus(ctx, id, to); err != nil {
		return current, err
	}
	utils.InfoLogger.WithFields(fields).Info("Order status changed")

	if _, err := w.Client.FetchAll(ctx); err != nil {
		// The write landed; show it locally even though the refresh failed.
		current.Status = to
		return current, nil
	}
	updated, ok := w.Client.Order(id)
	if !ok {
		return models.Order{}, errors.Wrapf(ErrOrderNotFound, "order %s", id)
	}
	return updated, nil
}
