package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fekuna/omnipos-ledger-service/internal/ledger"
	"github.com/fekuna/omnipos-ledger-service/internal/model"
)

// AuditNotifier records each event as a stock movement row.
type AuditNotifier struct {
	repo ledger.AuditRepository
}

func NewAuditNotifier(repo ledger.AuditRepository) *AuditNotifier {
	return &AuditNotifier{repo: repo}
}

func (n *AuditNotifier) Notify(ctx context.Context, event model.Event) error {
	m := &model.StockMovement{
		ID:        uuid.New().String(),
		Notes:     event.Describe(),
		CreatedAt: time.Now().UTC(),
	}

	switch e := event.(type) {
	case model.ProductCreated:
		m.ProductID = e.ProductID
		m.ProductName = e.Name
		m.MovementType = model.MovementCreated
		m.QuantityChange = e.Quantity
		m.QuantityAfter = e.Quantity
		m.Actor = e.Owner
	case model.ProductRestocked:
		m.ProductID = e.ProductID
		m.ProductName = e.Name
		m.MovementType = model.MovementRestocked
		m.QuantityChange = e.Added
		m.QuantityAfter = e.Quantity
		m.Actor = e.Owner
	case model.ProductBought:
		m.ProductID = e.ProductID
		m.ProductName = e.Name
		m.MovementType = model.MovementBought
		m.QuantityChange = -e.Bought
		m.QuantityAfter = e.Quantity
		m.Actor = e.Buyer
	case model.ProductReturned:
		m.ProductID = e.ProductID
		m.ProductName = e.Name
		m.MovementType = model.MovementReturned
		m.QuantityChange = e.Returned
		m.QuantityAfter = e.Quantity
		m.Actor = e.Buyer
	default:
		// Unknown event types are not auditable movements.
		return nil
	}

	return n.repo.LogMovement(ctx, m)
}
