package model

import "time"

// Movement types recorded in the audit trail.
const (
	MovementCreated   = "created"
	MovementRestocked = "restocked"
	MovementBought    = "bought"
	MovementReturned  = "returned"
)

type StockMovement struct {
	ID             string    `db:"id"`
	ProductID      int       `db:"product_id"`
	ProductName    string    `db:"product_name"`
	MovementType   string    `db:"movement_type"`
	QuantityChange int64     `db:"quantity_change"`
	QuantityAfter  int64     `db:"quantity_after"`
	Actor          string    `db:"actor"`
	Notes          string    `db:"notes"`
	CreatedAt      time.Time `db:"created_at"`
}
