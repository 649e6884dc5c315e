package ledger

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-ledger-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-ledger-service/internal/model"
)

// Repository is the dual-indexed catalog store. Products are reachable both
// by their dense sequential identifier and by their unique name; both views
// always refer to the same record. Reads return deep copies; Update commits
// a mutation atomically with respect to concurrent readers.
type Repository interface {
	// Create inserts a new product under the next sequential identifier and
	// into the name index in one step. Fails if the name is already taken.
	Create(name string, quantity int64, createdAt time.Time) (*model.Product, error)

	GetByID(id int) (*model.Product, error)
	GetByName(name string) (*model.Product, error)

	// Update applies fn to the product under the store's write lock and
	// persists the result. Readers observe either the old or the new state.
	Update(id int, fn func(*model.Product)) (*model.Product, error)

	// ListAvailable returns, in insertion order, the names of products whose
	// quantity is strictly positive.
	ListAvailable() ([]string, error)

	// List returns a snapshot of every product in insertion order.
	List() ([]model.Product, error)

	Len() int
}

// AuditRepository records one row per committed mutation.
type AuditRepository interface {
	LogMovement(ctx context.Context, m *model.StockMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
