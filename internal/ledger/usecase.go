package ledger

import (
	"context"

	"github.com/fekuna/omnipos-ledger-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-ledger-service/internal/model"
)

type UseCase interface {
	// AddStock creates the product if the name is new, otherwise restocks it
	// in place. Owner only. The bool reports whether a product was created.
	AddStock(ctx context.Context, input *dto.AddStockInput) (*model.Product, bool, error)

	// ListAvailable returns the names of in-stock products in catalog order.
	ListAvailable(ctx context.Context) ([]string, error)

	// Buy purchases by identifier on behalf of input.Buyer.
	Buy(ctx context.Context, input *dto.BuyInput) (*model.Product, error)

	// Return refunds an open purchase by product name within the configured
	// return window.
	Return(ctx context.Context, input *dto.ReturnInput) (*model.Product, error)

	// ListBuyers returns the full purchase history for a product, in
	// purchase order, duplicates included.
	ListBuyers(ctx context.Context, name string) ([]string, error)

	// GetProduct returns a product snapshot by identifier.
	GetProduct(ctx context.Context, id int) (*model.Product, error)

	// SearchProducts queries the search index by name, falling back to a
	// catalog scan when the index is unavailable.
	SearchProducts(ctx context.Context, query string) ([]model.Product, error)
}
