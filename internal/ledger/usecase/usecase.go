package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fekuna/omnipos-ledger-service/internal/auth"
	"github.com/fekuna/omnipos-ledger-service/internal/ledger"
	"github.com/fekuna/omnipos-ledger-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-ledger-service/internal/model"
	"github.com/fekuna/omnipos-ledger-service/internal/notifier"
	"github.com/fekuna/omnipos-ledger-service/pkg/cache"
	"github.com/fekuna/omnipos-ledger-service/pkg/logger"
	"github.com/fekuna/omnipos-ledger-service/pkg/search"
)

const (
	availableCacheKey = "ledger:products:available"
	availableCacheTTL = 30 * time.Second

	productIndex = "products"

	// DefaultReturnWindow applies when configuration leaves the window
	// unset. The upstream system shipped an effectively infinite window;
	// treat that as a calibration accident rather than policy.
	DefaultReturnWindow = 720 * time.Hour
)

// Config carries the use case dependencies. Cache and ES may be nil; the
// ledger then runs uncached and search falls back to a catalog scan.
type Config struct {
	Repo         ledger.Repository
	Policy       auth.CatalogPolicy
	Cache        *cache.RedisClient
	ES           *search.Client
	Notifier     notifier.Notifier
	Logger       logger.ZapLogger
	ReturnWindow time.Duration
	Clock        func() time.Time
}

type ledgerUseCase struct {
	// mu serializes every mutating operation so no two of them interleave
	// their reads and writes. Read-only queries go straight to the store,
	// which hands out consistent snapshots.
	mu sync.Mutex

	repo         ledger.Repository
	policy       auth.CatalogPolicy
	cache        *cache.RedisClient
	es           *search.Client
	notifier     notifier.Notifier
	logger       logger.ZapLogger
	returnWindow time.Duration
	clock        func() time.Time
}

func NewLedgerUseCase(cfg Config) ledger.UseCase {
	uc := &ledgerUseCase{
		repo:         cfg.Repo,
		policy:       cfg.Policy,
		cache:        cfg.Cache,
		es:           cfg.ES,
		notifier:     cfg.Notifier,
		logger:       cfg.Logger,
		returnWindow: cfg.ReturnWindow,
		clock:        cfg.Clock,
	}
	if uc.returnWindow <= 0 {
		uc.returnWindow = DefaultReturnWindow
	}
	if uc.clock == nil {
		uc.clock = time.Now
	}
	return uc
}

func (uc *ledgerUseCase) AddStock(ctx context.Context, input *dto.AddStockInput) (*model.Product, bool, error) {
	if !uc.policy.CanManageCatalog(input.Caller) {
		return nil, false, ledger.ErrNotOwner
	}
	if input.Name == "" {
		return nil, false, ledger.ErrInvalidName
	}
	if input.Quantity <= 0 {
		return nil, false, ledger.ErrInvalidQuantity
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	now := uc.clock()

	existing, err := uc.repo.GetByName(input.Name)
	if err != nil && !errors.Is(err, ledger.ErrProductNotFound) {
		return nil, false, err
	}

	if existing != nil {
		p, err := uc.repo.Update(existing.ID, func(p *model.Product) {
			p.Quantity += input.Quantity
			p.UpdatedAt = now
		})
		if err != nil {
			return nil, false, err
		}
		uc.committed(ctx, p, model.ProductRestocked{
			ProductID: p.ID,
			Name:      p.Name,
			Added:     input.Quantity,
			Quantity:  p.Quantity,
			Owner:     input.Caller,
			Message:   fmt.Sprintf("product %q restocked by %d to %d", p.Name, input.Quantity, p.Quantity),
		})
		return p, false, nil
	}

	p, err := uc.repo.Create(input.Name, input.Quantity, now)
	if err != nil {
		return nil, false, err
	}
	uc.committed(ctx, p, model.ProductCreated{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  p.Quantity,
		Owner:     input.Caller,
		Message:   fmt.Sprintf("product %q created with id %d and quantity %d", p.Name, p.ID, p.Quantity),
	})
	return p, true, nil
}

func (uc *ledgerUseCase) ListAvailable(ctx context.Context) ([]string, error) {
	if uc.cache != nil {
		if val, ok, err := uc.cache.Get(ctx, availableCacheKey); err == nil && ok {
			var names []string
			if err := json.Unmarshal([]byte(val), &names); err == nil {
				return names, nil
			}
		}
	}

	names, err := uc.repo.ListAvailable()
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(names); err == nil {
			if err := uc.cache.Set(ctx, availableCacheKey, data, availableCacheTTL); err != nil {
				uc.logger.Warn("failed to cache available products", zap.Error(err))
			}
		}
	}

	return names, nil
}

func (uc *ledgerUseCase) Buy(ctx context.Context, input *dto.BuyInput) (*model.Product, error) {
	if input.Buyer == "" {
		return nil, ledger.ErrMissingCaller
	}
	if input.Quantity <= 0 {
		return nil, ledger.ErrInvalidQuantity
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	p, err := uc.repo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}

	if _, open := p.OpenPurchase(input.Buyer); open {
		return nil, ledger.ErrPurchaseOpen
	}
	if p.Quantity < input.Quantity {
		return nil, &ledger.InsufficientStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Requested: input.Quantity,
			Available: p.Quantity,
		}
	}

	now := uc.clock()
	buyer := input.Buyer
	qty := input.Quantity

	p, err = uc.repo.Update(p.ID, func(p *model.Product) {
		p.Quantity -= qty
		p.Buyers = append(p.Buyers, buyer)
		if p.PurchasedAt == nil {
			p.PurchasedAt = make(map[string]time.Time)
		}
		p.PurchasedAt[buyer] = now
		p.UpdatedAt = now
	})
	if err != nil {
		return nil, err
	}

	uc.committed(ctx, p, model.ProductBought{
		ProductID: p.ID,
		Name:      p.Name,
		Buyer:     buyer,
		Bought:    qty,
		Quantity:  p.Quantity,
		Message:   fmt.Sprintf("product %q bought by %s, %d left", p.Name, buyer, p.Quantity),
	})
	return p, nil
}

func (uc *ledgerUseCase) Return(ctx context.Context, input *dto.ReturnInput) (*model.Product, error) {
	if input.Buyer == "" {
		return nil, ledger.ErrMissingCaller
	}
	if input.Quantity <= 0 {
		return nil, ledger.ErrInvalidQuantity
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	p, err := uc.repo.GetByName(input.Name)
	if err != nil {
		return nil, err
	}

	boughtAt, open := p.OpenPurchase(input.Buyer)
	if !open {
		return nil, ledger.ErrNoOpenPurchase
	}

	now := uc.clock()
	if now.Sub(boughtAt) > uc.returnWindow {
		return nil, ledger.ErrReturnWindowExpired
	}

	buyer := input.Buyer
	qty := input.Quantity

	// The refund quantity is caller-supplied and only validated for sign;
	// the ledger does not reconcile it against the original purchase.
	p, err = uc.repo.Update(p.ID, func(p *model.Product) {
		p.Quantity += qty
		delete(p.PurchasedAt, buyer)
		p.UpdatedAt = now
	})
	if err != nil {
		return nil, err
	}

	uc.committed(ctx, p, model.ProductReturned{
		ProductID: p.ID,
		Name:      p.Name,
		Buyer:     buyer,
		Returned:  qty,
		Quantity:  p.Quantity,
		Message:   fmt.Sprintf("product %q returned by %s, quantity back to %d", p.Name, buyer, p.Quantity),
	})
	return p, nil
}

func (uc *ledgerUseCase) ListBuyers(ctx context.Context, name string) ([]string, error) {
	p, err := uc.repo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if p.Buyers == nil {
		return []string{}, nil
	}
	return p.Buyers, nil
}

func (uc *ledgerUseCase) GetProduct(ctx context.Context, id int) (*model.Product, error) {
	return uc.repo.GetByID(id)
}

func (uc *ledgerUseCase) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	if uc.es != nil {
		q := map[string]any{
			"query": map[string]any{
				"query_string": map[string]any{
					"query":  fmt.Sprintf("*%s*", query),
					"fields": []string{"name"},
				},
			},
		}
		res, err := uc.es.Search(ctx, productIndex, q)
		if err == nil {
			products := make([]model.Product, 0, len(res.Hits.Hits))
			for _, hit := range res.Hits.Hits {
				var p model.Product
				if err := json.Unmarshal(hit.Source, &p); err == nil {
					products = append(products, p)
				}
			}
			return products, nil
		}
		uc.logger.Error("search index query failed, falling back to catalog scan", zap.Error(err))
	}

	all, err := uc.repo.List()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	matched := make([]model.Product, 0, len(all))
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			// Search results carry catalog facts only, not buyer history.
			p.PurchasedAt = nil
			p.Buyers = nil
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// committed runs after every successful mutation, still under the mutation
// lock so side effects happen in commit order: invalidate the availability
// cache, sync the search index, emit the notification.
func (uc *ledgerUseCase) committed(ctx context.Context, p *model.Product, event model.Event) {
	if uc.cache != nil {
		if err := uc.cache.Del(ctx, availableCacheKey); err != nil {
			uc.logger.Warn("failed to invalidate available-products cache", zap.Error(err))
		}
	}

	if uc.es != nil {
		go uc.syncToElastic(context.Background(), p)
	}

	if uc.notifier != nil {
		if err := uc.notifier.Notify(ctx, event); err != nil {
			uc.logger.Warn("failed to deliver notification",
				zap.String("event_type", event.Type()), zap.Error(err))
		}
	}
}

type productDoc struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (uc *ledgerUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	mapping := `{
		"mappings": {
			"properties": {
				"name": { "type": "text" },
				"quantity": { "type": "long" },
				"created_at": { "type": "date" },
				"updated_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, productIndex, mapping)

	doc := productDoc{
		ID:        p.ID,
		Name:      p.Name,
		Quantity:  p.Quantity,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if err := uc.es.Index(ctx, productIndex, strconv.Itoa(p.ID), doc); err != nil {
		uc.logger.Error("failed to index product", zap.Int("product_id", p.ID), zap.Error(err))
	}
}
