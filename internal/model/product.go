package model

import "time"

// Product is a single catalog entry. ID is the product's position in the
// catalog and never changes; Name is unique across the catalog. PurchasedAt
// tracks each buyer's currently open purchase (a zero entry or a missing key
// means the buyer holds none). Buyers is the append-only purchase history and
// may contain the same buyer more than once.
type Product struct {
	ID          int                  `json:"id" db:"id"`
	Name        string               `json:"name" db:"name"`
	Quantity    int64                `json:"quantity" db:"quantity"`
	PurchasedAt map[string]time.Time `json:"purchased_at,omitempty" db:"-"`
	Buyers      []string             `json:"buyers,omitempty" db:"-"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy so callers never alias live store memory.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	if p.PurchasedAt != nil {
		cp.PurchasedAt = make(map[string]time.Time, len(p.PurchasedAt))
		for k, v := range p.PurchasedAt {
			cp.PurchasedAt[k] = v
		}
	}
	if p.Buyers != nil {
		cp.Buyers = make([]string, len(p.Buyers))
		copy(cp.Buyers, p.Buyers)
	}
	return &cp
}

// OpenPurchase reports whether buyer holds an unreturned purchase of p and,
// if so, when it was made.
func (p *Product) OpenPurchase(buyer string) (time.Time, bool) {
	ts, ok := p.PurchasedAt[buyer]
	if !ok || ts.IsZero() {
		return time.Time{}, false
	}
	return ts, true
}
