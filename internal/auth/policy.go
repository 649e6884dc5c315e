package auth

// CatalogPolicy decides who may add or restock products. The single-owner
// deployment uses OwnerPolicy; a multi-admin deployment can swap in its own
// implementation without touching the use case.
type CatalogPolicy interface {
	CanManageCatalog(caller string) bool
}

type OwnerPolicy struct {
	Owner string
}

func (p OwnerPolicy) CanManageCatalog(caller string) bool {
	return p.Owner != "" && caller == p.Owner
}
