package dto

type AddStockInput struct {
	Caller   string
	Name     string
	Quantity int64
}

type BuyInput struct {
	Buyer     string
	ProductID int
	Quantity  int64
}

type ReturnInput struct {
	Buyer    string
	Name     string
	Quantity int64
}

type MovementFilters struct {
	ProductName  string
	MovementType string
	Actor        string
	Page         int
	PageSize     int
}
