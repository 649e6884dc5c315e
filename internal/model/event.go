package model

// Notification events emitted by the ledger, in commit order. Each carries
// the product name, its identifier, the quantities involved and a
// human-readable message.

type Event interface {
	Type() string
	Describe() string
}

type ProductCreated struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	Owner     string `json:"owner"`
	Message   string `json:"message"`
}

func (e ProductCreated) Type() string     { return "ProductCreated" }
func (e ProductCreated) Describe() string { return e.Message }

type ProductRestocked struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Added     int64  `json:"added"`
	Quantity  int64  `json:"quantity"`
	Owner     string `json:"owner"`
	Message   string `json:"message"`
}

func (e ProductRestocked) Type() string     { return "ProductRestocked" }
func (e ProductRestocked) Describe() string { return e.Message }

type ProductBought struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Buyer     string `json:"buyer"`
	Bought    int64  `json:"bought"`
	Quantity  int64  `json:"quantity"`
	Message   string `json:"message"`
}

func (e ProductBought) Type() string     { return "ProductBought" }
func (e ProductBought) Describe() string { return e.Message }

type ProductReturned struct {
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Buyer     string `json:"buyer"`
	Returned  int64  `json:"returned"`
	Quantity  int64  `json:"quantity"`
	Message   string `json:"message"`
}

func (e ProductReturned) Type() string     { return "ProductReturned" }
func (e ProductReturned) Describe() string { return e.Message }
