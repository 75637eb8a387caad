package domain

import "time"

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CategoryCreateRequest struct {
	Name string `json:"name"`
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Supplier struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Contact     Contact   `json:"contact"`
	CategoryID  string    `json:"category_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type SupplierCreateRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Contact     Contact `json:"contact"`
	CategoryID  string  `json:"category_id,omitempty"`
}

type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CategoryID string    `json:"category_id"`
	SupplierID string    `json:"supplier_id"`
	PriceCents int64     `json:"price_cents"`
	CostCents  int64     `json:"cost_cents"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
}

type ProductCreateRequest struct {
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
	SupplierID string `json:"supplier_id"`
	PriceCents int64  `json:"price_cents"`
	CostCents  int64  `json:"cost_cents"`
	Stock      int    `json:"stock"`
}

type Offer struct {
	ID         string    `json:"id"`
	ProductIDs []string  `json:"product_ids"`
	PriceCents int64     `json:"price_cents"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

type OfferCreateRequest struct {
	ProductIDs []string `json:"product_ids"`
	PriceCents int64    `json:"price_cents"`
}

// OfferQuote is a priced preview of an offer order: revenue after any bulk
// discount, constituent cost, and the projected post-tax profit.
type OfferQuote struct {
	OfferID        string `json:"offer_id"`
	Quantity       int    `json:"quantity"`
	RevenueCents   int64  `json:"revenue_cents"`
	DiscountCents  int64  `json:"discount_cents"`
	CostCents      int64  `json:"cost_cents"`
	ProfitCents    int64  `json:"profit_cents"`
	AvailableStock int    `json:"available_stock"`
}

// OfferStockSummary buckets offers by the minimum stock across their
// constituent products.
type OfferStockSummary struct {
	OutOfStock int `json:"out_of_stock"`
	Low        int `json:"low"`
	Stocked    int `json:"stocked"`
}

type SalesOrder struct {
	ID                string     `json:"id"`
	ProductID         string     `json:"product_id,omitempty"`
	OfferID           string     `json:"offer_id,omitempty"`
	Quantity          int        `json:"quantity"`
	Status            string     `json:"status"`
	TotalCostCents    int64      `json:"total_cost_cents,omitempty"`
	TotalRevenueCents int64      `json:"total_revenue_cents,omitempty"`
	TotalProfitCents  int64      `json:"total_profit_cents,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	ShippedAt         *time.Time `json:"shipped_at,omitempty"`
}

// IsOfferOrder reports whether the order references an offer rather than a
// single product. The two references are mutually exclusive.
func (o SalesOrder) IsOfferOrder() bool {
	return o.OfferID != ""
}

type ProductOrderRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type OfferOrderRequest struct {
	OfferID  string `json:"offer_id"`
	Quantity int    `json:"quantity"`
}

// ShipmentResult is the outcome of fulfilling one pending order.
type ShipmentResult struct {
	Order       SalesOrder     `json:"order"`
	StockLevels map[string]int `json:"stock_levels"`
}

type ProfitReport struct {
	Orders           int   `json:"orders"`
	TotalProfitCents int64 `json:"total_profit_cents"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type ClerkCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ClerkUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	OrderStatusPending = "pending"
	OrderStatusShipped = "shipped"
)

const (
	RoleAdmin = "admin"
	RoleClerk = "clerk"
)
