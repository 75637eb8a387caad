package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"prodman/internal/domain"
	"prodman/internal/pricing"
	"prodman/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	categoriesByID  map[string]domain.Category
	suppliersByID   map[string]domain.Supplier
	productsByID    map[string]domain.Product
	offersByID      map[string]domain.Offer
	ordersByID      map[string]*domain.SalesOrder
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CLERK_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	clerkPwd := envOr("SEED_CLERK_PASSWORD", "clerk123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CLERK_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CLERK_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"clerk", clerkPwd, domain.RoleClerk},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	now := time.Now().UTC()

	categories := []domain.Category{
		{ID: "cat-electronics", Name: "Electronics", CreatedAt: now},
		{ID: "cat-books", Name: "Books", CreatedAt: now},
		{ID: "cat-medical", Name: "Medical", CreatedAt: now},
		{ID: "cat-shipyard", Name: "Shipyard", CreatedAt: now},
		{ID: "cat-food", Name: "Food", CreatedAt: now},
	}

	suppliers := []domain.Supplier{
		{
			ID:          "sup-shanks",
			Name:        "Red-Haired Shanks Supplies",
			Description: "Supplies from the captain of the Red-Haired Pirates.",
			Contact:     domain.Contact{Name: "Shanks", Email: "shanks@redhairedsupplies.com"},
			CategoryID:  "cat-shipyard",
			CreatedAt:   now,
		},
		{
			ID:          "sup-robin",
			Name:        "Nico Robin Books & Artifacts",
			Description: "Specializing in rare books and historical artifacts.",
			Contact:     domain.Contact{Name: "Nico Robin", Email: "robin@booksandartifacts.com"},
			CategoryID:  "cat-books",
			CreatedAt:   now,
		},
		{
			ID:          "sup-chopper",
			Name:        "Tony Tony Chopper Medicine Co.",
			Description: "Providing top-quality medical supplies and herbal remedies.",
			Contact:     domain.Contact{Name: "Tony Tony Chopper", Email: "chopper@medicineco.com"},
			CategoryID:  "cat-medical",
			CreatedAt:   now,
		},
		{
			ID:          "sup-franky",
			Name:        "Frankys Shipyard",
			Description: "Custom-built ships and high-tech gadgets.",
			Contact:     domain.Contact{Name: "Franky", Email: "franky@shipyard.com"},
			CategoryID:  "cat-shipyard",
			CreatedAt:   now,
		},
		{
			ID:          "sup-sanji",
			Name:        "Sanjis Gourmet Ingredients",
			Description: "Delivering the finest ingredients for the most exquisite dishes.",
			Contact:     domain.Contact{Name: "Sanji", Email: "sanji@gourmetingredients.com"},
			CategoryID:  "cat-food",
			CreatedAt:   now,
		},
	}

	products := []domain.Product{
		{ID: "prod-laptop", Name: "Laptop", CategoryID: "cat-electronics", SupplierID: "sup-shanks", PriceCents: 100000, CostCents: 80000, Stock: 50, CreatedAt: now},
		{ID: "prod-smartphone", Name: "Smartphone", CategoryID: "cat-electronics", SupplierID: "sup-robin", PriceCents: 80000, CostCents: 60000, Stock: 40, CreatedAt: now},
	}

	offers := []domain.Offer{
		{ID: "offer-launch-bundle", ProductIDs: []string{"prod-laptop", "prod-smartphone"}, PriceCents: 180000, Active: true, CreatedAt: now},
	}

	categoryMap := make(map[string]domain.Category, len(categories))
	for _, c := range categories {
		categoryMap[c.ID] = c
	}
	supplierMap := make(map[string]domain.Supplier, len(suppliers))
	for _, s := range suppliers {
		supplierMap[s.ID] = s
	}
	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}
	offerMap := make(map[string]domain.Offer, len(offers))
	for _, o := range offers {
		offerMap[o.ID] = o
	}

	orders := map[string]*domain.SalesOrder{
		"so-seed-1": {
			ID:        "so-seed-1",
			OfferID:   "offer-launch-bundle",
			Quantity:  2,
			Status:    domain.OrderStatusPending,
			CreatedAt: now,
		},
	}

	return &Store{
		categoriesByID:  categoryMap,
		suppliersByID:   supplierMap,
		productsByID:    productMap,
		offersByID:      offerMap,
		ordersByID:      orders,
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: seedUsers(),
	}
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.ID == "" || category.Name == "" {
		return nil, store.ErrInvalidInput
	}
	for _, existing := range s.categoriesByID {
		if strings.EqualFold(existing.Name, category.Name) {
			return nil, fmt.Errorf("%w: category %q already exists", store.ErrInvalidInput, category.Name)
		}
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	s.categoriesByID[category.ID] = category
	created := category
	return &created, nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categoriesByID))
	for _, c := range s.categoriesByID {
		categories = append(categories, c)
	}
	slices.SortFunc(categories, func(a, b domain.Category) int {
		return cmpString(a.Name, b.Name)
	})
	return categories, nil
}

func (s *Store) GetCategoryByID(_ context.Context, id string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, exists := s.categoriesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCategory := category
	return &copyCategory, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if supplier.ID == "" || supplier.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if supplier.CategoryID != "" {
		if _, exists := s.categoriesByID[supplier.CategoryID]; !exists {
			return nil, store.ErrNotFound
		}
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}

	s.suppliersByID[supplier.ID] = supplier
	created := supplier
	return &created, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliersByID))
	for _, sup := range s.suppliersByID {
		suppliers = append(suppliers, sup)
	}
	slices.SortFunc(suppliers, func(a, b domain.Supplier) int {
		return cmpString(a.Name, b.Name)
	})
	return suppliers, nil
}

func (s *Store) GetSupplierByID(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, exists := s.suppliersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySupplier := supplier
	return &copySupplier, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.Name == "" || product.PriceCents < 1 || product.CostCents < 1 || product.Stock < 0 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.categoriesByID[product.CategoryID]; !exists {
		return nil, store.ErrNotFound
	}
	if _, exists := s.suppliersByID[product.SupplierID]; !exists {
		return nil, store.ErrNotFound
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	s.productsByID[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedProducts(func(domain.Product) bool { return true }), nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.productsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.productsByID[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (s *Store) ListProductsByCategory(_ context.Context, categoryID string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.categoriesByID[categoryID]; !exists {
		return nil, store.ErrNotFound
	}
	return s.sortedProducts(func(p domain.Product) bool { return p.CategoryID == categoryID }), nil
}

func (s *Store) ListProductsBySupplier(_ context.Context, supplierID string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.suppliersByID[supplierID]; !exists {
		return nil, store.ErrNotFound
	}
	return s.sortedProducts(func(p domain.Product) bool { return p.SupplierID == supplierID }), nil
}

// sortedProducts must be called with the store lock held.
func (s *Store) sortedProducts(keep func(domain.Product) bool) []domain.Product {
	products := make([]domain.Product, 0, len(s.productsByID))
	for _, p := range s.productsByID {
		if keep(p) {
			products = append(products, p)
		}
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmpString(a.Name, b.Name)
	})
	return products
}

func (s *Store) CreateOffer(_ context.Context, offer domain.Offer) (*domain.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offer.ID == "" || len(offer.ProductIDs) < 2 || offer.PriceCents < 1 {
		return nil, store.ErrInvalidInput
	}
	for _, id := range offer.ProductIDs {
		if _, exists := s.productsByID[id]; !exists {
			return nil, store.ErrNotFound
		}
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now().UTC()
	}

	s.offersByID[offer.ID] = cloneOffer(offer)
	created := cloneOffer(offer)
	return &created, nil
}

func (s *Store) ListOffers(_ context.Context) ([]domain.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedOffers(func(domain.Offer) bool { return true }), nil
}

func (s *Store) GetOfferByID(_ context.Context, id string) (*domain.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offer, exists := s.offersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyOffer := cloneOffer(offer)
	return &copyOffer, nil
}

func (s *Store) ListOffersInPriceRange(_ context.Context, minCents int64, maxCents int64) ([]domain.Offer, error) {
	if minCents < 0 || maxCents < minCents {
		return nil, store.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedOffers(func(o domain.Offer) bool {
		return o.PriceCents >= minCents && o.PriceCents <= maxCents
	}), nil
}

func (s *Store) ListOffersByCategory(_ context.Context, categoryID string) ([]domain.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.categoriesByID[categoryID]; !exists {
		return nil, store.ErrNotFound
	}
	return s.sortedOffers(func(o domain.Offer) bool {
		for _, id := range o.ProductIDs {
			if p, ok := s.productsByID[id]; ok && p.CategoryID == categoryID {
				return true
			}
		}
		return false
	}), nil
}

// sortedOffers must be called with the store lock held.
func (s *Store) sortedOffers(keep func(domain.Offer) bool) []domain.Offer {
	offers := make([]domain.Offer, 0, len(s.offersByID))
	for _, o := range s.offersByID {
		if keep(o) {
			offers = append(offers, cloneOffer(o))
		}
	}
	slices.SortFunc(offers, func(a, b domain.Offer) int {
		if a.PriceCents == b.PriceCents {
			return cmpString(a.ID, b.ID)
		}
		if a.PriceCents < b.PriceCents {
			return -1
		}
		return 1
	})
	return offers
}

func (s *Store) CreateSalesOrder(_ context.Context, order domain.SalesOrder) (*domain.SalesOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" || order.Quantity < 1 {
		return nil, store.ErrInvalidInput
	}
	if (order.ProductID == "") == (order.OfferID == "") {
		return nil, fmt.Errorf("%w: order must reference exactly one of product or offer", store.ErrInvalidInput)
	}
	if order.ProductID != "" {
		if _, exists := s.productsByID[order.ProductID]; !exists {
			return nil, store.ErrNotFound
		}
	}
	if order.OfferID != "" {
		if _, exists := s.offersByID[order.OfferID]; !exists {
			return nil, store.ErrNotFound
		}
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	orderCopy := order
	s.ordersByID[order.ID] = &orderCopy
	created := order
	return &created, nil
}

func (s *Store) GetSalesOrderByID(_ context.Context, id string) (*domain.SalesOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.ordersByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (s *Store) ListSalesOrders(_ context.Context, status string) ([]domain.SalesOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.SalesOrder, 0, len(s.ordersByID))
	for _, o := range s.ordersByID {
		if status != "" && o.Status != status {
			continue
		}
		orders = append(orders, *cloneOrder(o))
	}
	slices.SortFunc(orders, func(a, b domain.SalesOrder) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return orders, nil
}

// ShipOrder validates everything before the first stock write, so a failing
// lookup or stock check leaves the order pending and every product untouched.
func (s *Store) ShipOrder(_ context.Context, orderID string) (*domain.ShipmentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.ordersByID[orderID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if order.Status != domain.OrderStatusPending {
		return nil, fmt.Errorf("%w: order %s already shipped", store.ErrInvalidInput, orderID)
	}

	var revenue, cost int64
	affected := make([]string, 0, 4)

	if order.IsOfferOrder() {
		offer, ok := s.offersByID[order.OfferID]
		if !ok {
			return nil, store.ErrNotFound
		}

		minStock := 0
		costPerRun := int64(0)
		for i, id := range offer.ProductIDs {
			product, ok := s.productsByID[id]
			if !ok {
				return nil, store.ErrNotFound
			}
			costPerRun += product.CostCents
			if i == 0 || product.Stock < minStock {
				minStock = product.Stock
			}
			affected = append(affected, id)
		}
		if order.Quantity*len(offer.ProductIDs) > minStock {
			return nil, store.ErrInsufficientStock
		}

		gross := int64(order.Quantity) * offer.PriceCents
		revenue = gross - pricing.BulkDiscount(order.Quantity, gross)
		cost = int64(order.Quantity) * costPerRun

		for _, id := range offer.ProductIDs {
			product := s.productsByID[id]
			product.Stock -= order.Quantity
			s.productsByID[id] = product
		}
	} else {
		product, ok := s.productsByID[order.ProductID]
		if !ok {
			return nil, store.ErrNotFound
		}
		if order.Quantity > product.Stock {
			return nil, store.ErrInsufficientStock
		}

		revenue = int64(order.Quantity) * product.PriceCents
		cost = int64(order.Quantity) * product.CostCents

		product.Stock -= order.Quantity
		s.productsByID[order.ProductID] = product
		affected = append(affected, order.ProductID)
	}

	now := time.Now().UTC()
	order.Status = domain.OrderStatusShipped
	order.TotalRevenueCents = revenue
	order.TotalCostCents = cost
	order.TotalProfitCents = pricing.ProfitAfterTax(revenue, cost)
	order.ShippedAt = &now

	levels := make(map[string]int, len(affected))
	for _, id := range affected {
		levels[id] = s.productsByID[id].Stock
	}

	return &domain.ShipmentResult{Order: *cloneOrder(order), StockLevels: levels}, nil
}

func (s *Store) SumProfits(_ context.Context, offersOnly bool) (domain.ProfitReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.ProfitReport{}
	for _, o := range s.ordersByID {
		if o.Status != domain.OrderStatusShipped {
			continue
		}
		if offersOnly && !o.IsOfferOrder() {
			continue
		}
		report.Orders++
		report.TotalProfitCents += o.TotalProfitCents
	}
	return report, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	logs := make([]domain.AuditLog, len(s.auditLogs))
	copy(logs, s.auditLogs)
	slices.Reverse(logs)
	if len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = domain.RoleClerk
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrInvalidInput
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func cloneOffer(offer domain.Offer) domain.Offer {
	ids := make([]string, len(offer.ProductIDs))
	copy(ids, offer.ProductIDs)
	offer.ProductIDs = ids
	return offer
}

func cloneOrder(order *domain.SalesOrder) *domain.SalesOrder {
	copyOrder := *order
	if order.ShippedAt != nil {
		at := *order.ShippedAt
		copyOrder.ShippedAt = &at
	}
	return &copyOrder
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}
