package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"prodman/internal/domain"
	"prodman/internal/pricing"
	"prodman/internal/store"
	"prodman/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo    store.Repository
	pricing *pricing.Engine
}

func New(repo store.Repository, pricingEngine *pricing.Engine) *Service {
	if pricingEngine == nil {
		pricingEngine = pricing.NewEngine(nil, 0)
	}
	return &Service{
		repo:    repo,
		pricing: pricingEngine,
	}
}

func (s *Service) requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Actor{}, fmt.Errorf("admin role required")
	}
	return actor, nil
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryCreateRequest) (domain.Category, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.Category{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Category{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateCategory(ctx, domain.Category{
		ID:   xid.New("cat"),
		Name: name,
	})
	if err != nil {
		return domain.Category{}, err
	}

	s.logAudit(ctx, "category_create", "category", created.ID, fmt.Sprintf("name=%s", created.Name))
	return *created, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	category, err := s.repo.GetCategoryByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Category{}, err
	}
	return *category, nil
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.Supplier{}, err
	}

	name := strings.TrimSpace(req.Name)
	contactName := strings.TrimSpace(req.Contact.Name)
	contactEmail := strings.TrimSpace(req.Contact.Email)
	if name == "" || contactName == "" {
		return domain.Supplier{}, store.ErrInvalidInput
	}
	if contactEmail != "" && !strings.Contains(contactEmail, "@") {
		return domain.Supplier{}, fmt.Errorf("%w: invalid contact email", store.ErrInvalidInput)
	}
	categoryID := strings.TrimSpace(req.CategoryID)
	if categoryID != "" {
		if _, err := s.repo.GetCategoryByID(ctx, categoryID); err != nil {
			return domain.Supplier{}, err
		}
	}

	created, err := s.repo.CreateSupplier(ctx, domain.Supplier{
		ID:          xid.New("sup"),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Contact:     domain.Contact{Name: contactName, Email: contactEmail},
		CategoryID:  categoryID,
	})
	if err != nil {
		return domain.Supplier{}, err
	}

	s.logAudit(ctx, "supplier_create", "supplier", created.ID, fmt.Sprintf("name=%s", created.Name))
	return *created, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) GetSupplier(ctx context.Context, id string) (domain.Supplier, error) {
	supplier, err := s.repo.GetSupplierByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Supplier{}, err
	}
	return *supplier, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Product{}, store.ErrInvalidInput
	}
	if req.PriceCents < 1 || req.CostCents < 1 || req.Stock < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}
	if _, err := s.repo.GetCategoryByID(ctx, strings.TrimSpace(req.CategoryID)); err != nil {
		return domain.Product{}, err
	}
	if _, err := s.repo.GetSupplierByID(ctx, strings.TrimSpace(req.SupplierID)); err != nil {
		return domain.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		ID:         xid.New("prod"),
		Name:       name,
		CategoryID: strings.TrimSpace(req.CategoryID),
		SupplierID: strings.TrimSpace(req.SupplierID),
		PriceCents: req.PriceCents,
		CostCents:  req.CostCents,
		Stock:      req.Stock,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", created.Name, created.PriceCents, created.Stock))
	return *created, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) ListProductsByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, store.ErrInvalidInput
	}
	return s.repo.ListProductsByCategory(ctx, categoryID)
}

func (s *Service) ListProductsBySupplier(ctx context.Context, supplierID string) ([]domain.Product, error) {
	supplierID = strings.TrimSpace(supplierID)
	if supplierID == "" {
		return nil, store.ErrInvalidInput
	}
	return s.repo.ListProductsBySupplier(ctx, supplierID)
}

func (s *Service) CreateOffer(ctx context.Context, req domain.OfferCreateRequest) (domain.Offer, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return domain.Offer{}, err
	}

	if len(req.ProductIDs) < 2 {
		return domain.Offer{}, fmt.Errorf("%w: offer needs at least two products", store.ErrInvalidInput)
	}
	if req.PriceCents < 1 {
		return domain.Offer{}, store.ErrInvalidInput
	}

	seen := make(map[string]struct{}, len(req.ProductIDs))
	productIDs := make([]string, 0, len(req.ProductIDs))
	for _, raw := range req.ProductIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			return domain.Offer{}, store.ErrInvalidInput
		}
		if _, dup := seen[id]; dup {
			return domain.Offer{}, fmt.Errorf("%w: duplicate product %s", store.ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
		productIDs = append(productIDs, id)
	}

	products, err := s.repo.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return domain.Offer{}, err
	}
	for _, id := range productIDs {
		if _, ok := products[id]; !ok {
			return domain.Offer{}, store.ErrNotFound
		}
	}

	created, err := s.repo.CreateOffer(ctx, domain.Offer{
		ID:         xid.New("offer"),
		ProductIDs: productIDs,
		PriceCents: req.PriceCents,
		Active:     true,
	})
	if err != nil {
		return domain.Offer{}, err
	}

	s.logAudit(ctx, "offer_create", "offer", created.ID, fmt.Sprintf("products=%d,price=%d", len(created.ProductIDs), created.PriceCents))
	return *created, nil
}

func (s *Service) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	return s.repo.ListOffers(ctx)
}

func (s *Service) GetOffer(ctx context.Context, id string) (domain.Offer, error) {
	offer, err := s.repo.GetOfferByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Offer{}, err
	}
	return *offer, nil
}

func (s *Service) ListOffersInPriceRange(ctx context.Context, minCents int64, maxCents int64) ([]domain.Offer, error) {
	return s.repo.ListOffersInPriceRange(ctx, minCents, maxCents)
}

func (s *Service) ListOffersByCategory(ctx context.Context, categoryID string) ([]domain.Offer, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, store.ErrInvalidInput
	}
	return s.repo.ListOffersByCategory(ctx, categoryID)
}

// QuoteOffer prices a hypothetical offer order without creating one.
func (s *Service) QuoteOffer(ctx context.Context, offerID string, quantity int) (domain.OfferQuote, error) {
	if quantity < 1 {
		return domain.OfferQuote{}, store.ErrInvalidInput
	}

	offer, err := s.repo.GetOfferByID(ctx, strings.TrimSpace(offerID))
	if err != nil {
		return domain.OfferQuote{}, err
	}

	products, err := s.repo.GetProductsByIDs(ctx, offer.ProductIDs)
	if err != nil {
		return domain.OfferQuote{}, err
	}
	for _, id := range offer.ProductIDs {
		if _, ok := products[id]; !ok {
			return domain.OfferQuote{}, store.ErrNotFound
		}
	}

	return s.pricing.QuoteOffer(ctx, *offer, products, quantity), nil
}

// OfferStockSummary buckets every offer by the minimum stock across its
// constituent products.
func (s *Service) OfferStockSummary(ctx context.Context) (domain.OfferStockSummary, error) {
	offers, err := s.repo.ListOffers(ctx)
	if err != nil {
		return domain.OfferStockSummary{}, err
	}

	var summary domain.OfferStockSummary
	for _, offer := range offers {
		products, err := s.repo.GetProductsByIDs(ctx, offer.ProductIDs)
		if err != nil {
			return domain.OfferStockSummary{}, err
		}

		minStock := 0
		for i, id := range offer.ProductIDs {
			product, ok := products[id]
			if !ok {
				minStock = 0
				break
			}
			if i == 0 || product.Stock < minStock {
				minStock = product.Stock
			}
		}

		switch {
		case minStock == 0:
			summary.OutOfStock++
		case minStock <= 10:
			summary.Low++
		default:
			summary.Stocked++
		}
	}
	return summary, nil
}

func (s *Service) CreateProductOrder(ctx context.Context, req domain.ProductOrderRequest) (domain.SalesOrder, error) {
	if req.Quantity < 1 {
		return domain.SalesOrder{}, fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalidInput)
	}

	productID := strings.TrimSpace(req.ProductID)
	product, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return domain.SalesOrder{}, err
	}
	if req.Quantity > product.Stock {
		return domain.SalesOrder{}, fmt.Errorf("%w: product %s has %d in stock", store.ErrInsufficientStock, productID, product.Stock)
	}

	created, err := s.repo.CreateSalesOrder(ctx, domain.SalesOrder{
		ID:        xid.New("so"),
		ProductID: productID,
		Quantity:  req.Quantity,
		Status:    domain.OrderStatusPending,
	})
	if err != nil {
		return domain.SalesOrder{}, err
	}

	s.logAudit(ctx, "order_create", "sales_order", created.ID, fmt.Sprintf("product=%s,qty=%d", productID, req.Quantity))
	return *created, nil
}

func (s *Service) CreateOfferOrder(ctx context.Context, req domain.OfferOrderRequest) (domain.SalesOrder, error) {
	if req.Quantity < 1 {
		return domain.SalesOrder{}, fmt.Errorf("%w: quantity must be at least 1", store.ErrInvalidInput)
	}

	offerID := strings.TrimSpace(req.OfferID)
	offer, err := s.repo.GetOfferByID(ctx, offerID)
	if err != nil {
		return domain.SalesOrder{}, err
	}
	if !offer.Active {
		return domain.SalesOrder{}, fmt.Errorf("%w: offer %s is inactive", store.ErrInvalidInput, offerID)
	}

	products, err := s.repo.GetProductsByIDs(ctx, offer.ProductIDs)
	if err != nil {
		return domain.SalesOrder{}, err
	}
	available := 0
	for i, id := range offer.ProductIDs {
		product, ok := products[id]
		if !ok {
			return domain.SalesOrder{}, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
		}
		if i == 0 || product.Stock < available {
			available = product.Stock
		}
	}
	if req.Quantity*len(offer.ProductIDs) > available {
		return domain.SalesOrder{}, fmt.Errorf("%w: offer %s has %d in stock", store.ErrInsufficientStock, offerID, available)
	}

	// The discounted offer price is recorded on the pending order; the final
	// cost and profit totals are written at shipment.
	gross := int64(req.Quantity) * offer.PriceCents
	discounted := gross - pricing.BulkDiscount(req.Quantity, gross)

	created, err := s.repo.CreateSalesOrder(ctx, domain.SalesOrder{
		ID:             xid.New("so"),
		OfferID:        offerID,
		Quantity:       req.Quantity,
		Status:         domain.OrderStatusPending,
		TotalCostCents: discounted,
	})
	if err != nil {
		return domain.SalesOrder{}, err
	}

	s.logAudit(ctx, "order_create", "sales_order", created.ID, fmt.Sprintf("offer=%s,qty=%d", offerID, req.Quantity))
	return *created, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.SalesOrder, error) {
	order, err := s.repo.GetSalesOrderByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.SalesOrder{}, err
	}
	return *order, nil
}

func (s *Service) ListSalesOrders(ctx context.Context, status string) ([]domain.SalesOrder, error) {
	status = strings.TrimSpace(status)
	if status != "" && status != domain.OrderStatusPending && status != domain.OrderStatusShipped {
		return nil, fmt.Errorf("%w: unknown order status %q", store.ErrInvalidInput, status)
	}
	return s.repo.ListSalesOrders(ctx, status)
}

func (s *Service) ShipOrder(ctx context.Context, orderID string) (domain.ShipmentResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.ShipmentResult{}, store.ErrInvalidInput
	}

	result, err := s.repo.ShipOrder(ctx, orderID)
	if err != nil {
		return domain.ShipmentResult{}, err
	}

	s.logAudit(ctx, "order_ship", "sales_order", orderID, fmt.Sprintf("revenue=%d,profit=%d", result.Order.TotalRevenueCents, result.Order.TotalProfitCents))
	return *result, nil
}

func (s *Service) SumOfProfits(ctx context.Context, offersOnly bool) (domain.ProfitReport, error) {
	return s.repo.SumProfits(ctx, offersOnly)
}

func (s *Service) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListAuditLogs(ctx, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, _ := ActorFromContext(ctx)
	err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
	})
	if err != nil {
		log.Printf("[service] WARN: failed to record audit log action=%s entity=%s: %v", action, entityID, err)
	}
}
