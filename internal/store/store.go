package store

import (
	"context"
	"errors"

	"prodman/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidInput      = errors.New("invalid input")
)

type Repository interface {
	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*domain.Category, error)

	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplierByID(ctx context.Context, id string) (*domain.Supplier, error)

	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID string) ([]domain.Product, error)
	ListProductsBySupplier(ctx context.Context, supplierID string) ([]domain.Product, error)

	CreateOffer(ctx context.Context, offer domain.Offer) (*domain.Offer, error)
	ListOffers(ctx context.Context) ([]domain.Offer, error)
	GetOfferByID(ctx context.Context, id string) (*domain.Offer, error)
	ListOffersInPriceRange(ctx context.Context, minCents int64, maxCents int64) ([]domain.Offer, error)
	ListOffersByCategory(ctx context.Context, categoryID string) ([]domain.Offer, error)

	CreateSalesOrder(ctx context.Context, order domain.SalesOrder) (*domain.SalesOrder, error)
	GetSalesOrderByID(ctx context.Context, id string) (*domain.SalesOrder, error)
	ListSalesOrders(ctx context.Context, status string) ([]domain.SalesOrder, error)

	// ShipOrder transitions one pending order to shipped as a single atomic
	// step: stock validation, stock decrements, and the order's revenue and
	// profit totals either all commit or none do.
	ShipOrder(ctx context.Context, orderID string) (*domain.ShipmentResult, error)

	SumProfits(ctx context.Context, offersOnly bool) (domain.ProfitReport, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
