package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"prodman/internal/domain"
)

func TestShipOfferOrderDecrementsStock(t *testing.T) {
	databaseURL := os.Getenv("PRODMAN_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set PRODMAN_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	stamp := time.Now().UnixNano()
	categoryID := fmt.Sprintf("cat-ship-it-%d", stamp)
	supplierID := fmt.Sprintf("sup-ship-it-%d", stamp)
	productA := fmt.Sprintf("prod-ship-it-a-%d", stamp)
	productB := fmt.Sprintf("prod-ship-it-b-%d", stamp)
	offerID := fmt.Sprintf("offer-ship-it-%d", stamp)
	orderID := fmt.Sprintf("so-ship-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales_orders WHERE id = $1`, orderID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM offer_products WHERE offer_id = $1`, offerID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM offers WHERE id = $1`, offerID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id IN ($1, $2)`, productA, productB)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, supplierID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	})

	if _, err := s.CreateCategory(ctx, domain.Category{
		ID:        categoryID,
		Name:      fmt.Sprintf("Ship IT %d", stamp),
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if _, err := s.CreateSupplier(ctx, domain.Supplier{
		ID:          supplierID,
		Name:        "Ship IT Supplier",
		Description: "integration",
		Contact:     domain.Contact{Name: "IT", Email: "it@example.com"},
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	for i, productID := range []string{productA, productB} {
		if _, err := s.CreateProduct(ctx, domain.Product{
			ID:         productID,
			Name:       fmt.Sprintf("Ship IT Product %d", i),
			CategoryID: categoryID,
			SupplierID: supplierID,
			PriceCents: 100000,
			CostCents:  80000,
			Stock:      10,
			CreatedAt:  time.Now().UTC(),
		}); err != nil {
			t.Fatalf("create product: %v", err)
		}
	}
	if _, err := s.CreateOffer(ctx, domain.Offer{
		ID:         offerID,
		ProductIDs: []string{productA, productB},
		PriceCents: 180000,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create offer: %v", err)
	}
	if _, err := s.CreateSalesOrder(ctx, domain.SalesOrder{
		ID:        orderID,
		OfferID:   offerID,
		Quantity:  2,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}

	result, err := s.ShipOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("ship order: %v", err)
	}
	if result.Order.Status != domain.OrderStatusShipped {
		t.Fatalf("status = %s, want shipped", result.Order.Status)
	}
	if result.Order.TotalRevenueCents != 360000 {
		t.Fatalf("revenue = %d, want 360000", result.Order.TotalRevenueCents)
	}
	if result.Order.TotalCostCents != 320000 {
		t.Fatalf("cost = %d, want 320000", result.Order.TotalCostCents)
	}
	if result.Order.TotalProfitCents != 28000 {
		t.Fatalf("profit = %d, want 28000", result.Order.TotalProfitCents)
	}

	for _, productID := range []string{productA, productB} {
		var stock int
		if err := s.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock); err != nil {
			t.Fatalf("query stock: %v", err)
		}
		if stock != 8 {
			t.Fatalf("stock for %s = %d, want 8", productID, stock)
		}
	}

	if _, err := s.ShipOrder(ctx, orderID); err == nil {
		t.Fatal("reshipping the same order should fail")
	}
}
