package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"prodman/internal/domain"
	"prodman/internal/pricing"
	"prodman/internal/store"
	"prodman/internal/xid"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema and seed migrations.
func (s *Store) Migrate() error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(s.db, "migrations")
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if category.ID == "" || category.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, created_at)
		VALUES ($1,$2,$3)
	`, category.ID, category.Name, category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: category %q already exists", store.ErrInvalidInput, category.Name)
		}
		return nil, err
	}

	created := category
	return &created, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 16)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) GetCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM categories
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.ID == "" || supplier.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, description, contact_name, contact_email, category_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, supplier.ID, supplier.Name, supplier.Description, supplier.Contact.Name, supplier.Contact.Email, nullIfEmpty(supplier.CategoryID), supplier.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	created := supplier
	return &created, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, contact_name, contact_email, COALESCE(category_id,''), created_at
		FROM suppliers
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 16)
	for rows.Next() {
		var sup domain.Supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Description, &sup.Contact.Name, &sup.Contact.Email, &sup.CategoryID, &sup.CreatedAt); err != nil {
			return nil, err
		}
		sup.CreatedAt = sup.CreatedAt.UTC()
		suppliers = append(suppliers, sup)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *Store) GetSupplierByID(ctx context.Context, id string) (*domain.Supplier, error) {
	var sup domain.Supplier
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, contact_name, contact_email, COALESCE(category_id,''), created_at
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&sup.ID, &sup.Name, &sup.Description, &sup.Contact.Name, &sup.Contact.Email, &sup.CategoryID, &sup.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sup.CreatedAt = sup.CreatedAt.UTC()
	return &sup, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" || product.PriceCents < 1 || product.CostCents < 1 || product.Stock < 0 {
		return nil, store.ErrInvalidInput
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category_id, supplier_id, price_cents, cost_cents, stock, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, product.ID, product.Name, product.CategoryID, product.SupplierID, product.PriceCents, product.CostCents, product.Stock, product.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	created := product
	return &created, nil
}

const productColumns = `id, name, category_id, supplier_id, price_cents, cost_cents, stock, created_at`

func scanProduct(rows *sql.Rows) (domain.Product, error) {
	var p domain.Product
	err := rows.Scan(&p.ID, &p.Name, &p.CategoryID, &p.SupplierID, &p.PriceCents, &p.CostCents, &p.Stock, &p.CreatedAt)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, err
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY name
	`)
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 32)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.CategoryID, &p.SupplierID, &p.PriceCents, &p.CostCents, &p.Stock, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	products, err := s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (s *Store) ListProductsByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	if _, err := s.GetCategoryByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE category_id = $1
		ORDER BY name
	`, categoryID)
}

func (s *Store) ListProductsBySupplier(ctx context.Context, supplierID string) ([]domain.Product, error) {
	if _, err := s.GetSupplierByID(ctx, supplierID); err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE supplier_id = $1
		ORDER BY name
	`, supplierID)
}

func (s *Store) CreateOffer(ctx context.Context, offer domain.Offer) (*domain.Offer, error) {
	if offer.ID == "" || len(offer.ProductIDs) < 2 || offer.PriceCents < 1 {
		return nil, store.ErrInvalidInput
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO offers (id, price_cents, active, created_at)
		VALUES ($1,$2,$3,$4)
	`, offer.ID, offer.PriceCents, offer.Active, offer.CreatedAt)
	if err != nil {
		return nil, err
	}

	for position, productID := range offer.ProductIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO offer_products (offer_id, product_id, position)
			VALUES ($1,$2,$3)
		`, offer.ID, productID, position)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, store.ErrNotFound
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := offer
	return &created, nil
}

func (s *Store) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	return s.queryOffers(ctx, `
		SELECT id, price_cents, active, created_at
		FROM offers
		ORDER BY price_cents, id
	`)
}

func (s *Store) ListOffersInPriceRange(ctx context.Context, minCents int64, maxCents int64) ([]domain.Offer, error) {
	if minCents < 0 || maxCents < minCents {
		return nil, store.ErrInvalidInput
	}
	return s.queryOffers(ctx, `
		SELECT id, price_cents, active, created_at
		FROM offers
		WHERE price_cents BETWEEN $1 AND $2
		ORDER BY price_cents, id
	`, minCents, maxCents)
}

func (s *Store) ListOffersByCategory(ctx context.Context, categoryID string) ([]domain.Offer, error) {
	if _, err := s.GetCategoryByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.queryOffers(ctx, `
		SELECT DISTINCT o.id, o.price_cents, o.active, o.created_at
		FROM offers o
		JOIN offer_products op ON op.offer_id = o.id
		JOIN products p ON p.id = op.product_id
		WHERE p.category_id = $1
		ORDER BY o.price_cents, o.id
	`, categoryID)
}

func (s *Store) queryOffers(ctx context.Context, query string, args ...any) ([]domain.Offer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	offers := make([]domain.Offer, 0, 16)
	for rows.Next() {
		var o domain.Offer
		if err := rows.Scan(&o.ID, &o.PriceCents, &o.Active, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.CreatedAt = o.CreatedAt.UTC()
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range offers {
		ids, err := s.offerProductIDs(ctx, offers[i].ID)
		if err != nil {
			return nil, err
		}
		offers[i].ProductIDs = ids
	}
	return offers, nil
}

func (s *Store) offerProductIDs(ctx context.Context, offerID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id
		FROM offer_products
		WHERE offer_id = $1
		ORDER BY position
	`, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0, 4)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) GetOfferByID(ctx context.Context, id string) (*domain.Offer, error) {
	var o domain.Offer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, price_cents, active, created_at
		FROM offers
		WHERE id = $1
	`, id).Scan(&o.ID, &o.PriceCents, &o.Active, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	o.CreatedAt = o.CreatedAt.UTC()

	ids, err := s.offerProductIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	o.ProductIDs = ids
	return &o, nil
}

func (s *Store) CreateSalesOrder(ctx context.Context, order domain.SalesOrder) (*domain.SalesOrder, error) {
	if order.ID == "" || order.Quantity < 1 {
		return nil, store.ErrInvalidInput
	}
	if (order.ProductID == "") == (order.OfferID == "") {
		return nil, fmt.Errorf("%w: order must reference exactly one of product or offer", store.ErrInvalidInput)
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales_orders (
			id, product_id, offer_id, quantity, status,
			total_cost_cents, total_revenue_cents, total_profit_cents, created_at, shipped_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, order.ID, nullIfEmpty(order.ProductID), nullIfEmpty(order.OfferID), order.Quantity, order.Status,
		order.TotalCostCents, order.TotalRevenueCents, order.TotalProfitCents, order.CreatedAt, nullTime(order.ShippedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	created := order
	return &created, nil
}

const orderColumns = `id, COALESCE(product_id,''), COALESCE(offer_id,''), quantity, status,
	total_cost_cents, total_revenue_cents, total_profit_cents, created_at, shipped_at`

func scanOrder(scan func(dest ...any) error) (domain.SalesOrder, error) {
	var o domain.SalesOrder
	var shippedAt sql.NullTime
	err := scan(&o.ID, &o.ProductID, &o.OfferID, &o.Quantity, &o.Status,
		&o.TotalCostCents, &o.TotalRevenueCents, &o.TotalProfitCents, &o.CreatedAt, &shippedAt)
	if err != nil {
		return o, err
	}
	o.CreatedAt = o.CreatedAt.UTC()
	if shippedAt.Valid {
		at := shippedAt.Time.UTC()
		o.ShippedAt = &at
	}
	return o, nil
}

func (s *Store) GetSalesOrderByID(ctx context.Context, id string) (*domain.SalesOrder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM sales_orders
		WHERE id = $1
	`, id)
	order, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *Store) ListSalesOrders(ctx context.Context, status string) ([]domain.SalesOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM sales_orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at, id
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.SalesOrder, 0, 32)
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// ShipOrder runs as a single serializable transaction. Stock rows are locked
// with FOR UPDATE before validation, so concurrent shipments of the same
// products serialize and a failed check rolls everything back.
func (s *Store) ShipOrder(ctx context.Context, orderID string) (*domain.ShipmentResult, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM sales_orders
		WHERE id = $1
		FOR UPDATE
	`, orderID)
	order, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, fmt.Errorf("%w: order %s already shipped", store.ErrInvalidInput, orderID)
	}

	var revenue, cost int64
	levels := make(map[string]int, 4)

	if order.IsOfferOrder() {
		var offerPriceCents int64
		err = tx.QueryRowContext(ctx, `
			SELECT price_cents
			FROM offers
			WHERE id = $1
		`, order.OfferID).Scan(&offerPriceCents)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, store.ErrNotFound
			}
			return nil, err
		}

		productRows, err := tx.QueryContext(ctx, `
			SELECT p.id, p.cost_cents, p.stock
			FROM offer_products op
			JOIN products p ON p.id = op.product_id
			WHERE op.offer_id = $1
			ORDER BY op.position
			FOR UPDATE OF p
		`, order.OfferID)
		if err != nil {
			return nil, err
		}
		type constituent struct {
			id        string
			costCents int64
			stock     int
		}
		constituents := make([]constituent, 0, 4)
		for productRows.Next() {
			var c constituent
			if err := productRows.Scan(&c.id, &c.costCents, &c.stock); err != nil {
				_ = productRows.Close()
				return nil, err
			}
			constituents = append(constituents, c)
		}
		if err := productRows.Err(); err != nil {
			_ = productRows.Close()
			return nil, err
		}
		_ = productRows.Close()
		if len(constituents) == 0 {
			return nil, store.ErrNotFound
		}

		minStock := constituents[0].stock
		costPerRun := int64(0)
		for _, c := range constituents {
			costPerRun += c.costCents
			if c.stock < minStock {
				minStock = c.stock
			}
		}
		if order.Quantity*len(constituents) > minStock {
			return nil, store.ErrInsufficientStock
		}

		gross := int64(order.Quantity) * offerPriceCents
		revenue = gross - pricing.BulkDiscount(order.Quantity, gross)
		cost = int64(order.Quantity) * costPerRun

		for _, c := range constituents {
			var remaining int
			err = tx.QueryRowContext(ctx, `
				UPDATE products
				SET stock = stock - $1
				WHERE id = $2
				RETURNING stock
			`, order.Quantity, c.id).Scan(&remaining)
			if err != nil {
				return nil, err
			}
			levels[c.id] = remaining
		}
	} else {
		var priceCents, costCents int64
		var stock int
		err = tx.QueryRowContext(ctx, `
			SELECT price_cents, cost_cents, stock
			FROM products
			WHERE id = $1
			FOR UPDATE
		`, order.ProductID).Scan(&priceCents, &costCents, &stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, store.ErrNotFound
			}
			return nil, err
		}
		if order.Quantity > stock {
			return nil, store.ErrInsufficientStock
		}

		revenue = int64(order.Quantity) * priceCents
		cost = int64(order.Quantity) * costCents

		var remaining int
		err = tx.QueryRowContext(ctx, `
			UPDATE products
			SET stock = stock - $1
			WHERE id = $2
			RETURNING stock
		`, order.Quantity, order.ProductID).Scan(&remaining)
		if err != nil {
			return nil, err
		}
		levels[order.ProductID] = remaining
	}

	now := time.Now().UTC()
	profit := pricing.ProfitAfterTax(revenue, cost)
	_, err = tx.ExecContext(ctx, `
		UPDATE sales_orders
		SET status = $2, total_revenue_cents = $3, total_cost_cents = $4,
			total_profit_cents = $5, shipped_at = $6
		WHERE id = $1
	`, orderID, domain.OrderStatusShipped, revenue, cost, profit, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusShipped
	order.TotalRevenueCents = revenue
	order.TotalCostCents = cost
	order.TotalProfitCents = profit
	order.ShippedAt = &now

	return &domain.ShipmentResult{Order: order, StockLevels: levels}, nil
}

func (s *Store) SumProfits(ctx context.Context, offersOnly bool) (domain.ProfitReport, error) {
	var report domain.ProfitReport
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)::int, COALESCE(SUM(total_profit_cents),0)::bigint
		FROM sales_orders
		WHERE status = $1
			AND ($2 = false OR offer_id IS NOT NULL)
	`, domain.OrderStatusShipped, offersOnly).Scan(&report.Orders, &report.TotalProfitCents)
	return report, err
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = domain.RoleClerk
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrInvalidInput
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.Username, &u.Password, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.CreatedAt = u.CreatedAt.UTC()
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	if username == "" || password == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password = $2
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return *value
}
