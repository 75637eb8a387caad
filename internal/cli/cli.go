package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"prodman/internal/domain"
	"prodman/internal/service"
)

// CLI is the interactive menu console. One Run loop reads a selection,
// dispatches it through the menu table, prints the outcome, and re-prompts.
// Store and service errors never terminate the loop.
type CLI struct {
	svc  *service.Service
	in   *bufio.Scanner
	out  io.Writer
	menu []menuEntry
}

type menuEntry struct {
	label string
	run   func(ctx context.Context) error
}

func New(svc *service.Service, in io.Reader, out io.Writer) *CLI {
	c := &CLI{
		svc: svc,
		in:  bufio.NewScanner(in),
		out: out,
	}
	c.menu = []menuEntry{
		{"Add a new category", c.addCategory},
		{"Add a new product", c.addProduct},
		{"View products by category", c.productsByCategory},
		{"View products by supplier", c.productsBySupplier},
		{"View offers within a price range", c.offersInPriceRange},
		{"View offers that contain a product from a category", c.offersByCategory},
		{"View offer counts by stock level", c.offerStockSummary},
		{"Create an order for a product", c.createProductOrder},
		{"Create an order for an offer", c.createOfferOrder},
		{"Ship an order", c.shipOrder},
		{"Add a new supplier", c.addSupplier},
		{"View suppliers", c.viewSuppliers},
		{"View all sales", c.viewSales},
		{"View sum of profits", c.sumOfProfits},
	}
	return c
}

// Run drives the menu until the user picks the exit option or input ends.
func (c *CLI) Run(ctx context.Context) error {
	for {
		c.printMenu()
		line, ok := c.readLine()
		if !ok {
			return nil
		}

		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintln(c.out, "Please enter a number.")
			continue
		}
		if choice == len(c.menu)+1 {
			fmt.Fprintln(c.out, "Goodbye.")
			return nil
		}
		if choice < 1 || choice > len(c.menu) {
			fmt.Fprintf(c.out, "Unknown option %d.\n", choice)
			continue
		}

		if err := c.menu[choice-1].run(ctx); err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
	}
}

func (c *CLI) printMenu() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "What would you like to do?")
	for i, entry := range c.menu {
		fmt.Fprintf(c.out, "%2d. %s\n", i+1, entry.label)
	}
	fmt.Fprintf(c.out, "%2d. Exit\n", len(c.menu)+1)
	fmt.Fprint(c.out, "> ")
}

func (c *CLI) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

func (c *CLI) promptString(label string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", label)
	line, ok := c.readLine()
	if !ok {
		return "", io.EOF
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", fmt.Errorf("%s must not be empty", label)
	}
	return value, nil
}

func (c *CLI) promptOptional(label string) (string, error) {
	fmt.Fprintf(c.out, "%s (blank to skip): ", label)
	line, ok := c.readLine()
	if !ok {
		return "", io.EOF
	}
	return strings.TrimSpace(line), nil
}

func (c *CLI) promptInt(label string) (int, error) {
	raw, err := c.promptString(label)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", label)
	}
	return value, nil
}

func (c *CLI) promptCents(label string) (int64, error) {
	raw, err := c.promptString(label + " (cents)")
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number of cents", label)
	}
	return value, nil
}

func (c *CLI) addCategory(ctx context.Context) error {
	name, err := c.promptString("Category name")
	if err != nil {
		return err
	}

	category, err := c.svc.CreateCategory(ctx, domain.CategoryCreateRequest{Name: name})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created category %s (%s).\n", category.Name, category.ID)
	return nil
}

func (c *CLI) addProduct(ctx context.Context) error {
	if err := c.showCategories(ctx); err != nil {
		return err
	}
	categoryID, err := c.promptString("Category id")
	if err != nil {
		return err
	}
	if err := c.showSuppliers(ctx); err != nil {
		return err
	}
	supplierID, err := c.promptString("Supplier id")
	if err != nil {
		return err
	}
	name, err := c.promptString("Product name")
	if err != nil {
		return err
	}
	price, err := c.promptCents("Price")
	if err != nil {
		return err
	}
	cost, err := c.promptCents("Cost")
	if err != nil {
		return err
	}
	stock, err := c.promptInt("Stock")
	if err != nil {
		return err
	}

	product, err := c.svc.CreateProduct(ctx, domain.ProductCreateRequest{
		Name:       name,
		CategoryID: categoryID,
		SupplierID: supplierID,
		PriceCents: price,
		CostCents:  cost,
		Stock:      stock,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created product %s (%s).\n", product.Name, product.ID)
	return nil
}

func (c *CLI) productsByCategory(ctx context.Context) error {
	if err := c.showCategories(ctx); err != nil {
		return err
	}
	categoryID, err := c.promptString("Category id")
	if err != nil {
		return err
	}

	products, err := c.svc.ListProductsByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	c.printProducts(products)
	return nil
}

func (c *CLI) productsBySupplier(ctx context.Context) error {
	if err := c.showSuppliers(ctx); err != nil {
		return err
	}
	supplierID, err := c.promptString("Supplier id")
	if err != nil {
		return err
	}

	products, err := c.svc.ListProductsBySupplier(ctx, supplierID)
	if err != nil {
		return err
	}
	c.printProducts(products)
	return nil
}

func (c *CLI) offersInPriceRange(ctx context.Context) error {
	minCents, err := c.promptCents("Lowest price")
	if err != nil {
		return err
	}
	maxCents, err := c.promptCents("Highest price")
	if err != nil {
		return err
	}

	offers, err := c.svc.ListOffersInPriceRange(ctx, minCents, maxCents)
	if err != nil {
		return err
	}
	c.printOffers(offers)
	return nil
}

func (c *CLI) offersByCategory(ctx context.Context) error {
	if err := c.showCategories(ctx); err != nil {
		return err
	}
	categoryID, err := c.promptString("Category id")
	if err != nil {
		return err
	}

	offers, err := c.svc.ListOffersByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	c.printOffers(offers)
	return nil
}

func (c *CLI) offerStockSummary(ctx context.Context) error {
	summary, err := c.svc.OfferStockSummary(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Out of stock: %d\n", summary.OutOfStock)
	fmt.Fprintf(c.out, "Low stock (10 or fewer): %d\n", summary.Low)
	fmt.Fprintf(c.out, "Well stocked: %d\n", summary.Stocked)
	return nil
}

func (c *CLI) createProductOrder(ctx context.Context) error {
	products, err := c.svc.ListProducts(ctx)
	if err != nil {
		return err
	}
	c.printProducts(products)

	productID, err := c.promptString("Product id")
	if err != nil {
		return err
	}
	quantity, err := c.promptInt("Quantity")
	if err != nil {
		return err
	}

	order, err := c.svc.CreateProductOrder(ctx, domain.ProductOrderRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created order %s (pending).\n", order.ID)
	return nil
}

func (c *CLI) createOfferOrder(ctx context.Context) error {
	offers, err := c.svc.ListOffers(ctx)
	if err != nil {
		return err
	}
	c.printOffers(offers)

	offerID, err := c.promptString("Offer id")
	if err != nil {
		return err
	}
	quantity, err := c.promptInt("Quantity")
	if err != nil {
		return err
	}

	quote, err := c.svc.QuoteOffer(ctx, offerID, quantity)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Quoted revenue %s (discount %s), projected profit %s.\n",
		formatCents(quote.RevenueCents), formatCents(quote.DiscountCents), formatCents(quote.ProfitCents))

	order, err := c.svc.CreateOfferOrder(ctx, domain.OfferOrderRequest{OfferID: offerID, Quantity: quantity})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created order %s (pending).\n", order.ID)
	return nil
}

func (c *CLI) shipOrder(ctx context.Context) error {
	pending, err := c.svc.ListSalesOrders(ctx, domain.OrderStatusPending)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(c.out, "No pending orders.")
		return nil
	}
	c.printOrders(pending)

	orderID, err := c.promptString("Order id")
	if err != nil {
		return err
	}

	result, err := c.svc.ShipOrder(ctx, orderID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Shipped order %s: revenue %s, cost %s, profit %s.\n",
		result.Order.ID,
		formatCents(result.Order.TotalRevenueCents),
		formatCents(result.Order.TotalCostCents),
		formatCents(result.Order.TotalProfitCents))
	for productID, stock := range result.StockLevels {
		fmt.Fprintf(c.out, "  %s stock is now %d\n", productID, stock)
	}
	return nil
}

func (c *CLI) addSupplier(ctx context.Context) error {
	name, err := c.promptString("Supplier name")
	if err != nil {
		return err
	}
	description, err := c.promptOptional("Description")
	if err != nil {
		return err
	}
	contactName, err := c.promptString("Contact name")
	if err != nil {
		return err
	}
	contactEmail, err := c.promptOptional("Contact email")
	if err != nil {
		return err
	}
	categoryID, err := c.promptOptional("Category id")
	if err != nil {
		return err
	}

	supplier, err := c.svc.CreateSupplier(ctx, domain.SupplierCreateRequest{
		Name:        name,
		Description: description,
		Contact:     domain.Contact{Name: contactName, Email: contactEmail},
		CategoryID:  categoryID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created supplier %s (%s).\n", supplier.Name, supplier.ID)
	return nil
}

func (c *CLI) viewSuppliers(ctx context.Context) error {
	return c.showSuppliers(ctx)
}

func (c *CLI) viewSales(ctx context.Context) error {
	orders, err := c.svc.ListSalesOrders(ctx, "")
	if err != nil {
		return err
	}
	c.printOrders(orders)
	return nil
}

func (c *CLI) sumOfProfits(ctx context.Context) error {
	report, err := c.svc.SumOfProfits(ctx, false)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Shipped orders: %d, total profit: %s\n", report.Orders, formatCents(report.TotalProfitCents))
	return nil
}

func (c *CLI) showCategories(ctx context.Context) error {
	categories, err := c.svc.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		fmt.Fprintln(c.out, "No categories yet.")
		return nil
	}
	for _, category := range categories {
		fmt.Fprintf(c.out, "  %s  %s\n", category.ID, category.Name)
	}
	return nil
}

func (c *CLI) showSuppliers(ctx context.Context) error {
	suppliers, err := c.svc.ListSuppliers(ctx)
	if err != nil {
		return err
	}
	if len(suppliers) == 0 {
		fmt.Fprintln(c.out, "No suppliers yet.")
		return nil
	}
	for _, supplier := range suppliers {
		fmt.Fprintf(c.out, "  %s  %s (contact: %s <%s>)\n", supplier.ID, supplier.Name, supplier.Contact.Name, supplier.Contact.Email)
	}
	return nil
}

func (c *CLI) printProducts(products []domain.Product) {
	if len(products) == 0 {
		fmt.Fprintln(c.out, "No products found.")
		return
	}
	for _, product := range products {
		fmt.Fprintf(c.out, "  %s  %-20s price %s, cost %s, stock %d\n",
			product.ID, product.Name, formatCents(product.PriceCents), formatCents(product.CostCents), product.Stock)
	}
}

func (c *CLI) printOffers(offers []domain.Offer) {
	if len(offers) == 0 {
		fmt.Fprintln(c.out, "No offers found.")
		return
	}
	for _, offer := range offers {
		fmt.Fprintf(c.out, "  %s  %d products for %s\n", offer.ID, len(offer.ProductIDs), formatCents(offer.PriceCents))
	}
}

func (c *CLI) printOrders(orders []domain.SalesOrder) {
	if len(orders) == 0 {
		fmt.Fprintln(c.out, "No orders found.")
		return
	}
	for _, order := range orders {
		target := order.ProductID
		kind := "product"
		if order.IsOfferOrder() {
			target = order.OfferID
			kind = "offer"
		}
		line := fmt.Sprintf("  %s  %s %s x%d [%s]", order.ID, kind, target, order.Quantity, order.Status)
		if order.Status == domain.OrderStatusShipped {
			line += fmt.Sprintf(" revenue %s profit %s", formatCents(order.TotalRevenueCents), formatCents(order.TotalProfitCents))
		}
		fmt.Fprintln(c.out, line)
	}
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
