package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mvoronin/pos-ledger/internal/checkout"
	"github.com/mvoronin/pos-ledger/internal/config"
	"github.com/mvoronin/pos-ledger/internal/domain"
	"github.com/mvoronin/pos-ledger/internal/logger"
	"github.com/mvoronin/pos-ledger/internal/report"
	"github.com/mvoronin/pos-ledger/internal/store"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "products":
		runProducts(log)
	case "product-add":
		runProductAdd(log)
	case "product-update":
		runProductUpdate(log)
	case "product-delete":
		runProductDelete(log)
	case "sell":
		runSell(log)
	case "report":
		runReport(log)
	case "users":
		runUsers(log)
	case "user-add":
		runUserAdd(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("POS Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  products        List the product catalog")
	fmt.Println("  product-add     Add a product to the catalog")
	fmt.Println("  product-update  Update an existing product")
	fmt.Println("  product-delete  Delete a product")
	fmt.Println("  sell            Commit a sale from a list of cart lines")
	fmt.Println("  report          Show a sales report, optionally exported as CSV")
	fmt.Println("  users           List operator accounts")
	fmt.Println("  user-add        Add an operator account")
	fmt.Println("  help            Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// app wires the stores and services over the configured data directory.
type app struct {
	products    *store.ProductStore
	ledger      *store.SaleLedger
	users       *store.UserStore
	coordinator *checkout.Coordinator
	reports     *report.Aggregator
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	paths, err := store.EnsureDataFiles(ctx, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	products := store.NewProductStore(paths.Products)
	ledger := store.NewSaleLedger(paths.Sales, paths.SaleItems, products)
	users := store.NewUserStore(paths.Users)
	if err := users.EnsureDefaultAdmin(ctx, cfg.AdminUser, cfg.AdminPassword); err != nil {
		return nil, err
	}
	return &app{
		products:    products,
		ledger:      ledger,
		users:       users,
		coordinator: checkout.NewCoordinator(products, ledger),
		reports:     report.NewAggregator(ledger),
	}, nil
}

func setup(log zerolog.Logger) (context.Context, *app) {
	ctx := logger.WithContext(context.Background(), log)
	a, err := newApp(ctx, config.Load())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize data stores")
	}
	return ctx, a
}

func runProducts(log zerolog.Logger) {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx, a := setup(log)
	products, err := a.products.ListAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load products")
	}

	fmt.Printf("%-8s %-24s %10s %-12s %6s\n", "ID", "Name", "Price", "Category", "Stock")
	for _, p := range products {
		fmt.Printf("%-8s %-24s %10s %-12s %6d\n", p.ID, p.Name, p.Price.StringFixed(2), p.Category, p.Stock)
	}
}

func runProductAdd(log zerolog.Logger) {
	fs := flag.NewFlagSet("product-add", flag.ExitOnError)
	id := fs.String("id", "", "Product ID (unique)")
	name := fs.String("name", "", "Product name")
	price := fs.String("price", "", "Unit price, e.g. 5.99")
	category := fs.String("category", "", "Category")
	image := fs.String("image", "", "Image path")
	stock := fs.Int("stock", 0, "Units in stock")
	fs.Parse(os.Args[2:])

	if *id == "" || *name == "" || *price == "" {
		log.Fatal().Msg("Usage: cli product-add -id ID -name NAME -price PRICE [-category C] [-image PATH] [-stock N]")
	}
	p, err := buildProduct(*id, *name, *price, *category, *image, *stock)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid product")
	}

	ctx, a := setup(log)
	if err := a.products.Add(ctx, p); err != nil {
		log.Fatal().Err(err).Msg("Failed to add product")
	}
	fmt.Printf("Added product %s.\n", p.ID)
}

func runProductUpdate(log zerolog.Logger) {
	fs := flag.NewFlagSet("product-update", flag.ExitOnError)
	id := fs.String("id", "", "Product ID")
	name := fs.String("name", "", "Product name")
	price := fs.String("price", "", "Unit price")
	category := fs.String("category", "", "Category")
	image := fs.String("image", "", "Image path")
	stock := fs.Int("stock", 0, "Units in stock")
	fs.Parse(os.Args[2:])

	if *id == "" || *name == "" || *price == "" {
		log.Fatal().Msg("Usage: cli product-update -id ID -name NAME -price PRICE [-category C] [-image PATH] [-stock N]")
	}
	p, err := buildProduct(*id, *name, *price, *category, *image, *stock)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid product")
	}

	ctx, a := setup(log)
	if err := a.products.Update(ctx, p); err != nil {
		log.Fatal().Err(err).Msg("Failed to update product")
	}
	fmt.Printf("Updated product %s.\n", p.ID)
}

func runProductDelete(log zerolog.Logger) {
	fs := flag.NewFlagSet("product-delete", flag.ExitOnError)
	id := fs.String("id", "", "Product ID")
	fs.Parse(os.Args[2:])

	if *id == "" {
		log.Fatal().Msg("Error: -id is required")
	}

	ctx, a := setup(log)
	removed, err := a.products.Delete(ctx, *id)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to delete product")
	}
	if !removed {
		fmt.Printf("No product with ID %s.\n", *id)
		return
	}
	fmt.Printf("Deleted product %s.\n", *id)
}

func runSell(log zerolog.Logger) {
	fs := flag.NewFlagSet("sell", flag.ExitOnError)
	user := fs.String("user", "", "Cashier username")
	password := fs.String("password", "", "Cashier password")
	items := fs.String("items", "", "Cart lines as ID:QTY pairs, e.g. P001:2,P002:1")
	discount := fs.String("discount", "", "Discount as amount or percentage, e.g. 2.50 or 10%")
	fs.Parse(os.Args[2:])

	if *user == "" || *password == "" || *items == "" {
		log.Fatal().Msg("Usage: cli sell -user NAME -password PASS -items P001:2,P002:1 [-discount 10%]")
	}

	ctx, a := setup(log)

	cashier, err := a.users.Authenticate(ctx, *user, *password)
	if err != nil {
		log.Fatal().Err(err).Msg("Authentication failed")
	}

	cart := checkout.NewCart()
	for _, line := range strings.Split(*items, ",") {
		productID, quantity, err := parseCartLine(line)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid cart line")
		}
		added, err := cart.AddItem(ctx, a.products, productID, quantity)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to add item to cart")
		}
		if added < quantity {
			log.Warn().
				Str("product_id", productID).
				Int("requested", quantity).
				Int("added", added).
				Msg("Stock limited, added fewer units than requested")
		}
	}

	result, err := a.coordinator.CommitSale(ctx, checkout.NewSession(cashier), cart, *discount)
	if err != nil {
		var appendErr *store.LedgerAppendError
		if errors.As(err, &appendErr) {
			log.Fatal().Err(err).
				Str("sale_id", result.Sale.SaleID).
				Msg("Sale was not fully recorded; stock is already decremented and needs manual correction")
		}
		log.Fatal().Err(err).Msg("Sale failed")
	}
	if result.DiscountAdjusted {
		log.Warn().Str("discount", result.Sale.DiscountAmount.String()).Msg("Discount exceeded cart total, clamped")
	}
	if result.StockFailure != nil {
		log.Error().Err(result.StockFailure).Msg("CRITICAL: some stock levels failed to update, manual correction needed")
	}

	fmt.Println(report.RenderReceipt(result.Sale))
	fmt.Printf("Sale processed successfully! Sale ID: %s\n", result.Sale.SaleID)
}

func runReport(log zerolog.Logger) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	period := fs.String("period", "day", "Report period: day, week, month or all")
	start := fs.String("start", "", "Range start (YYYY-MM-DD), overrides -period together with -end")
	end := fs.String("end", "", "Range end (YYYY-MM-DD)")
	csvPath := fs.String("csv", "", "Also export the report to this CSV file")
	fs.Parse(os.Args[2:])

	ctx, a := setup(log)

	sales, err := reportSales(ctx, a, *period, *start, *end)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build report")
	}

	summary := report.Summarize(sales)
	fmt.Println("Sales Summary:")
	fmt.Printf("  Number of Transactions: %d\n", summary.Transactions)
	fmt.Printf("  Total Gross Sales:    %s\n", summary.GrossTotal.StringFixed(2))
	fmt.Printf("  Total Discounts:      %s\n", summary.DiscountTotal.StringFixed(2))
	fmt.Printf("  Total Net Sales:      %s\n", summary.NetTotal.StringFixed(2))

	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create CSV file")
		}
		defer f.Close()
		if err := report.WriteCSV(f, sales); err != nil {
			log.Fatal().Err(err).Msg("Failed to write CSV report")
		}
		fmt.Printf("Report exported to %s.\n", *csvPath)
	}
}

func runUsers(log zerolog.Logger) {
	fs := flag.NewFlagSet("users", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx, a := setup(log)
	users, err := a.users.LoadAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load users")
	}
	for _, u := range users {
		fmt.Printf("%-16s %s\n", u.Username, u.Role)
	}
}

func runUserAdd(log zerolog.Logger) {
	fs := flag.NewFlagSet("user-add", flag.ExitOnError)
	user := fs.String("user", "", "Username")
	password := fs.String("password", "", "Password")
	role := fs.String("role", "CASHIER", "Role: ADMIN or CASHIER")
	fs.Parse(os.Args[2:])

	if *user == "" || *password == "" {
		log.Fatal().Msg("Usage: cli user-add -user NAME -password PASS [-role ROLE]")
	}
	parsedRole, err := domain.ParseRole(*role)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid role")
	}

	ctx, a := setup(log)
	if err := a.users.Add(ctx, *user, *password, parsedRole); err != nil {
		log.Fatal().Err(err).Msg("Failed to add user")
	}
	fmt.Printf("Added user %s.\n", *user)
}

func reportSales(ctx context.Context, a *app, period, start, end string) ([]domain.SaleRecord, error) {
	if start != "" || end != "" {
		if start == "" || end == "" {
			return nil, fmt.Errorf("both -start and -end are required for a custom range")
		}
		startDate, err := time.ParseInLocation("2006-01-02", start, time.Local)
		if err != nil {
			return nil, fmt.Errorf("parse -start: %w", err)
		}
		endDate, err := time.ParseInLocation("2006-01-02", end, time.Local)
		if err != nil {
			return nil, fmt.Errorf("parse -end: %w", err)
		}
		return a.reports.SalesInRange(ctx, startDate, endDate.AddDate(0, 0, 1).Add(-time.Nanosecond))
	}
	switch period {
	case "day":
		return a.reports.SalesForCurrentDay(ctx)
	case "week":
		return a.reports.SalesForCurrentWeek(ctx)
	case "month":
		return a.reports.SalesForCurrentMonth(ctx)
	case "all":
		return a.reports.AllSales(ctx)
	default:
		return nil, fmt.Errorf("unknown period %q", period)
	}
}

func buildProduct(id, name, price, category, image string, stock int) (domain.Product, error) {
	unitPrice, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("price %q: %w", price, err)
	}
	if unitPrice.IsNegative() {
		return domain.Product{}, fmt.Errorf("price %s is negative", unitPrice)
	}
	if stock < 0 {
		return domain.Product{}, fmt.Errorf("stock %d is negative", stock)
	}
	return domain.Product{
		ID:        id,
		Name:      name,
		Price:     unitPrice,
		Category:  category,
		ImagePath: image,
		Stock:     stock,
	}, nil
}

func parseCartLine(line string) (string, int, error) {
	parts := strings.SplitN(strings.TrimSpace(line), ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", 0, fmt.Errorf("cart line %q: expected ID:QTY", line)
	}
	quantity, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, fmt.Errorf("cart line %q: quantity: %w", line, err)
	}
	return parts[0], quantity, nil
}
