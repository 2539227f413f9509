package store

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mvoronin/pos-ledger/internal/domain"
	"github.com/mvoronin/pos-ledger/internal/logger"
)

const (
	fieldDelimiter    = "|"
	productFieldCount = 6
)

// ProductStore keeps the product catalog in a single pipe-delimited file,
// one record per line: id|name|price|category|imagePath|stock.
//
// Every mutation re-reads the whole table, changes it in memory and
// rewrites the file. The table is small, and a full rewrite is the
// simplest primitive that guarantees price and stock always reflect the
// latest committed value. The cost is that concurrent mutations race on
// the snapshot (last writer wins); callers must serialize writers.
type ProductStore struct {
	path string
}

// NewProductStore returns a store backed by the given file path.
// The file does not have to exist yet.
func NewProductStore(path string) *ProductStore {
	return &ProductStore{path: path}
}

// ListAll returns the full catalog snapshot in storage order. A missing
// backing file yields an empty catalog, not an error. Malformed lines
// are skipped with a warning; a single bad record never aborts the load.
func (s *ProductStore) ListAll(ctx context.Context) ([]domain.Product, error) {
	log := logger.FromContext(ctx)

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ProductStore.ListAll: open %q: %w", s.path, err)
	}
	defer f.Close()

	var products []domain.Product
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, err := parseProduct(line)
		if err != nil {
			log.Warn().Str("line", line).Err(err).Msg("Skipping malformed product line")
			continue
		}
		products = append(products, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ProductStore.ListAll: read %q: %w", s.path, err)
	}
	return products, nil
}

// GetByID returns the first product with the given ID, or ErrNotFound.
func (s *ProductStore) GetByID(ctx context.Context, id string) (domain.Product, error) {
	products, err := s.ListAll(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("ProductStore.GetByID: product %q: %w", id, ErrNotFound)
}

// Add appends a new product and rewrites the table. Fails with
// ErrDuplicateKey if the ID is already present.
func (s *ProductStore) Add(ctx context.Context, p domain.Product) error {
	products, err := s.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, existing := range products {
		if existing.ID == p.ID {
			return fmt.Errorf("ProductStore.Add: product %q: %w", p.ID, ErrDuplicateKey)
		}
	}
	products = append(products, p)
	return s.saveAll(products)
}

// Update replaces all mutable fields of the product with the same ID and
// rewrites the table. Fails with ErrNotFound if the ID is absent.
func (s *ProductStore) Update(ctx context.Context, p domain.Product) error {
	products, err := s.ListAll(ctx)
	if err != nil {
		return err
	}
	for i, existing := range products {
		if existing.ID == p.ID {
			products[i] = p
			return s.saveAll(products)
		}
	}
	return fmt.Errorf("ProductStore.Update: product %q: %w", p.ID, ErrNotFound)
}

// Delete removes the product with the given ID and rewrites the table.
// It reports whether a record was removed.
func (s *ProductStore) Delete(ctx context.Context, id string) (bool, error) {
	products, err := s.ListAll(ctx)
	if err != nil {
		return false, err
	}
	kept := products[:0]
	removed := false
	for _, p := range products {
		if p.ID == id {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	if !removed {
		return false, nil
	}
	return true, s.saveAll(kept)
}

// saveAll rewrites the whole backing file from the in-memory snapshot.
func (s *ProductStore) saveAll(products []domain.Product) error {
	var b strings.Builder
	for _, p := range products {
		b.WriteString(formatProduct(p))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("ProductStore: rewrite %q: %w", s.path, err)
	}
	return nil
}

func parseProduct(line string) (domain.Product, error) {
	parts := strings.Split(line, fieldDelimiter)
	if len(parts) != productFieldCount {
		return domain.Product{}, fmt.Errorf("expected %d fields, got %d", productFieldCount, len(parts))
	}
	price, err := decimal.NewFromString(parts[2])
	if err != nil {
		return domain.Product{}, fmt.Errorf("price: %w", err)
	}
	stock, err := strconv.Atoi(parts[5])
	if err != nil {
		return domain.Product{}, fmt.Errorf("stock: %w", err)
	}
	return domain.Product{
		ID:        parts[0],
		Name:      parts[1],
		Price:     price,
		Category:  parts[3],
		ImagePath: parts[4],
		Stock:     stock,
	}, nil
}

func formatProduct(p domain.Product) string {
	return strings.Join([]string{
		p.ID,
		p.Name,
		p.Price.String(),
		p.Category,
		p.ImagePath,
		strconv.Itoa(p.Stock),
	}, fieldDelimiter)
}
