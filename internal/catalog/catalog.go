// Package catalog provides the read-once, read-only product catalog that every
// query is evaluated against.
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"sync"

	"productview/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrSourceUnavailable is returned when the catalog cannot be read.
	ErrSourceUnavailable = errors.New("catalog source unavailable")

	// ErrInvalidCatalog is returned when the catalog was read but is unusable.
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// Loader reads the full catalog from its backing store.
type Loader interface {
	Load(ctx context.Context) ([]domain.Product, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) ([]domain.Product, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) ([]domain.Product, error) {
	return f(ctx)
}

// Catalog loads products once and serves them read-only for the rest of the
// process lifetime. A failed load is not memoized; the next caller tries again.
type Catalog struct {
	loader Loader

	mu          sync.Mutex
	loaded      bool
	products    []domain.Product
	fingerprint string
}

// New creates a catalog that reads from loader on first access.
func New(loader Loader) *Catalog {
	return &Catalog{loader: loader}
}

// Products returns a copy of the catalog in source order.
func (c *Catalog) Products(ctx context.Context) ([]domain.Product, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return slices.Clone(c.products), nil
}

// Fingerprint identifies the loaded catalog contents.
func (c *Catalog) Fingerprint(ctx context.Context) (string, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return "", err
	}
	return c.fingerprint, nil
}

// Len returns the number of products, loading the catalog if needed.
func (c *Catalog) Len(ctx context.Context) (int, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	return len(c.products), nil
}

func (c *Catalog) ensureLoaded(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}

	products, err := c.loader.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrSourceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	if err := Validate(products); err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	c.products = slices.Clone(products)
	c.fingerprint = Fingerprint(c.products)
	c.loaded = true

	log.WithFields(log.Fields{
		"products":    len(c.products),
		"fingerprint": c.fingerprint[:12],
	}).Info("✅ Catalog loaded")

	return nil
}

// Validate checks that ids are unique and prices are non-negative.
func Validate(products []domain.Product) error {
	seen := make(map[int64]struct{}, len(products))
	for i := range products {
		p := &products[i]
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate product id %d", ErrInvalidCatalog, p.ID)
		}
		seen[p.ID] = struct{}{}

		if p.Price < 0 || math.IsNaN(p.Price) {
			return fmt.Errorf("%w: product %d has invalid price %v", ErrInvalidCatalog, p.ID, p.Price)
		}
	}
	return nil
}

// Fingerprint hashes every field of every product in order.
func Fingerprint(products []domain.Product) string {
	h := sha256.New()
	for i := range products {
		p := &products[i]
		h.Write(strconv.AppendInt(nil, p.ID, 10))
		h.Write([]byte{0})
		h.Write([]byte(p.Name))
		h.Write([]byte{0})
		h.Write([]byte(p.Category))
		h.Write([]byte{0})
		h.Write(strconv.AppendFloat(nil, p.Price, 'g', -1, 64))
		h.Write([]byte{0})
		h.Write([]byte(p.Image))
		h.Write([]byte{0})
		h.Write(strconv.AppendBool(nil, p.InStock))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
