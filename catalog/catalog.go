package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	models "cafe-cart/model"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed menu.json
var defaultMenu []byte

var (
	// ErrNotFound is returned when an item id is not in the catalog.
	ErrNotFound = errors.New("catalog item not found")
	// ErrInvalidItem is returned by Validate for items that break the pricing rules.
	ErrInvalidItem = errors.New("invalid catalog item")
)

// Catalog is a read-only, validated menu indexed by item id.
type Catalog struct {
	menu  models.Menu
	index map[string]models.CatalogItem
}

// New validates menu and builds the id index.
func New(menu models.Menu) (*Catalog, error) {
	if err := Validate(menu); err != nil {
		return nil, err
	}
	c := &Catalog{menu: menu, index: map[string]models.CatalogItem{}}
	for _, cat := range menu.Categories {
		for _, it := range cat.Items {
			c.index[it.ID] = it
		}
	}
	return c, nil
}

// Default returns the menu compiled into the binary.
func Default() *Catalog {
	var menu models.Menu
	if err := json.Unmarshal(defaultMenu, &menu); err != nil {
		panic(fmt.Sprintf("embedded menu is broken: %v", err))
	}
	c, err := New(menu)
	if err != nil {
		panic(fmt.Sprintf("embedded menu is invalid: %v", err))
	}
	return c
}

// Lookup returns the item with the given id.
func (c *Catalog) Lookup(id string) (models.CatalogItem, error) {
	it, ok := c.index[id]
	if !ok {
		return models.CatalogItem{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return it, nil
}

// Menu returns the categories in display order.
func (c *Catalog) Menu() models.Menu {
	return c.menu
}

// Validate checks ids are unique and that every item has exactly one
// pricing mode: a flat price or a non-empty list of sizes.
func Validate(menu models.Menu) error {
	seen := map[string]bool{}
	for _, cat := range menu.Categories {
		for _, it := range cat.Items {
			if it.ID == "" {
				return fmt.Errorf("%w: item %q in %q has no id", ErrInvalidItem, it.Name, cat.ID)
			}
			if seen[it.ID] {
				return fmt.Errorf("%w: duplicate id %s", ErrInvalidItem, it.ID)
			}
			seen[it.ID] = true
			if it.Name == "" {
				return fmt.Errorf("%w: %s has no name", ErrInvalidItem, it.ID)
			}
			switch {
			case it.Price != nil && len(it.Sizes) > 0:
				return fmt.Errorf("%w: %s has both price and sizes", ErrInvalidItem, it.ID)
			case it.Price == nil && len(it.Sizes) == 0:
				return fmt.Errorf("%w: %s has neither price nor sizes", ErrInvalidItem, it.ID)
			case it.Price != nil && *it.Price < 0:
				return fmt.Errorf("%w: %s has a negative price", ErrInvalidItem, it.ID)
			}
			for _, o := range append(append([]models.Option{}, it.Sizes...), it.Addons...) {
				if o.Label == "" || o.Price < 0 {
					return fmt.Errorf("%w: %s has a bad option %+v", ErrInvalidItem, it.ID, o)
				}
			}
		}
	}
	return nil
}

// Load reads a catalog from source: an http(s) URL, a .yaml/.yml file or a
// JSON file. An empty source, or any failure, gives the embedded menu.
func Load(ctx context.Context, source string, timeout time.Duration, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	if source == "" {
		return Default()
	}
	c, err := load(ctx, source, timeout)
	if err != nil {
		log.Warn("could not load menu, using embedded menu", zap.String("source", source), zap.Error(err))
		return Default()
	}
	return c
}

func load(ctx context.Context, source string, timeout time.Duration) (*Catalog, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = fetch(ctx, source, timeout)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}
	menu, err := decode(source, data)
	if err != nil {
		return nil, err
	}
	return New(menu)
}

func fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

func decode(source string, data []byte) (models.Menu, error) {
	var menu models.Menu
	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &menu); err != nil {
			return menu, fmt.Errorf("failed to parse menu: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &menu); err != nil {
			return menu, fmt.Errorf("failed to parse menu: %w", err)
		}
	}
	return menu, nil
}

// Holder shares the current catalog between the service and a Watcher.
type Holder struct {
	mu  sync.RWMutex
	cat *Catalog
}

func NewHolder(c *Catalog) *Holder {
	return &Holder{cat: c}
}

func (h *Holder) Get() *Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cat
}

func (h *Holder) Set(c *Catalog) {
	h.mu.Lock()
	h.cat = c
	h.mu.Unlock()
}

// PriceLabel renders the price line shown under an item:
// "₹70 / ₹120 (Half / Full)" for sized items, "₹99" otherwise.
func PriceLabel(it models.CatalogItem, symbol string) string {
	if !it.HasSizes() {
		if it.Price == nil {
			return ""
		}
		return fmt.Sprintf("%s%d", symbol, *it.Price)
	}
	prices := make([]string, 0, len(it.Sizes))
	labels := make([]string, 0, len(it.Sizes))
	for _, s := range it.Sizes {
		prices = append(prices, fmt.Sprintf("%s%d", symbol, s.Price))
		labels = append(labels, s.Label)
	}
	return fmt.Sprintf("%s (%s)", strings.Join(prices, " / "), strings.Join(labels, " / "))
}
