// Package compose turns a catalog item plus the customer's size and add-on
// choices into the (name, price) pair the cart stores.
package compose

import (
	"errors"
	"fmt"
	"strings"

	models "cafe-cart/model"
)

var (
	ErrSizeRequired   = errors.New("size selection required")
	ErrNoSizes        = errors.New("item has no size variants")
	ErrUnknownSize    = errors.New("unknown size")
	ErrUnknownAddon   = errors.New("unknown add-on")
	ErrSelectorClosed = errors.New("no size selection in progress")
)

// Sink receives composed lines. *cart.Store satisfies it.
type Sink interface {
	AddOrMerge(name string, price int)
}

// Line is a composed cart entry before it reaches the cart.
type Line struct {
	Name   string          `json:"name"`
	Price  int             `json:"price"`
	Size   *models.Option  `json:"size,omitempty"`
	Addons []models.Option `json:"addons,omitempty"`
}

// Compose prices and names item. size must be set for items with size
// variants and nil otherwise; the composer never picks a default size.
// addons are summed into the price and listed in the given order.
func Compose(item models.CatalogItem, size *models.Option, addons []models.Option) (Line, error) {
	if item.HasSizes() && size == nil {
		return Line{}, fmt.Errorf("%w: %s", ErrSizeRequired, item.Name)
	}
	if !item.HasSizes() && size != nil {
		return Line{}, fmt.Errorf("%w: %s", ErrNoSizes, item.Name)
	}

	price := 0
	if size != nil {
		price = size.Price
	} else if item.Price != nil {
		price = *item.Price
	}

	name := item.Name
	if size != nil {
		name += " (" + size.Label + ")"
	}
	if len(addons) > 0 {
		labels := make([]string, 0, len(addons))
		for _, a := range addons {
			price += a.Price
			labels = append(labels, a.Label)
		}
		name += " [" + strings.Join(labels, ", ") + "]"
	}

	l := Line{Name: name, Price: price}
	if size != nil {
		s := *size
		l.Size = &s
	}
	if len(addons) > 0 {
		l.Addons = append([]models.Option(nil), addons...)
	}
	return l, nil
}

// ResolveSize finds the size variant called label.
func ResolveSize(item models.CatalogItem, label string) (models.Option, error) {
	if !item.HasSizes() {
		return models.Option{}, fmt.Errorf("%w: %s", ErrNoSizes, item.Name)
	}
	s, ok := item.Size(label)
	if !ok {
		return models.Option{}, fmt.Errorf("%w %q for %s", ErrUnknownSize, label, item.Name)
	}
	return s, nil
}

// ResolveAddons copies the named add-ons out of item, keeping the order of
// labels. Repeated labels are kept once.
func ResolveAddons(item models.CatalogItem, labels []string) ([]models.Option, error) {
	out := make([]models.Option, 0, len(labels))
	seen := map[string]bool{}
	for _, label := range labels {
		if seen[label] {
			continue
		}
		a, ok := item.Addon(label)
		if !ok {
			return nil, fmt.Errorf("%w %q for %s", ErrUnknownAddon, label, item.Name)
		}
		seen[label] = true
		out = append(out, a)
	}
	return out, nil
}

// Add composes and hands the result to sink.
func Add(sink Sink, item models.CatalogItem, size *models.Option, addons []models.Option) (Line, error) {
	l, err := Compose(item, size, addons)
	if err != nil {
		return Line{}, err
	}
	sink.AddOrMerge(l.Name, l.Price)
	return l, nil
}
