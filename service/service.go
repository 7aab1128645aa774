package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cafe-cart/cart"
	"cafe-cart/catalog"
	"cafe-cart/compose"
	"cafe-cart/geo"
	"cafe-cart/handoff"
	models "cafe-cart/model"
	"cafe-cart/order"
	"cafe-cart/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	AdvisoryNoAddress   = "Could not find an address for this location. Please type it in."
	AdvisoryBadLocation = "That location is not valid. Please type your address."
)

// MenuSource yields the current catalog. *catalog.Holder satisfies it.
type MenuSource interface {
	Get() *catalog.Catalog
}

// Deps are the collaborators of a Service. Cart and Menu are required.
type Deps struct {
	Menu      MenuSource
	Cart      *cart.Store
	Formatter *order.Formatter
	Handoff   handoff.Handoff
	Geo       geo.Geocoder
	Archive   store.Archive
	Currency  string
	Log       *zap.Logger
}

type Service struct {
	menu      MenuSource
	cart      *cart.Store
	selector  *compose.Selector
	formatter *order.Formatter
	handoff   handoff.Handoff
	geo       geo.Geocoder
	archive   store.Archive
	currency  string
	log       *zap.Logger

	newRef func() string
	now    func() time.Time

	checkoutMu sync.Mutex
}

func NewService(d Deps) *Service {
	s := &Service{
		menu:      d.Menu,
		cart:      d.Cart,
		selector:  compose.NewSelector(d.Cart),
		formatter: d.Formatter,
		handoff:   d.Handoff,
		geo:       d.Geo,
		archive:   d.Archive,
		currency:  d.Currency,
		log:       d.Log,
		newRef:    uuid.NewString,
		now:       time.Now,
	}
	if s.formatter == nil {
		s.formatter = order.NewFormatter("", s.currency, "", "")
	}
	if s.currency == "" {
		s.currency = s.formatter.Currency
	}
	if s.handoff == nil {
		s.handoff = handoff.NewWriter(nil)
	}
	if s.geo == nil {
		s.geo = geo.Nop{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

func (s *Service) Menu() []CategoryDTO {
	m := s.menu.Get().Menu()
	out := make([]CategoryDTO, 0, len(m.Categories))
	for _, c := range m.Categories {
		cd := CategoryDTO{ID: c.ID, Name: c.Name, Items: make([]ItemDTO, 0, len(c.Items))}
		for _, it := range c.Items {
			cd.Items = append(cd.Items, s.itemDTO(it))
		}
		out = append(out, cd)
	}
	return out
}

func (s *Service) Item(id string) (ItemDTO, error) {
	it, err := s.menu.Get().Lookup(id)
	if err != nil {
		return ItemDTO{}, err
	}
	return s.itemDTO(it), nil
}

func (s *Service) itemDTO(it models.CatalogItem) ItemDTO {
	return ItemDTO{CatalogItem: it, PriceLabel: catalog.PriceLabel(it, s.currency)}
}

// Add puts an item in the cart. A sized item without a size opens the size
// prompt and returns compose.ErrSizeRequired; the caller then picks one
// with ChooseSize or drops it with DismissSize.
func (s *Service) Add(itemID, size string, addons []string) (compose.Line, error) {
	it, err := s.menu.Get().Lookup(itemID)
	if err != nil {
		return compose.Line{}, err
	}
	chosen, err := compose.ResolveAddons(it, addons)
	if err != nil {
		return compose.Line{}, err
	}

	if it.HasSizes() && size == "" {
		if err := s.selector.Open(it, chosen); err != nil {
			return compose.Line{}, err
		}
		return compose.Line{}, fmt.Errorf("%w: %s", compose.ErrSizeRequired, it.Name)
	}

	var sz *models.Option
	if size != "" {
		opt, err := compose.ResolveSize(it, size)
		if err != nil {
			return compose.Line{}, err
		}
		sz = &opt
	}
	l, err := compose.Add(s.cart, it, sz, chosen)
	if err != nil {
		return compose.Line{}, err
	}
	s.log.Info("item added", zap.String("item", it.ID), zap.String("line", l.Name), zap.Int("price", l.Price))
	return l, nil
}

func (s *Service) AddLine(name, rawPrice string) cart.Snapshot {
	s.cart.AddRawLine(name, rawPrice)
	return s.cart.Snapshot()
}

func (s *Service) Remove(index int) cart.Snapshot {
	s.cart.Remove(index)
	return s.cart.Snapshot()
}

func (s *Service) UpdateQuantity(index, delta int) cart.Snapshot {
	s.cart.UpdateQuantity(index, delta)
	return s.cart.Snapshot()
}

func (s *Service) Clear() cart.Snapshot {
	s.cart.Clear()
	return s.cart.Snapshot()
}

func (s *Service) Cart() cart.Snapshot {
	return s.cart.Snapshot()
}

func (s *Service) OpenSize(itemID string, addons []string) (SizePromptDTO, error) {
	it, err := s.menu.Get().Lookup(itemID)
	if err != nil {
		return SizePromptDTO{}, err
	}
	chosen, err := compose.ResolveAddons(it, addons)
	if err != nil {
		return SizePromptDTO{}, err
	}
	if err := s.selector.Open(it, chosen); err != nil {
		return SizePromptDTO{}, err
	}
	return s.SizePrompt(), nil
}

func (s *Service) ChooseSize(label string) (compose.Line, error) {
	l, err := s.selector.Choose(label)
	if err != nil {
		return compose.Line{}, err
	}
	s.log.Info("size chosen", zap.String("line", l.Name), zap.Int("price", l.Price))
	return l, nil
}

func (s *Service) DismissSize() SizePromptDTO {
	s.selector.Dismiss()
	return s.SizePrompt()
}

func (s *Service) SizePrompt() SizePromptDTO {
	it, addons, ok := s.selector.Pending()
	if !ok {
		return SizePromptDTO{State: compose.Closed.String()}
	}
	return SizePromptDTO{
		State:  compose.Open.String(),
		ItemID: it.ID,
		Name:   it.Name,
		Sizes:  it.Sizes,
		Addons: addons,
	}
}

func (s *Service) Summary() order.Summary {
	return order.Summarize(s.cart.Lines())
}

// Checkout formats the cart, hands the order off and takes the ordered
// lines out of the cart. Lines added while the hand-off runs stay in the
// cart. Validation errors leave everything untouched. A failed hand-off keeps the
// cart so the customer can retry; a failed archive write is only logged.
func (s *Service) Checkout(ctx context.Context, d models.DeliveryDetails) (ReceiptDTO, error) {
	s.checkoutMu.Lock()
	defer s.checkoutMu.Unlock()

	snap := s.cart.Snapshot()
	lines := snap.Lines
	p, err := s.formatter.Format(lines, snap.Total, d)
	if err != nil {
		return ReceiptDTO{}, err
	}

	ref := s.newRef()
	if err := s.handoff.Send(ctx, handoff.Message{Reference: ref, Text: p.Text, URI: p.URI}); err != nil {
		s.log.Warn("order hand-off failed", zap.String("reference", ref), zap.Error(err))
		return ReceiptDTO{}, fmt.Errorf("hand off order: %w", err)
	}

	rec := models.OrderRecord{
		Reference: ref,
		Mobile:    d.Mobile,
		Address:   d.Address,
		Lines:     lines,
		Total:     p.Total,
		Text:      p.Text,
		URI:       p.URI,
		CreatedAt: s.now().UTC(),
	}
	if s.archive != nil {
		if err := s.archive.ArchiveOrder(ctx, rec); err != nil {
			s.log.Error("order archive failed", zap.String("reference", ref), zap.Error(err))
		}
	}

	s.cart.ClearOrdered(lines)
	s.selector.Dismiss()
	s.log.Info("order placed", zap.String("reference", ref), zap.Int("total", p.Total), zap.Int("lines", len(lines)))

	return ReceiptDTO{Reference: ref, Text: p.Text, URI: p.URI, Total: p.Total, CreatedAt: rec.CreatedAt}, nil
}

// Locate prefills delivery details from a picked coordinate. Lookup
// failures give a blank address and an advisory, never an error.
func (s *Service) Locate(ctx context.Context, lat, lng float64) LocateDTO {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return LocateDTO{Advisory: AdvisoryBadLocation}
	}
	at := models.LatLng{Lat: lat, Lng: lng}
	out := LocateDTO{
		Details: models.DeliveryDetails{Location: &at},
		MapLink: geo.MapLink(at),
	}
	addr, err := s.geo.Reverse(ctx, at)
	if err != nil {
		if !errors.Is(err, geo.ErrUnavailable) {
			s.log.Warn("reverse geocoding failed", zap.Float64("lat", lat), zap.Float64("lng", lng), zap.Error(err))
		}
		out.Advisory = AdvisoryNoAddress
		return out
	}
	out.Details.Address = addr
	return out
}

// DTOs
type CategoryDTO struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Items []ItemDTO `json:"items"`
}

type ItemDTO struct {
	models.CatalogItem
	PriceLabel string `json:"price_label"`
}

type SizePromptDTO struct {
	State  string          `json:"state"`
	ItemID string          `json:"item_id,omitempty"`
	Name   string          `json:"name,omitempty"`
	Sizes  []models.Option `json:"sizes,omitempty"`
	Addons []models.Option `json:"addons,omitempty"`
}

type ReceiptDTO struct {
	Reference string    `json:"reference"`
	Text      string    `json:"text"`
	URI       string    `json:"uri"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

type LocateDTO struct {
	Details  models.DeliveryDetails `json:"details"`
	MapLink  string                 `json:"map_link,omitempty"`
	Advisory string                 `json:"advisory,omitempty"`
}
