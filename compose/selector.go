package compose

import (
	"sync"

	models "cafe-cart/model"
)

// State of the size selection prompt.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Selector is the size prompt shown before a multi-size item can be added.
// There is at most one pending selection; opening again replaces it.
type Selector struct {
	mu     sync.Mutex
	state  State
	item   models.CatalogItem
	addons []models.Option
	sink   Sink
}

func NewSelector(sink Sink) *Selector {
	return &Selector{sink: sink}
}

// Open starts a selection for item. The add-ons chosen so far are kept and
// applied when a size is chosen.
func (s *Selector) Open(item models.CatalogItem, addons []models.Option) error {
	if !item.HasSizes() {
		return ErrNoSizes
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Open
	s.item = item
	s.addons = append([]models.Option(nil), addons...)
	return nil
}

// Choose picks a size, closes the prompt and adds the composed line to the
// sink. An unknown label leaves the prompt open.
func (s *Selector) Choose(label string) (Line, error) {
	s.mu.Lock()
	if s.state != Open {
		s.mu.Unlock()
		return Line{}, ErrSelectorClosed
	}
	size, err := ResolveSize(s.item, label)
	if err != nil {
		s.mu.Unlock()
		return Line{}, err
	}
	item, addons := s.item, s.addons
	s.reset()
	s.mu.Unlock()

	return Add(s.sink, item, &size, addons)
}

// Dismiss closes the prompt without touching the cart.
func (s *Selector) Dismiss() {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
}

func (s *Selector) reset() {
	s.state = Closed
	s.item = models.CatalogItem{}
	s.addons = nil
}

func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the item awaiting a size, if any.
func (s *Selector) Pending() (models.CatalogItem, []models.Option, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Open {
		return models.CatalogItem{}, nil, false
	}
	return s.item, append([]models.Option(nil), s.addons...), true
}
