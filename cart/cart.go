// Package cart owns the shopping cart: an insertion-ordered list of lines
// merged by composed name and written to durable storage after every change.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	models "cafe-cart/model"
	"cafe-cart/store"

	"go.uber.org/zap"
)

// DefaultKey is the storage key the cart is persisted under.
const DefaultKey = "balojiCart"

const persistTimeout = 5 * time.Second

// Snapshot is what observers receive after each mutation.
type Snapshot struct {
	Lines     []models.CartLine `json:"lines"`
	Total     int               `json:"total"`
	ItemCount int               `json:"item_count"`
}

// Store is the single owner of the cart lines. All methods are safe for
// concurrent use; mutations are serialized through one mutex.
type Store struct {
	mu    sync.Mutex
	lines []models.CartLine

	kv  store.Store
	key string
	log *zap.Logger

	obsMu     sync.Mutex
	observers map[int]func(Snapshot)
	nextObs   int
}

// New hydrates a cart from kv. A missing key gives an empty cart; a value
// that cannot be decoded is logged and treated as empty. A failed read is
// returned so the stored cart is not overwritten by an empty one.
func New(ctx context.Context, kv store.Store, key string, log *zap.Logger) (*Store, error) {
	if key == "" {
		key = DefaultKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{kv: kv, key: key, log: log, observers: map[int]func(Snapshot){}}
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", key, err)
	}
	if ok {
		s.lines = s.decode(raw)
	}
	return s, nil
}

func (s *Store) decode(raw string) []models.CartLine {
	var lines []models.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		s.log.Warn("stored cart is malformed, starting empty", zap.String("key", s.key), zap.Error(err))
		return nil
	}

	out := lines[:0]
	for _, l := range lines {
		if l.Quantity < 1 {
			s.log.Warn("dropping stored cart line with invalid quantity",
				zap.String("name", l.Name), zap.Int("quantity", l.Quantity))
			continue
		}
		if l.Price < 0 {
			l.Price = 0
		}
		out = append(out, l)
	}
	return out
}

// AddOrMerge increments the line whose name equals name, or appends a new
// line with quantity 1. Negative prices are stored as 0.
func (s *Store) AddOrMerge(name string, price int) {
	if price < 0 {
		price = 0
	}

	s.mu.Lock()
	merged := false
	for i := range s.lines {
		if s.lines[i].Name == name {
			s.lines[i].Quantity++
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, models.CartLine{Name: name, Price: price, Quantity: 1})
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.log.Debug("cart line added", zap.String("name", name), zap.Int("price", price), zap.Bool("merged", merged))
	s.notify(snap)
}

// AddRawLine adds a line whose price arrives as text. The price is read the
// lenient way: leading digits are used, anything else counts as 0.
func (s *Store) AddRawLine(name, rawPrice string) {
	s.AddOrMerge(name, ParsePrice(rawPrice))
}

// Remove deletes the line at index. Out of range indices are ignored.
func (s *Store) Remove(index int) {
	s.mu.Lock()
	if index < 0 || index >= len(s.lines) {
		s.mu.Unlock()
		return
	}
	name := s.removeLocked(index)
	snap := s.commitLocked()
	s.mu.Unlock()

	s.log.Debug("cart line removed", zap.String("name", name))
	s.notify(snap)
}

// UpdateQuantity adds delta to the line at index. A result of 0 or less
// removes the line. Out of range indices are ignored.
func (s *Store) UpdateQuantity(index, delta int) {
	s.mu.Lock()
	if index < 0 || index >= len(s.lines) {
		s.mu.Unlock()
		return
	}
	s.lines[index].Quantity += delta
	if s.lines[index].Quantity <= 0 {
		name := s.removeLocked(index)
		s.log.Debug("cart line removed", zap.String("name", name))
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Store) removeLocked(index int) string {
	name := s.lines[index].Name
	s.lines = append(s.lines[:index], s.lines[index+1:]...)
	return name
}

// Clear empties the cart and persists the empty state.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	snap := s.commitLocked()
	s.mu.Unlock()

	s.log.Debug("cart cleared")
	s.notify(snap)
}

// ClearOrdered takes the quantities in ordered out of the cart. Lines added
// or merged after ordered was read stay behind.
func (s *Store) ClearOrdered(ordered []models.CartLine) {
	s.mu.Lock()
	for _, o := range ordered {
		for i := range s.lines {
			if s.lines[i].Name != o.Name {
				continue
			}
			s.lines[i].Quantity -= o.Quantity
			if s.lines[i].Quantity <= 0 {
				s.removeLocked(i)
			}
			break
		}
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.log.Debug("ordered lines cleared", zap.Int("ordered", len(ordered)), zap.Int("left", len(snap.Lines)))
	s.notify(snap)
}

// Total is the sum of price x quantity over all lines.
func (s *Store) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.lines)
}

// ItemCount is the sum of quantities, used for badges.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemCount(s.lines)
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartLine(nil), s.lines...)
}

// Len is the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Snapshot returns lines, total and item count taken under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to be called after every mutation. The returned
// func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) notify(snap Snapshot) {
	s.obsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// commitLocked persists the full cart and returns a snapshot for observers.
// Callers hold s.mu.
func (s *Store) commitLocked() Snapshot {
	lines := s.lines
	if lines == nil {
		lines = []models.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		s.log.Error("cart encode failed", zap.Error(err))
		return s.snapshotLocked()
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.log.Error("cart persist failed", zap.String("key", s.key), zap.Error(err))
	}
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Lines:     append([]models.CartLine{}, s.lines...),
		Total:     total(s.lines),
		ItemCount: itemCount(s.lines),
	}
}

func total(lines []models.CartLine) int {
	sum := 0
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}

func itemCount(lines []models.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// ParsePrice reads an optional sign and the leading decimal digits of raw.
// Input without leading digits gives 0; negative results are clamped to 0
// and values past the int range to math.MaxInt.
func ParsePrice(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(raw[:end])
	if errors.Is(err, strconv.ErrRange) {
		if raw[0] == '-' {
			return 0
		}
		return math.MaxInt
	}
	if err != nil || n < 0 {
		return 0
	}
	return n
}
