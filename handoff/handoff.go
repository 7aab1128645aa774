// Package handoff delivers a formatted order to the outside world. Delivery
// is fire-and-forget: a nil error means the channel accepted the message,
// not that anyone read it.
package handoff

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Message is one placed order ready to leave the system.
type Message struct {
	Reference string
	Text      string
	URI       string
}

// Handoff sends orders out.
type Handoff interface {
	Send(ctx context.Context, msg Message) error
}

// Writer prints the deep link, one per line. Used by the CLI on machines
// without a desktop and in tests.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	if w == nil {
		w = os.Stdout
	}
	return &Writer{w: w}
}

func (w *Writer) Send(_ context.Context, msg Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := fmt.Fprintf(w.w, "order %s: open %s\n", msg.Reference, msg.URI); err != nil {
		return fmt.Errorf("write order link: %w", err)
	}
	return nil
}
