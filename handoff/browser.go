package handoff

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// BrowserOpener opens the deep link with the platform's URL handler. The
// opener process is started and not waited on.
type BrowserOpener struct {
	goos  string
	start func(ctx context.Context, name string, args ...string) error
}

func NewBrowserOpener() *BrowserOpener {
	return &BrowserOpener{goos: runtime.GOOS, start: startDetached}
}

func startDetached(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// openCommand returns the program and arguments that open uri on goos.
func openCommand(goos, uri string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{uri}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", uri}
	default:
		return "xdg-open", []string{uri}
	}
}

func (b *BrowserOpener) Send(ctx context.Context, msg Message) error {
	name, args := openCommand(b.goos, msg.URI)
	if err := b.start(ctx, name, args...); err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	return nil
}
