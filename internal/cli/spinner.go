package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a label on a terminal line until stopped or until its
// context is cancelled.
type spinner struct {
	w        io.Writer
	label    string
	quit     chan struct{}
	finished chan struct{}
	once     sync.Once
	frames   int
}

// startSpinner starts animating label on w.
func startSpinner(ctx context.Context, w io.Writer, label string) *spinner {
	s := &spinner{
		w:        w,
		label:    label,
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go s.loop(ctx)
	return s
}

func (s *spinner) loop(ctx context.Context) {
	defer close(s.finished)
	defer s.clear()

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case <-ticker.C:
			frame := spinnerFrames[s.frames%len(spinnerFrames)]
			fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.label))
			s.frames++
		}
	}
}

func (s *spinner) clear() {
	if s.frames > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.label)+4))
	}
}

// stop halts the animation and waits until the line is cleared. It is safe
// to call more than once.
func (s *spinner) stop() {
	s.once.Do(func() { close(s.quit) })
	<-s.finished
}
