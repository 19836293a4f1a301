package builtin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dayuer/justrobot-go/internal/bus"
	"github.com/dayuer/justrobot-go/internal/component"
	"github.com/dayuer/justrobot-go/internal/config"
)

// StdinUser is the user id of every terminal event.
const StdinUser = "stdin"

// Stdin reads one text event per input line and prints replies.
type Stdin struct {
	in  io.Reader
	out io.Writer

	once  sync.Once
	lines chan string
	seq   int64

	wmu sync.Mutex
}

// NewStdin creates a terminal adapter over in and out.
func NewStdin(in io.Reader, out io.Writer) *Stdin {
	return &Stdin{in: in, out: out, lines: make(chan string)}
}

func (s *Stdin) Name() string    { return StdinAdapter }
func (s *Stdin) ID() string      { return StdinUser }
func (s *Stdin) Version() string { return "stdin" }

// Attach needs no settings.
func (s *Stdin) Attach(component.AdapterHost, config.Component) error { return nil }

// IsFriend is true for everyone on the terminal.
func (s *Stdin) IsFriend(string) bool { return true }

// UserList reports the only terminal user.
func (s *Stdin) UserList(context.Context) ([]string, error) { return []string{StdinUser}, nil }

func (s *Stdin) scan() {
	defer close(s.lines)
	sc := bufio.NewScanner(s.in)
	for sc.Scan() {
		s.lines <- sc.Text()
	}
}

// Receive blocks for the next non-empty line. io.EOF when input ends.
func (s *Stdin) Receive(ctx context.Context) (bus.RawEvent, error) {
	s.once.Do(func() { go s.scan() })
	for {
		select {
		case <-ctx.Done():
			return bus.RawEvent{}, ctx.Err()
		case line, ok := <-s.lines:
			if !ok {
				return bus.RawEvent{}, io.EOF
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			s.seq++
			return bus.RawEvent{
				Sequence:  s.seq,
				Notice:    bus.NoticeText,
				Text:      line,
				UserID:    StdinUser,
				Timestamp: time.Now(),
			}, nil
		}
	}
}

// Send prints the reply with a timestamp.
func (s *Stdin) Send(_ context.Context, _ bus.Target, r *bus.Reply) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err := fmt.Fprintf(s.out, "%s %s\n", time.Now().Format(time.DateTime), render(r))
	return err
}

func render(r *bus.Reply) string {
	if r.Operation != "" {
		return "<" + r.Operation + ">"
	}
	var parts []string
	if r.Quote {
		parts = append(parts, fmt.Sprintf("[re #%d]", r.QuoteSeq))
	}
	if r.At != "" {
		parts = append(parts, "@"+r.At)
	}
	if r.Text != "" {
		parts = append(parts, r.Text)
	}
	for _, f := range r.Files {
		parts = append(parts, fmt.Sprintf("<file %s %d bytes>", mimetype.Detect(f).String(), len(f)))
	}
	return strings.Join(parts, " ")
}

var _ component.Adapter = (*Stdin)(nil)
