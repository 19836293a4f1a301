package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/dayuer/justrobot-go/internal/logging"
)

// Reply notices.
const (
	NoticeText             = "text"
	NoticeQuoteText        = "quote text"
	NoticeRichMessage      = "rich message"
	NoticeQuoteRichMessage = "quote rich message"
	NoticeFile             = "file"
	NoticeQuoteFile        = "quote file"
	NoticeAt               = "at"
	NoticeQuoteAt          = "quote at"
	NoticeOperation        = "operation"
)

var (
	// ErrEmptyReply is returned for a reply with no text, file, mention or operation.
	ErrEmptyReply = errors.New("reply has no content")
	// ErrMixedReply is returned when an operation is combined with other content.
	ErrMixedReply = errors.New("operation cannot be combined with text, file or mention")
)

// Intent is what a handler wants to send back.
type Intent struct {
	Text      string
	Files     [][]byte
	Quote     bool
	At        string // user id to mention
	Operation string
}

// Reply is the normalized outbound payload handed to an adapter.
type Reply struct {
	Notice    string   `json:"notice"`
	Text      string   `json:"text,omitempty"`
	Files     [][]byte `json:"files,omitempty"`
	At        string   `json:"at,omitempty"`
	Operation string   `json:"operation,omitempty"`
	Quote     bool     `json:"quote,omitempty"`
	QuoteSeq  int64    `json:"quoteSeq,omitempty"`
}

// BuildReply normalizes an intent into exactly one reply notice.
// A quote flag on an operation is dropped.
func BuildReply(in Intent) (*Reply, error) {
	hasText := in.Text != ""
	hasFile := len(in.Files) > 0
	hasAt := in.At != ""

	if in.Operation != "" {
		if hasText || hasFile || hasAt {
			return nil, ErrMixedReply
		}
		return &Reply{Notice: NoticeOperation, Operation: in.Operation}, nil
	}

	r := &Reply{Text: in.Text, Files: in.Files, At: in.At, Quote: in.Quote}
	switch {
	case hasText && hasFile:
		r.Notice = quoted(in.Quote, NoticeRichMessage, NoticeQuoteRichMessage)
	case hasText:
		r.Notice = quoted(in.Quote, NoticeText, NoticeQuoteText)
	case hasFile:
		r.Notice = quoted(in.Quote, NoticeFile, NoticeQuoteFile)
	case hasAt:
		r.Notice = quoted(in.Quote, NoticeAt, NoticeQuoteAt)
	default:
		return nil, ErrEmptyReply
	}
	return r, nil
}

func quoted(q bool, plain, quote string) string {
	if q {
		return quote
	}
	return plain
}

// SendFunc delivers a built reply to a target through the owning adapter.
type SendFunc func(ctx context.Context, to Target, r *Reply) error

// Sender binds an adapter's send capability to entity handles and messages.
type Sender struct {
	adapter string
	fn      SendFunc
	log     logging.Logger
}

// NewSender creates a Sender for adapter. A nil log discards output.
func NewSender(adapter string, fn SendFunc, log logging.Logger) *Sender {
	if log == nil {
		log = logging.Nop()
	}
	return &Sender{adapter: adapter, fn: fn, log: log}
}

// Adapter returns the owning adapter name.
func (s *Sender) Adapter() string {
	if s == nil {
		return ""
	}
	return s.adapter
}

// Deliver builds the reply for in and sends it to to. Rejected intents are logged
// and returned. quoteSeq is the sequence of the quoted message, if any.
func (s *Sender) Deliver(ctx context.Context, to Target, in Intent, quoteSeq int64) error {
	if s == nil || s.fn == nil {
		return fmt.Errorf("no send capability bound for %s %s", to.Kind, to.ID)
	}
	r, err := BuildReply(in)
	if err != nil {
		s.log.Log(logging.Error, logging.En("[Reply] %s rejected a reply to %s %s: %v", s.adapter, to.Kind, to.ID, err).
			Zh("[Reply] %s 拒绝了发往 %s %s 的回复: %v", s.adapter, to.Kind, to.ID, err))
		return err
	}
	if in.Quote && in.Operation != "" {
		s.log.Log(logging.Warn, logging.En("[Reply] quote ignored on operation %q", in.Operation).
			Zh("[Reply] 操作 %q 不支持引用, 已忽略", in.Operation))
	}
	if r.Quote {
		r.QuoteSeq = quoteSeq
	}
	if err := s.fn(ctx, to, r); err != nil {
		s.log.Log(logging.Error, logging.En("[Reply] %s failed to send %s to %s %s: %v", s.adapter, r.Notice, to.Kind, to.ID, err).
			Zh("[Reply] %s 发送 %s 到 %s %s 失败: %v", s.adapter, r.Notice, to.Kind, to.ID, err))
		return err
	}
	return nil
}
