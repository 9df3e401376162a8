// Package chat runs the request/response cycle behind the chat widget: it
// takes the question out of an input field, records it in the transcript,
// asks the answer endpoint and records the reply.
package chat

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"samarth-chat/internal/models"
)

// InputSource is the text field a question is typed into.
type InputSource interface {
	// ReadAndClear returns the current text and leaves the field empty.
	ReadAndClear() string
}

// TranscriptSink is the display surface that collects chat entries.
type TranscriptSink interface {
	Append(role models.Role, text string)
	ScrollToEnd()
}

// Asker performs the network step of a cycle.
type Asker interface {
	Ask(ctx context.Context, question string) (*models.AskResponse, error)
}

// AskerFunc adapts a function to the Asker interface.
type AskerFunc func(ctx context.Context, question string) (*models.AskResponse, error)

func (f AskerFunc) Ask(ctx context.Context, question string) (*models.AskResponse, error) {
	return f(ctx, question)
}

// Ordering decides when a finished cycle may append its reply.
type Ordering int

const (
	// CompletionOrder appends replies as soon as they arrive.
	CompletionOrder Ordering = iota
	// SubmissionOrder holds replies until every earlier question has been answered.
	SubmissionOrder
)

func (o Ordering) String() string {
	if o == SubmissionOrder {
		return "submission"
	}
	return "completion"
}

const (
	FallbackAnswer = "(no answer)"
	ErrorText      = "Error: could not reach server."
)

// Pending is a question that has been accepted but not yet answered.
type Pending struct {
	Seq      int64
	Question string
}

type Handler struct {
	input     InputSource
	sink      TranscriptSink
	asker     Asker
	logger    *zap.Logger
	ordering  Ordering
	fallback  string
	errorText string

	mu       sync.Mutex
	nextSeq  int64
	release  int64
	inFlight int
	held     map[int64]Result
	turns    int64 // emit turns handed out under mu

	// The sink may block on I/O, so it is only called under emitMu, in
	// turn order, never under mu.
	emitMu   sync.Mutex
	emitCond *sync.Cond
	serving  int64
}

type Option func(*Handler)

func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func WithOrdering(o Ordering) Option {
	return func(h *Handler) { h.ordering = o }
}

// WithFallbackAnswer sets the text shown when a reply carries no answer.
func WithFallbackAnswer(text string) Option {
	return func(h *Handler) { h.fallback = text }
}

// WithErrorText sets the text of the entry appended when the network step fails.
func WithErrorText(text string) Option {
	return func(h *Handler) { h.errorText = text }
}

func NewHandler(input InputSource, sink TranscriptSink, asker Asker, opts ...Option) *Handler {
	h := &Handler{
		input:     input,
		sink:      sink,
		asker:     asker,
		logger:    zap.NewNop(),
		ordering:  CompletionOrder,
		fallback:  FallbackAnswer,
		errorText: ErrorText,
		held:      make(map[int64]Result),
	}
	h.emitCond = sync.NewCond(&h.emitMu)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle runs one full cycle and blocks until its reply has been handled.
// It reports false when the input was blank and nothing happened.
func (h *Handler) Handle(ctx context.Context) bool {
	p, ok := h.Accept()
	if !ok {
		return false
	}
	h.Complete(ctx, p)
	return true
}

// Accept takes the question out of the input and appends the user entry.
// Blank input is left alone: no entry, no pending cycle.
func (h *Handler) Accept() (Pending, bool) {
	question := strings.TrimSpace(h.input.ReadAndClear())
	if question == "" {
		return Pending{}, false
	}

	h.mu.Lock()
	p := Pending{Seq: h.nextSeq, Question: question}
	h.nextSeq++
	h.inFlight++
	inFlight := h.inFlight
	turn := h.takeTurn()
	h.mu.Unlock()

	h.inTurn(turn, func() {
		h.sink.Append(models.RoleUser, question)
	})

	h.logger.Debug("question accepted", zap.Int64("seq", p.Seq), zap.Int("in_flight", inFlight))
	return p, true
}

// Complete asks the question of p and appends the reply. Under
// SubmissionOrder the reply may be held back until earlier cycles finish.
func (h *Handler) Complete(ctx context.Context, p Pending) {
	resp, err := h.asker.Ask(ctx, p.Question)
	res := Result{Response: resp, Err: err}
	if err != nil {
		h.logger.Warn("ask failed", zap.Int64("seq", p.Seq), zap.Error(err))
	}

	h.mu.Lock()
	var ready []Result
	if h.ordering == CompletionOrder {
		ready = append(ready, res)
	} else {
		h.held[p.Seq] = res
		for {
			next, ok := h.held[h.release]
			if !ok {
				break
			}
			delete(h.held, h.release)
			h.release++
			ready = append(ready, next)
		}
	}
	if len(ready) == 0 {
		h.mu.Unlock()
		return
	}
	turn := h.takeTurn()
	h.mu.Unlock()

	h.inTurn(turn, func() {
		for _, r := range ready {
			role, text := r.Entry(h.fallback, h.errorText)
			h.sink.Append(role, text)
			h.sink.ScrollToEnd()
		}
	})

	h.mu.Lock()
	h.inFlight -= len(ready)
	h.mu.Unlock()
}

// InFlight returns the number of accepted questions whose reply has not
// been appended yet.
func (h *Handler) InFlight() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inFlight
}

// Ordering returns the policy the handler was built with.
func (h *Handler) Ordering() Ordering {
	return h.ordering
}

// caller holds h.mu
func (h *Handler) takeTurn() int64 {
	t := h.turns
	h.turns++
	return t
}

// inTurn runs fn once every earlier turn has run.
func (h *Handler) inTurn(turn int64, fn func()) {
	h.emitMu.Lock()
	defer h.emitMu.Unlock()
	for h.serving != turn {
		h.emitCond.Wait()
	}
	defer func() {
		h.serving++
		h.emitCond.Broadcast()
	}()
	fn()
}
