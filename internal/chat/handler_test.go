package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"samarth-chat/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type line struct {
	Role models.Role
	Text string
}

type recordingSink struct {
	mu      sync.Mutex
	lines   []line
	scrolls int
}

func (s *recordingSink) Append(role models.Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line{Role: role, Text: text})
}

func (s *recordingSink) ScrollToEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolls++
}

func (s *recordingSink) snapshot() []line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]line(nil), s.lines...)
}

type countingAsker struct {
	mu    sync.Mutex
	calls []string
	fn    AskerFunc
}

func (a *countingAsker) Ask(ctx context.Context, question string) (*models.AskResponse, error) {
	a.mu.Lock()
	a.calls = append(a.calls, question)
	a.mu.Unlock()
	return a.fn(ctx, question)
}

func answer(text string) *models.AskResponse {
	return &models.AskResponse{Answer: &text}
}

func echoAsker() *countingAsker {
	return &countingAsker{fn: func(ctx context.Context, q string) (*models.AskResponse, error) {
		return answer("re: " + q), nil
	}}
}

func TestHandle_BlankInputIsNoOp(t *testing.T) {
	for _, input := range []string{"", " ", "   ", "\t\n", " \r\n\t "} {
		field := &Field{}
		field.Set(input)
		sink := &recordingSink{}
		asker := echoAsker()

		h := NewHandler(field, sink, asker)
		assert.False(t, h.Handle(context.Background()), "input %q", input)
		assert.Empty(t, sink.snapshot(), "input %q", input)
		assert.Zero(t, sink.scrolls)
		assert.Empty(t, asker.calls, "input %q", input)
		assert.Zero(t, h.InFlight())
	}
}

func TestHandle_AppendsTrimmedUserEntryAndClearsBeforeAsking(t *testing.T) {
	field := &Field{}
	sink := &recordingSink{}
	var seenField string
	var seenLines []line
	asker := &countingAsker{fn: func(ctx context.Context, q string) (*models.AskResponse, error) {
		seenField = field.Value()
		seenLines = sink.snapshot()
		return answer("ok"), nil
	}}

	field.Set("  meaning of life \n")
	h := NewHandler(field, sink, asker)
	require.True(t, h.Handle(context.Background()))

	assert.Equal(t, "", seenField, "field must be empty before the response arrives")
	assert.Equal(t, []line{{models.RoleUser, "meaning of life"}}, seenLines)
	assert.Equal(t, []string{"meaning of life"}, asker.calls)
}

func TestHandle_SuccessfulCycle(t *testing.T) {
	field := &Field{}
	sink := &recordingSink{}
	asker := &countingAsker{fn: func(ctx context.Context, q string) (*models.AskResponse, error) {
		return answer("42"), nil
	}}

	field.Set("meaning of life")
	h := NewHandler(field, sink, asker)
	require.True(t, h.Handle(context.Background()))

	want := []line{
		{models.RoleUser, "meaning of life"},
		{models.RoleBot, "42"},
	}
	if diff := cmp.Diff(want, sink.snapshot()); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, sink.scrolls)
	assert.Zero(t, h.InFlight())
}

func TestHandle_TrimmingIsIdempotent(t *testing.T) {
	var got []string
	for _, input := range []string{"  hello  ", "hello"} {
		field := &Field{}
		field.Set(input)
		sink := &recordingSink{}
		NewHandler(field, sink, echoAsker()).Handle(context.Background())
		got = append(got, sink.snapshot()[0].Text)
	}
	assert.Equal(t, []string{"hello", "hello"}, got)
}

func TestHandle_MissingAnswerUsesPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		resp *models.AskResponse
		want string
	}{
		{"no answer field", &models.AskResponse{}, FallbackAnswer},
		{"blank answer", answer("  "), FallbackAnswer},
		{"legacy text field", &models.AskResponse{Text: "from text"}, "from text"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			field := &Field{}
			field.Set("q")
			sink := &recordingSink{}
			asker := &countingAsker{fn: func(ctx context.Context, q string) (*models.AskResponse, error) {
				return tc.resp, nil
			}}

			NewHandler(field, sink, asker).Handle(context.Background())
			lines := sink.snapshot()
			require.Len(t, lines, 2)
			assert.Equal(t, line{models.RoleBot, tc.want}, lines[1])
		})
	}
}

func TestHandle_CustomPlaceholderAndErrorText(t *testing.T) {
	field := &Field{}
	sink := &recordingSink{}
	calls := 0
	asker := &countingAsker{fn: func(ctx context.Context, q string) (*models.AskResponse, error) {
		calls++
		if calls == 1 {
			return &models.AskResponse{}, nil
		}
		return nil, errors.New("boom")
	}}
	h := NewHandler(field, sink, asker, WithFallbackAnswer("n/a"), WithErrorText("offline"))

	field.Set("one")
	h.Handle(context.Background())
	field.Set("two")
	h.Handle(context.Background())

	want := []line{
		{models.RoleUser, "one"},
		{models.RoleBot, "n/a"},
		{models.RoleUser, "two"},
		{models.RoleError, "offline"},
	}
	assert.Equal(t, want, sink.snapshot())
}

func TestHandle_NetworkFailureAppendsErrorEntry(t *testing.T) {
	field := &Field{}
	sink := &recordingSink{}
	asker := &countingAsker{fn: func(ctx context.Context, q string) (*models.AskResponse, error) {
		return nil, errors.New("connection refused")
	}}

	field.Set("hello")
	h := NewHandler(field, sink, asker)
	require.True(t, h.Handle(context.Background()))

	want := []line{
		{models.RoleUser, "hello"},
		{models.RoleError, ErrorText},
	}
	assert.Equal(t, want, sink.snapshot())
	assert.Equal(t, 1, sink.scrolls)
	assert.Zero(t, h.InFlight())
}

// slowFirstAsker answers "B" immediately and holds "A" until release is closed.
func slowFirstAsker(release <-chan struct{}) *countingAsker {
	return &countingAsker{fn: func(ctx context.Context, q string) (*models.AskResponse, error) {
		if q == "A" {
			<-release
		}
		return answer("bot" + q), nil
	}}
}

func runOverlapping(t *testing.T, h *Handler, field *Field) {
	t.Helper()

	field.Set("A")
	pA, ok := h.Accept()
	require.True(t, ok)
	field.Set("B")
	pB, ok := h.Accept()
	require.True(t, ok)
	assert.Equal(t, 2, h.InFlight())

	release := make(chan struct{})
	h.asker = slowFirstAsker(release)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.Complete(context.Background(), pA)
	}()

	h.Complete(context.Background(), pB)
	close(release)
	wg.Wait()
	assert.Zero(t, h.InFlight())
}

func TestHandle_CompletionOrderAllowsInterleaving(t *testing.T) {
	field := &Field{}
	sink := &recordingSink{}
	h := NewHandler(field, sink, nil)

	runOverlapping(t, h, field)

	want := []line{
		{models.RoleUser, "A"},
		{models.RoleUser, "B"},
		{models.RoleBot, "botB"},
		{models.RoleBot, "botA"},
	}
	if diff := cmp.Diff(want, sink.snapshot()); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
}

func TestHandle_SubmissionOrderReplaysInOrder(t *testing.T) {
	field := &Field{}
	sink := &recordingSink{}
	h := NewHandler(field, sink, nil, WithOrdering(SubmissionOrder))

	runOverlapping(t, h, field)

	want := []line{
		{models.RoleUser, "A"},
		{models.RoleUser, "B"},
		{models.RoleBot, "botA"},
		{models.RoleBot, "botB"},
	}
	if diff := cmp.Diff(want, sink.snapshot()); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, sink.scrolls)
}

func TestHandle_SubmissionOrderHoldsLaterReply(t *testing.T) {
	field := &Field{}
	sink := &recordingSink{}
	h := NewHandler(field, sink, echoAsker(), WithOrdering(SubmissionOrder))

	field.Set("first")
	first, _ := h.Accept()
	field.Set("second")
	second, _ := h.Accept()

	h.Complete(context.Background(), second)
	assert.Len(t, sink.snapshot(), 2, "reply to the second question must wait for the first")
	assert.Equal(t, 2, h.InFlight())

	h.Complete(context.Background(), first)
	assert.Equal(t, []line{
		{models.RoleUser, "first"},
		{models.RoleUser, "second"},
		{models.RoleBot, "re: first"},
		{models.RoleBot, "re: second"},
	}, sink.snapshot())
}

func TestHandle_ConcurrentCyclesAllComplete(t *testing.T) {
	field := &Field{}
	sink := &recordingSink{}
	h := NewHandler(field, sink, echoAsker())

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		field.Set("q")
		p, ok := h.Accept()
		require.True(t, ok)
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Complete(context.Background(), p)
		}()
	}
	wg.Wait()

	lines := sink.snapshot()
	assert.Len(t, lines, 2*n)
	var users, bots int
	for _, l := range lines {
		switch l.Role {
		case models.RoleUser:
			users++
		case models.RoleBot:
			bots++
		}
	}
	assert.Equal(t, n, users)
	assert.Equal(t, n, bots)
	assert.Zero(t, h.InFlight())
}

// blockingSink stalls bot entries until released, like a sink that
// persists over the network.
type blockingSink struct {
	recordingSink
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSink) Append(role models.Role, text string) {
	if role == models.RoleBot {
		s.entered <- struct{}{}
		<-s.release
	}
	s.recordingSink.Append(role, text)
}

func TestInFlight_DoesNotWaitOnSlowSink(t *testing.T) {
	field := &Field{}
	sink := &blockingSink{entered: make(chan struct{}, 1), release: make(chan struct{})}
	h := NewHandler(field, sink, echoAsker())

	field.Set("q")
	p, ok := h.Accept()
	require.True(t, ok)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Complete(context.Background(), p)
	}()

	<-sink.entered
	assert.Equal(t, 1, h.InFlight())

	close(sink.release)
	<-done
	assert.Zero(t, h.InFlight())
	assert.Equal(t, []line{
		{models.RoleUser, "q"},
		{models.RoleBot, "re: q"},
	}, sink.snapshot())
}

func TestAccept_AssignsMonotonicSequence(t *testing.T) {
	field := &Field{}
	h := NewHandler(field, &recordingSink{}, echoAsker())

	var seqs []int64
	for _, q := range []string{"a", " ", "b", "c"} {
		field.Set(q)
		if p, ok := h.Accept(); ok {
			seqs = append(seqs, p.Seq)
		}
	}
	assert.Equal(t, []int64{0, 1, 2}, seqs)
}

func TestOrdering_String(t *testing.T) {
	assert.Equal(t, "completion", CompletionOrder.String())
	assert.Equal(t, "submission", SubmissionOrder.String())
}
