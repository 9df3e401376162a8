// Package transcript holds the append-only log of chat entries and renders
// it as escaped markup.
package transcript

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"samarth-chat/internal/models"
)

// Event is delivered to listeners after every change. Exactly one of Entry
// or Scroll is set.
type Event struct {
	Entry  *models.Entry
	Scroll bool
}

// Listener observes a transcript. It is called with the transcript lock
// held, so it must not call back into the transcript.
type Listener func(Event)

// Transcript is an ordered, append-only list of entries safe for concurrent
// use. It satisfies chat.TranscriptSink.
type Transcript struct {
	mu        sync.RWMutex
	entries   []models.Entry
	nextSeq   int64
	listeners []Listener
	now       func() time.Time
}

func New() *Transcript {
	return &Transcript{now: time.Now}
}

// Restore builds a transcript that continues from previously stored entries,
// which must be in Seq order. New entries number on from the highest Seq, so
// a gap left by a lost write is never filled with a duplicate.
func Restore(entries []models.Entry) *Transcript {
	t := New()
	t.entries = append(t.entries, entries...)
	for _, e := range entries {
		if e.Seq >= t.nextSeq {
			t.nextSeq = e.Seq + 1
		}
	}
	return t
}

func (t *Transcript) Subscribe(l Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

func (t *Transcript) Append(role models.Role, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := models.Entry{
		ID:        uuid.New(),
		Seq:       t.nextSeq,
		Role:      role,
		Text:      text,
		CreatedAt: t.now(),
	}
	t.nextSeq++
	t.entries = append(t.entries, e)
	for _, l := range t.listeners {
		l(Event{Entry: &e})
	}
}

func (t *Transcript) ScrollToEnd() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, l := range t.listeners {
		l(Event{Scroll: true})
	}
}

// Entries returns a copy of the entries in display order.
func (t *Transcript) Entries() []models.Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.Entry(nil), t.entries...)
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
