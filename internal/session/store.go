// Package session keeps one chat handler per browser session for the
// server-rendered widget and pushes every transcript change to the
// session's websocket watchers.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"samarth-chat/internal/chat"
	"samarth-chat/internal/models"
	"samarth-chat/internal/services"
	"samarth-chat/internal/transcript"
)

const (
	defaultAskTimeout = 30 * time.Second
	defaultIdleTTL    = 30 * time.Minute
	mirrorTimeout     = 5 * time.Second
)

// Publisher delivers transcript events to a session's watchers.
type Publisher interface {
	Publish(ctx context.Context, sessionID uuid.UUID, msg models.WSMessage) error
}

// EntryStore persists transcript entries.
type EntryStore interface {
	Append(ctx context.Context, sessionID uuid.UUID, e models.Entry) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Entry, error)
}

type Session struct {
	ID         uuid.UUID
	input      *chat.Field
	transcript *transcript.Transcript
	handler    *chat.Handler

	// serializes submissions so the latest user entry belongs to the caller
	submitMu sync.Mutex

	lastSeen atomic.Int64 // unix nanos
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) Entries() []models.Entry {
	return s.transcript.Entries()
}

func (s *Session) InFlight() int {
	return s.handler.InFlight()
}

type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	wg       sync.WaitGroup

	asker      chat.Asker
	publisher  Publisher
	entries    EntryStore
	renderer   *transcript.Renderer
	ordering   chat.Ordering
	askTimeout time.Duration
	idleTTL    time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

type Config struct {
	Asker      chat.Asker
	Publisher  Publisher  // optional
	Entries    EntryStore // optional
	Renderer   *transcript.Renderer
	Ordering   chat.Ordering
	AskTimeout time.Duration
	IdleTTL    time.Duration // sessions untouched this long are evicted by Sweep
	Logger     *zap.Logger
}

func NewStore(cfg Config) *Store {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = transcript.NewRenderer(false)
	}
	if cfg.AskTimeout <= 0 {
		cfg.AskTimeout = defaultAskTimeout
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	return &Store{
		sessions:   make(map[uuid.UUID]*Session),
		asker:      cfg.Asker,
		publisher:  cfg.Publisher,
		entries:    cfg.Entries,
		renderer:   cfg.Renderer,
		ordering:   cfg.Ordering,
		askTimeout: cfg.AskTimeout,
		idleTTL:    cfg.IdleTTL,
		now:        time.Now,
		logger:     cfg.Logger,
	}
}

// Renderer returns the renderer used for pushed fragments.
func (s *Store) Renderer() *transcript.Renderer {
	return s.renderer
}

// Create starts an empty session.
func (s *Store) Create() *Session {
	sess := s.newSession(uuid.New(), transcript.New())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Info("session created", zap.String("session", sess.ID.String()))
	return sess
}

// Get returns a live session, restoring it from the entry store when it
// is not in memory. Unknown ids yield a *services.NotFoundError.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		sess.touch(s.now())
		return sess, nil
	}

	if s.entries == nil {
		return nil, &services.NotFoundError{Message: "Session not found"}
	}

	stored, err := s.entries.ListBySession(ctx, id)
	if err != nil {
		return nil, &services.UpstreamError{Message: "failed to load transcript", Err: err}
	}
	if len(stored) == 0 {
		return nil, &services.NotFoundError{Message: "Session not found"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have restored it meanwhile.
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	sess = s.newSession(id, transcript.Restore(stored))
	s.sessions[id] = sess

	s.logger.Info("session restored", zap.String("session", id.String()), zap.Int("entries", len(stored)))
	return sess, nil
}

// Submit runs the synchronous half of a cycle: the message is placed in
// the session's input and accepted. The reply is fetched in the
// background and arrives through the publisher. It returns the appended
// user entry, or false when the message was blank.
func (s *Store) Submit(sess *Session, message string) (models.Entry, bool) {
	sess.touch(s.now())
	sess.submitMu.Lock()
	sess.input.Set(message)
	p, ok := sess.handler.Accept()
	var entry models.Entry
	if ok {
		entry = lastUserEntry(sess.transcript.Entries())
	}
	sess.submitMu.Unlock()

	if !ok {
		return models.Entry{}, false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.askTimeout)
		defer cancel()
		sess.handler.Complete(ctx, p)
	}()
	return entry, true
}

// Sweep evicts sessions idle for longer than the idle TTL with no reply
// outstanding, and returns how many it removed. Evicted sessions backed by
// the entry store are restored by the next Get.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.idleTTL).UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Load() < cutoff && sess.InFlight() == 0 {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("idle sessions evicted", zap.Int("count", removed), zap.Int("remaining", len(s.sessions)))
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Wait blocks until every background reply has been appended.
func (s *Store) Wait() {
	s.wg.Wait()
}

func (s *Store) newSession(id uuid.UUID, t *transcript.Transcript) *Session {
	sess := &Session{
		ID:         id,
		input:      &chat.Field{},
		transcript: t,
	}
	sess.touch(s.now())
	sess.handler = chat.NewHandler(sess.input, t, s.asker,
		chat.WithOrdering(s.ordering),
		chat.WithLogger(s.logger.With(zap.String("session", id.String()))),
	)
	t.Subscribe(s.listener(id))
	return sess
}

// listener runs under the transcript lock, so events leave in transcript order.
func (s *Store) listener(id uuid.UUID) transcript.Listener {
	return func(ev transcript.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()

		if ev.Scroll {
			s.publish(ctx, id, models.WSMessage{Type: "scroll"})
			return
		}

		entry := *ev.Entry
		if s.entries != nil {
			if err := s.entries.Append(ctx, id, entry); err != nil {
				s.logger.Error("failed to persist entry",
					zap.String("session", id.String()), zap.Int64("seq", entry.Seq), zap.Error(err))
			}
		}

		html, err := s.renderer.Entry(entry)
		if err != nil {
			s.logger.Error("failed to render entry", zap.Error(err))
			return
		}
		s.publish(ctx, id, models.WSMessage{
			Type:    "entry",
			Payload: models.EntryEvent{Entry: entry, HTML: string(html)},
		})
	}
}

func (s *Store) publish(ctx context.Context, id uuid.UUID, msg models.WSMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, id, msg); err != nil {
		s.logger.Warn("failed to publish transcript event",
			zap.String("session", id.String()), zap.String("type", msg.Type), zap.Error(err))
	}
}

func lastUserEntry(entries []models.Entry) models.Entry {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Role == models.RoleUser {
			return entries[i]
		}
	}
	return models.Entry{}
}
