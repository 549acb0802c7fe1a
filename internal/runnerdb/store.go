package runnerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"runnerdb/internal/config"
	"runnerdb/internal/logging"
)

// Store manages runner persistence backed by SQLite with an in-memory index.
type Store struct {
	db     *sql.DB
	path   string
	lock   *flock.Flock
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	state   *state
	pending *pending
}

// state is the in-memory index every read is served from.
type state struct {
	runners     map[string]*Runner
	clubs       map[int64]*Club
	clubByName  map[string]int64
	aliases     map[string]*ClubAlias
	suppressed  map[Pair]time.Time
	nextClubID  int64
	lastUpdated time.Time
}

func newState() *state {
	return &state{
		runners:    make(map[string]*Runner),
		clubs:      make(map[int64]*Club),
		clubByName: make(map[string]int64),
		aliases:    make(map[string]*ClubAlias),
		suppressed: make(map[Pair]time.Time),
		nextClubID: 1,
	}
}

// pending tracks keys whose durable row no longer matches the index. On flush
// a key present in the index is written; a key absent from it is deleted.
type pending struct {
	rewrite bool
	runners map[string]struct{}
	clubs   map[int64]struct{}
	aliases map[string]struct{}
	pairs   map[Pair]struct{}
	meta    bool
}

func newPending() *pending {
	return &pending{
		runners: make(map[string]struct{}),
		clubs:   make(map[int64]struct{}),
		aliases: make(map[string]struct{}),
		pairs:   make(map[Pair]struct{}),
	}
}

func (p *pending) empty() bool {
	return !p.rewrite && !p.meta && len(p.runners) == 0 && len(p.clubs) == 0 &&
		len(p.aliases) == 0 && len(p.pairs) == 0
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open takes the data directory lock, connects to the database, applies the
// schema, and loads the index.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, cfg.LockPath())
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps per-connection pragmas in force for every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:      db,
		path:    dbPath,
		lock:    lock,
		logger:  logging.NewComponentLogger(logger, "runnerdb"),
		now:     func() time.Time { return time.Now().UTC() },
		state:   newState(),
		pending: newPending(),
	}
	ctx := context.Background()
	if err := store.initSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := store.load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	store.logger.Debug("runner store opened",
		logging.String("path", dbPath),
		logging.Int("runners", len(store.state.runners)),
		logging.Int("clubs", len(store.state.clubs)))
	return store, nil
}

// Close discards unsaved mutations, closes the database, and releases the lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.mu.RLock()
	unsaved := !s.pending.empty()
	s.mu.RUnlock()
	if unsaved {
		logging.WarnWithContext(s.logger, "closing store with unsaved changes", "store_unsaved_on_close",
			logging.String(logging.FieldErrorHint, "call Save before Close"),
			logging.String(logging.FieldImpact, "deferred mutations since the last save are lost"))
	}
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// HasPendingChanges reports whether mutations are waiting for Save.
func (s *Store) HasPendingChanges() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.pending.empty()
}

// Save flushes every pending mutation in one transaction. On failure nothing
// is written and the mutations stay pending.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ensureContext(ctx))
}
