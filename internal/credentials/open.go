package credentials

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/config"
)

// Factory hands out session-scoped stores that share one backing connection.
// The local server opens one store per verification session through it.
type Factory struct {
	kind string
	path string
	ttl  time.Duration
	rdb  *redis.Client
	db   *sql.DB

	mu       sync.Mutex
	memories map[string]*MemoryStore
}

// maxReadableSession bounds the human-readable part of a session file name.
const maxReadableSession = 32

// NewFactory connects to the backend selected by cfg.CredentialStore.
func NewFactory(ctx context.Context, cfg config.Config) (*Factory, error) {
	f := &Factory{kind: cfg.CredentialStore, path: cfg.CredentialPath, ttl: cfg.CredentialTTL.Std()}
	switch cfg.CredentialStore {
	case config.StoreMemory:
		f.memories = make(map[string]*MemoryStore)
	case config.StoreFile, "":
		f.kind = config.StoreFile
	case config.StoreRedis:
		_, client, err := OpenRedis(ctx, cfg.RedisURL, cfg.Session, f.ttl)
		if err != nil {
			return nil, err
		}
		f.rdb = client
	case config.StorePostgres:
		store, err := OpenPostgres(ctx, cfg.DatabaseURL, cfg.Session)
		if err != nil {
			return nil, err
		}
		f.db = store.DB
	default:
		return nil, fmt.Errorf("credentials: unknown store %q", cfg.CredentialStore)
	}
	return f, nil
}

// Store returns the store for session. Memory stores live as long as the
// factory; every other kind is a thin view over the shared connection.
func (f *Factory) Store(session string) Store {
	switch f.kind {
	case config.StoreMemory:
		f.mu.Lock()
		defer f.mu.Unlock()
		if s, ok := f.memories[session]; ok {
			return s
		}
		s := NewMemoryStore()
		f.memories[session] = s
		return s
	case config.StoreRedis:
		return NewRedisStore(f.rdb, session, f.ttl)
	case config.StorePostgres:
		return &PostgresStore{DB: f.db, Session: session}
	default:
		return NewFileStore(sessionPath(f.path, session))
	}
}

// Release forgets a session's in-memory store once nothing uses it any more.
// Stores of the other kinds hold no per-session state, so it is a no-op for them.
func (f *Factory) Release(session string) {
	if f.kind != config.StoreMemory {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.memories, session)
}

// Close releases the shared connection, if any.
func (f *Factory) Close() error {
	switch {
	case f.rdb != nil:
		return f.rdb.Close()
	case f.db != nil:
		return f.db.Close()
	}
	return nil
}

// sessionPath derives a per-session file next to path. The default session
// keeps path itself so the CLI and the server agree on it. Other sessions get
// a readable prefix plus a digest of the exact name, so names that sanitize
// alike ("team.alice", "team/alice") still land in different files.
func sessionPath(path, session string) string {
	if session == "" || session == "default" {
		return path
	}
	readable := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, session)
	if len(readable) > maxReadableSession {
		readable = readable[:maxReadableSession]
	}
	sum := sha256.Sum256([]byte(session))
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + readable + "-" + hex.EncodeToString(sum[:16]) + ext
}

// Open builds the store for cfg.Session. The returned factory must be closed
// to release any connection the store holds.
func Open(ctx context.Context, cfg config.Config) (Store, *Factory, error) {
	f, err := NewFactory(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return f.Store(cfg.Session), f, nil
}
