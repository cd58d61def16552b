package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/credentials"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/verification"
)

// StoreProvider hands out the credential store of a client session.
// Release is called once the last session using a scope has closed.
type StoreProvider interface {
	Store(session string) credentials.Store
	Release(session string)
}

// Session is one resume's verification, hosted for a client.
type Session struct {
	ResumeID string
	// Scope is the client session that owns the stored handles.
	Scope        string
	Created      time.Time
	Orchestrator *verification.Orchestrator
}

// Sessions keeps at most one live orchestrator per resume id.
type Sessions struct {
	backend verification.Backend
	stores  StoreProvider
	opts    []verification.Option
	logger  *log.Logger

	mu   sync.Mutex
	byID map[string]*Session
}

// NewSessions creates an empty session registry.
func NewSessions(b verification.Backend, stores StoreProvider, logger *log.Logger, opts ...verification.Option) *Sessions {
	if logger == nil {
		logger = log.Default()
	}
	return &Sessions{
		backend: b,
		stores:  stores,
		opts:    opts,
		logger:  logger,
		byID:    make(map[string]*Session),
	}
}

// Start returns the session for resumeID, creating and starting one when
// none is running. created reports whether a new orchestrator was started;
// an existing session keeps its own overrides and scope.
func (s *Sessions) Start(resumeID, scope string, overrides types.SocialHandles) (*Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.byID[resumeID]; ok {
		return sess, false, nil
	}

	if scope == "" {
		scope = uuid.NewString()
	}
	opts := append([]verification.Option{
		verification.WithLogger(s.logger),
		verification.WithOverrides(overrides),
	}, s.opts...)
	orch, err := verification.New(resumeID, s.backend, s.stores.Store(scope), opts...)
	if err != nil {
		return nil, false, err
	}

	sess := &Session{ResumeID: resumeID, Scope: scope, Created: time.Now(), Orchestrator: orch}
	s.byID[resumeID] = sess
	orch.Start()
	s.logger.Printf("session started resume_id=%s scope=%s", resumeID, scope)
	return sess, true, nil
}

// Get returns the session for resumeID.
func (s *Sessions) Get(resumeID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[resumeID]
	if !ok {
		return nil, &ErrSessionNotFound{ResumeID: resumeID}
	}
	return sess, nil
}

// Retry restarts the session's attempt with corrected handles.
func (s *Sessions) Retry(resumeID string, handles types.SocialHandles) (*Session, error) {
	sess, err := s.Get(resumeID)
	if err != nil {
		return nil, err
	}
	sess.Orchestrator.Retry(handles)
	return sess, nil
}

// Close tears the session down and forgets it.
func (s *Sessions) Close(resumeID string) error {
	s.mu.Lock()
	sess, ok := s.byID[resumeID]
	delete(s.byID, resumeID)
	s.mu.Unlock()

	if !ok {
		return &ErrSessionNotFound{ResumeID: resumeID}
	}
	s.shutdown(sess)
	s.logger.Printf("session closed resume_id=%s", resumeID)
	return nil
}

// CloseAll tears down every session, e.g. on server shutdown.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	all := s.byID
	s.byID = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		s.shutdown(sess)
	}
}

// shutdown tears sess down, then releases its scope unless a live session
// still shares it. sess must already be removed from byID.
func (s *Sessions) shutdown(sess *Session) {
	sess.Orchestrator.Teardown()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.byID {
		if other.Scope == sess.Scope {
			return
		}
	}
	s.stores.Release(sess.Scope)
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Reap closes finished sessions created more than maxAge ago. It returns how
// many were closed.
func (s *Sessions) Reap(ctx context.Context, maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	var stale []string

	s.mu.Lock()
	for id, sess := range s.byID {
		if sess.Created.Before(cutoff) && sess.Orchestrator.Snapshot().Terminal() {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	closed := 0
	for _, id := range stale {
		if ctx.Err() != nil {
			break
		}
		if s.Close(id) == nil {
			closed++
		}
	}
	return closed
}
