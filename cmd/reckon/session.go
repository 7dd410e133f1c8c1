package main

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reckon"
)

const (
	defaultMaxSessions = 1000
	defaultSessionTTL  = 30 * time.Minute
)

var errSessionLimit = errors.New("session limit reached")

// session owns one agent and its transcript. mu serializes Run calls because an Agent is not safe for concurrent use.
type session struct {
	id        string
	createdAt time.Time

	mu    sync.Mutex
	agent *reckon.Agent

	// lastUsed is guarded by sessionStore.mu.
	lastUsed time.Time
}

// sessionStore holds at most maxSessions live sessions. A session idle for longer than ttl is dropped.
type sessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*session
	newAgent    agentFactory
	maxSessions int
	ttl         time.Duration
	now         func() time.Time
}

func newSessionStore(newAgent agentFactory, maxSessions int, ttl time.Duration, now func() time.Time) *sessionStore {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &sessionStore{
		sessions:    make(map[string]*session),
		newAgent:    newAgent,
		maxSessions: maxSessions,
		ttl:         ttl,
		now:         now,
	}
}

func (s *sessionStore) expired(sess *session, now time.Time) bool {
	return now.Sub(sess.lastUsed) > s.ttl
}

// evictExpired must be called with mu held.
func (s *sessionStore) evictExpired(now time.Time) {
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
		}
	}
}

func (s *sessionStore) create() (*session, error) {
	now := s.now()

	s.mu.Lock()
	s.evictExpired(now)
	full := len(s.sessions) >= s.maxSessions
	s.mu.Unlock()
	if full {
		return nil, goerr.Wrap(errSessionLimit, "failed to create session", goerr.V("max_sessions", s.maxSessions))
	}

	transcript, err := reckon.NewTranscript(reckon.Turn{Role: reckon.RoleAssistant, Content: greeting})
	if err != nil {
		return nil, err
	}

	agent, err := s.newAgent(transcript, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create agent")
	}

	sess := &session{
		id:        uuid.NewString(),
		createdAt: now,
		agent:     agent,
		lastUsed:  now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have filled the last slot while the agent was built.
	if len(s.sessions) >= s.maxSessions {
		return nil, goerr.Wrap(errSessionLimit, "failed to create session", goerr.V("max_sessions", s.maxSessions))
	}
	s.sessions[sess.id] = sess

	return sess, nil
}

// get returns a live session and marks it used.
func (s *sessionStore) get(id string) (*session, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.expired(sess, now) {
		delete(s.sessions, id)
		return nil, false
	}
	sess.lastUsed = now
	return sess, true
}

func (s *sessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
