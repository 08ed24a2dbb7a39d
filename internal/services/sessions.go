package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"alfredoptarigan/resume-studio/internal/models"
	"alfredoptarigan/resume-studio/internal/repositories"
	"alfredoptarigan/resume-studio/internal/statemachine"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one form instance: its state machine plus the last request
// accepted by the first stage.
type Session struct {
	ID         uuid.UUID
	Kind       models.FormKind
	CreatedAt  time.Time
	Controller *statemachine.Controller

	mu      sync.Mutex
	request any

	// highest snapshot version saved; older ones are skipped
	persistMu sync.Mutex
	persisted uint64
}

func (s *Session) SetRequest(req any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.request = req
}

func (s *Session) Request() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request
}

// SessionView is the JSON shape of a session.
type SessionView struct {
	ID        uuid.UUID       `json:"id"`
	Kind      models.FormKind `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
	// Live is false for sessions restored from storage; those are read-only.
	Live bool `json:"live"`
	statemachine.Snapshot
}

func (s *Session) View() SessionView {
	return SessionView{ID: s.ID, Kind: s.Kind, CreatedAt: s.CreatedAt, Live: true, Snapshot: s.Controller.Snapshot()}
}

// SessionManager keeps live sessions in an expiring LRU cache. With a
// repository, every state change is persisted and evicted sessions stay
// readable.
type SessionManager struct {
	cache *expirable.LRU[uuid.UUID, *Session]
	repo  repositories.SessionRepository
}

// NewSessionManager creates a manager. repo may be nil.
func NewSessionManager(capacity int, ttl time.Duration, repo repositories.SessionRepository) *SessionManager {
	return &SessionManager{
		cache: expirable.NewLRU[uuid.UUID, *Session](capacity, nil, ttl),
		repo:  repo,
	}
}

func multiStage(kind models.FormKind) bool {
	return kind == models.FormResume
}

// Create starts a new session of kind.
func (m *SessionManager) Create(kind models.FormKind) *Session {
	s := &Session{
		ID:         uuid.New(),
		Kind:       kind,
		CreatedAt:  time.Now(),
		Controller: statemachine.NewController(multiStage(kind)),
	}

	if m.repo != nil {
		s.Controller.OnChange(func(snap statemachine.Snapshot) {
			if err := m.persist(s, snap); err != nil {
				log.Printf("⚠️  Failed to persist session %s: %v\n", s.ID, err)
			}
		})
	}

	m.cache.Add(s.ID, s)
	return s
}

// Get returns a live session.
func (m *SessionManager) Get(id uuid.UUID) (*Session, bool) {
	return m.cache.Get(id)
}

// View returns the live snapshot of id, falling back to the stored one.
func (m *SessionManager) View(id uuid.UUID) (*SessionView, error) {
	if s, ok := m.cache.Get(id); ok {
		v := s.View()
		return &v, nil
	}
	if m.repo == nil {
		return nil, ErrSessionNotFound
	}

	rec, err := m.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var snap statemachine.Snapshot
	if err := json.Unmarshal(rec.Snapshot, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode session snapshot: %w", err)
	}
	return &SessionView{ID: rec.ID, Kind: rec.Kind, CreatedAt: rec.CreatedAt, Snapshot: snap}, nil
}

func (m *SessionManager) Len() int {
	return m.cache.Len()
}

// PurgeStored drops persisted sessions not updated within the cache TTL.
func (m *SessionManager) PurgeStored(ttl time.Duration) (int64, error) {
	if m.repo == nil {
		return 0, nil
	}
	return m.repo.DeleteOlderThan(time.Now().Add(-ttl))
}

func (m *SessionManager) persist(s *Session, snap statemachine.Snapshot) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if snap.Version <= s.persisted {
		return nil
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := m.repo.Save(&models.SessionRecord{
		ID:           s.ID,
		Kind:         s.Kind,
		State:        string(snap.State),
		AdvanceState: string(snap.AdvanceState),
		Snapshot:     body,
		CreatedAt:    s.CreatedAt,
	}); err != nil {
		return err
	}
	s.persisted = snap.Version
	return nil
}
