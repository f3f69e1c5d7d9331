package timetable

import (
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uniplan/uniplan-api/internal/models"
	appErrors "github.com/uniplan/uniplan-api/pkg/errors"
)

// CellKey addresses one rendered grid cell. Day is the weekday name so that
// keys match what the grid exposes to callers.
type CellKey struct {
	Day      string `json:"day"`
	TimeSlot string `json:"time_slot"`
	Semester string `json:"semester"`
}

// Overlay maps edited cells to their replacement slots. An edit fully
// replaces the cell's original contents; editing the same cell twice keeps
// only the latest replacement.
type Overlay map[CellKey][]models.Slot

// Session is one in-flight editing session over a generated timetable. The
// generated slots are an immutable snapshot; all manual edits accumulate in
// the overlay until the session is saved or expires.
type Session struct {
	ID           string
	SchoolID     string
	DepartmentID string
	SemesterType string
	TimeConfig   models.TimeConfig
	Slots        models.SlotSet
	Overlay      Overlay
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// SessionStore keeps editing sessions in memory with a TTL. Expired sessions
// are evicted lazily on access.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new session over a generated slot set and returns it.
func (s *SessionStore) Create(schoolID, departmentID, semesterType string, cfg models.TimeConfig, slots models.SlotSet) *Session {
	now := s.now()
	session := &Session{
		ID:           uuid.NewString(),
		SchoolID:     schoolID,
		DepartmentID: departmentID,
		SemesterType: semesterType,
		TimeConfig:   cfg,
		Slots:        slots,
		Overlay:      make(Overlay),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked(now)
	s.sessions[session.ID] = session
	return session
}

// Get returns a copy of the session for id, or a not-found error when the id
// is unknown or the session has expired. The copy carries its own overlay so
// readers never race with concurrent edits; the slot snapshot is shared since
// it is never mutated.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok || s.now().After(session.ExpiresAt) {
		return nil, appErrors.New("SESSION_NOT_FOUND", http.StatusNotFound, "editing session not found or expired")
	}
	copied := *session
	copied.Overlay = make(Overlay, len(session.Overlay))
	for key, slots := range session.Overlay {
		cell := make([]models.Slot, len(slots))
		copy(cell, slots)
		copied.Overlay[key] = cell
	}
	return &copied, nil
}

// timeLabelFormat matches grid column labels like "09:00-10:00". Edits with a
// malformed label would otherwise surface as broken start/end times in the
// saved payload.
var timeLabelFormat = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]-([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// EditCell replaces the contents of one cell with the edited slot. The
// replacement is recorded in the overlay; the generated snapshot is never
// mutated.
func (s *SessionStore) EditCell(id string, key CellKey, slot models.Slot) error {
	if DayIndex(key.Day) < 0 {
		return appErrors.New("INVALID_CELL", http.StatusBadRequest, "unknown weekday "+key.Day)
	}
	if !timeLabelFormat.MatchString(key.TimeSlot) {
		return appErrors.New("INVALID_CELL", http.StatusBadRequest, "time slot must look like 09:00-10:00")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok || s.now().After(session.ExpiresAt) {
		return appErrors.New("SESSION_NOT_FOUND", http.StatusNotFound, "editing session not found or expired")
	}
	session.Overlay[key] = []models.Slot{slot}
	return nil
}

// Delete removes a session, typically after a successful save.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// OverlaySnapshot returns a copy of the session's overlay safe for concurrent
// readers.
func (s *SessionStore) OverlaySnapshot(id string) (Overlay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok || s.now().After(session.ExpiresAt) {
		return nil, appErrors.New("SESSION_NOT_FOUND", http.StatusNotFound, "editing session not found or expired")
	}
	snapshot := make(Overlay, len(session.Overlay))
	for key, slots := range session.Overlay {
		copied := make([]models.Slot, len(slots))
		copy(copied, slots)
		snapshot[key] = copied
	}
	return snapshot, nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	now := s.now()
	for _, session := range s.sessions {
		if !now.After(session.ExpiresAt) {
			count++
		}
	}
	return count
}

func (s *SessionStore) evictExpiredLocked(now time.Time) {
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}
