package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"ideaboard/database"
	"ideaboard/models"
)

// SessionStore holds every session of the current run in memory, in
// insertion order, plus the single "current session" cursor. Sessions are
// only persisted on explicit save: the JSON document is the authoritative
// form, the catalog row is a write-through for the library view.
//
// The live records never leave the store. Every accessor returns a deep
// copy and every mutation goes through Update under the write lock, so
// handlers can marshal what they got without racing the pipeline.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.Session
	order    []uuid.UUID
	current  uuid.UUID

	sessionsDir string
}

func NewSessionStore(sessionsDir string) *SessionStore {
	return &SessionStore{
		sessions:    make(map[uuid.UUID]*models.Session),
		sessionsDir: sessionsDir,
	}
}

// Create allocates a new session and makes it current.
func (st *SessionStore) Create(title, projectType, genre, description string, tags []string) *models.Session {
	s := models.NewSession(title, projectType, genre, description, tags)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
	st.order = append(st.order, s.ID)
	st.current = s.ID
	return s.Clone()
}

func (st *SessionStore) Get(id uuid.UUID) (*models.Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Update applies fn to the live session under the write lock, refreshes
// the mutation timestamp and returns a snapshot of the result.
func (st *SessionStore) Update(id uuid.UUID, fn func(*models.Session)) (*models.Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	fn(s)
	s.Touch()
	return s.Clone(), true
}

// SetCurrent moves the cursor. The id must name an existing session.
func (st *SessionStore) SetCurrent(id uuid.UUID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return fmt.Errorf("session %s not found", id)
	}
	st.current = id
	return nil
}

func (st *SessionStore) ClearCurrent() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.current = uuid.Nil
}

func (st *SessionStore) Current() (*models.Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.current == uuid.Nil {
		return nil, false
	}
	s, ok := st.sessions[st.current]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// All returns sessions in insertion order.
func (st *SessionStore) All() []*models.Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*models.Session, 0, len(st.order))
	for _, id := range st.order {
		out = append(out, st.sessions[id].Clone())
	}
	return out
}

// Save writes the session document under the sessions directory and
// upserts the catalog. Returns the document path.
func (st *SessionStore) Save(id uuid.UUID) (string, error) {
	st.mu.Lock()
	live, ok := st.sessions[id]
	if !ok {
		st.mu.Unlock()
		return "", fmt.Errorf("session %s not found", id)
	}
	live.Touch()
	s := live.Clone()
	st.mu.Unlock()

	if err := os.MkdirAll(st.sessionsDir, 0755); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	path := filepath.Join(st.sessionsDir, s.ID.String()+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	defer f.Close()

	if err := s.Encode(f); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	st.syncCatalog(s, path)
	return path, nil
}

// LoadFile restores a session document into the store. The loaded session
// does not become current.
func (st *SessionStore) LoadFile(path string) (*models.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	defer f.Close()

	s, err := models.DecodeSession(f)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.sessions[s.ID]; !exists {
		st.order = append(st.order, s.ID)
	}
	st.sessions[s.ID] = s
	return s.Clone(), nil
}

// syncCatalog upserts the library record and replaces the session's tag
// rows. Catalog failures only log; the document on disk already holds
// the save.
func (st *SessionStore) syncCatalog(s *models.Session, documentPath string) {
	if database.DB == nil {
		return
	}

	rec := models.NewSessionRecord(s, documentPath)
	if err := database.DB.Save(rec).Error; err != nil {
		log.Printf("Catalog upsert failed for %s: %v", s.ID, err)
		return
	}

	if err := database.DB.Where("session_id = ?", s.ID).Delete(&models.Tag{}).Error; err != nil {
		log.Printf("Catalog tag cleanup failed for %s: %v", s.ID, err)
		return
	}
	for _, name := range s.Tags {
		tag := models.Tag{Name: name, Category: "keyword", SessionID: s.ID}
		if err := database.DB.Create(&tag).Error; err != nil {
			log.Printf("Catalog tag insert failed for %s: %v", s.ID, err)
		}
	}
}
