package attempt

import (
	"fmt"
	"sync"

	"github.com/pavelanni/quizdesk/internal/model"
)

// KVFactory returns the durable attempt storage scoped to one user, the
// equivalent of that user's session storage.
type KVFactory func(userID int64) KeyValueStore

// Manager is the registry of live attempt controllers, one per user and
// quiz. Starting an already-live attempt returns the existing controller;
// starting after a restart resumes from the persisted deadline.
type Manager struct {
	mu    sync.Mutex
	clock Clock
	kv    KVFactory
	live  map[string]*Controller
}

// NewManager creates an empty attempt registry.
func NewManager(clock Clock, kv KVFactory) *Manager {
	return &Manager{
		clock: clock,
		kv:    kv,
		live:  make(map[string]*Controller),
	}
}

func attemptKey(userID int64, quizID string) string {
	return fmt.Sprintf("%d:%s", userID, quizID)
}

// Start returns the live controller for the user's attempt at the quiz,
// creating one when none exists.
func (m *Manager) Start(userID int64, quiz model.Quiz) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := attemptKey(userID, quiz.ID)
	if c, ok := m.live[key]; ok {
		return c, nil
	}

	c, err := Start(quiz, m.clock, m.kv(userID))
	if err != nil {
		return nil, err
	}
	m.live[key] = c
	return c, nil
}

// Get returns the live controller for the user's attempt, if any.
func (m *Manager) Get(userID int64, quizID string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.live[attemptKey(userID, quizID)]
	return c, ok
}

// Release drops a controller from the registry. Called after submission;
// the controller itself stays frozen for anyone still holding it.
func (m *Manager) Release(userID int64, quizID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, attemptKey(userID, quizID))
}
