package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/meltforce/liftlog/internal/models"
)

// Manager owns one container per user and guards the single-active-session
// rule. It also journals every mutation so an in-progress recording survives
// a server restart.
type Manager struct {
	mu         sync.Mutex
	containers map[int]*Container

	workouts WorkoutStore
	settings SettingsStore
	journal  Journal // may be nil
	log      *slog.Logger
}

// NewManager creates a Manager. journal may be nil to disable drafts.
func NewManager(workouts WorkoutStore, settings SettingsStore, journal Journal, log *slog.Logger) *Manager {
	return &Manager{
		containers: make(map[int]*Container),
		workouts:   workouts,
		settings:   settings,
		journal:    journal,
		log:        log,
	}
}

// Start begins a session for the user. Returns ErrSessionInProgress when the
// user already has a session underway.
func (m *Manager) Start(ctx context.Context, userID int, template *models.Template) (*Container, error) {
	c := m.container(userID)
	if st := c.State(); st != models.StateIdle && st != models.StateSaved {
		return nil, ErrSessionInProgress
	}
	if err := c.Start(ctx, userID, template); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the user's container when a session is in progress, or, right
// after a successful save, while the container still reports the saved state.
func (m *Manager) Get(userID int) (*Container, error) {
	m.mu.Lock()
	c, ok := m.containers[userID]
	m.mu.Unlock()
	if !ok || c.State() == models.StateIdle {
		return nil, ErrNoSession
	}
	return c, nil
}

// Cancel discards the user's session and its journaled draft.
func (m *Manager) Cancel(userID int) error {
	c, err := m.Get(userID)
	if err != nil {
		return err
	}
	if err := c.Cancel(); err != nil {
		return err
	}
	m.dropDraft(userID)
	return nil
}

// Save commits the user's completed session and clears its draft on success.
func (m *Manager) Save(ctx context.Context, userID int, meta CompletionMeta) (*models.WorkoutRow, error) {
	c, err := m.Get(userID)
	if err != nil {
		return nil, err
	}
	workout, err := c.Save(ctx, meta)
	if err != nil {
		return nil, err
	}
	m.dropDraft(userID)
	return workout, nil
}

// RestoreDrafts rebuilds active containers from journaled drafts, typically
// at startup.
func (m *Manager) RestoreDrafts() {
	if m.journal == nil {
		return
	}
	drafts, err := m.journal.ListDrafts()
	if err != nil {
		m.log.Warn("listing session drafts failed", "error", err)
		return
	}
	for _, d := range drafts {
		c := m.container(d.Session.UserID)
		if c.State() != models.StateIdle {
			continue
		}
		c.restore(d)
		m.log.Info("restored in-progress session from draft",
			"user_id", d.Session.UserID, "session_id", d.Session.ID,
			"exercises", len(d.Session.Exercises))
	}
}

// container returns the user's container, creating an idle one on first use.
func (m *Manager) container(userID int) *Container {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.containers[userID]; ok {
		return c
	}
	c := New(Deps{
		Workouts: m.workouts,
		Settings: m.settings,
		Log:      m.log,
		OnChange: func(d Draft) { m.saveDraft(d) },
	})
	m.containers[userID] = c
	return c
}

func (m *Manager) saveDraft(d Draft) {
	if m.journal == nil {
		return
	}
	if err := m.journal.SaveDraft(d.Session.UserID, d); err != nil {
		m.log.Warn("journaling session draft failed",
			"user_id", d.Session.UserID, "error", err)
	}
}

func (m *Manager) dropDraft(userID int) {
	if m.journal == nil {
		return
	}
	if err := m.journal.DeleteDraft(userID); err != nil {
		m.log.Warn("deleting session draft failed", "user_id", userID, "error", err)
	}
}
