// Package session implements the workout-recording core: the in-memory
// session state machine, the two timers it owns, and the persistence gateway
// that writes a finished session to the database.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/units"
)

// Default set values when no previous set exists to copy from.
const (
	defaultFirstSetWeight = 0.0
	defaultFirstSetReps   = 10
)

// autoFillTimeout bounds the detached background fetch of previous sets.
const autoFillTimeout = 10 * time.Second

// SetPatch is a partial set update; nil fields are left unchanged.
type SetPatch struct {
	Weight    *float64 `json:"weight,omitempty"`
	Reps      *int     `json:"reps,omitempty"`
	Completed *bool    `json:"completed,omitempty"`
}

// CompletionMeta is the user-supplied metadata committed at save time.
type CompletionMeta struct {
	Name       string            `json:"name"`
	Comment    string            `json:"comment"`
	Visibility models.Visibility `json:"visibility"`
	ImageURLs  []string          `json:"image_urls,omitempty"`
}

// Deps are the container's collaborators, passed explicitly rather than
// reached for as globals.
type Deps struct {
	Workouts WorkoutStore
	Settings SettingsStore
	Log      *slog.Logger

	// OnChange, when set, receives a snapshot after every mutation. The
	// manager uses it to journal drafts. Called without the container lock.
	OnChange func(Draft)
}

// Container owns the session being recorded for a single user and enforces
// the lifecycle state machine idle → active → completing → saving →
// {saved | error}. All exported methods are safe for concurrent use; the
// mutex serializes mutations the way the single-threaded UI of the mobile
// client did.
type Container struct {
	mu      sync.Mutex
	state   models.SessionState
	session *models.Session
	saveErr string // human-readable message while in the error state

	elapsed *ElapsedTimer
	rest    *RestTimer

	// Per-session preferences captured at start.
	weightUnit  units.WeightUnit
	defaultRest int
	autoFill    bool

	deps    Deps
	gateway *Gateway
}

// New creates an idle container for one user's recording sessions.
func New(deps Deps) *Container {
	c := &Container{
		state:   models.StateIdle,
		elapsed: NewElapsedTimer(),
		deps:    deps,
		gateway: NewGateway(deps.Workouts, deps.Settings, deps.Log),
	}
	c.rest = NewRestTimer(func() {
		deps.Log.Info("rest timer finished")
	})
	return c
}

// State returns the current lifecycle state.
func (c *Container) State() models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SaveError returns the message carried by the error state, if any.
func (c *Container) SaveError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveErr
}

// Elapsed returns the session timer value in seconds.
func (c *Container) Elapsed() int { return c.elapsed.Seconds() }

// RestRemaining returns the rest countdown state.
func (c *Container) RestRemaining() (seconds int, active bool) {
	return c.rest.Remaining(), c.rest.Active()
}

// Snapshot returns a deep copy of the session, or nil when idle. The copy is
// safe to hand to the gateway, the journal, or the API layer.
func (c *Container) Snapshot() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Container) snapshotLocked() *models.Session {
	if c.session == nil {
		return nil
	}
	copied := *c.session
	copied.Exercises = make([]models.SessionExercise, len(c.session.Exercises))
	for i, ex := range c.session.Exercises {
		copied.Exercises[i] = ex
		copied.Exercises[i].Sets = append([]models.SessionSet(nil), ex.Sets...)
	}
	if c.session.EndedAt != nil {
		ended := *c.session.EndedAt
		copied.EndedAt = &ended
	}
	copied.ImageURLs = append([]string(nil), c.session.ImageURLs...)
	return &copied
}

// Start begins a new session. Valid from idle or saved. Settings are read once
// to capture the display unit, default rest duration and auto-fill
// preference; a failed fetch falls back to defaults. When template is
// non-nil its exercises and sets are copied in with fresh identities.
func (c *Container) Start(ctx context.Context, userID int, template *models.Template) error {
	// Settings fetch happens outside the lock; it is a network call.
	settings, err := c.deps.Settings.FetchSettings(ctx, userID)
	if err != nil {
		c.deps.Log.Warn("settings fetch failed on session start, using defaults",
			"user_id", userID, "error", err)
		settings = models.DefaultSettings(userID)
	}

	c.mu.Lock()
	if c.state != models.StateIdle && c.state != models.StateSaved {
		c.mu.Unlock()
		return &StateError{Op: "start", State: c.state}
	}

	c.weightUnit = units.ParseWeightUnit(settings.WeightUnit)
	c.defaultRest = settings.DefaultRestSeconds
	c.autoFill = settings.AutoFillPreviousValues
	c.saveErr = ""

	c.session = &models.Session{
		ID:         uuid.New(),
		UserID:     userID,
		StartedAt:  time.Now(),
		Visibility: models.VisibilityPrivate,
	}
	if template != nil {
		c.session.Exercises = c.exercisesFromTemplate(template)
	}
	c.state = models.StateActive

	c.elapsed.Reset()
	c.elapsed.Start()
	c.mu.Unlock()

	c.notify()
	return nil
}

// exercisesFromTemplate copies template data into fresh session exercises.
// Template rows are never aliased; every copy gets new local identities.
func (c *Container) exercisesFromTemplate(t *models.Template) []models.SessionExercise {
	exercises := make([]models.SessionExercise, 0, len(t.Exercises))
	for _, te := range t.Exercises {
		rest := te.RestSeconds
		if rest == 0 {
			rest = c.defaultRest
		}
		ex := models.SessionExercise{
			ID:          uuid.New(),
			Exercise:    te.Exercise,
			RestSeconds: rest,
		}
		for _, ts := range te.Sets {
			ex.Sets = append(ex.Sets, models.SessionSet{
				ID:     uuid.New(),
				Weight: units.DisplayWeight(ts.WeightKg, c.weightUnit),
				Reps:   ts.Reps,
			})
		}
		if len(ex.Sets) == 0 {
			ex.Sets = []models.SessionSet{{ID: uuid.New(), Reps: defaultFirstSetReps}}
		}
		exercises = append(exercises, ex)
	}
	return exercises
}

// AddExercise appends an exercise with the user's default rest duration and
// one empty set. When auto-fill is enabled, the user's most recent completed
// sets for this exercise are fetched in the background and swapped in; the
// fetch never blocks the addition and its failure is silent.
func (c *Container) AddExercise(ctx context.Context, exercise models.Exercise) (uuid.UUID, error) {
	c.mu.Lock()
	if c.state != models.StateActive {
		c.mu.Unlock()
		return uuid.Nil, &StateError{Op: "add exercise", State: c.state}
	}

	ex := models.SessionExercise{
		ID:          uuid.New(),
		Exercise:    exercise,
		RestSeconds: c.defaultRest,
		Sets:        []models.SessionSet{{ID: uuid.New(), Weight: defaultFirstSetWeight, Reps: defaultFirstSetReps}},
	}
	c.session.Exercises = append(c.session.Exercises, ex)

	sessionID := c.session.ID
	userID := c.session.UserID
	autoFill := c.autoFill
	unit := c.weightUnit
	c.mu.Unlock()

	if autoFill {
		// The fetch must outlive the request that triggered the addition:
		// the HTTP handler's context is cancelled as soon as it responds,
		// which is before the fetch completes.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), autoFillTimeout)
		go func() {
			defer cancel()
			c.autoFillSets(fetchCtx, sessionID, ex.ID, exercise.ID, userID, unit)
		}()
	}

	c.notify()
	return ex.ID, nil
}

// autoFillSets replaces a freshly added exercise's sets with the user's last
// performed values. Runs in the background; any failure leaves the default
// empty set in place.
func (c *Container) autoFillSets(ctx context.Context, sessionID, sessionExerciseID, exerciseID uuid.UUID, userID int, unit units.WeightUnit) {
	previous, err := c.deps.Workouts.FetchLastPerformedSets(ctx, exerciseID, userID)
	if err != nil || len(previous) == 0 {
		return
	}

	sets := make([]models.SessionSet, 0, len(previous))
	for _, p := range previous {
		sets = append(sets, models.SessionSet{
			ID:     uuid.New(),
			Weight: units.DisplayWeight(p.WeightKg, unit),
			Reps:   p.Reps,
		})
	}

	c.mu.Lock()
	// The session may have been cancelled, saved, or the exercise removed
	// while the fetch was in flight; in all those cases the result is stale.
	if c.state != models.StateActive || c.session == nil || c.session.ID != sessionID {
		c.mu.Unlock()
		return
	}
	ex := c.findExerciseLocked(sessionExerciseID)
	if ex == nil {
		c.mu.Unlock()
		return
	}
	ex.Sets = sets
	c.mu.Unlock()

	c.notify()
}

// RemoveExercise removes an exercise and its sets. Nothing has been
// persisted yet, so there is nothing to roll back.
func (c *Container) RemoveExercise(id uuid.UUID) error {
	c.mu.Lock()
	if c.state != models.StateActive {
		c.mu.Unlock()
		return &StateError{Op: "remove exercise", State: c.state}
	}
	for i, ex := range c.session.Exercises {
		if ex.ID == id {
			c.session.Exercises = append(c.session.Exercises[:i], c.session.Exercises[i+1:]...)
			c.mu.Unlock()
			c.notify()
			return nil
		}
	}
	c.mu.Unlock()
	return ErrExerciseNotFound
}

// MoveExercise reorders an exercise from one position to another.
func (c *Container) MoveExercise(from, to int) error {
	c.mu.Lock()
	if c.state != models.StateActive {
		c.mu.Unlock()
		return &StateError{Op: "move exercise", State: c.state}
	}
	n := len(c.session.Exercises)
	if from < 0 || from >= n || to < 0 || to >= n {
		c.mu.Unlock()
		return ErrExerciseNotFound
	}
	ex := c.session.Exercises[from]
	rest := append(c.session.Exercises[:from:from], c.session.Exercises[from+1:]...)
	c.session.Exercises = append(rest[:to:to], append([]models.SessionExercise{ex}, rest[to:]...)...)
	c.mu.Unlock()
	c.notify()
	return nil
}

// SetExerciseRest updates an exercise's rest duration preference.
func (c *Container) SetExerciseRest(id uuid.UUID, seconds int) error {
	return c.mutateExercise("set rest duration", id, func(ex *models.SessionExercise) {
		ex.RestSeconds = seconds
	})
}

// SetExerciseMemo updates an exercise's memo.
func (c *Container) SetExerciseMemo(id uuid.UUID, memo string) error {
	return c.mutateExercise("set memo", id, func(ex *models.SessionExercise) {
		ex.Memo = memo
	})
}

func (c *Container) mutateExercise(op string, id uuid.UUID, fn func(*models.SessionExercise)) error {
	c.mu.Lock()
	if c.state != models.StateActive {
		c.mu.Unlock()
		return &StateError{Op: op, State: c.state}
	}
	ex := c.findExerciseLocked(id)
	if ex == nil {
		c.mu.Unlock()
		return ErrExerciseNotFound
	}
	fn(ex)
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *Container) findExerciseLocked(id uuid.UUID) *models.SessionExercise {
	for i := range c.session.Exercises {
		if c.session.Exercises[i].ID == id {
			return &c.session.Exercises[i]
		}
	}
	return nil
}

// AddSet appends a set to an exercise, copying the previous set's weight and
// reps as defaults.
func (c *Container) AddSet(exerciseID uuid.UUID) error {
	return c.mutateExercise("add set", exerciseID, func(ex *models.SessionExercise) {
		set := models.SessionSet{ID: uuid.New(), Weight: defaultFirstSetWeight, Reps: defaultFirstSetReps}
		if n := len(ex.Sets); n > 0 {
			set.Weight = ex.Sets[n-1].Weight
			set.Reps = ex.Sets[n-1].Reps
		}
		ex.Sets = append(ex.Sets, set)
	})
}

// RemoveSet removes the set at index (0-based); remaining sets keep their
// slice order, so 1-based display numbering stays contiguous.
func (c *Container) RemoveSet(exerciseID uuid.UUID, index int) error {
	c.mu.Lock()
	if c.state != models.StateActive {
		c.mu.Unlock()
		return &StateError{Op: "remove set", State: c.state}
	}
	ex := c.findExerciseLocked(exerciseID)
	if ex == nil {
		c.mu.Unlock()
		return ErrExerciseNotFound
	}
	if index < 0 || index >= len(ex.Sets) {
		c.mu.Unlock()
		return ErrSetOutOfRange
	}
	ex.Sets = append(ex.Sets[:index], ex.Sets[index+1:]...)
	c.mu.Unlock()
	c.notify()
	return nil
}

// UpdateSet applies a partial update to the set at index. A completed
// false→true edge starts the rest timer with the exercise's configured
// duration; a true→false edge has no timer side effect. No range validation
// is applied to weight or reps here; completion-time checks handle validity.
func (c *Container) UpdateSet(exerciseID uuid.UUID, index int, patch SetPatch) error {
	c.mu.Lock()
	if c.state != models.StateActive {
		c.mu.Unlock()
		return &StateError{Op: "update set", State: c.state}
	}
	ex := c.findExerciseLocked(exerciseID)
	if ex == nil {
		c.mu.Unlock()
		return ErrExerciseNotFound
	}
	if index < 0 || index >= len(ex.Sets) {
		c.mu.Unlock()
		return ErrSetOutOfRange
	}

	set := &ex.Sets[index]
	if patch.Weight != nil {
		set.Weight = *patch.Weight
	}
	if patch.Reps != nil {
		set.Reps = *patch.Reps
	}
	startRest := 0
	if patch.Completed != nil {
		if !set.Completed && *patch.Completed && ex.RestSeconds > 0 {
			startRest = ex.RestSeconds
		}
		set.Completed = *patch.Completed
	}
	c.mu.Unlock()

	if startRest > 0 {
		c.rest.Start(startRest)
	}
	c.notify()
	return nil
}

// PrepareForCompletion validates the session and freezes it for metadata
// entry. Fails without mutating state when the exercise list is empty or any
// set is not completed. On success the elapsed timer pauses, the end
// timestamp is recorded, completion metadata resets to defaults, and the
// state moves to completing.
func (c *Container) PrepareForCompletion() error {
	c.mu.Lock()
	if c.state != models.StateActive {
		c.mu.Unlock()
		return &StateError{Op: "complete", State: c.state}
	}
	if len(c.session.Exercises) == 0 {
		c.mu.Unlock()
		return ErrNoExercises
	}
	for _, ex := range c.session.Exercises {
		for _, set := range ex.Sets {
			if !set.Completed {
				c.mu.Unlock()
				return ErrIncompleteSets
			}
		}
	}

	now := time.Now()
	c.session.EndedAt = &now
	c.session.Name = ""
	c.session.Comment = ""
	c.session.Visibility = models.VisibilityPrivate
	c.session.ImageURLs = nil
	c.state = models.StateCompleting

	c.elapsed.Pause()
	c.mu.Unlock()

	c.notify()
	return nil
}

// ResumeEditing returns from completing (or a failed save) to active,
// restarting the elapsed timer from its retained value.
func (c *Container) ResumeEditing() error {
	c.mu.Lock()
	if c.state != models.StateCompleting && c.state != models.StateError {
		c.mu.Unlock()
		return &StateError{Op: "resume", State: c.state}
	}
	c.session.EndedAt = nil
	c.saveErr = ""
	c.state = models.StateActive
	c.elapsed.Start()
	c.mu.Unlock()

	c.notify()
	return nil
}

// Cancel discards the session from any non-idle state. Both timers are
// stopped synchronously before the session is dropped, so no stray tick can
// touch discarded state. Nothing is persisted.
func (c *Container) Cancel() error {
	c.mu.Lock()
	if c.state == models.StateIdle {
		c.mu.Unlock()
		return &StateError{Op: "cancel", State: c.state}
	}
	c.elapsed.Reset()
	c.rest.Stop()
	c.session = nil
	c.saveErr = ""
	c.state = models.StateIdle
	c.mu.Unlock()

	c.notify()
	return nil
}

// Save commits the completed session through the gateway. Valid only from
// completing; the saving state bars re-entry, so a snapshot is persisted at
// most once. A blank name gets the time-of-day default. On success the
// container settles in saved, a resting state observers can read until the
// next Start or Cancel resets it to idle; on failure it moves to error, from
// which ResumeEditing or Cancel recover.
func (c *Container) Save(ctx context.Context, meta CompletionMeta) (*models.WorkoutRow, error) {
	c.mu.Lock()
	if c.state != models.StateCompleting {
		c.mu.Unlock()
		return nil, &StateError{Op: "save", State: c.state}
	}

	c.session.Name = meta.Name
	if c.session.Name == "" {
		c.session.Name = DefaultWorkoutName(time.Now())
	}
	c.session.Comment = meta.Comment
	if meta.Visibility.Valid() {
		c.session.Visibility = meta.Visibility
	}
	c.session.ImageURLs = meta.ImageURLs

	c.state = models.StateSaving
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	workout, err := c.gateway.Save(ctx, snapshot)

	c.mu.Lock()
	if err != nil {
		c.state = models.StateError
		c.saveErr = err.Error()
		c.mu.Unlock()
		c.notify()
		return nil, err
	}

	c.elapsed.Reset()
	c.rest.Stop()
	c.session = nil
	c.saveErr = ""
	c.state = models.StateSaved
	c.mu.Unlock()

	c.notify()
	return workout, nil
}

// restore rebuilds an active session from a journaled draft.
func (c *Container) restore(d Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session := d.Session
	c.session = &session
	c.session.EndedAt = nil
	c.state = models.StateActive
	c.weightUnit = units.ParseWeightUnit(d.WeightUnit)
	c.defaultRest = d.DefaultRest
	c.autoFill = d.AutoFill
	c.elapsed.setSeconds(d.ElapsedSeconds)
	c.elapsed.Start()
}

// notify hands a draft snapshot to the OnChange hook, if installed.
func (c *Container) notify() {
	if c.deps.OnChange == nil {
		return
	}
	c.mu.Lock()
	snapshot := c.snapshotLocked()
	draft := Draft{
		ElapsedSeconds: c.elapsed.Seconds(),
		WeightUnit:     string(c.weightUnit),
		DefaultRest:    c.defaultRest,
		AutoFill:       c.autoFill,
	}
	c.mu.Unlock()

	if snapshot == nil {
		return
	}
	draft.Session = *snapshot
	c.deps.OnChange(draft)
}

// DefaultWorkoutName derives the presentation default used when the user
// leaves the name blank: morning before 12:00, afternoon until 18:00,
// evening after.
func DefaultWorkoutName(at time.Time) string {
	switch hour := at.Hour(); {
	case hour < 12:
		return "Morning Workout"
	case hour < 18:
		return "Afternoon Workout"
	default:
		return "Evening Workout"
	}
}
