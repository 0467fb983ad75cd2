package services

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/andytwoods/iceplunge/internal/derived"
	"github.com/andytwoods/iceplunge/internal/metrics"
	"github.com/andytwoods/iceplunge/internal/models"
	"github.com/andytwoods/iceplunge/internal/quality"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionStore is the persistence surface the session engine depends on.
// Implemented by repository.Store; tests supply an in-memory fake.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.CognitiveSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.CognitiveSession, error)
	GetInProgressSession(ctx context.Context, id uuid.UUID, userID uint) (*models.CognitiveSession, error)
	UpdateSessionFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	CompletedTaskTypes(ctx context.Context, sessionID uuid.UUID) ([]string, error)
	HasCompletedSessionSince(ctx context.Context, userID uint, cutoff time.Time, exclude uuid.UUID) (bool, error)
	CreateTaskResult(ctx context.Context, userID uint, result *models.TaskResult) error
	UpdateResultSummary(ctx context.Context, id uuid.UUID, summary models.JSONMap) error
	CreateMoodRatingIfAbsent(ctx context.Context, rating *models.MoodRating) error
	PlungeTimestampsBefore(ctx context.Context, userID uint, before time.Time) ([]time.Time, error)
}

// requiredEnvelopeFields must all be present in a task submission payload.
var requiredEnvelopeFields = []string{
	"session_id",
	"task_type",
	"task_version",
	"started_at",
	"ended_at",
	"duration_ms",
	"input_modality",
	"trials",
	"summary",
}

// submitPayload is the typed shape of a task submission.
type submitPayload struct {
	SessionID     string           `json:"session_id"`
	TaskType      string           `json:"task_type"`
	TaskVersion   string           `json:"task_version"`
	StartedAt     string           `json:"started_at"`
	EndedAt       string           `json:"ended_at"`
	DurationMs    float64          `json:"duration_ms"`
	InputModality string           `json:"input_modality"`
	Trials        []metrics.Trial  `json:"trials"`
	Summary       models.JSONMap   `json:"summary"`
	IsPartial     bool             `json:"is_partial"`
	Interruptions []map[string]any `json:"interruptions"`
	RawTrials     json.RawMessage  `json:"-"`
}

// SubmitResult is the engine's response to a successful task submission.
type SubmitResult struct {
	NextTask  string // empty when no tasks remain
	IsPartial bool
}

// SessionService is the session lifecycle manager: it owns session
// creation and sequencing, the submission pipeline, and completion.
type SessionService struct {
	store     SessionStore
	registry  *models.TaskRegistry
	computers map[string]metrics.Computer
	limiter   *RateLimiter
	log       *zap.Logger
	now       func() time.Time
}

func NewSessionService(store SessionStore, registry *models.TaskRegistry, limiter *RateLimiter, log *zap.Logger) *SessionService {
	return &SessionService{
		store:     store,
		registry:  registry,
		computers: metrics.Computers(),
		limiter:   limiter,
		log:       log,
		now:       time.Now,
	}
}

// shuffleTasks produces a deterministic ordering of the task types from the
// stored seed, so a session's order can be reproduced for auditing.
func shuffleTasks(seed string, types []string) []string {
	h := fnv.New64a()
	h.Write([]byte(seed))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	order := make([]string, len(types))
	copy(order, types)
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// StartOrResume returns the user's in-progress session referenced by the
// session pointer, or creates a fresh one with a seeded shuffled task order
// and a derived-variable snapshot. Voluntary starts are rate-gated before
// any session is created or touched.
func (s *SessionService) StartOrResume(ctx context.Context, user *models.User, currentSessionID string, promptEventID *uint) (*models.CognitiveSession, error) {
	allowed, reason, err := s.limiter.Check(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, &RateLimitedError{Reason: reason}
	}

	if currentSessionID != "" {
		if id, err := uuid.Parse(currentSessionID); err == nil {
			session, err := s.store.GetInProgressSession(ctx, id, user.ID)
			if err != nil {
				return nil, err
			}
			if session != nil {
				return session, nil
			}
		}
	}

	return s.createSession(ctx, user, s.registry.Types(), false, promptEventID)
}

// CreatePracticeSession creates a single-task practice session. Practice
// sessions are never rate-gated and never count toward the limits.
func (s *SessionService) CreatePracticeSession(ctx context.Context, user *models.User, taskType string) (*models.CognitiveSession, error) {
	if !s.registry.Contains(taskType) {
		return nil, validationErrorf("Unknown task_type: '%s'", taskType)
	}
	return s.createSession(ctx, user, []string{taskType}, true, nil)
}

func (s *SessionService) createSession(ctx context.Context, user *models.User, taskTypes []string, isPractice bool, promptEventID *uint) (*models.CognitiveSession, error) {
	seed := uuid.NewString()
	order := taskTypes
	if !isPractice {
		order = shuffleTasks(seed, taskTypes)
	}

	startedAt := s.now()
	plunges, err := s.store.PlungeTimestampsBefore(ctx, user.ID, startedAt)
	if err != nil {
		return nil, err
	}

	session := &models.CognitiveSession{
		ID:               uuid.New(),
		UserID:           user.ID,
		PromptEventID:    promptEventID,
		StartedAt:        &startedAt,
		TaskOrder:        order,
		RandomSeed:       seed,
		DeviceMeta:       models.JSONMap{},
		CompletionStatus: models.StatusInProgress,
		QualityFlags:     []string{},
		IsPractice:       isPractice,
		DerivedVariables: derived.SessionVariables(plunges, startedAt),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// NextPendingTask returns the first task_order entry that is neither
// completed nor skipped, or "" when every task is accounted for.
func (s *SessionService) NextPendingTask(ctx context.Context, session *models.CognitiveSession) (string, error) {
	completed, err := s.store.CompletedTaskTypes(ctx, session.ID)
	if err != nil {
		return "", err
	}

	done := make(map[string]bool, len(completed))
	for _, t := range completed {
		done[t] = true
	}
	for _, t := range session.SkippedTasks() {
		done[t] = true
	}

	for _, t := range session.TaskOrder {
		if !done[t] {
			return t, nil
		}
	}
	return "", nil
}

// GetOwnedSession loads a session and verifies ownership.
func (s *SessionService) GetOwnedSession(ctx context.Context, user *models.User, sessionID string) (*models.CognitiveSession, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, ErrNotFound
	}
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	if session.UserID != user.ID {
		return nil, ErrForbidden
	}
	return session, nil
}

// SkipTask marks the current pending task as skipped. Only the active next
// task may be skipped; the append is idempotent. Returns the new next
// pending task.
func (s *SessionService) SkipTask(ctx context.Context, user *models.User, sessionID, taskType string) (string, error) {
	session, err := s.GetOwnedSession(ctx, user, sessionID)
	if err != nil {
		return "", err
	}

	current, err := s.NextPendingTask(ctx, session)
	if err != nil {
		return "", err
	}
	if taskType != current {
		return "", ErrInvalidTransition
	}

	skipped := session.SkippedTasks()
	found := false
	for _, t := range skipped {
		if t == taskType {
			found = true
			break
		}
	}
	if !found {
		skipped = append(skipped, taskType)
	}

	meta := cloneMeta(session.DeviceMeta)
	meta[models.MetaSkippedTasks] = skipped
	if err := s.store.UpdateSessionFields(ctx, session.ID, map[string]any{"device_meta": meta}); err != nil {
		return "", err
	}
	session.DeviceMeta = meta

	return s.NextPendingTask(ctx, session)
}

// UpdateSessionMeta stores the timezone offset and device metadata sent by
// the task runner on page load.
func (s *SessionService) UpdateSessionMeta(ctx context.Context, user *models.User, sessionID string, timezoneOffsetMinutes *int16, deviceMeta models.JSONMap) error {
	session, err := s.GetOwnedSession(ctx, user, sessionID)
	if err != nil {
		return err
	}

	fields := map[string]any{}
	if timezoneOffsetMinutes != nil {
		fields["timezone_offset_minutes"] = *timezoneOffsetMinutes
	}
	if deviceMeta != nil {
		fields["device_meta"] = deviceMeta
	}
	if len(fields) == 0 {
		return nil
	}
	return s.store.UpdateSessionFields(ctx, session.ID, fields)
}

// Complete transitions the session to complete, stamping completed_at.
// Idempotent: completing an already-complete session returns it unchanged.
func (s *SessionService) Complete(ctx context.Context, user *models.User, sessionID string) (*models.CognitiveSession, error) {
	session, err := s.GetOwnedSession(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}

	if session.CompletionStatus == models.StatusInProgress {
		completedAt := s.now()
		err := s.store.UpdateSessionFields(ctx, session.ID, map[string]any{
			"completion_status": models.StatusComplete,
			"completed_at":      completedAt,
		})
		if err != nil {
			return nil, err
		}
		session.CompletionStatus = models.StatusComplete
		session.CompletedAt = &completedAt
	}
	return session, nil
}

// SubmitTaskResult runs the submission pipeline over a raw payload.
// Checks run in a fixed order and the first failure short-circuits, except
// that interruption entries are appended to the session's device_meta
// before the partial-save and timestamp checks, whatever their outcome.
func (s *SessionService) SubmitTaskResult(ctx context.Context, user *models.User, body []byte) (*SubmitResult, error) {
	payload, err := parseSubmitPayload(body)
	if err != nil {
		return nil, err
	}

	if !s.registry.Contains(payload.TaskType) {
		return nil, validationErrorf("Unknown task_type: '%s'", payload.TaskType)
	}

	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return nil, ErrNotFound
	}
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	if session.UserID != user.ID {
		return nil, ErrForbidden
	}
	if session.CompletionStatus == models.StatusComplete {
		return nil, ErrConflict
	}

	// Interruptions are persisted regardless of the save outcome.
	if len(payload.Interruptions) > 0 {
		meta := cloneMeta(session.DeviceMeta)
		logs := meta.MapList(models.MetaInterruptionLogs)
		logs = append(logs, payload.Interruptions...)
		meta[models.MetaInterruptionLogs] = logs
		if err := s.store.UpdateSessionFields(ctx, session.ID, map[string]any{"device_meta": meta}); err != nil {
			return nil, err
		}
		session.DeviceMeta = meta
	}

	taskInfo, _ := s.registry.Get(payload.TaskType)
	if payload.IsPartial {
		if taskInfo.MinimumViableMs == 0 {
			return nil, validationErrorf("Partial save not allowed for this task type")
		}
		if payload.DurationMs < float64(taskInfo.MinimumViableMs) {
			return nil, validationErrorf(
				"Duration %.0f ms is below the minimum viable threshold of %d ms for '%s'",
				payload.DurationMs, taskInfo.MinimumViableMs, payload.TaskType,
			)
		}
	}

	startedAt, err1 := parseTimestamp(payload.StartedAt)
	completedAt, err2 := parseTimestamp(payload.EndedAt)
	if err1 != nil || err2 != nil {
		return nil, validationErrorf("Invalid datetime format for started_at or ended_at")
	}

	result := &models.TaskResult{
		ID:             uuid.New(),
		SessionID:      session.ID,
		TaskType:       payload.TaskType,
		TaskVersion:    payload.TaskVersion,
		StartedAt:      startedAt,
		CompletedAt:    completedAt,
		TrialData:      payload.RawTrials,
		SummaryMetrics: payload.Summary,
		IsPartial:      payload.IsPartial,
	}
	if err := s.store.CreateTaskResult(ctx, user.ID, result); err != nil {
		return nil, err
	}

	if err := s.applyQualityFlags(ctx, user, session, payload.Trials); err != nil {
		return nil, err
	}

	// Server-side metric recomputation, discrepancy detection, and the mood
	// rating record. These updates are independent of the steps above; the
	// TaskResult and quality flags stay committed even if one of them fails.
	if computer, ok := s.computers[payload.TaskType]; ok {
		if err := s.recomputeSummary(ctx, session, result, payload, computer); err != nil {
			return nil, err
		}
	}

	nextTask, err := s.NextPendingTask(ctx, session)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{NextTask: nextTask, IsPartial: result.IsPartial}, nil
}

func (s *SessionService) applyQualityFlags(ctx context.Context, user *models.User, session *models.CognitiveSession, trials []metrics.Trial) error {
	ref := s.now()
	if session.StartedAt != nil {
		ref = *session.StartedAt
	}
	rapid, err := s.store.HasCompletedSessionSince(ctx, user.ID, ref.Add(-10*time.Minute), session.ID)
	if err != nil {
		return err
	}

	flags := quality.Flags(trials, session.DeviceMeta, rapid)
	if len(flags) == 0 {
		return nil
	}
	return s.appendFlags(ctx, session, flags)
}

// appendFlags accumulates flags against the latest persisted state so
// concurrent appends are not lost. Flags are never deduplicated or removed.
func (s *SessionService) appendFlags(ctx context.Context, session *models.CognitiveSession, flags []string) error {
	fresh, err := s.store.GetSession(ctx, session.ID)
	if err != nil {
		return err
	}
	if fresh == nil {
		return ErrNotFound
	}
	newFlags := append([]string{}, fresh.QualityFlags...)
	newFlags = append(newFlags, flags...)
	if err := s.store.UpdateSessionFields(ctx, session.ID, map[string]any{"quality_flags": newFlags}); err != nil {
		return err
	}
	session.QualityFlags = newFlags
	return nil
}

func (s *SessionService) recomputeSummary(ctx context.Context, session *models.CognitiveSession, result *models.TaskResult, payload *submitPayload, computer metrics.Computer) error {
	serverSummary := computer.Compute(payload.Trials, payload.DurationMs)

	discrepancies := summaryDiscrepancies(serverSummary, payload.Summary)

	if err := s.store.UpdateResultSummary(ctx, result.ID, models.JSONMap(serverSummary)); err != nil {
		return err
	}
	result.SummaryMetrics = models.JSONMap(serverSummary)

	if len(discrepancies) > 0 {
		if err := s.appendFlags(ctx, session, discrepancies); err != nil {
			return err
		}
	}

	if payload.TaskType == "mood" {
		if rating, ok := moodRatingFromSummary(session.ID, serverSummary); ok {
			if err := s.store.CreateMoodRatingIfAbsent(ctx, rating); err != nil {
				return err
			}
		}
	}
	return nil
}

// summaryDiscrepancies compares each numeric server metric against the
// client's value for the same key and flags relative differences above 5%.
// Keys are visited in sorted order so the appended flags are deterministic.
func summaryDiscrepancies(server metrics.Summary, client models.JSONMap) []string {
	keys := make([]string, 0, len(server))
	for k := range server {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var flags []string
	for _, key := range keys {
		serverVal, serverOK := asFloat(server[key])
		clientVal, clientOK := asFloat(client[key])
		if !serverOK || !clientOK || serverVal == 0 {
			continue
		}
		relative := (serverVal - clientVal) / serverVal
		if relative < 0 {
			relative = -relative
		}
		if relative > 0.05 {
			flags = append(flags, "metric_discrepancy_"+key)
		}
	}
	return flags
}

func moodRatingFromSummary(sessionID uuid.UUID, summary metrics.Summary) (*models.MoodRating, bool) {
	dims := [4]string{"valence", "arousal", "stress", "sharpness"}
	var values [4]int16
	for i, dim := range dims {
		v, ok := asFloat(summary[dim])
		if !ok {
			return nil, false
		}
		values[i] = int16(v)
	}
	return &models.MoodRating{
		SessionID: sessionID,
		Valence:   values[0],
		Arousal:   values[1],
		Stress:    values[2],
		Sharpness: values[3],
	}, true
}

func parseSubmitPayload(body []byte) (*submitPayload, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, validationErrorf("Invalid JSON")
	}

	var missing []string
	for _, field := range requiredEnvelopeFields {
		if _, ok := envelope[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, validationErrorf("Missing fields: %s", strings.Join(missing, ", "))
	}

	var payload submitPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, validationErrorf("Invalid JSON")
	}
	payload.RawTrials = envelope["trials"]
	if payload.Summary == nil {
		payload.Summary = models.JSONMap{}
	}
	return &payload, nil
}

// parseTimestamp accepts RFC 3339 with or without sub-second precision,
// matching what the task runner emits via Date.toISOString().
func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05Z0700", value)
}

func cloneMeta(meta models.JSONMap) models.JSONMap {
	clone := models.JSONMap{}
	for k, v := range meta {
		clone[k] = v
	}
	return clone
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int16:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
