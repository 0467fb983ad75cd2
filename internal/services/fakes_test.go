package services

import (
	"context"
	"sync"
	"time"

	"github.com/andytwoods/iceplunge/internal/models"

	"github.com/google/uuid"
)

// fakeStore is an in-memory SessionStore, RateLimitStore and PromptStore.
// All methods hold the mutex, matching the real store's contract that the
// index count-and-insert is serialized per user.
type fakeStore struct {
	mu sync.Mutex

	sessions map[uuid.UUID]*models.CognitiveSession
	results  []*models.TaskResult
	moods    []*models.MoodRating
	plunges  []time.Time

	completedRecently bool

	prompts  []models.PromptEvent
	lastSent *time.Time
	profiles map[uint]*models.NotificationProfile
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[uuid.UUID]*models.CognitiveSession),
		profiles: make(map[uint]*models.NotificationProfile),
	}
}

func (f *fakeStore) CreateSession(ctx context.Context, session *models.CognitiveSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *session
	f.sessions[session.ID] = &clone
	return nil
}

func (f *fakeStore) GetSession(ctx context.Context, id uuid.UUID) (*models.CognitiveSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	clone := *session
	return &clone, nil
}

func (f *fakeStore) GetInProgressSession(ctx context.Context, id uuid.UUID, userID uint) (*models.CognitiveSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok || session.UserID != userID || session.CompletionStatus != models.StatusInProgress {
		return nil, nil
	}
	clone := *session
	return &clone, nil
}

func (f *fakeStore) UpdateSessionFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := f.sessions[id]
	for key, value := range fields {
		switch key {
		case "device_meta":
			session.DeviceMeta = value.(models.JSONMap)
		case "quality_flags":
			session.QualityFlags = value.([]string)
		case "completion_status":
			session.CompletionStatus = value.(string)
		case "completed_at":
			at := value.(time.Time)
			session.CompletedAt = &at
		case "timezone_offset_minutes":
			offset := value.(int16)
			session.TimezoneOffsetMinutes = &offset
		}
	}
	return nil
}

func (f *fakeStore) CompletedTaskTypes(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var types []string
	for _, r := range f.results {
		if r.SessionID == sessionID && !seen[r.TaskType] {
			seen[r.TaskType] = true
			types = append(types, r.TaskType)
		}
	}
	return types, nil
}

func (f *fakeStore) HasCompletedSessionSince(ctx context.Context, userID uint, cutoff time.Time, exclude uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completedRecently, nil
}

// CreateTaskResult counts and inserts under one lock hold, the in-memory
// analogue of the store's per-user advisory lock.
func (f *fakeStore) CreateTaskResult(ctx context.Context, userID uint, result *models.TaskResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	overall := 0
	perTask := 0
	for _, r := range f.results {
		if session, ok := f.sessions[r.SessionID]; ok && session.UserID == userID {
			overall++
			if r.TaskType == result.TaskType {
				perTask++
			}
		}
	}
	result.SessionIndexOverall = overall + 1
	result.SessionIndexPerTask = perTask + 1
	clone := *result
	f.results = append(f.results, &clone)
	return nil
}

func (f *fakeStore) UpdateResultSummary(ctx context.Context, id uuid.UUID, summary models.JSONMap) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.results {
		if r.ID == id {
			r.SummaryMetrics = summary
		}
	}
	return nil
}

func (f *fakeStore) CreateMoodRatingIfAbsent(ctx context.Context, rating *models.MoodRating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.moods {
		if m.SessionID == rating.SessionID {
			return nil
		}
	}
	clone := *rating
	f.moods = append(f.moods, &clone)
	return nil
}

func (f *fakeStore) PlungeTimestampsBefore(ctx context.Context, userID uint, before time.Time) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []time.Time
	for _, p := range f.plunges {
		if p.Before(before) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) CountVoluntarySessionsSince(ctx context.Context, userID uint, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, session := range f.sessions {
		if session.UserID != userID || session.IsPractice || session.StartedAt == nil {
			continue
		}
		if !session.StartedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CreatePrompt(ctx context.Context, prompt *models.PromptEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prompt.ID = uint(len(f.prompts) + 1)
	f.prompts = append(f.prompts, *prompt)
	return nil
}

func (f *fakeStore) CountPromptsScheduledBetween(ctx context.Context, userID uint, start, end time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, p := range f.prompts {
		if p.UserID == userID && !p.ScheduledAt.Before(start) && p.ScheduledAt.Before(end) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) LastSentPromptAt(ctx context.Context, userID uint) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSent, nil
}

func (f *fakeStore) GetNotificationProfile(ctx context.Context, userID uint) (*models.NotificationProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	clone := *profile
	return &clone, nil
}

func (f *fakeStore) ProfilesWithPushEnabled(ctx context.Context) ([]models.NotificationProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.NotificationProfile
	for _, p := range f.profiles {
		if p.PushEnabled {
			out = append(out, *p)
		}
	}
	return out, nil
}
