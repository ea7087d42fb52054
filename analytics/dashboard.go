package analytics

import (
	"time"

	"learnscope/api/models"
)

// Dashboard is the presentation-ready statistics bundle for one filtered
// event sequence.
type Dashboard struct {
	TotalEvents           int              `json:"totalEvents"`
	EventTypeCounts       map[string]int   `json:"eventTypeCounts"`
	UniqueSessions        int              `json:"uniqueSessions"`
	TopContent            []ContentStat    `json:"topContent"`
	QuizCompletions       []QuizCompletion `json:"quizCompletions"`
	Achievements          []Badge          `json:"achievements"`
	ProficiencyTier       string           `json:"proficiencyTier"`
	LearningStreakDays    int              `json:"learningStreakDays"`
	ProgressPercent       int              `json:"progressPercent"`
	EstimatedStudyMinutes int              `json:"estimatedStudyMinutes"`
}

// BuildDashboard computes the full statistics bundle. It is idempotent and
// side-effect-free; an empty input produces a well-defined all-zero
// dashboard.
func BuildDashboard(events []models.InteractionEvent, now time.Time) Dashboard {
	badges := Achievements(events)
	return Dashboard{
		TotalEvents:           len(events),
		EventTypeCounts:       EventTypeCounts(events),
		UniqueSessions:        UniqueSessionCount(events),
		TopContent:            TopContent(events),
		QuizCompletions:       QuizCompletions(events),
		Achievements:          badges,
		ProficiencyTier:       ProficiencyTier(len(badges)),
		LearningStreakDays:    LearningStreak(events, now),
		ProgressPercent:       ProgressPercent(events),
		EstimatedStudyMinutes: EstimatedStudyMinutes(events),
	}
}
