package analytics

import "learnscope/api/models"

// Badge is a derived boolean fact about a user's history. Badges are never
// persisted; each rule is re-evaluated against the full event set on every
// read, so they can never drift from the log.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// EstStudyMinutesPerCourse is the fixed per-course study-time estimate.
// Actual dwell time is not measured.
const EstStudyMinutesPerCourse = 15

// Achievements evaluates each badge rule independently against the events.
func Achievements(events []models.InteractionEvent) []Badge {
	badges := []Badge{}

	completions := QuizCompletions(events)
	coursesViewed := DistinctCoursesViewed(events)

	if coursesViewed >= 1 {
		badges = append(badges, Badge{
			ID:          "first_steps",
			Name:        "First Steps",
			Description: "Viewed your first course",
		})
	}
	if len(completions) >= 1 {
		badges = append(badges, Badge{
			ID:          "quiz_taker",
			Name:        "Quiz Taker",
			Description: "Completed your first quiz",
		})
	}
	for _, qc := range completions {
		if qc.Percentage >= 80 {
			badges = append(badges, Badge{
				ID:          "high_achiever",
				Name:        "High Achiever",
				Description: "Scored 80% or higher on a quiz",
			})
			break
		}
	}
	if coursesViewed >= 3 {
		badges = append(badges, Badge{
			ID:          "explorer",
			Name:        "Explorer",
			Description: "Viewed three different courses",
		})
	}
	return badges
}

// ProficiencyTier maps an earned-badge count onto a coarse engagement
// classification.
func ProficiencyTier(badgeCount int) string {
	switch {
	case badgeCount >= 7:
		return "Expert"
	case badgeCount >= 5:
		return "Skilled"
	case badgeCount >= 3:
		return "Learner"
	default:
		return "Novice"
	}
}

// ProgressPercent is the quiz-completion ratio against courses viewed,
// floored and capped at 100.
func ProgressPercent(events []models.InteractionEvent) int {
	completed := len(QuizCompletions(events))
	courses := DistinctCoursesViewed(events)
	if courses < 1 {
		courses = 1
	}
	pct := completed * 100 / courses
	if pct > 100 {
		pct = 100
	}
	return pct
}

// EstimatedStudyMinutes is a fixed per-course constant times distinct
// courses viewed.
func EstimatedStudyMinutes(events []models.InteractionEvent) int {
	return EstStudyMinutesPerCourse * DistinctCoursesViewed(events)
}
