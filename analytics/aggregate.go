// Package analytics derives dashboard statistics from raw interaction
// events. Every function here is a pure transform of its input slice: no
// hidden state, safe to re-run on every fetch, and an empty input always
// yields zeroed output rather than an error.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"learnscope/api/models"
)

// EventTypeCounts returns the histogram of events grouped by type, using
// the legacy `action` field when `eventType` is absent.
func EventTypeCounts(events []models.InteractionEvent) map[string]int {
	counts := make(map[string]int)
	for i := range events {
		if t := events[i].Type(); t != "" {
			counts[t]++
		}
	}
	return counts
}

// UniqueSessionCount returns the number of distinct session ids.
func UniqueSessionCount(events []models.InteractionEvent) int {
	seen := make(map[string]struct{})
	for i := range events {
		if id := events[i].SessionID; id != "" {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// ContentStat is one ranked entry of the most-viewed content.
type ContentStat struct {
	CourseID    string `json:"courseId"`
	CourseTitle string `json:"courseTitle"`
	Views       int    `json:"views"`
}

// TopContent ranks course_view events by a composite courseId+courseTitle
// key, most viewed first. Ties break on course id for a deterministic
// order.
func TopContent(events []models.InteractionEvent) []ContentStat {
	type key struct{ id, title string }
	counts := make(map[key]int)
	for i := range events {
		ev := &events[i]
		if ev.Type() != "course_view" {
			continue
		}
		data := ev.Data()
		if data == nil {
			continue
		}
		k := key{
			id:    models.CanonicalID(data["courseId"]),
			title: stringField(data, "courseTitle"),
		}
		counts[k]++
	}

	stats := make([]ContentStat, 0, len(counts))
	for k, n := range counts {
		stats = append(stats, ContentStat{CourseID: k.id, CourseTitle: k.title, Views: n})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Views != stats[j].Views {
			return stats[i].Views > stats[j].Views
		}
		return stats[i].CourseID < stats[j].CourseID
	})
	return stats
}

// QuizCompletion is one finished quiz attempt. Repeated completions of the
// same quiz are all kept; there is no deduplication.
type QuizCompletion struct {
	CourseID       string `json:"courseId"`
	CourseTitle    string `json:"courseTitle,omitempty"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	Percentage     int    `json:"percentage"`
	Timestamp      string `json:"timestamp"`
}

// QuizCompletions extracts every quiz_complete event. The stored
// `percentage` is used when present, otherwise derived from score and
// totalQuestions.
func QuizCompletions(events []models.InteractionEvent) []QuizCompletion {
	completions := []QuizCompletion{}
	for i := range events {
		ev := &events[i]
		if ev.Type() != "quiz_complete" {
			continue
		}
		data := ev.Data()
		qc := QuizCompletion{
			CourseID:  models.CanonicalID(data["courseId"]),
			Timestamp: ev.Timestamp,
		}
		if data != nil {
			qc.CourseTitle = stringField(data, "courseTitle")
			qc.Score = intField(data, "score")
			qc.TotalQuestions = intField(data, "totalQuestions")
			if pct, ok := data["percentage"]; ok {
				qc.Percentage = toInt(pct)
			} else if qc.TotalQuestions > 0 {
				qc.Percentage = int(math.Round(float64(qc.Score) / float64(qc.TotalQuestions) * 100))
			}
		}
		completions = append(completions, qc)
	}
	return completions
}

// DistinctCoursesViewed counts the distinct course ids seen in course_view
// events.
func DistinctCoursesViewed(events []models.InteractionEvent) int {
	seen := make(map[string]struct{})
	for i := range events {
		ev := &events[i]
		if ev.Type() != "course_view" {
			continue
		}
		data := ev.Data()
		if data == nil {
			continue
		}
		if id := models.CanonicalID(data["courseId"]); id != "" {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

func intField(data map[string]any, key string) int {
	v, ok := data[key]
	if !ok {
		return 0
	}
	return toInt(v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(math.Round(n))
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}
