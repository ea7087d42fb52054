package capture

import (
	"context"
	"math"
)

// Convenience wrappers. Each assembles the fixed eventData shape for its
// event type and delegates to TrackEvent.

func (c *Client) TrackPageView(ctx context.Context, page string) (int64, error) {
	return c.TrackEvent(ctx, "page_view", map[string]any{
		"page": page,
	})
}

func (c *Client) TrackCourseView(ctx context.Context, courseID int64, courseTitle, courseType string) (int64, error) {
	return c.TrackEvent(ctx, "course_view", map[string]any{
		"courseId":    courseID,
		"courseTitle": courseTitle,
		"courseType":  courseType,
	})
}

func (c *Client) TrackQuizStart(ctx context.Context, courseID int64, courseTitle string, totalQuestions int) (int64, error) {
	return c.TrackEvent(ctx, "quiz_start", map[string]any{
		"courseId":       courseID,
		"courseTitle":    courseTitle,
		"totalQuestions": totalQuestions,
	})
}

func (c *Client) TrackQuizAnswer(ctx context.Context, courseID int64, questionIndex int, selectedAnswer string, isCorrect bool) (int64, error) {
	return c.TrackEvent(ctx, "quiz_answer", map[string]any{
		"courseId":       courseID,
		"questionIndex":  questionIndex,
		"selectedAnswer": selectedAnswer,
		"isCorrect":      isCorrect,
	})
}

func (c *Client) TrackQuizComplete(ctx context.Context, courseID int64, courseTitle string, score, totalQuestions, timeSpentSeconds int) (int64, error) {
	percentage := 0
	if totalQuestions > 0 {
		percentage = int(math.Round(float64(score) / float64(totalQuestions) * 100))
	}
	return c.TrackEvent(ctx, "quiz_complete", map[string]any{
		"courseId":       courseID,
		"courseTitle":    courseTitle,
		"score":          score,
		"totalQuestions": totalQuestions,
		"percentage":     percentage,
		"timeSpent":      timeSpentSeconds,
	})
}

func (c *Client) TrackVideoPlay(ctx context.Context, courseID int64, videoURL string) (int64, error) {
	return c.TrackEvent(ctx, "video_play", map[string]any{
		"courseId": courseID,
		"videoUrl": videoURL,
	})
}

func (c *Client) TrackVideoPause(ctx context.Context, courseID int64, videoURL string, currentTime float64) (int64, error) {
	return c.TrackEvent(ctx, "video_pause", map[string]any{
		"courseId":    courseID,
		"videoUrl":    videoURL,
		"currentTime": currentTime,
	})
}

func (c *Client) TrackTextContentView(ctx context.Context, courseID int64, scrollDepth int) (int64, error) {
	return c.TrackEvent(ctx, "text_content_view", map[string]any{
		"courseId":    courseID,
		"scrollDepth": scrollDepth,
	})
}

func (c *Client) TrackButtonClick(ctx context.Context, buttonName, buttonContext string) (int64, error) {
	return c.TrackEvent(ctx, "button_click", map[string]any{
		"buttonName": buttonName,
		"context":    buttonContext,
	})
}

func (c *Client) TrackFilter(ctx context.Context, filterType, filterValue string, resultsCount int) (int64, error) {
	return c.TrackEvent(ctx, "filter_applied", map[string]any{
		"filterType":   filterType,
		"filterValue":  filterValue,
		"resultsCount": resultsCount,
	})
}

func (c *Client) TrackNavigation(ctx context.Context, from, to string) (int64, error) {
	return c.TrackEvent(ctx, "navigation", map[string]any{
		"from": from,
		"to":   to,
	})
}

func (c *Client) TrackSessionEnd(ctx context.Context, sessionDurationSeconds int64) (int64, error) {
	return c.TrackEvent(ctx, "session_end", map[string]any{
		"sessionDuration": sessionDurationSeconds,
	})
}
