package analytics

import (
	"time"

	"learnscope/api/models"
)

const dayKeyLayout = "2006-01-02"

// LearningStreak counts consecutive calendar days with at least one event,
// walking backward day by day from now and breaking on the first gap.
// Dates are taken in now's location; events with unparseable timestamps
// do not contribute.
func LearningStreak(events []models.InteractionEvent, now time.Time) int {
	active := make(map[string]struct{})
	for i := range events {
		t, ok := events[i].Time()
		if !ok {
			continue
		}
		active[t.In(now.Location()).Format(dayKeyLayout)] = struct{}{}
	}

	streak := 0
	for day := now; ; day = day.AddDate(0, 0, -1) {
		if _, ok := active[day.Format(dayKeyLayout)]; !ok {
			break
		}
		streak++
	}
	return streak
}

// SessionStartTime recovers a session's start from the millisecond
// timestamp embedded in a client-generated session id of the form
// sess_<unixMilli>_<suffix>.
func SessionStartTime(sessionID string) (time.Time, bool) {
	ms, ok := parseSessionMillis(sessionID)
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func parseSessionMillis(sessionID string) (int64, bool) {
	const prefix = "sess_"
	if len(sessionID) <= len(prefix) || sessionID[:len(prefix)] != prefix {
		return 0, false
	}
	rest := sessionID[len(prefix):]
	var ms int64
	i := 0
	for ; i < len(rest) && rest[i] >= '0' && rest[i] <= '9'; i++ {
		ms = ms*10 + int64(rest[i]-'0')
	}
	if i == 0 {
		return 0, false
	}
	return ms, true
}
