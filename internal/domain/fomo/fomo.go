// Package fomo computes the event FOMO score: how much a student is missing
// out on events compared with their buddies and batch.
package fomo

import (
	"math"
	"strings"
	"time"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/model"
)

// Blend weights and shaping constants.
const (
	buddyWeight   = 0.4
	batchWeight   = 0.3
	recencyWeight = 0.3

	attendanceSaturation = 10.0 // attendance count at which an event counts fully
	recencyWindowDays    = 30.0

	sigmoidCenter    = 0.5
	sigmoidSteepness = 5.0
)

// NoEventDays is reported when the last attended event is absent or unreadable.
const NoEventDays = 999

// StaleEventDays is the recency after which an event gap is called out on its own.
const StaleEventDays = 30

// Levels.
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

const (
	lowUpper    = 0.3
	mediumUpper = 0.7
)

// Result is a FOMO score and the recency it was computed from.
type Result struct {
	Score              float64
	DaysSinceLastEvent int
}

// Level maps the score to low, medium or high.
func (r Result) Level() string {
	return LevelFor(r.Score)
}

// LevelFor maps a score in [0,1] to its level.
func LevelFor(score float64) string {
	switch {
	case score < lowUpper:
		return LevelLow
	case score < mediumUpper:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Score computes the FOMO score for user against peer at now.
// The result is deterministic for fixed inputs and rounded to two decimals.
func Score(user model.UserData, peer model.PeerSnapshot, now time.Time) Result {
	days := DaysSinceLastEvent(user.Activity, now)
	raw := buddyWeight*BuddyComponent(user.Profile, peer) +
		batchWeight*BatchComponent(peer) +
		recencyWeight*RecencyComponent(days)
	return Result{
		Score:              round2(squash(raw)),
		DaysSinceLastEvent: days,
	}
}

// BuddyComponent is the share of the user's buddies attending events, capped at 1.
func BuddyComponent(p model.UserProfile, peer model.PeerSnapshot) float64 {
	if p.BuddyCount <= 0 {
		return 0
	}
	return math.Min(float64(len(peer.BuddiesAttendingEvents))/float64(p.BuddyCount), 1)
}

// BatchComponent averages per-event attendance normalized to [0,1].
func BatchComponent(peer model.PeerSnapshot) float64 {
	if len(peer.BatchEventAttendance) == 0 {
		return 0
	}
	var sum float64
	for _, n := range peer.BatchEventAttendance {
		sum += math.Min(float64(n)/attendanceSaturation, 1)
	}
	return sum / float64(len(peer.BatchEventAttendance))
}

// RecencyComponent grows with the event gap and saturates after a month.
func RecencyComponent(days int) float64 {
	return math.Min(float64(days)/recencyWindowDays, 1)
}

// DaysSinceLastEvent returns whole days since the last attended event or
// NoEventDays when the date is missing or malformed.
func DaysSinceLastEvent(a model.UserActivity, now time.Time) int {
	if a.LastEventAttended == "" {
		return NoEventDays
	}
	d, ok := model.ParseDate(a.LastEventAttended, now.Location())
	if !ok {
		return NoEventDays
	}
	return model.DaysSince(now, d)
}

func squash(x float64) float64 {
	return 1 / (1 + math.Exp(-sigmoidSteepness*(x-sigmoidCenter)))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Capitalize upper-cases the first letter of a level for titles.
func Capitalize(level string) string {
	if level == "" {
		return level
	}
	return strings.ToUpper(level[:1]) + level[1:]
}
