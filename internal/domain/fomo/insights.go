package fomo

import (
	"strings"
	"time"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/model"
)

// Recommendation texts.
const (
	RecommendHigh      = "High FOMO detected! Consider attending upcoming events to stay connected with your peers."
	RecommendModerate  = "Moderate FOMO level. Keep an eye on event announcements to maintain engagement."
	RecommendReconnect = "You haven't attended any events in a while. Reconnect by joining upcoming events!"
	RecommendDefault   = "Stay engaged with upcoming events."

	buddiesAttendingPrefix = "Your buddies are attending: "
)

const (
	highRecommendAbove     = 0.7
	moderateRecommendAbove = 0.3
)

// Factors are the raw signals behind a score.
type Factors struct {
	BuddyAttendance    int            `json:"buddy_attendance"`
	TotalBuddies       int            `json:"total_buddies"`
	DaysSinceLastEvent int            `json:"days_since_last_event"`
	BatchAttendance    map[string]int `json:"batch_attendance"`
}

// Insights explain a FOMO score and carry human readable recommendations.
type Insights struct {
	Score           float64  `json:"fomo_score"`
	Level           string   `json:"fomo_level"`
	Factors         Factors  `json:"factors"`
	Recommendation  string   `json:"recommendation"`
	Recommendations []string `json:"recommendations"`
	TriggeredByRule bool     `json:"triggered_by_rule"`
}

// Insight scores user against peer and derives recommendations.
func Insight(user model.UserData, peer model.PeerSnapshot, now time.Time) Insights {
	res := Score(user, peer, now)
	in := Insights{
		Score: res.Score,
		Level: res.Level(),
		Factors: Factors{
			BuddyAttendance:    len(peer.BuddiesAttendingEvents),
			TotalBuddies:       user.Profile.BuddyCount,
			DaysSinceLastEvent: res.DaysSinceLastEvent,
			BatchAttendance:    peer.BatchEventAttendance,
		},
		Recommendations: []string{},
		TriggeredByRule: res.DaysSinceLastEvent > StaleEventDays,
	}

	switch {
	case res.Score > highRecommendAbove:
		in.Recommendations = append(in.Recommendations, RecommendHigh)
	case res.Score > moderateRecommendAbove:
		in.Recommendations = append(in.Recommendations, RecommendModerate)
	}
	if in.TriggeredByRule {
		in.Recommendations = append(in.Recommendations, RecommendReconnect)
	}
	if len(peer.BuddiesAttendingEvents) > 0 {
		in.Recommendations = append(in.Recommendations,
			buddiesAttendingPrefix+strings.Join(peer.BuddiesAttendingEvents, ", "))
	}

	in.Recommendation = RecommendDefault
	if len(in.Recommendations) > 0 {
		in.Recommendation = in.Recommendations[0]
	}
	return in
}

// Result returns the score part of the insights.
func (in Insights) Result() Result {
	return Result{Score: in.Score, DaysSinceLastEvent: in.Factors.DaysSinceLastEvent}
}
