package fomo_test

import (
	"testing"
	"time"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/fomo"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2024, 7, 31, 12, 0, 0, 0, time.UTC)

func sampleUser() model.UserData {
	return model.UserData{
		UserID: "stu_7023",
		Profile: model.UserProfile{
			GoalTags:    []string{"GRE", "data science"},
			Karma:       190,
			QuizHistory: []string{"2024-06-01"},
			BuddyCount:  3,
		},
		Activity: model.UserActivity{LoginStreak: 2, PostsCreated: 1},
	}
}

func samplePeer() model.PeerSnapshot {
	return model.PeerSnapshot{
		BatchAvgProjects:       2,
		BatchResumeUploadedPct: 84,
		BatchEventAttendance:   map[string]int{"startup-meetup": 5, "coding-contest": 9},
		BuddiesAttendingEvents: []string{"coding-contest"},
	}
}

func TestScore(t *testing.T) {
	Convey("Given the sample student with no attended event", t, func() {
		user, peer := sampleUser(), samplePeer()

		Convey("When scoring", func() {
			res := fomo.Score(user, peer, now)

			Convey("Then the blend is squashed and rounded", func() {
				// 0.4*(1/3) + 0.3*0.7 + 0.3*1.0 = 0.6433 -> sigmoid -> 0.6719
				So(res.Score, ShouldEqual, 0.67)
				So(res.Level(), ShouldEqual, fomo.LevelMedium)
			})

			Convey("And the missing date uses the sentinel", func() {
				So(res.DaysSinceLastEvent, ShouldEqual, fomo.NoEventDays)
				So(fomo.RecencyComponent(res.DaysSinceLastEvent), ShouldEqual, 1.0)
			})
		})

		Convey("When scoring twice with the same clock", func() {
			a := fomo.Score(user, peer, now)
			b := fomo.Score(user, peer, now)

			Convey("Then results are identical", func() {
				So(a, ShouldResemble, b)
			})
		})

		Convey("When the last event date is malformed", func() {
			user.Activity.LastEventAttended = "last tuesday"
			res := fomo.Score(user, peer, now)

			Convey("Then it is treated as absent", func() {
				So(res.DaysSinceLastEvent, ShouldEqual, fomo.NoEventDays)
				So(res.Score, ShouldEqual, 0.67)
			})
		})

		Convey("When the last event was fifteen days ago", func() {
			user.Activity.LastEventAttended = "2024-07-16"
			res := fomo.Score(user, peer, now)

			Convey("Then recency is half weighted", func() {
				So(res.DaysSinceLastEvent, ShouldEqual, 15)
				So(fomo.RecencyComponent(15), ShouldEqual, 0.5)
				So(res.Score, ShouldBeLessThan, 0.67)
			})
		})
	})

	Convey("Given a fully disengaged cohort", t, func() {
		user := model.UserData{UserID: "u1", Activity: model.UserActivity{LastEventAttended: "2024-07-31"}}
		res := fomo.Score(user, model.PeerSnapshot{}, now)

		Convey("Then every component is zero and the score is low", func() {
			So(res.DaysSinceLastEvent, ShouldEqual, 0)
			So(res.Score, ShouldEqual, 0.08)
			So(res.Level(), ShouldEqual, fomo.LevelLow)
		})
	})

	Convey("Given every signal saturated", t, func() {
		user := model.UserData{UserID: "u2", Profile: model.UserProfile{BuddyCount: 1}}
		peer := model.PeerSnapshot{
			BatchEventAttendance:   map[string]int{"hackathon": 40},
			BuddiesAttendingEvents: []string{"hackathon", "meetup"},
		}
		res := fomo.Score(user, peer, now)

		Convey("Then the score is high and stays within [0,1]", func() {
			So(res.Score, ShouldEqual, 0.92)
			So(res.Level(), ShouldEqual, fomo.LevelHigh)
		})
	})
}

func TestBuddyComponentMonotonic(t *testing.T) {
	Convey("Given a fixed buddy count", t, func() {
		p := model.UserProfile{BuddyCount: 4}
		events := []string{"a", "b", "c", "d", "e", "f"}

		Convey("Then adding attending buddies never lowers the component", func() {
			prev := -1.0
			for i := 0; i <= len(events); i++ {
				c := fomo.BuddyComponent(p, model.PeerSnapshot{BuddiesAttendingEvents: events[:i]})
				So(c, ShouldBeGreaterThanOrEqualTo, prev)
				So(c, ShouldBeLessThanOrEqualTo, 1.0)
				prev = c
			}
		})

		Convey("Then no buddies means a zero component", func() {
			So(fomo.BuddyComponent(model.UserProfile{}, model.PeerSnapshot{BuddiesAttendingEvents: events}), ShouldEqual, 0)
		})
	})
}

func TestBatchComponent(t *testing.T) {
	Convey("Given batch attendance", t, func() {
		So(fomo.BatchComponent(model.PeerSnapshot{}), ShouldEqual, 0)
		So(fomo.BatchComponent(model.PeerSnapshot{BatchEventAttendance: map[string]int{"a": 5, "b": 9}}), ShouldAlmostEqual, 0.7, 1e-9)
		So(fomo.BatchComponent(model.PeerSnapshot{BatchEventAttendance: map[string]int{"a": 25}}), ShouldEqual, 1.0)
	})
}

func TestLevelFor(t *testing.T) {
	Convey("Given level boundaries", t, func() {
		So(fomo.LevelFor(0.29), ShouldEqual, fomo.LevelLow)
		So(fomo.LevelFor(0.3), ShouldEqual, fomo.LevelMedium)
		So(fomo.LevelFor(0.69), ShouldEqual, fomo.LevelMedium)
		So(fomo.LevelFor(0.7), ShouldEqual, fomo.LevelHigh)
		So(fomo.Capitalize("medium"), ShouldEqual, "Medium")
		So(fomo.Capitalize(""), ShouldEqual, "")
	})
}

func TestInsight(t *testing.T) {
	Convey("Given the sample student", t, func() {
		in := fomo.Insight(sampleUser(), samplePeer(), now)

		Convey("Then factors describe the inputs", func() {
			So(in.Score, ShouldEqual, 0.67)
			So(in.Level, ShouldEqual, fomo.LevelMedium)
			So(in.Factors.BuddyAttendance, ShouldEqual, 1)
			So(in.Factors.TotalBuddies, ShouldEqual, 3)
			So(in.Factors.DaysSinceLastEvent, ShouldEqual, fomo.NoEventDays)
			So(in.TriggeredByRule, ShouldBeTrue)
		})

		Convey("Then recommendations follow score, recency and buddies", func() {
			So(in.Recommendations, ShouldResemble, []string{
				fomo.RecommendModerate,
				fomo.RecommendReconnect,
				"Your buddies are attending: coding-contest",
			})
			So(in.Recommendation, ShouldEqual, fomo.RecommendModerate)
		})
	})

	Convey("Given a student with nothing to recommend", t, func() {
		user := model.UserData{UserID: "u1", Activity: model.UserActivity{LastEventAttended: "2024-07-30"}}
		in := fomo.Insight(user, model.PeerSnapshot{}, now)

		Convey("Then the default recommendation is used", func() {
			So(in.Recommendations, ShouldBeEmpty)
			So(in.Recommendation, ShouldEqual, fomo.RecommendDefault)
			So(in.TriggeredByRule, ShouldBeFalse)
		})
	})

	Convey("Given a saturated score", t, func() {
		user := model.UserData{UserID: "u2", Profile: model.UserProfile{BuddyCount: 1}}
		peer := model.PeerSnapshot{
			BatchEventAttendance:   map[string]int{"hackathon": 40},
			BuddiesAttendingEvents: []string{"hackathon", "meetup"},
		}
		in := fomo.Insight(user, peer, now)

		Convey("Then the high recommendation leads", func() {
			So(in.Recommendation, ShouldEqual, fomo.RecommendHigh)
			So(in.Recommendations[len(in.Recommendations)-1], ShouldEqual, "Your buddies are attending: hackathon, meetup")
			So(in.Result().Score, ShouldEqual, in.Score)
		})
	})
}
