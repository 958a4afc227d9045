package datagen

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/model"
)

//nolint:gochecknoglobals // fixed tag pools
var (
	learningGoals = []string{"GRE", "CAT", "GATE", "AI", "UI/UX", "web development", "data science"}
	quizTopics    = []string{"python", "java", "dsa", "ml", "aptitude", "sql"}
	studentClubs  = []string{"robotics", "ml-club", "arts", "coding"}
	campusEvents  = []string{"tech-talk", "coding-contest", "startup-meetup"}
)

// Value ranges of the simulated population.
const (
	karmaMin, karmaMax             = 40, 500
	maxProjects                    = 6
	maxQuizzes                     = 3
	maxClubs                       = 2
	maxBuddies                     = 5
	maxLoginStreak                 = 10
	maxPosts                       = 3
	maxEventDaysBack               = 90
	maxQuizDaysBack                = 120
	batchProjectsMin, batchProjMax = 1, 4
	batchResumeMin, batchResumeMax = 60, 95
	attendanceMin, attendanceMax   = 2, 15
)

// Simulator draws synthetic students and peer snapshots from a seeded
// source, so equal seeds give equal output.
type Simulator struct {
	rng *rand.Rand
	now time.Time
}

// NewSimulator creates a Simulator.
func NewSimulator(seed int64, now time.Time) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed)), now: now} //nolint:gosec // reproducible synthetic data
}

// Profiles returns n simulated students.
func (s *Simulator) Profiles(n int) []model.UserData {
	out := make([]model.UserData, n)
	for i := range out {
		out[i] = s.profile()
	}
	return out
}

// Snapshots returns n simulated peer snapshots.
func (s *Simulator) Snapshots(n int) []model.PeerSnapshot {
	out := make([]model.PeerSnapshot, n)
	for i := range out {
		out[i] = s.snapshot()
	}
	return out
}

func (s *Simulator) profile() model.UserData {
	id, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		id = uuid.New()
	}

	// Quiz history mixes topic names with dates; only dates count as activity.
	quizzes := s.sample(quizTopics, s.between(0, maxQuizzes))
	if s.rng.Intn(2) == 0 {
		quizzes = append(quizzes, s.pastDate(maxQuizDaysBack))
	}

	return model.UserData{
		UserID: "student_" + id.String(),
		Profile: model.UserProfile{
			ResumeUploaded: s.rng.Intn(2) == 1,
			GoalTags:       s.sample(learningGoals, 2),
			Karma:          s.between(karmaMin, karmaMax),
			ProjectsAdded:  s.between(0, maxProjects),
			QuizHistory:    quizzes,
			ClubsJoined:    s.sample(studentClubs, s.between(0, maxClubs)),
			BuddyCount:     s.between(0, maxBuddies),
		},
		Activity: model.UserActivity{
			LoginStreak:       s.between(0, maxLoginStreak),
			PostsCreated:      s.between(0, maxPosts),
			BuddiesInteracted: s.between(0, maxBuddies),
			LastEventAttended: s.pastDate(maxEventDaysBack),
		},
	}
}

func (s *Simulator) snapshot() model.PeerSnapshot {
	attendance := make(map[string]int, len(campusEvents))
	for _, e := range campusEvents {
		attendance[e] = s.between(attendanceMin, attendanceMax)
	}
	return model.PeerSnapshot{
		BatchAvgProjects:          float64(s.between(batchProjectsMin, batchProjMax)),
		BatchResumeUploadedPct:    float64(s.between(batchResumeMin, batchResumeMax)),
		BatchEventAttendance:      attendance,
		BuddiesAttendingEvents:    s.sample(campusEvents, 1),
		BatchAttendingEventsCount: s.between(0, len(campusEvents)),
	}
}

// between returns a value in [lo, hi].
func (s *Simulator) between(lo, hi int) int {
	return lo + s.rng.Intn(hi-lo+1)
}

// sample returns k distinct elements of pool in random order.
func (s *Simulator) sample(pool []string, k int) []string {
	idx := s.rng.Perm(len(pool))[:k]
	out := make([]string, k)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

func (s *Simulator) pastDate(maxDaysBack int) string {
	return s.now.AddDate(0, 0, -s.between(0, maxDaysBack)).Format(model.DateLayout)
}
