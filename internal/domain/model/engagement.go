// Package model contains domain models passed between layers.
package model

// NudgeType classifies a nudge by the area it targets.
type NudgeType string

// Nudge types.
const (
	NudgeProfile NudgeType = "profile"
	NudgeEvent   NudgeType = "event"
)

// Priority labels used by the fixed-text nudges. Rule nudges take their
// label from configuration and may carry any non-empty value.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// StatusGenerated is the only status an EngagementResult ever carries.
const StatusGenerated = "generated"

// UserProfile is the static part of a student's profile.
type UserProfile struct {
	ResumeUploaded bool     `json:"resume_uploaded"`
	GoalTags       []string `json:"goal_tags" validate:"dive,required"`
	Karma          int      `json:"karma" validate:"gte=0"`
	ProjectsAdded  int      `json:"projects_added" validate:"gte=0"`
	QuizHistory    []string `json:"quiz_history"` // dates as YYYY-MM-DD; other entries are tolerated
	ClubsJoined    []string `json:"clubs_joined" validate:"dive,required"`
	BuddyCount     int      `json:"buddy_count" validate:"gte=0"`
}

// UserActivity captures recent participation.
type UserActivity struct {
	LoginStreak       int    `json:"login_streak" validate:"gte=0"`
	PostsCreated      int    `json:"posts_created" validate:"gte=0"`
	BuddiesInteracted int    `json:"buddies_interacted" validate:"gte=0"`
	LastEventAttended string `json:"last_event_attended,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// UserData is one student's record for a single analysis.
type UserData struct {
	UserID   string       `json:"user_id" validate:"required"`
	Profile  UserProfile  `json:"profile"`
	Activity UserActivity `json:"activity"`
}

// PeerSnapshot aggregates the statistics of a student's cohort.
type PeerSnapshot struct {
	BatchAvgProjects          float64        `json:"batch_avg_projects" validate:"gte=0"`
	BatchResumeUploadedPct    float64        `json:"batch_resume_uploaded_pct" validate:"gte=0,lte=100"`
	BatchEventAttendance      map[string]int `json:"batch_event_attendance" validate:"dive,keys,required,endkeys,gte=0"`
	BuddiesAttendingEvents    []string       `json:"buddies_attending_events" validate:"dive,required"`
	BatchAttendingEventsCount int            `json:"batch_attending_events_count" validate:"gte=0"`
}

// Nudge is a single recommendation shown to a student.
type Nudge struct {
	Type     NudgeType `json:"type"`
	Title    string    `json:"title"`
	Action   string    `json:"action"`
	Priority string    `json:"priority"`
}

// EngagementResult is the outcome of one analysis.
type EngagementResult struct {
	UserID string  `json:"user_id"`
	Nudges []Nudge `json:"nudges"`
	Status string  `json:"status"`
}

// EngagementRequest pairs a student with their cohort snapshot.
type EngagementRequest struct {
	UserData     UserData     `json:"user_data"`
	PeerSnapshot PeerSnapshot `json:"peer_snapshot"`
}
