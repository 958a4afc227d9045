// Package rules evaluates the hand-authored nudge rules in a fixed order.
//
// Every rule is a pure predicate over (user, peer, thresholds, now) that
// yields at most one nudge. Evaluation order is part of the contract: the
// caller truncates by position, never by priority.
package rules

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/fomo"
	"github.com/yuvarajmadugu/Engagement-Insight-Engine/internal/domain/model"
)

// Rule identifiers in evaluation order.
const (
	RuleResume              = "resume"
	RuleProjects            = "projects"
	RuleBuddyEvents         = "buddy_events"
	RulePeerEventAttendance = "peer_event_attendance"
	RuleQuizInactivity      = "quiz_inactivity"
	RuleComeback            = "comeback"
	RuleEventFomo           = "event_fomo"
)

// Order lists the rules in the order they are evaluated.
var Order = []string{ //nolint:gochecknoglobals // fixed evaluation order
	RuleResume,
	RuleProjects,
	RuleBuddyEvents,
	RulePeerEventAttendance,
	RuleQuizInactivity,
	RuleComeback,
	RuleEventFomo,
}

// Thresholds gate each rule. Fractions are in [0,1]; day and count
// thresholds are compared with strict or inclusive bounds per rule.
type Thresholds struct {
	// ResumeFraction is compared as ResumeFraction*100 against the peer percentage.
	ResumeFraction float64
	ProjectsAvg    float64
	// EventFomo is compared against the [0,1] FOMO score.
	EventFomo        float64
	BuddiesEvent     int
	EventPeer        int
	QuizInactiveDays int
	UserInactiveDays int
}

// Labels are the priority labels attached per rule category.
type Labels struct {
	Resume    string
	Project   string
	EventFomo string
	Quiz      string
	Comeback  string
}

// Input is everything a rule may look at.
type Input struct {
	User model.UserData
	Peer model.PeerSnapshot
	Now  time.Time
	Fomo fomo.Insights
}

// NewInput prepares a rule input, scoring FOMO once for the whole pass.
func NewInput(user model.UserData, peer model.PeerSnapshot, now time.Time) Input {
	return Input{User: user, Peer: peer, Now: now, Fomo: fomo.Insight(user, peer, now)}
}

// Outcome reports what a single rule decided and why.
type Outcome struct {
	Rule   string
	Fired  bool
	Nudge  model.Nudge
	Reason string
	// Failed is set when the rule panicked; the rule then counts as not fired.
	Failed bool
}

type evalFunc func(e *Engine, in Input) Outcome

// Engine evaluates all rules against one input.
type Engine struct {
	thresholds Thresholds
	labels     Labels
	evals      map[string]evalFunc
}

// NewEngine creates a rule engine with the given thresholds and labels.
func NewEngine(t Thresholds, l Labels) *Engine {
	return &Engine{
		thresholds: t,
		labels:     l,
		evals: map[string]evalFunc{
			RuleResume:              (*Engine).resume,
			RuleProjects:            (*Engine).projects,
			RuleBuddyEvents:         (*Engine).buddyEvents,
			RulePeerEventAttendance: (*Engine).peerEventAttendance,
			RuleQuizInactivity:      (*Engine).quizInactivity,
			RuleComeback:            (*Engine).comeback,
			RuleEventFomo:           (*Engine).eventFomo,
		},
	}
}

// Evaluate runs every rule in Order and returns one outcome per rule.
func (e *Engine) Evaluate(in Input) []Outcome {
	out := make([]Outcome, 0, len(Order))
	for _, name := range Order {
		out = append(out, e.evaluateOne(name, in))
	}
	return out
}

// evaluateOne keeps a misbehaving rule from taking the pass down with it.
func (e *Engine) evaluateOne(name string, in Input) (o Outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = Outcome{Rule: name, Reason: fmt.Sprintf("rule panicked: %v", r), Failed: true}
		}
	}()
	return e.evals[name](e, in)
}

// Nudges returns the nudges of fired outcomes, preserving order.
func Nudges(outcomes []Outcome) []model.Nudge {
	var n []model.Nudge
	for _, o := range outcomes {
		if o.Fired {
			n = append(n, o.Nudge)
		}
	}
	return n
}

func fired(rule string, n model.Nudge, reason string) Outcome {
	return Outcome{Rule: rule, Fired: true, Nudge: n, Reason: reason}
}

func skipped(rule, reason string) Outcome {
	return Outcome{Rule: rule, Reason: reason}
}

func (e *Engine) resume(in Input) Outcome {
	if in.User.Profile.ResumeUploaded {
		return skipped(RuleResume, "resume already uploaded")
	}
	pct := in.Peer.BatchResumeUploadedPct
	limit := e.thresholds.ResumeFraction * 100
	if pct <= limit {
		return skipped(RuleResume, fmt.Sprintf("peer upload %.2f%% not above %.2f%%", pct, limit))
	}
	return fired(RuleResume, model.Nudge{
		Type:     model.NudgeProfile,
		Title:    formatPct(pct) + "% of your peers have uploaded resumes. You haven’t yet!",
		Action:   "Upload resume now",
		Priority: e.labels.Resume,
	}, fmt.Sprintf("peer upload %.2f%% above %.2f%%", pct, limit))
}

func (e *Engine) projects(in Input) Outcome {
	if in.User.Profile.ProjectsAdded != 0 {
		return skipped(RuleProjects, "projects already added")
	}
	if in.Peer.BatchAvgProjects < e.thresholds.ProjectsAvg {
		return skipped(RuleProjects, fmt.Sprintf("batch average %.2f below %.2f", in.Peer.BatchAvgProjects, e.thresholds.ProjectsAvg))
	}
	return fired(RuleProjects, model.Nudge{
		Type:     model.NudgeProfile,
		Title:    "You haven't added any projects. Your peers have a head start!",
		Action:   "Showcase your work by adding a project.",
		Priority: e.labels.Project,
	}, "no projects while batch average meets threshold")
}

func (e *Engine) buddyEvents(in Input) Outcome {
	n := len(in.Peer.BuddiesAttendingEvents)
	if n < e.thresholds.BuddiesEvent {
		return skipped(RuleBuddyEvents, fmt.Sprintf("%d buddy events below %d", n, e.thresholds.BuddiesEvent))
	}
	return fired(RuleBuddyEvents, model.Nudge{
		Type:     model.NudgeEvent,
		Title:    "Several of your buddies are attending events!",
		Action:   "Join them and don’t miss the opportunity.",
		Priority: e.labels.EventFomo,
	}, fmt.Sprintf("%d buddy events", n))
}

func (e *Engine) peerEventAttendance(in Input) Outcome {
	for _, event := range slices.Sorted(maps.Keys(in.Peer.BatchEventAttendance)) {
		if count := in.Peer.BatchEventAttendance[event]; count >= e.thresholds.EventPeer {
			return fired(RulePeerEventAttendance, model.Nudge{
				Type:     model.NudgeEvent,
				Title:    "Many peers are attending trending events.",
				Action:   "Check them out and participate!",
				Priority: e.labels.EventFomo,
			}, fmt.Sprintf("%s has %d attendees", event, count))
		}
	}
	return skipped(RulePeerEventAttendance, fmt.Sprintf("no event reaches %d attendees", e.thresholds.EventPeer))
}

func (e *Engine) quizInactivity(in Input) Outcome {
	last, ok := LatestDate(in.User.Profile.QuizHistory, in.Now.Location())
	if !ok {
		return skipped(RuleQuizInactivity, "no dated quiz history")
	}
	days := model.DaysSince(in.Now, last)
	if days <= e.thresholds.QuizInactiveDays {
		return skipped(RuleQuizInactivity, fmt.Sprintf("last quiz %d days ago", days))
	}
	return fired(RuleQuizInactivity, model.Nudge{
		Type:     model.NudgeProfile,
		Title:    "It’s been a while since your last quiz!",
		Action:   "Sharpen your skills with a new quiz today.",
		Priority: e.labels.Quiz,
	}, fmt.Sprintf("last quiz %d days ago", days))
}

func (e *Engine) comeback(in Input) Outcome {
	raw := in.User.Activity.LastEventAttended
	if raw == "" {
		return skipped(RuleComeback, "no attended event")
	}
	last, ok := model.ParseDate(raw, in.Now.Location())
	if !ok {
		return skipped(RuleComeback, fmt.Sprintf("unreadable last event date %q", raw))
	}
	days := model.DaysSince(in.Now, last)
	if days <= e.thresholds.UserInactiveDays {
		return skipped(RuleComeback, fmt.Sprintf("last event %d days ago", days))
	}
	return fired(RuleComeback, model.Nudge{
		Type:     model.NudgeEvent,
		Title:    "You’ve been inactive lately. Time to re-engage!",
		Action:   "Explore new events and meet like-minded peers.",
		Priority: e.labels.Comeback,
	}, fmt.Sprintf("last event %d days ago", days))
}

func (e *Engine) eventFomo(in Input) Outcome {
	f := in.Fomo
	// The scorer's NoEventDays sentinel is used as-is: a student with no
	// recorded event fires this rule whatever the score, rather than being
	// treated as having attended today.
	days := f.Factors.DaysSinceLastEvent
	if f.Score < e.thresholds.EventFomo && days <= fomo.StaleEventDays {
		return skipped(RuleEventFomo, fmt.Sprintf("score %.2f below %.2f", f.Score, e.thresholds.EventFomo))
	}
	action := f.Recommendation
	if len(f.Recommendations) > 0 {
		action = strings.Join(f.Recommendations, ". ")
	}
	return fired(RuleEventFomo, model.Nudge{
		Type:     model.NudgeEvent,
		Title:    fomo.Capitalize(f.Level) + " event FOMO detected",
		Action:   action,
		Priority: e.labels.EventFomo,
	}, fmt.Sprintf("score %.2f, %d days since last event", f.Score, days))
}

// LatestDate returns the most recent parseable date among entries.
// Entries that are not dates are skipped.
func LatestDate(entries []string, loc *time.Location) (time.Time, bool) {
	var (
		latest time.Time
		found  bool
	)
	for _, s := range entries {
		d, ok := model.ParseDate(s, loc)
		if !ok {
			continue
		}
		if !found || d.After(latest) {
			latest, found = d, true
		}
	}
	return latest, found
}

func formatPct(pct float64) string {
	return strconv.FormatFloat(pct, 'f', -1, 64)
}
