// Package gamification holds the progression rules applied to a user's
// XP, level, streak and badges. Functions here are pure: they mutate the
// passed user in memory and never touch storage. Callers are expected to
// serialize calls per user and persist the result.
package gamification

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"interview_prep_backend/internal/model"
)

// DefaultLevelStep is how much xp_to_next grows on every level-up.
const DefaultLevelStep = 500

// MaxAward is the largest single grant accepted from callers.
const MaxAward = 1_000_000

var ErrInvariantViolation = errors.New("progression invariant violated")

// Engine applies progression rules with a configurable level step.
type Engine struct {
	LevelStep int
}

func NewEngine(levelStep int) *Engine {
	if levelStep <= 0 {
		levelStep = DefaultLevelStep
	}
	return &Engine{LevelStep: levelStep}
}

// XPOutcome describes what a single AwardXP call did.
type XPOutcome struct {
	Points       int
	LevelsGained int
	Level        int
	XP           int
}

// AwardXP records points in today's ledger entry and rolls xp over into
// levels until xp < xp_to_next. points must be positive and must not
// overflow xp.
func (e *Engine) AwardXP(u *model.User, points int, now time.Time) XPOutcome {
	if points <= 0 {
		panic(fmt.Sprintf("gamification: AwardXP called with non-positive points %d", points))
	}
	normalize(u)
	if u.XP > math.MaxInt-points {
		panic(fmt.Sprintf("gamification: AwardXP points %d overflow xp %d", points, u.XP))
	}

	if u.DailyXP == nil {
		u.DailyXP = map[string]int{}
	}
	u.DailyXP[now.UTC().Format(model.DateLayout)] += points

	u.XP += points
	gained := 0
	for u.XP >= u.XPToNext {
		u.XP -= u.XPToNext
		u.Level++
		u.XPToNext += e.LevelStep
		gained++
	}

	return XPOutcome{Points: points, LevelsGained: gained, Level: u.Level, XP: u.XP}
}

// StreakOutcome reports the streak before and after UpdateStreak.
type StreakOutcome struct {
	Previous int
	Current  int
}

func (o StreakOutcome) Changed() bool { return o.Previous != o.Current }

// UpdateStreak advances the daily streak relative to the last active day.
// Same day (or an earlier day, e.g. clock skew) leaves the streak alone,
// the next day extends it, and any longer gap restarts it at 1.
func UpdateStreak(u *model.User, today time.Time) StreakOutcome {
	day := truncateDay(today)
	out := StreakOutcome{Previous: u.Streak}

	if u.LastActiveDate == nil {
		u.Streak = 1
		u.LastActiveDate = &day
		out.Current = u.Streak
		return out
	}

	last := truncateDay(*u.LastActiveDate)
	delta := daysBetween(last, day)
	switch {
	case delta <= 0:
		// never move the anchor backwards
		if delta == 0 {
			u.LastActiveDate = &day
		}
	case delta == 1:
		u.Streak++
		u.LastActiveDate = &day
	default:
		u.Streak = 1
		u.LastActiveDate = &day
	}

	out.Current = u.Streak
	return out
}

// GiveBadge adds badgeID to the earned set and reports whether it was new.
func GiveBadge(u *model.User, badgeID int) bool {
	for _, id := range u.EarnedBadges {
		if id == badgeID {
			return false
		}
	}
	u.EarnedBadges = append(u.EarnedBadges, badgeID)
	return true
}

// NormalizeSteps turns the submitted step indices into a sorted set.
func NormalizeSteps(steps []int) []int {
	seen := make(map[int]struct{}, len(steps))
	out := make([]int, 0, len(steps))
	for _, s := range steps {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// CheckInvariant verifies 0 <= xp < xp_to_next and level >= 1.
func CheckInvariant(u *model.User) error {
	if u.Level < 1 || u.XPToNext <= 0 || u.XP < 0 || u.XP >= u.XPToNext {
		return fmt.Errorf("%w: user=%d xp=%d xp_to_next=%d level=%d",
			ErrInvariantViolation, u.ID, u.XP, u.XPToNext, u.Level)
	}
	return nil
}

// normalize fills zero values left by rows created before the
// progression columns existed.
func normalize(u *model.User) {
	if u.Level < 1 {
		u.Level = model.InitialLevel
	}
	if u.XPToNext <= 0 {
		u.XPToNext = model.InitialXPToNext
	}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
