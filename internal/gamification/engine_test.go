package gamification

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"interview_prep_backend/internal/model"
)

var day0 = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func freshUser() *model.User {
	return model.NewUser("ada", "ada@example.com", "x")
}

func TestAwardXPKeepsInvariantAndNeverLowersLevel(t *testing.T) {
	e := NewEngine(DefaultLevelStep)
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		u := freshUser()
		for j := 0; j < 30; j++ {
			before := u.Level
			e.AwardXP(u, 1+r.Intn(3000), day0)
			if err := CheckInvariant(u); err != nil {
				t.Fatalf("iteration %d/%d: %v", i, j, err)
			}
			if u.Level < before {
				t.Fatalf("level decreased from %d to %d", before, u.Level)
			}
		}
	}
}

func TestAwardXPExactThresholdLevelsOnce(t *testing.T) {
	e := NewEngine(DefaultLevelStep)
	u := freshUser()

	out := e.AwardXP(u, u.XPToNext, day0)

	if out.LevelsGained != 1 || u.Level != 2 || u.XP != 0 || u.XPToNext != 1000 {
		t.Fatalf("got level=%d xp=%d next=%d gained=%d", u.Level, u.XP, u.XPToNext, out.LevelsGained)
	}
}

func TestAwardXPMultipleLevelUps(t *testing.T) {
	e := NewEngine(DefaultLevelStep)
	u := freshUser()

	// crosses 500 and then 1000
	out := e.AwardXP(u, 500+1000+1, day0)

	if out.LevelsGained != 2 || u.Level != 3 || u.XP != 1 || u.XPToNext != 1500 {
		t.Fatalf("got level=%d xp=%d next=%d gained=%d", u.Level, u.XP, u.XPToNext, out.LevelsGained)
	}
}

func TestAwardXPTwiceThresholdPlusOne(t *testing.T) {
	e := NewEngine(DefaultLevelStep)
	u := freshUser()

	// 1001: the first rollover raises the threshold to 1000, leaving 501
	out := e.AwardXP(u, 2*u.XPToNext+1, day0)
	if out.LevelsGained != 1 || u.XP != 501 {
		t.Fatalf("got level=%d xp=%d gained=%d", u.Level, u.XP, out.LevelsGained)
	}

	// with a zero step the threshold stays fixed and 2*next+1 crosses twice
	flat := &Engine{LevelStep: 0}
	v := freshUser()
	out = flat.AwardXP(v, 2*v.XPToNext+1, day0)
	if out.LevelsGained != 2 || v.XP != 1 || v.Level != 3 {
		t.Fatalf("flat step: got level=%d xp=%d gained=%d", v.Level, v.XP, out.LevelsGained)
	}
}

func TestAwardXPRecordsDailyLedger(t *testing.T) {
	e := NewEngine(DefaultLevelStep)
	u := freshUser()

	e.AwardXP(u, 10, day0)
	e.AwardXP(u, 5, day0.Add(2*time.Hour))
	e.AwardXP(u, 7, day0.AddDate(0, 0, 1))

	if got := u.DailyXP["2025-03-10"]; got != 15 {
		t.Fatalf("day0 ledger: got %d want 15", got)
	}
	if got := u.DailyXP["2025-03-11"]; got != 7 {
		t.Fatalf("day1 ledger: got %d want 7", got)
	}
}

func TestAwardXPUsesUTCDate(t *testing.T) {
	e := NewEngine(DefaultLevelStep)
	u := freshUser()
	loc := time.FixedZone("UTC+9", 9*3600)

	e.AwardXP(u, 3, time.Date(2025, 3, 11, 2, 0, 0, 0, loc))

	if got := u.DailyXP["2025-03-10"]; got != 3 {
		t.Fatalf("expected entry under UTC date, ledger=%v", u.DailyXP)
	}
}

func TestAwardXPPanicsOnNonPositive(t *testing.T) {
	for _, pts := range []int{0, -5} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic for %d points", pts)
				}
			}()
			NewEngine(DefaultLevelStep).AwardXP(freshUser(), pts, day0)
		}()
	}
}

func TestAwardXPPanicsOnOverflow(t *testing.T) {
	u := freshUser()
	NewEngine(DefaultLevelStep).AwardXP(u, 100, day0)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when points overflow xp")
		}
		if u.XP != 100 || u.Level != 1 {
			t.Fatalf("user mutated before panic: xp=%d level=%d", u.XP, u.Level)
		}
	}()
	NewEngine(DefaultLevelStep).AwardXP(u, math.MaxInt-50, day0)
}

func TestAwardXPMaxAwardKeepsInvariant(t *testing.T) {
	u := freshUser()
	out := NewEngine(DefaultLevelStep).AwardXP(u, MaxAward, day0)
	if err := CheckInvariant(u); err != nil {
		t.Fatal(err)
	}
	if out.LevelsGained < 1 || u.Level != 1+out.LevelsGained {
		t.Fatalf("level=%d gained=%d", u.Level, out.LevelsGained)
	}
}

func TestUpdateStreak(t *testing.T) {
	cases := []struct {
		name       string
		last       *time.Time
		streak     int
		today      time.Time
		wantStreak int
		wantAnchor time.Time
	}{
		{"first activity", nil, 0, day0, 1, day0},
		{"same day", ptr(day0), 3, day0.Add(5 * time.Hour), 3, day0},
		{"next day", ptr(day0), 3, day0.AddDate(0, 0, 1), 4, day0.AddDate(0, 0, 1)},
		{"gap resets", ptr(day0), 7, day0.AddDate(0, 0, 2), 1, day0.AddDate(0, 0, 2)},
		{"clock skew is a no-op", ptr(day0), 4, day0.AddDate(0, 0, -1), 4, day0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := freshUser()
			u.LastActiveDate = tc.last
			u.Streak = tc.streak

			UpdateStreak(u, tc.today)

			if u.Streak != tc.wantStreak {
				t.Fatalf("streak: got %d want %d", u.Streak, tc.wantStreak)
			}
			if got := u.LastActiveDate.Format(model.DateLayout); got != tc.wantAnchor.Format(model.DateLayout) {
				t.Fatalf("anchor: got %s want %s", got, tc.wantAnchor.Format(model.DateLayout))
			}
		})
	}
}

func TestUpdateStreakSameDayIdempotent(t *testing.T) {
	u := freshUser()
	UpdateStreak(u, day0)
	first := u.Streak
	out := UpdateStreak(u, day0.Add(time.Hour))
	if u.Streak != first || out.Changed() {
		t.Fatalf("second same-day call changed streak: %d -> %d", first, u.Streak)
	}
}

func TestUpdateStreakConsecutiveDays(t *testing.T) {
	u := freshUser()
	for i := 0; i < 5; i++ {
		UpdateStreak(u, day0.AddDate(0, 0, i))
		if u.Streak != i+1 {
			t.Fatalf("day %d: got streak %d", i, u.Streak)
		}
	}
	UpdateStreak(u, day0.AddDate(0, 0, 8))
	if u.Streak != 1 {
		t.Fatalf("after gap: got streak %d", u.Streak)
	}
}

func TestGiveBadgeIdempotent(t *testing.T) {
	u := freshUser()
	if !GiveBadge(u, 3) {
		t.Fatal("first award should report new badge")
	}
	if GiveBadge(u, 3) {
		t.Fatal("second award should report existing badge")
	}
	GiveBadge(u, 1)
	if len(u.EarnedBadges) != 2 {
		t.Fatalf("badges: %v", u.EarnedBadges)
	}
}

func TestNormalizeSteps(t *testing.T) {
	got := NormalizeSteps([]int{3, 1, 3, 0, 1})
	want := []int{0, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestCheckInvariantDetectsCorruption(t *testing.T) {
	u := freshUser()
	u.XP = u.XPToNext
	if err := CheckInvariant(u); err == nil {
		t.Fatal("expected invariant violation")
	}
}

func ptr(t time.Time) *time.Time { return &t }
