package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"interview_prep_backend/internal/model"
)

func TestDashboardForNewUser(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "new@example.com")

	d, err := f.dashboard.Get(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.MatchPercentage != nil || d.Level != 1 || d.XPToNext != 500 {
		t.Fatalf("unexpected dashboard: %+v", d)
	}

	body, _ := json.Marshal(d)
	for _, want := range []string{`"match_percentage":null`, `"earned_badges":[]`, `"recent_test_scores":[]`, `"project_progress":[]`} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("missing %s in %s", want, body)
		}
	}

	var n int64
	f.db.Model(&model.Progress{}).Where("user_id = ?", u.ID).Count(&n)
	if n != 0 {
		t.Fatal("dashboard must not create a progress row")
	}
}

func TestDashboardAggregates(t *testing.T) {
	f := newFixture(t)
	uid := analysedUser(t, f, "agg@example.com", `{"matched_skills":["Go"],"missing_skills":["Kafka"],"match_percentage":66.7}`)
	ctx := context.Background()

	test, _ := f.tests.Generate(ctx, uid, "Kafka", 2)
	f.tests.Check(ctx, uid, test.TestID, "", nil)
	f.game.UpdateProjectStep(ctx, uid, "event-log", []int{1})
	f.game.AwardBadge(ctx, uid, 2)
	f.progress.Update(ctx, uid, []string{"Kafka"})

	d, err := f.dashboard.Get(ctx, uid)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.MatchPercentage == nil || *d.MatchPercentage != 66.7 {
		t.Fatalf("match: %v", d.MatchPercentage)
	}
	// 5 analysis + 10 test + 20 project step
	if d.XP != 35 || d.Streak != 1 {
		t.Fatalf("xp=%d streak=%d", d.XP, d.Streak)
	}
	if len(d.RecentTestScores) != 1 || len(d.ProjectProgress) != 1 || len(d.EarnedBadges) != 1 {
		t.Fatalf("aggregates: tests=%d projects=%d badges=%d", len(d.RecentTestScores), len(d.ProjectProgress), len(d.EarnedBadges))
	}
	if d.TotalProgressPercentage != 100 {
		t.Fatalf("progress: %v", d.TotalProgressPercentage)
	}
}
