package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"interview_prep_backend/internal/gamification"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/util"
)

func answersFor(questions []string) []model.SubmittedAnswer {
	out := make([]model.SubmittedAnswer, len(questions))
	for i, a := range questions {
		out[i] = model.SubmittedAnswer{QuestionID: i, SelectedAnswer: a}
	}
	return out
}

func TestGenerateHidesAnswers(t *testing.T) {
	f := newFixture(t)
	f.gen.set("questions", pythonQuestions)
	u := f.user(t, "g@example.com")

	test, err := f.tests.Generate(context.Background(), u.ID, "python", 3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if test.TestID == "" || test.SkillName != "python" {
		t.Fatalf("unexpected test header: %+v", test)
	}
	if len(test.Questions) != 3 {
		t.Fatalf("want 3 questions, got %d", len(test.Questions))
	}
	for i, q := range test.Questions {
		if q.ID != i || len(q.Options) != 4 {
			t.Fatalf("question %d: %+v", i, q)
		}
	}

	body, _ := json.Marshal(test)
	if strings.Contains(string(body), "correct_answer") || strings.Contains(string(body), "explanation") {
		t.Fatalf("answers leaked to client: %s", body)
	}
}

func TestGenerateClampsCount(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "n@example.com")
	ctx := context.Background()

	test, _ := f.tests.Generate(ctx, u.ID, "go", 0)
	if len(test.Questions) != DefaultQuestionCount {
		t.Fatalf("default count: got %d", len(test.Questions))
	}
	test, _ = f.tests.Generate(ctx, u.ID, "go", 500)
	if len(test.Questions) != MaxQuestionCount {
		t.Fatalf("max count: got %d", len(test.Questions))
	}
}

func TestGenerateFallsBackWhenGeneratorFails(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "fb@example.com")

	test, err := f.tests.Generate(context.Background(), u.ID, "Rust", 4)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(test.Questions) != 4 {
		t.Fatalf("want 4 questions, got %d", len(test.Questions))
	}
	for _, q := range test.Questions {
		if strings.Contains(q.Question, "{skill}") {
			t.Fatalf("placeholder not substituted: %q", q.Question)
		}
	}
}

func TestGenerateTopsUpInvalidQuestions(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "top@example.com")
	f.gen.set("questions", `{"questions":[
	 {"question":"Good one","options":["a","b","c","d"],"correct_answer":"B"},
	 {"question":"Three options","options":["a","b","c"],"correct_answer":"a"},
	 {"question":"Answer not in options","options":["a","b","c","d"],"correct_answer":"z"},
	 {"question":"Duplicate options","options":["a","A","c","d"],"correct_answer":"a"}
	]}`)

	test, err := f.tests.Generate(context.Background(), u.ID, "go", 3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(test.Questions) != 3 || test.Questions[0].Question != "Good one" {
		t.Fatalf("unexpected questions: %+v", test.Questions)
	}
}

func TestCheckScoresAndConsumesSession(t *testing.T) {
	f := newFixture(t)
	f.gen.set("questions", pythonQuestions)
	u := f.user(t, "c@example.com")
	ctx := context.Background()

	test, _ := f.tests.Generate(ctx, u.ID, "python", 3)
	res, err := f.tests.Check(ctx, u.ID, test.TestID, "", answersFor([]string{"def", "push()", "2"}))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.CorrectCount != 1 || res.TotalQuestions != 3 || res.Score != 33.33 {
		t.Fatalf("grading: %+v", res)
	}
	if res.SkillName != "python" {
		t.Fatalf("skill name should come from the session, got %q", res.SkillName)
	}
	if res.Results[1].CorrectAnswer != "append()" || res.Results[1].IsCorrect {
		t.Fatalf("result detail: %+v", res.Results[1])
	}

	if _, err := f.tests.Check(ctx, u.ID, test.TestID, "", nil); !errors.Is(err, util.ErrTestSessionNotFound) {
		t.Fatalf("second check: want ErrTestSessionNotFound, got %v", err)
	}

	stored := f.reload(t, u.ID)
	if stored.XP != 10 || stored.Streak != 1 {
		t.Fatalf("progression after check: xp=%d streak=%d", stored.XP, stored.Streak)
	}
	history, _ := f.tests.History(ctx, u.ID)
	if len(history) != 1 || history[0].Score != 33.33 {
		t.Fatalf("history: %+v", history)
	}
}

func TestCheckRollsBackResultWhenProgressionFails(t *testing.T) {
	f := newFixture(t)
	f.gen.set("questions", pythonQuestions)
	u := f.user(t, "rb@example.com")
	ctx := context.Background()

	test, _ := f.tests.Generate(ctx, u.ID, "python", 3)
	// 损坏的进度行让 XP 更新失败
	f.db.Model(&model.User{}).Where("id = ?", u.ID).Update("xp", -50)

	if _, err := f.tests.Check(ctx, u.ID, test.TestID, "", answersFor([]string{"def", "append()", "3"})); !errors.Is(err, gamification.ErrInvariantViolation) {
		t.Fatalf("want ErrInvariantViolation, got %v", err)
	}

	history, err := f.tests.History(ctx, u.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("result committed without its progression change: %+v", history)
	}
	if got := f.reload(t, u.ID); got.XP != -50 || got.Streak != 0 {
		t.Fatalf("progression modified: xp=%d streak=%d", got.XP, got.Streak)
	}
}

func TestCheckAllCorrectAndAllWrong(t *testing.T) {
	f := newFixture(t)
	f.gen.set("questions", pythonQuestions)
	u := f.user(t, "aw@example.com")
	ctx := context.Background()

	test, _ := f.tests.Generate(ctx, u.ID, "python", 3)
	res, _ := f.tests.Check(ctx, u.ID, test.TestID, "Python", answersFor([]string{"DEF", " append() ", "3"}))
	if res.Score != 100 || res.SkillName != "Python" {
		t.Fatalf("all correct: %+v", res)
	}

	test, _ = f.tests.Generate(ctx, u.ID, "python", 3)
	res, _ = f.tests.Check(ctx, u.ID, test.TestID, "", answersFor([]string{"fn", "add()", "4"}))
	if res.Score != 0 || res.CorrectCount != 0 {
		t.Fatalf("all wrong: %+v", res)
	}
}

func TestCheckRejectsOtherUser(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")
	ctx := context.Background()

	test, _ := f.tests.Generate(ctx, owner.ID, "go", 2)
	if _, err := f.tests.Check(ctx, other.ID, test.TestID, "", nil); !errors.Is(err, util.ErrTestSessionNotFound) {
		t.Fatalf("foreign check: want ErrTestSessionNotFound, got %v", err)
	}
	if _, err := f.tests.Check(ctx, owner.ID, test.TestID, "", nil); err != nil {
		t.Fatalf("owner check after foreign attempt: %v", err)
	}
}

func TestCheckIsAtMostOnceUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "race@example.com")
	ctx := context.Background()
	test, _ := f.tests.Generate(ctx, u.ID, "go", 2)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.tests.Check(ctx, u.ID, test.TestID, "", nil); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ok != 1 {
		t.Fatalf("want exactly one successful check, got %d", ok)
	}
	if xp := f.reload(t, u.ID).XP; xp != 10 {
		t.Fatalf("xp awarded %d times worth", xp/10)
	}
}

func TestGrade(t *testing.T) {
	questions := []model.Question{
		{Question: "q0", Options: []string{"push()", "b", "c", "d"}, CorrectAnswer: "push()"},
		{Question: "q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"},
	}

	res := Grade(questions, []model.SubmittedAnswer{
		{QuestionID: 0, SelectedAnswer: " Push() "},
		{QuestionID: 0, SelectedAnswer: "b"},
		{QuestionID: 7, SelectedAnswer: "a"},
	})
	if res.CorrectCount != 1 || len(res.Results) != 1 || res.Score != 50 {
		t.Fatalf("grading: %+v", res)
	}

	if empty := Grade(nil, nil); empty.Score != 0 || empty.TotalQuestions != 0 {
		t.Fatalf("empty test: %+v", empty)
	}
}
