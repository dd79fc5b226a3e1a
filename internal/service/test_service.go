package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/llm"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/session"
	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/logger"
	"interview_prep_backend/pkg/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

const (
	DefaultQuestionCount = 5
	MaxQuestionCount     = 20
	optionsPerQuestion   = 4
)

//go:embed questions/fallback.yaml
var fallbackYAML []byte

var fallbackBank = mustLoadBank(fallbackYAML)

func mustLoadBank(data []byte) []model.Question {
	var bank []model.Question
	if err := yaml.Unmarshal(data, &bank); err != nil {
		panic(fmt.Sprintf("fallback question bank: %v", err))
	}
	if len(bank) == 0 {
		panic("fallback question bank is empty")
	}
	return bank
}

// testSession is the server-side record of a generated test, answers included.
type testSession struct {
	UserID    uint             `json:"user_id"`
	SkillName string           `json:"skill_name"`
	Questions []model.Question `json:"questions"`
	CreatedAt time.Time        `json:"created_at"`
}

// TestService generates mock tests and grades them exactly once.
type TestService struct {
	Generator    llm.Generator
	Store        session.Store
	ResultRepo   *repository.TestResultRepository
	Gamification *GamificationService
	Cfg          *config.Config
}

func NewTestService(
	generator llm.Generator,
	store session.Store,
	resultRepo *repository.TestResultRepository,
	gamification *GamificationService,
	cfg *config.Config,
) *TestService {
	return &TestService{
		Generator:    generator,
		Store:        store,
		ResultRepo:   resultRepo,
		Gamification: gamification,
		Cfg:          cfg,
	}
}

// sessionKey scopes the test id to its owner, so another user's check misses
// the key entirely and cannot consume the session.
func sessionKey(userID uint, testID string) string {
	return fmt.Sprintf("test:%d:%s", userID, testID)
}

func (s *TestService) Generate(ctx context.Context, userID uint, skill string, n int) (*model.GeneratedTest, error) {
	skill = strings.TrimSpace(skill)
	switch {
	case n <= 0:
		n = DefaultQuestionCount
	case n > MaxQuestionCount:
		n = MaxQuestionCount
	}

	questions := s.generateQuestions(ctx, skill, n)

	testID := uuid.NewString()
	raw, err := json.Marshal(testSession{
		UserID:    userID,
		SkillName: skill,
		Questions: questions,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Store.Put(ctx, sessionKey(userID, testID), raw, s.Cfg.Session.TTL); err != nil {
		return nil, fmt.Errorf("store test session: %w", err)
	}
	monitoring.TestSessionsActive.Inc()

	public := make([]model.PublicQuestion, len(questions))
	for i, q := range questions {
		public[i] = model.PublicQuestion{ID: i, Question: q.Question, Options: q.Options}
	}
	return &model.GeneratedTest{TestID: testID, SkillName: skill, Questions: public}, nil
}

// generateQuestions returns exactly n valid questions. Invalid generator
// output is dropped and the shortfall is filled from the built-in bank.
func (s *TestService) generateQuestions(ctx context.Context, skill string, n int) []model.Question {
	var valid []model.Question
	raw, err := s.Generator.GenerateStructured(ctx, llm.QuestionsPrompt(skill, n))
	if err != nil {
		logger.Log.Warn("Question generation failed, using built-in questions",
			zap.String("skill", skill), zap.Error(err))
	} else {
		valid = validQuestions(decodeQuestions(raw), n)
	}

	if len(valid) < n {
		if err == nil {
			logger.Log.Warn("Generator returned too few valid questions",
				zap.String("skill", skill), zap.Int("valid", len(valid)), zap.Int("wanted", n))
		}
		valid = append(valid, fallbackQuestions(skill, n-len(valid))...)
	}
	return valid
}

// decodeQuestions accepts a bare array or an object wrapping it in "questions".
func decodeQuestions(raw json.RawMessage) []model.Question {
	var list []model.Question
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var wrapped struct {
		Questions []model.Question `json:"questions"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return wrapped.Questions
	}
	return nil
}

func validQuestions(in []model.Question, n int) []model.Question {
	out := make([]model.Question, 0, n)
	for _, q := range in {
		if len(out) == n {
			break
		}
		if v, ok := validateQuestion(q); ok {
			out = append(out, v)
		}
	}
	return out
}

// validateQuestion requires non-empty text, exactly four distinct non-empty
// options and a correct answer equal to one of them. The answer is rewritten
// to the option's exact text.
func validateQuestion(q model.Question) (model.Question, bool) {
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" || len(q.Options) != optionsPerQuestion {
		return q, false
	}

	seen := make(map[string]struct{}, optionsPerQuestion)
	options := make([]string, len(q.Options))
	correct := ""
	for i, o := range q.Options {
		o = strings.TrimSpace(o)
		key := strings.ToLower(o)
		if o == "" {
			return q, false
		}
		if _, dup := seen[key]; dup {
			return q, false
		}
		seen[key] = struct{}{}
		options[i] = o
		if answersMatch(o, q.CorrectAnswer) {
			correct = o
		}
	}
	if correct == "" {
		return q, false
	}

	q.Options = options
	q.CorrectAnswer = correct
	q.Explanation = strings.TrimSpace(q.Explanation)
	return q, true
}

// fallbackQuestions cycles through the bank to produce n questions.
func fallbackQuestions(skill string, n int) []model.Question {
	name := skill
	if name == "" {
		name = "this skill"
	}
	out := make([]model.Question, n)
	for i := 0; i < n; i++ {
		q := fallbackBank[i%len(fallbackBank)]
		q.Question = strings.ReplaceAll(q.Question, "{skill}", name)
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

func answersMatch(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Check grades a test. The session is removed before grading, so a second
// check of the same id, or a concurrent one, gets ErrTestSessionNotFound.
func (s *TestService) Check(ctx context.Context, userID uint, testID, skillName string, answers []model.SubmittedAnswer) (*model.TestCheckResult, error) {
	raw, err := s.Store.Take(ctx, sessionKey(userID, testID))
	if errors.Is(err, session.ErrNotFound) {
		return nil, util.ErrTestSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load test session: %w", err)
	}
	monitoring.TestSessionsActive.Dec()

	var ts testSession
	if err := json.Unmarshal(raw, &ts); err != nil {
		return nil, fmt.Errorf("decode test session: %w", err)
	}

	result := Grade(ts.Questions, answers)
	result.SkillName = strings.TrimSpace(skillName)
	if result.SkillName == "" {
		result.SkillName = ts.SkillName
	}

	row := &model.TestResult{
		UserID:         userID,
		SkillName:      result.SkillName,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		CorrectCount:   result.CorrectCount,
		TakenAt:        time.Now().UTC(),
	}
	// 成绩与 XP/连续天数同一事务提交
	_, err = s.Gamification.RecordActivityWith(ctx, userID, SourceTest, s.Cfg.Gamification.XPPerTest, func(tx *gorm.DB) error {
		if err := s.ResultRepo.WithTx(tx).Create(ctx, row); err != nil {
			return fmt.Errorf("save test result: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	monitoring.TestsChecked.Inc()
	return result, nil
}

// Grade scores answers against questions. Out-of-range and repeated question
// ids are skipped. The score is over all questions in the test, not only the
// answered ones, and is 0 for an empty test.
func Grade(questions []model.Question, answers []model.SubmittedAnswer) *model.TestCheckResult {
	res := &model.TestCheckResult{
		TotalQuestions: len(questions),
		Results:        make([]model.QuestionResult, 0, len(answers)),
	}
	graded := make(map[int]bool, len(answers))
	for _, a := range answers {
		if a.QuestionID < 0 || a.QuestionID >= len(questions) || graded[a.QuestionID] {
			continue
		}
		graded[a.QuestionID] = true

		q := questions[a.QuestionID]
		ok := answersMatch(a.SelectedAnswer, q.CorrectAnswer)
		if ok {
			res.CorrectCount++
		}
		res.Results = append(res.Results, model.QuestionResult{
			QuestionID:     a.QuestionID,
			Question:       q.Question,
			SelectedAnswer: a.SelectedAnswer,
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      ok,
			Explanation:    q.Explanation,
		})
	}
	res.Score = util.Percentage(res.CorrectCount, res.TotalQuestions)
	return res
}

func (s *TestService) History(ctx context.Context, userID uint) ([]model.TestResult, error) {
	return s.ResultRepo.FindRecentByUser(ctx, userID, 0)
}
