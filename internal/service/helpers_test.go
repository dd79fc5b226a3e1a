package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/events"
	"interview_prep_backend/internal/llm"
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/session"
	"interview_prep_backend/internal/testutil"

	"gorm.io/gorm"
)

var errGeneratorDown = errors.New("generator down")

// fakeGenerator answers by prompt kind. A nil entry means "fail".
type fakeGenerator struct {
	mu        sync.Mutex
	responses map[string]string
	chat      func(history []llm.Message) (string, error)
	calls     map[string]int
	delay     time.Duration
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{responses: map[string]string{}, calls: map[string]int{}}
}

func promptKind(prompt string) string {
	switch {
	case strings.Contains(prompt, "multiple-choice"):
		return "questions"
	case strings.Contains(prompt, "HR analyst"):
		return "skillgap"
	case strings.Contains(prompt, "learning roadmap"):
		return "roadmap"
	case strings.Contains(prompt, "portfolio projects"):
		return "projects"
	}
	return "unknown"
}

func (f *fakeGenerator) set(kind, body string) {
	f.mu.Lock()
	f.responses[kind] = body
	f.mu.Unlock()
}

func (f *fakeGenerator) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

func (f *fakeGenerator) GenerateStructured(ctx context.Context, prompt string) (json.RawMessage, error) {
	kind := promptKind(prompt)
	f.mu.Lock()
	f.calls[kind]++
	body, ok := f.responses[kind]
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if !ok {
		return nil, errGeneratorDown
	}
	return json.RawMessage(body), nil
}

func (f *fakeGenerator) Chat(ctx context.Context, system string, history []llm.Message) (string, error) {
	f.mu.Lock()
	f.calls["chat"]++
	fn := f.chat
	f.mu.Unlock()
	if fn == nil {
		return "", errGeneratorDown
	}
	return fn(history)
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		JWT:     config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Storage: config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		AI:      config.AIConfig{MaxAttempts: 1, CoachMaxTurns: 2, CoachSessionTTL: time.Hour},
		Session: config.SessionConfig{Store: "memory", TTL: time.Hour},
		Gamification: config.GamificationConfig{
			XPPerTest:        10,
			XPPerAnalysis:    5,
			XPPerProjectStep: 20,
			LevelStep:        500,
		},
		Roadmap: config.RoadmapConfig{Weeks: 4, ProjectsPerBatch: 3},
	}
}

type fixture struct {
	db        *gorm.DB
	cfg       *config.Config
	gen       *fakeGenerator
	store     *session.MemoryStore
	events    *events.Recorder
	users     *repository.UserRepository
	game      *GamificationService
	tests     *TestService
	resumes   *ResumeService
	analysis  *AnalysisService
	roadmaps  *RoadmapService
	progress  *ProgressService
	dashboard *DashboardService
	coach     *CoachService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	cfg := testConfig(t)
	gen := newFakeGenerator()
	store := session.NewMemoryStore(0)
	t.Cleanup(func() { store.Close() })
	rec := &events.Recorder{}

	users := repository.NewUserRepository(db)
	projects := repository.NewProjectProgressRepository(db)
	results := repository.NewTestResultRepository(db)
	analyses := repository.NewAnalysisRepository(db)
	progress := repository.NewProgressRepository(db)

	game := NewGamificationService(db, users, projects, rec, cfg.Gamification)
	storage := NewStorageService(cfg)
	resumes := NewResumeService(repository.NewResumeRepository(db), repository.NewJobDescriptionRepository(db), storage)
	analysis := NewAnalysisService(resumes, analyses, gen, game, cfg)

	return &fixture{
		db:        db,
		cfg:       cfg,
		gen:       gen,
		store:     store,
		events:    rec,
		users:     users,
		game:      game,
		tests:     NewTestService(gen, store, results, game, cfg),
		resumes:   resumes,
		analysis:  analysis,
		roadmaps:  NewRoadmapService(analysis, repository.NewRoadmapRepository(db), gen, cfg.Roadmap),
		progress:  NewProgressService(progress, analysis),
		dashboard: NewDashboardService(users, analyses, progress, results, projects),
		coach:     NewCoachService(gen, store, cfg),
	}
}

func (f *fixture) user(t *testing.T, email string) *model.User {
	return testutil.CreateUser(t, f.db, email)
}

func (f *fixture) reload(t *testing.T, id uint) *model.User {
	return testutil.ReloadUser(t, f.db, id)
}

// withResumeAndJD stores a resume and a job description for the user.
func (f *fixture) withResumeAndJD(t *testing.T, userID uint) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.resumes.Upload(ctx, userID, "cv.txt", []byte("Go, SQL, Docker")); err != nil {
		t.Fatalf("upload resume: %v", err)
	}
	if _, err := f.resumes.SaveJobDescription(ctx, userID, "Acme", "Go, Kubernetes, Kafka"); err != nil {
		t.Fatalf("save jd: %v", err)
	}
}

const pythonQuestions = `[
 {"question":"Which keyword defines a function?","options":["def","func","fn","lambda"],"correct_answer":"def","explanation":"def starts a function."},
 {"question":"Which method appends to a list?","options":["push()","append()","add()","insert()"],"correct_answer":"append()"},
 {"question":"What does len() return for 'abc'?","options":["2","3","4","error"],"correct_answer":"3"},
 {"question":"Extra question","options":["a","b","c","d"],"correct_answer":"a"}
]`
