package app

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/events"
	"interview_prep_backend/internal/llm"
	"interview_prep_backend/internal/testutil"

	"github.com/gin-gonic/gin"
)

// cannedGenerator answers structured prompts by keyword and fails chat.
type cannedGenerator struct{}

func (cannedGenerator) GenerateStructured(_ context.Context, prompt string) (json.RawMessage, error) {
	switch {
	case strings.Contains(prompt, "multiple-choice"):
		return json.RawMessage(`[
		 {"question":"q0","options":["a","b","c","d"],"correct_answer":"a"},
		 {"question":"q1","options":["a","b","c","d"],"correct_answer":"b"},
		 {"question":"q2","options":["a","b","c","d"],"correct_answer":"c"}]`), nil
	case strings.Contains(prompt, "HR analyst"):
		return json.RawMessage(`{"matched_skills":["Go"],"missing_skills":["Kafka"],"match_percentage":50}`), nil
	}
	return nil, llm.ErrNotConfigured
}

func (cannedGenerator) Chat(context.Context, string, []llm.Message) (string, error) {
	return "", llm.ErrNotConfigured
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *client) do(method, path string, body any) (int, envelope) {
	c.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

func (c *client) send(req *http.Request) (int, envelope) {
	c.t.Helper()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		c.t.Fatalf("%s %s: bad body %q", req.Method, req.URL.Path, w.Body.String())
	}
	return w.Code, env
}

func (c *client) upload(path, filename, content string) (int, envelope) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", filename)
	fw.Write([]byte(content))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req)
}

func newTestApp(t *testing.T) (*App, *events.Recorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "test"},
		JWT:     config.JWTConfig{Secret: "integration-secret", ExpireTime: time.Hour},
		Storage: config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		AI:      config.AIConfig{MaxAttempts: 1, CoachMaxTurns: 5, CoachSessionTTL: time.Hour},
		Session: config.SessionConfig{Store: "memory", TTL: time.Hour},
		Gamification: config.GamificationConfig{
			XPPerTest: 10, XPPerAnalysis: 5, XPPerProjectStep: 20, LevelStep: 500,
		},
		Roadmap:   config.RoadmapConfig{Weeks: 4, ProjectsPerBatch: 3},
		RateLimit: config.RateLimitConfig{MaxRequests: 10000, WindowMinutes: 1},
	}
	rec := &events.Recorder{}
	a := New(cfg, Deps{DB: testutil.DB(t), Generator: cannedGenerator{}, Publisher: rec})
	t.Cleanup(func() { a.Close(context.Background()) })
	return a, rec
}

func TestEndToEndFlow(t *testing.T) {
	a, rec := newTestApp(t)
	c := &client{t: t, router: a.Router}

	if code, _ := c.do(http.MethodGet, "/api/health", nil); code != http.StatusOK {
		t.Fatalf("health: %d", code)
	}

	reg := map[string]string{"name": "Ada", "email": "ada@example.com", "password": "password123"}
	if code, _ := c.do(http.MethodPost, "/api/register", reg); code != http.StatusCreated {
		t.Fatalf("register: %d", code)
	}
	if code, _ := c.do(http.MethodPost, "/api/register", reg); code != http.StatusConflict {
		t.Fatalf("duplicate register: %d", code)
	}
	if code, _ := c.do(http.MethodPost, "/api/login", map[string]string{"email": "ada@example.com", "password": "wrong-pass"}); code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", code)
	}
	if code, _ := c.do(http.MethodGet, "/api/auth/me", nil); code != http.StatusUnauthorized {
		t.Fatalf("me without token: %d", code)
	}

	code, env := c.do(http.MethodPost, "/api/login", map[string]string{"email": "ada@example.com", "password": "password123"})
	if code != http.StatusOK {
		t.Fatalf("login: %d", code)
	}
	var login struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	json.Unmarshal(env.Data, &login)
	if login.AccessToken == "" || login.TokenType != "bearer" {
		t.Fatalf("login body: %s", env.Data)
	}
	c.token = login.AccessToken

	// precondition failures
	code, env = c.do(http.MethodGet, "/api/analysis/skill-gap", nil)
	if code != http.StatusNotFound || env.Message != "Upload a resume first" {
		t.Fatalf("skill-gap without resume: %d %q", code, env.Message)
	}
	if code, _ := c.do(http.MethodGet, "/api/roadmap/", nil); code != http.StatusNotFound {
		t.Fatalf("roadmap without analysis: %d", code)
	}

	// dashboard before any analysis
	_, env = c.do(http.MethodGet, "/api/dashboard/", nil)
	if !strings.Contains(string(env.Data), `"match_percentage":null`) {
		t.Fatalf("dashboard: %s", env.Data)
	}

	// mock test round trip
	code, env = c.do(http.MethodPost, "/api/test/generate", map[string]any{"skill_name": "python", "num_questions": 3})
	if code != http.StatusOK || strings.Contains(string(env.Data), "correct_answer") {
		t.Fatalf("generate: %d %s", code, env.Data)
	}
	var test struct {
		TestID    string `json:"test_id"`
		Questions []struct {
			ID int `json:"id"`
		} `json:"questions"`
	}
	json.Unmarshal(env.Data, &test)
	if len(test.Questions) != 3 {
		t.Fatalf("questions: %s", env.Data)
	}

	check := map[string]any{
		"test_id": test.TestID,
		"answers": []map[string]any{
			{"question_id": 0, "selected_answer": " A "},
			{"question_id": 1, "selected_answer": "c"},
			{"question_id": 2, "selected_answer": "d"},
		},
	}
	code, env = c.do(http.MethodPost, "/api/test/check", check)
	var graded struct {
		Score        float64 `json:"score"`
		CorrectCount int     `json:"correct_count"`
		SkillName    string  `json:"skill_name"`
	}
	json.Unmarshal(env.Data, &graded)
	if code != http.StatusOK || graded.Score != 33.33 || graded.CorrectCount != 1 || graded.SkillName != "python" {
		t.Fatalf("check: %d %s", code, env.Data)
	}
	if code, _ := c.do(http.MethodPost, "/api/test/check", check); code != http.StatusNotFound {
		t.Fatalf("second check: %d", code)
	}
	if code, _ := c.do(http.MethodPost, "/api/test/generate", map[string]any{"skill_name": "go", "num_questions": 50}); code != http.StatusBadRequest {
		t.Fatalf("num_questions above max: %d", code)
	}

	// gamification
	if code, _ := c.do(http.MethodPost, "/api/gamification/add-xp", map[string]int{"amount": 0}); code != http.StatusBadRequest {
		t.Fatalf("zero xp: %d", code)
	}
	if code, _ := c.do(http.MethodPost, "/api/gamification/add-xp", map[string]int{"amount": math.MaxInt - 50}); code != http.StatusBadRequest {
		t.Fatalf("oversized xp: %d", code)
	}
	_, env = c.do(http.MethodPost, "/api/gamification/add-xp", map[string]int{"amount": 500})
	var xp struct {
		Status  string `json:"status"`
		TotalXP int    `json:"total_xp"`
		Level   int    `json:"level"`
	}
	json.Unmarshal(env.Data, &xp)
	// 10 from the test + 500
	if xp.Status != "success" || xp.Level != 2 || xp.TotalXP != 10 {
		t.Fatalf("add-xp: %s", env.Data)
	}

	c.do(http.MethodPost, "/api/gamification/badge", map[string]int{"badge_id": 4})
	_, env = c.do(http.MethodPost, "/api/gamification/badge", map[string]int{"badge_id": 4})
	if !strings.Contains(string(env.Data), `"earned_badges":[4]`) {
		t.Fatalf("badge: %s", env.Data)
	}

	_, env = c.do(http.MethodPost, "/api/gamification/project/step", map[string]any{"project_id": "p1", "completed_steps": []int{2, 0, 2}})
	if !strings.Contains(string(env.Data), `"completed_steps":[0,2]`) || !strings.Contains(string(env.Data), `"project_id":"p1"`) {
		t.Fatalf("project step: %s", env.Data)
	}

	// resume, jd, analysis, roadmap
	if code, _ := c.upload("/api/resume/upload", "cv.exe", "MZ"); code != http.StatusBadRequest {
		t.Fatalf("bad resume type: %d", code)
	}
	if code, _ := c.upload("/api/resume/upload", "cv.txt", "Go developer with SQL"); code != http.StatusCreated {
		t.Fatalf("resume upload: %d", code)
	}
	code, env = c.do(http.MethodGet, "/api/analysis/skill-gap", nil)
	if code != http.StatusNotFound || env.Message != "Upload a job description first" {
		t.Fatalf("skill-gap without jd: %d %q", code, env.Message)
	}
	if code, _ := c.do(http.MethodPost, "/api/analysis/jd", map[string]string{"jd_text": "Go and Kafka"}); code != http.StatusCreated {
		t.Fatalf("jd: %d", code)
	}
	code, env = c.do(http.MethodGet, "/api/analysis/skill-gap", nil)
	if code != http.StatusOK || !strings.Contains(string(env.Data), `"missing_skills":["Kafka"]`) {
		t.Fatalf("skill-gap: %d %s", code, env.Data)
	}

	code, env = c.do(http.MethodGet, "/api/roadmap/", nil)
	if code != http.StatusOK || !strings.Contains(string(env.Data), "Start Learning Kafka") {
		t.Fatalf("roadmap: %d %s", code, env.Data)
	}

	code, env = c.do(http.MethodPatch, "/api/progress/update", map[string]any{"completed_skills": []string{"kafka"}})
	if code != http.StatusOK || !strings.Contains(string(env.Data), `"total_progress_percentage":100`) {
		t.Fatalf("progress: %d %s", code, env.Data)
	}

	// coach has no fallback
	if code, _ := c.do(http.MethodPost, "/api/coach/chat", map[string]string{"message": "hi"}); code != http.StatusBadGateway {
		t.Fatalf("coach: %d", code)
	}

	_, env = c.do(http.MethodGet, "/api/auth/me", nil)
	if !strings.Contains(string(env.Data), `"email":"ada@example.com"`) || strings.Contains(string(env.Data), "password") {
		t.Fatalf("me: %s", env.Data)
	}

	if len(rec.Types()) == 0 {
		t.Fatal("no progression events published")
	}
}

func TestApplyConfigUpdatesRateLimit(t *testing.T) {
	a, _ := newTestApp(t)
	c := &client{t: t, router: a.Router}

	a.ApplyConfig(&config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		RateLimit: config.RateLimitConfig{MaxRequests: 1, WindowMinutes: 60},
	})

	c.do(http.MethodGet, "/api/health", nil)
	if code, _ := c.do(http.MethodGet, "/api/health", nil); code != http.StatusTooManyRequests {
		t.Fatalf("want 429 after lowering the limit, got %d", code)
	}
}
