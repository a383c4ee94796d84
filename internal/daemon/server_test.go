package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/internal/catalog"
	"github.com/darasahq/darasa/internal/domain"
	"github.com/darasahq/darasa/internal/points"
	"github.com/darasahq/darasa/internal/progress"
	"github.com/darasahq/darasa/internal/recommend"
	"github.com/darasahq/darasa/internal/storage/memory"
)

type testEnv struct {
	server      *Server
	learnerID   uuid.UUID
	classroomID uuid.UUID
}

// setupTestServer wires a server over in-memory stores with one enrolled
// learner and a two-item unit.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	learners := memory.NewLearnerStore()
	classrooms := memory.NewClassroomStore()
	ledger := memory.NewLedgerStore()

	learner := domain.NewLearnerProfile("amina")
	if err := learners.Save(ctx, learner); err != nil {
		t.Fatalf("seed learner: %v", err)
	}
	classroom := &domain.Classroom{
		ID:        uuid.New(),
		Name:      "French A1",
		TeacherID: uuid.New(),
		Members:   []uuid.UUID{learner.ID},
	}
	if err := classrooms.Save(ctx, classroom); err != nil {
		t.Fatalf("seed classroom: %v", err)
	}

	registry := catalog.NewRegistry(&domain.Unit{
		ID:   "u1",
		Name: "Past Tense",
		Lessons: []domain.Lesson{
			{ID: "l1", Name: "Intro", Tags: []string{"past-tense"}},
		},
		Exercises: []domain.Exercise{
			{ID: "e1", Name: "Conjugate", Tags: []string{"past-tense"}, MaxScore: 10},
		},
	})

	pts := points.NewService(learners, ledger)
	engine := recommend.NewEngine(registry)
	svc := progress.NewService(learners, classrooms, registry, pts, engine)

	server := NewServer(ServerConfig{
		Addr:     "127.0.0.1:0",
		Progress: svc,
		Points:   pts,
		Learners: learners,
		Ledger:   ledger,
	})

	return &testEnv{
		server:      server,
		learnerID:   learner.ID,
		classroomID: classroom.ID,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	e.server.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, "/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("expected status 'healthy', got %v", resp["status"])
	}
}

func TestSubmitExerciseEndpoint(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPost, "/v1/exercises/submit", map[string]any{
		"learner_id":   env.learnerID,
		"classroom_id": env.classroomID,
		"unit_id":      "u1",
		"exercise_id":  "e1",
		"score":        8,
		"answers":      map[string]string{"q1": "a"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var learner domain.LearnerProfile
	if err := json.NewDecoder(w.Body).Decode(&learner); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if learner.Game.Points != 8 {
		t.Errorf("Points = %d, want 8", learner.Game.Points)
	}
	if len(learner.Progress) != 1 || learner.Progress[0].ProgressPercent != 50 {
		t.Errorf("Progress = %+v, want one record at 50%%", learner.Progress)
	}
}

func TestSubmitExerciseEndpoint_Validation(t *testing.T) {
	env := setupTestServer(t)

	t.Run("missing fields", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/v1/exercises/submit", map[string]any{
			"learner_id": env.learnerID,
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/exercises/submit", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		env.server.router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("unknown exercise", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/v1/exercises/submit", map[string]any{
			"learner_id":   env.learnerID,
			"classroom_id": env.classroomID,
			"unit_id":      "u1",
			"exercise_id":  "ghost",
		})
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
		}
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/v1/exercises/submit", map[string]any{
			"learner_id":   uuid.New(),
			"classroom_id": env.classroomID,
			"unit_id":      "u1",
			"exercise_id":  "e1",
		})
		if w.Code != http.StatusForbidden {
			t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
		}
	})
}

func TestCompleteLessonEndpoint(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPost, "/v1/lessons/complete", map[string]any{
		"learner_id":   env.learnerID,
		"classroom_id": env.classroomID,
		"unit_id":      "u1",
		"lesson_id":    "l1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var learner domain.LearnerProfile
	if err := json.NewDecoder(w.Body).Decode(&learner); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(learner.Progress) != 1 || learner.Progress[0].ProgressPercent != 50 {
		t.Errorf("Progress = %+v, want one record at 50%%", learner.Progress)
	}
}

func TestScoreSubmissionEndpoint(t *testing.T) {
	env := setupTestServer(t)

	// Submit first to get a submission id.
	w := env.do(t, http.MethodPost, "/v1/exercises/submit", map[string]any{
		"learner_id":   env.learnerID,
		"classroom_id": env.classroomID,
		"unit_id":      "u1",
		"exercise_id":  "e1",
		"score":        8,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("submit failed: %d %s", w.Code, w.Body.String())
	}
	var learner domain.LearnerProfile
	if err := json.NewDecoder(w.Body).Decode(&learner); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	subID := learner.Progress[0].Submissions[0].ID

	w = env.do(t, http.MethodPost, fmt.Sprintf("/v1/submissions/%s/score", subID), map[string]any{
		"learner_id": env.learnerID,
		"score":      10,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("score failed: %d %s", w.Code, w.Body.String())
	}
	if err := json.NewDecoder(w.Body).Decode(&learner); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if learner.Game.Points != 10 {
		t.Errorf("Points = %d, want 10", learner.Game.Points)
	}

	t.Run("score above max", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/submissions/%s/score", subID), map[string]any{
			"learner_id": env.learnerID,
			"score":      99,
		})
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
		}
	})

	t.Run("unknown submission", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/submissions/%s/score", uuid.New()), map[string]any{
			"learner_id": env.learnerID,
			"score":      5,
		})
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
		}
	})
}

func TestPointsEndpoints(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/learners/%s/points/award", env.learnerID), map[string]any{
		"classroom_id": env.classroomID,
		"granter_id":   uuid.New(),
		"amount":       20,
		"detail":       "participation",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("award failed: %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, fmt.Sprintf("/v1/learners/%s/points/spend", env.learnerID), map[string]any{
		"classroom_id": env.classroomID,
		"amount":       5,
		"detail":       "avatar hat",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("spend failed: %d %s", w.Code, w.Body.String())
	}

	var game domain.GameProfile
	if err := json.NewDecoder(w.Body).Decode(&game); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if game.Points != 15 {
		t.Errorf("Points = %d, want 15", game.Points)
	}

	t.Run("overdraw conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/learners/%s/points/spend", env.learnerID), map[string]any{
			"classroom_id": env.classroomID,
			"amount":       999,
		})
		if w.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
		}
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/learners/%s/points/award", env.learnerID), map[string]any{
			"classroom_id": env.classroomID,
			"granter_id":   uuid.New(),
			"amount":       0,
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestLedgerEndpoint(t *testing.T) {
	env := setupTestServer(t)

	env.do(t, http.MethodPost, "/v1/exercises/submit", map[string]any{
		"learner_id":   env.learnerID,
		"classroom_id": env.classroomID,
		"unit_id":      "u1",
		"exercise_id":  "e1",
		"score":        8,
	})

	w := env.do(t, http.MethodGet, fmt.Sprintf("/v1/learners/%s/ledger", env.learnerID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp struct {
		Entries []domain.PointsLogEntry `json:"entries"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(resp.Entries))
	}
	if resp.Entries[0].Category != domain.CategoryInstantExerciseCredit {
		t.Errorf("Category = %s, want instant-exercise-credit", resp.Entries[0].Category)
	}
}

func TestReconcileEndpoint(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/v1/learners/%s/reconcile", env.learnerID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var drift points.Drift
	if err := json.NewDecoder(w.Body).Decode(&drift); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if drift.Delta != 0 {
		t.Errorf("Delta = %d, want 0", drift.Delta)
	}
}

func TestGetLearnerEndpoint_NotFound(t *testing.T) {
	env := setupTestServer(t)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/v1/learners/%s", uuid.New()), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	w = env.do(t, http.MethodGet, "/v1/learners/not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
