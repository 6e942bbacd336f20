package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/pavelanni/quizdesk/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testQuiz(id string) model.Quiz {
	return model.Quiz{
		ID:               id,
		Title:            "Go Basics",
		TimeLimitSeconds: 600,
		CreatedBy:        1,
		Questions: []model.Question{
			{ID: id + "-q1", QuizID: id, Text: "What is a goroutine?", Kind: model.KindFreeText},
			{ID: id + "-q2", QuizID: id, Text: "Pick the builtin types", Kind: model.KindMultiChoice,
				Options: []string{"int", "list", "string"}},
			{ID: id + "-q3", QuizID: id, Text: "Is Go compiled?", Kind: model.KindSingleChoice,
				Code:    "package main",
				Options: []string{"yes", "no"}},
		},
	}
}

func TestQuizCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.QuizCount()
	if err != nil {
		t.Fatalf("QuizCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 quizzes, got %d", count)
	}

	if err := s.CreateQuiz(testQuiz("quiz-1")); err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}

	got, err := s.GetQuiz("quiz-1")
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if got.Title != "Go Basics" {
		t.Errorf("title = %q", got.Title)
	}
	if got.TimeLimitSeconds != 600 {
		t.Errorf("time limit = %d, want 600", got.TimeLimitSeconds)
	}
	if len(got.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(got.Questions))
	}
	// Question order and the variant payloads must round-trip.
	if got.Questions[0].Kind != model.KindFreeText || len(got.Questions[0].Options) != 0 {
		t.Errorf("q1 = %+v, want free text with no options", got.Questions[0])
	}
	if len(got.Questions[1].Options) != 3 {
		t.Errorf("q2 options = %v", got.Questions[1].Options)
	}
	if got.Questions[2].Code != "package main" {
		t.Errorf("q3 code = %q", got.Questions[2].Code)
	}

	// Not found.
	_, err = s.GetQuiz("missing")
	if err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}

	if err := s.CreateQuiz(testQuiz("quiz-2")); err != nil {
		t.Fatalf("CreateQuiz second: %v", err)
	}
	quizzes, err := s.ListQuizzes()
	if err != nil {
		t.Fatalf("ListQuizzes: %v", err)
	}
	if len(quizzes) != 2 {
		t.Fatalf("expected 2 quizzes, got %d", len(quizzes))
	}
	for _, q := range quizzes {
		if len(q.Questions) != 0 {
			t.Error("ListQuizzes should not load questions")
		}
	}
}

func TestAppendQuestions(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateQuiz(testQuiz("quiz-1")); err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}

	err := s.AppendQuestions("quiz-1", []model.Question{
		{ID: "extra-1", QuizID: "quiz-1", Text: "Extra?", Kind: model.KindFreeText},
	})
	if err != nil {
		t.Fatalf("AppendQuestions: %v", err)
	}

	count, err := s.QuestionCount("quiz-1")
	if err != nil {
		t.Fatalf("QuestionCount: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 questions, got %d", count)
	}

	quiz, err := s.GetQuiz("quiz-1")
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if quiz.Questions[3].ID != "extra-1" {
		t.Errorf("appended question not last: %+v", quiz.Questions[3])
	}
}

func TestResults(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateQuiz(testQuiz("quiz-1")); err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}

	summary := model.AttemptSummary{
		QuizID:         "quiz-1",
		Title:          "Go Basics",
		TotalQuestions: 3,
		AnsweredCount:  2,
		ElapsedSeconds: 95,
		AutoSubmitted:  true,
	}
	id, err := s.InsertResult(7, summary)
	if err != nil {
		t.Fatalf("InsertResult: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero result id")
	}

	results, err := s.ListResults()
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.UserID != 7 || r.AnsweredCount != 2 || !r.AutoSubmitted {
		t.Errorf("result = %+v", r)
	}
	if r.SubmittedAt.IsZero() {
		t.Error("submitted_at not set")
	}

	mine, err := s.ListResultsForUser(7)
	if err != nil {
		t.Fatalf("ListResultsForUser: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("expected 1 result for user 7, got %d", len(mine))
	}
	other, err := s.ListResultsForUser(8)
	if err != nil {
		t.Fatalf("ListResultsForUser: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected 0 results for user 8, got %d", len(other))
	}

	// LatestResult picks the newest row for the user+quiz pair.
	summary.AnsweredCount = 3
	if _, err := s.InsertResult(7, summary); err != nil {
		t.Fatalf("InsertResult second: %v", err)
	}
	latest, err := s.LatestResult(7, "quiz-1")
	if err != nil {
		t.Fatalf("LatestResult: %v", err)
	}
	if latest == nil || latest.AnsweredCount != 3 {
		t.Errorf("latest = %+v, want the second submission", latest)
	}
	none, err := s.LatestResult(7, "quiz-2")
	if err != nil {
		t.Fatalf("LatestResult missing: %v", err)
	}
	if none != nil {
		t.Errorf("expected nil for a quiz never submitted, got %+v", none)
	}
}

func TestAttemptStateKV(t *testing.T) {
	s := newTestStore(t)
	kv := s.AttemptState(1)

	// Missing key reads as empty.
	got, err := kv.Get("quiz:q1:expiresAt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty value, got %q", got)
	}

	if err := kv.Set("quiz:q1:expiresAt", "1690000000000"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set("quiz:q1:expiresAt", "1700000000000"); err != nil {
		t.Fatalf("Set update: %v", err)
	}
	got, _ = kv.Get("quiz:q1:expiresAt")
	if got != "1700000000000" {
		t.Errorf("value = %q, want updated", got)
	}

	// State is scoped per user.
	otherKV := s.AttemptState(2)
	got, _ = otherKV.Get("quiz:q1:expiresAt")
	if got != "" {
		t.Errorf("user 2 sees user 1's state: %q", got)
	}

	if err := kv.Delete("quiz:q1:expiresAt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ = kv.Get("quiz:q1:expiresAt")
	if got != "" {
		t.Errorf("value survived Delete: %q", got)
	}
}

func TestUsersAndAuthSessions(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateUser(model.User{
		Username:     "alice",
		DisplayName:  "Alice",
		PasswordHash: "hash",
		Role:         model.UserRoleTeacher,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := s.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id || u.Role != model.UserRoleTeacher {
		t.Fatalf("user = %+v", u)
	}

	missing, err := s.GetUserByUsername("bob")
	if err != nil {
		t.Fatalf("GetUserByUsername missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown user")
	}

	token, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != id {
		t.Fatalf("session = %+v", sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Error("session survived delete")
	}

	if err := s.ToggleUserActive(id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, _ = s.GetUserByID(id)
	if u.Active {
		t.Error("user still active after toggle")
	}
}

func TestExpiredAuthSession(t *testing.T) {
	s := newTestStore(t)
	id, err := s.CreateUser(model.User{
		Username: "alice", DisplayName: "Alice", PasswordHash: "h",
		Role: model.UserRoleStudent, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	token, err := s.CreateAuthSession(id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	// Backdate the session past its TTL.
	if _, err := s.db.Exec(
		`UPDATE auth_sessions SET expires_at = ? WHERE id = ?`,
		time.Now().Add(-time.Minute), token,
	); err != nil {
		t.Fatalf("backdate session: %v", err)
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess != nil {
		t.Errorf("expired session still resolves: %+v", sess)
	}

	if err := s.CleanupExpiredSessions(); err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM auth_sessions`).Scan(&count); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 sessions after cleanup, got %d", count)
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.GetImportedFileHash("/some/quiz.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/quiz.json", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/quiz.json")
	if hash != "abc123" {
		t.Errorf("expected 'abc123', got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/quiz.json", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/quiz.json")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}

func TestExportAllResults(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateQuiz(testQuiz("quiz-1")); err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	uid, err := s.CreateUser(model.User{
		Username: "alice", DisplayName: "Alice", PasswordHash: "h",
		Role: model.UserRoleStudent, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.InsertResult(uid, model.AttemptSummary{
		QuizID: "quiz-1", Title: "Go Basics", TotalQuestions: 3, AnsweredCount: 3,
		ElapsedSeconds: 120,
	}); err != nil {
		t.Fatalf("InsertResult: %v", err)
	}

	export, err := s.ExportAllResults()
	if err != nil {
		t.Fatalf("ExportAllResults: %v", err)
	}
	if export.NumQuizzes != 1 {
		t.Errorf("NumQuizzes = %d, want 1", export.NumQuizzes)
	}
	if len(export.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(export.Results))
	}
	r := export.Results[0]
	if r.Username != "alice" || r.QuizTitle != "Go Basics" || r.AnsweredCount != 3 {
		t.Errorf("export result = %+v", r)
	}
}
