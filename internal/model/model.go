package model

import (
	"context"
	"strings"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a student user role.
	UserRoleStudent UserRole = "student"
	// UserRoleTeacher is a teacher user role.
	UserRoleTeacher UserRole = "teacher"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

// QuestionKind discriminates the question variants.
type QuestionKind string

const (
	// KindSingleChoice covers MCQ and true/false (exactly one option selectable).
	KindSingleChoice QuestionKind = "single_choice"
	// KindMultiChoice allows any subset of the options.
	KindMultiChoice QuestionKind = "multi_choice"
	// KindFreeText covers short-answer and fill-in-the-blank.
	KindFreeText QuestionKind = "free_text"
)

// ValidKind reports whether k names a known question kind.
func ValidKind(k QuestionKind) bool {
	switch k {
	case KindSingleChoice, KindMultiChoice, KindFreeText:
		return true
	}
	return false
}

// Question is a single prompt inside a quiz. Options is non-empty exactly
// when Kind is one of the choice kinds.
type Question struct {
	ID      string       `json:"id"`
	QuizID  string       `json:"quiz_id"`
	Text    string       `json:"text"`
	Code    string       `json:"code,omitempty"`
	Kind    QuestionKind `json:"kind"`
	Options []string     `json:"options,omitempty"`
}

// IsChoice reports whether the question expects option selection.
func (q Question) IsChoice() bool {
	return q.Kind == KindSingleChoice || q.Kind == KindMultiChoice
}

// Quiz is the ordered question set plus metadata. The Questions slice is an
// immutable snapshot for the duration of any attempt made against it.
type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	TimeLimitSeconds int        `json:"time_limit_seconds"`
	CreatedBy        int64      `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	Questions        []Question `json:"questions,omitempty"`
}

// TimeLimit returns the quiz time limit as a duration.
func (q Quiz) TimeLimit() time.Duration {
	return time.Duration(q.TimeLimitSeconds) * time.Second
}

// AttemptStatus represents the state of a quiz attempt.
type AttemptStatus string

const (
	StatusInProgress       AttemptStatus = "in_progress"
	StatusSubmittedManual  AttemptStatus = "submitted_manual"
	StatusSubmittedTimeout AttemptStatus = "submitted_timeout"
)

// AttemptSummary is the flat record handed to the result surface when an
// attempt is submitted.
type AttemptSummary struct {
	QuizID         string `json:"quiz_id"`
	Title          string `json:"title"`
	TotalQuestions int    `json:"total_questions"`
	AnsweredCount  int    `json:"answered_count"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	AutoSubmitted  bool   `json:"auto_submitted"`
}

// Result is a stored attempt summary.
type Result struct {
	ID             int64     `json:"id"`
	QuizID         string    `json:"quiz_id"`
	UserID         int64     `json:"user_id"`
	Title          string    `json:"title"`
	TotalQuestions int       `json:"total_questions"`
	AnsweredCount  int       `json:"answered_count"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	AutoSubmitted  bool      `json:"auto_submitted"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// QuestionImport is used for loading questions from JSON.
type QuestionImport struct {
	Text    string       `json:"text"`
	Code    string       `json:"code"`
	Kind    QuestionKind `json:"kind"`
	Options []string     `json:"options"`
}

// Validate checks the variant invariant of an imported question: choice
// kinds carry at least two options, free-text carries none.
func (qi QuestionImport) Validate() bool {
	if strings.TrimSpace(qi.Text) == "" || !ValidKind(qi.Kind) {
		return false
	}
	if qi.Kind == KindFreeText {
		return len(qi.Options) == 0
	}
	return len(qi.Options) >= 2
}

// QuizImport is the JSON shape of an importable quiz file.
type QuizImport struct {
	Title            string           `json:"title"`
	TimeLimitSeconds int              `json:"time_limit_seconds"`
	Questions        []QuestionImport `json:"questions"`
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	BasePath      string // URL prefix for sub-path deployments (e.g. "/ru")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
}
