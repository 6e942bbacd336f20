package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizdesk/internal/attempt"
	appI18n "github.com/pavelanni/quizdesk/internal/i18n"
	"github.com/pavelanni/quizdesk/internal/model"
	"github.com/pavelanni/quizdesk/internal/quizgen"
	"github.com/pavelanni/quizdesk/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	gen      *quizgen.Client
	attempts *attempt.Manager
	config   model.AppConfig
}

// New creates a new Handler.
func New(s *store.Store, gen *quizgen.Client, attempts *attempt.Manager, cfg model.AppConfig) *Handler {
	return &Handler{store: s, gen: gen, attempts: attempts, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Post("/logout", h.handleLogout)
		r.Get("/quizzes", h.handleListQuizzes)
		r.Get("/quizzes/{quizID}", h.handleQuizInfo)
		r.Get("/results", h.handleMyResults)

		r.Route("/quizzes/{quizID}/attempt", func(r chi.Router) {
			r.Post("/start", h.handleStartAttempt)
			r.Get("/", h.handleAttemptState)
			r.Post("/answer", h.handleAnswer)
			r.Post("/navigate", h.handleNavigate)
			r.Post("/submit", h.handleSubmitAttempt)
			r.Get("/ws", h.handleAttemptWS)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleTeacher, model.UserRoleAdmin))
			r.Post("/quizzes", h.handleCreateQuiz)
			r.Post("/quizzes/{quizID}/questions", h.handleAddQuestions)
			r.Post("/quizzes/{quizID}/generate", h.handleGenerateQuestions)
			r.Get("/admin/results", h.handleAllResults)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/admin/users", h.handleListUsers)
			r.Post("/admin/users", h.handleCreateUser)
			r.Post("/admin/users/{userID}/toggle", h.handleToggleUserActive)
		})
	})
}

// BasePathMiddleware stores the configured base path in the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondError writes a JSON error with a localized message. code is a
// stable machine-readable identifier, msgID a translation key.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, msgID string) {
	respondJSON(w, status, errorResponse{
		Error:   code,
		Message: appI18n.T(r.Context(), msgID),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return false
	}
	return true
}
