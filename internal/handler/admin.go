package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/quizdesk/internal/model"
)

type createQuizRequest struct {
	Title            string                 `json:"title"`
	TimeLimitSeconds int                    `json:"time_limit_seconds"`
	Questions        []model.QuestionImport `json:"questions"`
}

type addQuestionsRequest struct {
	Questions []model.QuestionImport `json:"questions"`
}

type generateRequest struct {
	SourceText string             `json:"source_text"`
	Count      int                `json:"count"`
	Kind       model.QuestionKind `json:"kind"`
}

func (h *Handler) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req createQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "title is required"})
		return
	}
	if req.TimeLimitSeconds < 0 {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "time limit cannot be negative"})
		return
	}

	quiz := model.Quiz{
		ID:               uuid.NewString(),
		Title:            req.Title,
		TimeLimitSeconds: req.TimeLimitSeconds,
		CreatedBy:        user.ID,
	}
	questions, ok := importQuestions(w, quiz.ID, req.Questions)
	if !ok {
		return
	}
	quiz.Questions = questions

	if err := h.store.CreateQuiz(quiz); err != nil {
		slog.Error("failed to create quiz", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("quiz created", "quiz_id", quiz.ID, "title", quiz.Title, "questions", len(quiz.Questions), "by", user.Username)

	respondJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) handleAddQuestions(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")

	var req addQuestionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Questions) == 0 {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "questions are required"})
		return
	}

	if _, err := h.store.GetQuiz(quizID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, r, http.StatusNotFound, "quiz_not_found", "QuizNotFound")
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	questions, ok := importQuestions(w, quizID, req.Questions)
	if !ok {
		return
	}
	if err := h.store.AppendQuestions(quizID, questions); err != nil {
		slog.Error("failed to append questions", "quiz_id", quizID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, questions)
}

// importQuestions validates imported questions and assigns ids. Writes the
// error response itself when validation fails.
func importQuestions(w http.ResponseWriter, quizID string, imports []model.QuestionImport) ([]model.Question, bool) {
	var questions []model.Question
	for i, qi := range imports {
		if !qi.Validate() {
			respondJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "bad_request",
				Message: "question " + strconv.Itoa(i+1) + " is malformed",
			})
			return nil, false
		}
		questions = append(questions, model.Question{
			ID:      uuid.NewString(),
			QuizID:  quizID,
			Text:    qi.Text,
			Code:    qi.Code,
			Kind:    qi.Kind,
			Options: qi.Options,
		})
	}
	return questions, true
}

func (h *Handler) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	if h.gen == nil {
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "generation_disabled", Message: "question generation is not configured"})
		return
	}
	quizID := chi.URLParam(r, "quizID")

	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SourceText) == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "source_text is required"})
		return
	}

	if _, err := h.store.GetQuiz(quizID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, r, http.StatusNotFound, "quiz_not_found", "QuizNotFound")
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	questions, err := h.gen.Generate(r.Context(), req.SourceText, req.Count, req.Kind)
	if err != nil {
		slog.Error("question generation failed", "quiz_id", quizID, "error", err)
		http.Error(w, "question generation failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	for i := range questions {
		questions[i].QuizID = quizID
	}

	if err := h.store.AppendQuestions(quizID, questions); err != nil {
		slog.Error("failed to append generated questions", "quiz_id", quizID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("generated questions", "quiz_id", quizID, "count", len(questions), "kind", req.Kind)

	respondJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleAllResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.ListResults()
	if err != nil {
		slog.Error("failed to list results", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []model.Result{}
	}
	respondJSON(w, http.StatusOK, results)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp := make([]userResponse, 0, len(users))
	for i := range users {
		resp = append(resp, toUserResponse(&users[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

type createUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "username and password required"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}
	role := model.UserRole(req.Role)
	switch role {
	case model.UserRoleStudent, model.UserRoleTeacher, model.UserRoleAdmin:
	default:
		role = model.UserRoleStudent
	}

	id, err := h.store.CreateUser(model.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	})
	if err != nil {
		http.Error(w, "failed to create user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	user, err := h.store.GetUserByID(id)
	if err != nil || user == nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid user ID"})
		return
	}

	if err := h.store.ToggleUserActive(id); err != nil {
		slog.Error("failed to toggle user active", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
