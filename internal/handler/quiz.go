package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/pavelanni/quizdesk/internal/i18n"
	"github.com/pavelanni/quizdesk/internal/model"
)

type quizInfoResponse struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Heading          string `json:"heading"`
	TimeLimitSeconds int    `json:"time_limit_seconds"`
	NumQuestions     int    `json:"num_questions"`
	QuestionsLabel   string `json:"questions_label"`
}

// quizInfo builds the localized metadata shown on the pre-quiz
// instructions screen.
func quizInfo(r *http.Request, id, title string, timeLimitSeconds, numQuestions int) quizInfoResponse {
	ctx := r.Context()
	return quizInfoResponse{
		ID:               id,
		Title:            title,
		Heading:          appI18n.Td(ctx, "QuizTitled", map[string]any{"Title": title}),
		TimeLimitSeconds: timeLimitSeconds,
		NumQuestions:     numQuestions,
		QuestionsLabel:   appI18n.Tp(ctx, "QuestionsAvailable", numQuestions),
	}
}

func (h *Handler) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.store.ListQuizzes()
	if err != nil {
		slog.Error("failed to list quizzes", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	infos := make([]quizInfoResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		count, err := h.store.QuestionCount(quiz.ID)
		if err != nil {
			slog.Error("failed to count questions", "quiz_id", quiz.ID, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		infos = append(infos, quizInfo(r, quiz.ID, quiz.Title, quiz.TimeLimitSeconds, count))
	}
	respondJSON(w, http.StatusOK, infos)
}

// handleQuizInfo serves the pre-quiz instructions screen data: metadata
// only, never the questions themselves.
func (h *Handler) handleQuizInfo(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")

	quiz, err := h.store.GetQuiz(quizID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, r, http.StatusNotFound, "quiz_not_found", "QuizNotFound")
		return
	}
	if err != nil {
		slog.Error("failed to get quiz", "quiz_id", quizID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, quizInfo(r, quiz.ID, quiz.Title, quiz.TimeLimitSeconds, len(quiz.Questions)))
}

func (h *Handler) handleMyResults(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	results, err := h.store.ListResultsForUser(user.ID)
	if err != nil {
		slog.Error("failed to list results", "user_id", user.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []model.Result{}
	}
	respondJSON(w, http.StatusOK, results)
}
