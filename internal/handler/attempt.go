package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizdesk/internal/attempt"
	appI18n "github.com/pavelanni/quizdesk/internal/i18n"
	"github.com/pavelanni/quizdesk/internal/model"
)

type answerRequest struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
}

type navigateRequest struct {
	Action string `json:"action"` // next, prev, jump
	Index  int    `json:"index"`  // used by jump
}

type attemptStateResponse struct {
	QuizID      string              `json:"quiz_id"`
	Title       string              `json:"title"`
	Status      model.AttemptStatus `json:"status"`
	Index       int                 `json:"index"`
	Total       int                 `json:"total"`
	Question    model.Question      `json:"question"`
	Answer      *attempt.Answer     `json:"answer,omitempty"`
	Attempted   []bool              `json:"attempted"`
	Timed       bool                `json:"timed"`
	RemainingMS int64               `json:"remaining_ms"`
}

type submitResponse struct {
	Summary model.AttemptSummary `json:"summary"`
	Message string               `json:"message"`
}

// loadQuiz fetches the quiz for an attempt operation, mapping missing and
// empty quizzes to the blocking user-visible errors.
func (h *Handler) loadQuiz(w http.ResponseWriter, r *http.Request) (model.Quiz, bool) {
	quizID := chi.URLParam(r, "quizID")
	quiz, err := h.store.GetQuiz(quizID)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, r, http.StatusNotFound, "quiz_not_found", "QuizNotFound")
		return model.Quiz{}, false
	}
	if err != nil {
		slog.Error("failed to get quiz", "quiz_id", quizID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return model.Quiz{}, false
	}
	return quiz, true
}

func (h *Handler) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	quiz, ok := h.loadQuiz(w, r)
	if !ok {
		return
	}

	c, err := h.attempts.Start(user.ID, quiz)
	if errors.Is(err, attempt.ErrQuizUnavailable) {
		respondError(w, r, http.StatusConflict, "quiz_unavailable", "QuizUnavailable")
		return
	}
	if err != nil {
		slog.Error("failed to start attempt", "quiz_id", quiz.ID, "user_id", user.ID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("attempt started", "quiz_id", quiz.ID, "user_id", user.ID, "timed", c.Timed())

	// A resumed attempt whose deadline already lapsed auto-submits on the
	// first touch.
	if summary, fired := c.Tick(); fired {
		h.recordSubmission(user.ID, quiz.ID, summary)
		respondJSON(w, http.StatusOK, submitResponse{Summary: summary, Message: timeExpiredMessage(r)})
		return
	}

	respondJSON(w, http.StatusOK, attemptState(c))
}

func (h *Handler) handleAttemptState(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	quizID := chi.URLParam(r, "quizID")

	c, ok := h.attempts.Get(user.ID, quizID)
	if !ok {
		respondError(w, r, http.StatusNotFound, "no_active_attempt", "NoActiveAttempt")
		return
	}
	if summary, fired := c.Tick(); fired {
		h.recordSubmission(user.ID, quizID, summary)
		respondJSON(w, http.StatusOK, submitResponse{Summary: summary, Message: timeExpiredMessage(r)})
		return
	}
	respondJSON(w, http.StatusOK, attemptState(c))
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	quizID := chi.URLParam(r, "quizID")

	var req answerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, ok := h.attempts.Get(user.ID, quizID)
	if !ok {
		respondError(w, r, http.StatusNotFound, "no_active_attempt", "NoActiveAttempt")
		return
	}
	if summary, fired := c.Tick(); fired {
		// The deadline won the race against this keystroke.
		h.recordSubmission(user.ID, quizID, summary)
		respondJSON(w, http.StatusOK, submitResponse{Summary: summary, Message: timeExpiredMessage(r)})
		return
	}

	c.Answer(req.QuestionID, req.Value)
	respondJSON(w, http.StatusOK, attemptState(c))
}

func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	quizID := chi.URLParam(r, "quizID")

	var req navigateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, ok := h.attempts.Get(user.ID, quizID)
	if !ok {
		respondError(w, r, http.StatusNotFound, "no_active_attempt", "NoActiveAttempt")
		return
	}
	if summary, fired := c.Tick(); fired {
		h.recordSubmission(user.ID, quizID, summary)
		respondJSON(w, http.StatusOK, submitResponse{Summary: summary, Message: timeExpiredMessage(r)})
		return
	}

	switch req.Action {
	case "next":
		c.Next()
	case "prev":
		c.Prev()
	case "jump":
		c.JumpTo(req.Index)
	default:
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "unknown action"})
		return
	}
	respondJSON(w, http.StatusOK, attemptState(c))
}

func (h *Handler) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	quizID := chi.URLParam(r, "quizID")

	c, ok := h.attempts.Get(user.ID, quizID)
	if !ok {
		// A submit arriving after the attempt already ended is absorbed:
		// re-serve the recorded summary instead of erroring.
		last, err := h.store.LatestResult(user.ID, quizID)
		if err != nil {
			slog.Error("failed to look up result", "quiz_id", quizID, "user_id", user.ID, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if last == nil {
			respondError(w, r, http.StatusNotFound, "no_active_attempt", "NoActiveAttempt")
			return
		}
		summary := model.AttemptSummary{
			QuizID:         last.QuizID,
			Title:          last.Title,
			TotalQuestions: last.TotalQuestions,
			AnsweredCount:  last.AnsweredCount,
			ElapsedSeconds: last.ElapsedSeconds,
			AutoSubmitted:  last.AutoSubmitted,
		}
		respondJSON(w, http.StatusOK, submitResponse{Summary: summary, Message: submittedMessage(r, summary)})
		return
	}

	// The expiry tick and the submit click may land on the same instant;
	// whichever transition fires first wins, the loser is a no-op.
	if summary, fired := c.Tick(); fired {
		h.recordSubmission(user.ID, quizID, summary)
		respondJSON(w, http.StatusOK, submitResponse{Summary: summary, Message: timeExpiredMessage(r)})
		return
	}

	summary, ok := c.Submit()
	if ok {
		h.recordSubmission(user.ID, quizID, summary)
	}
	respondJSON(w, http.StatusOK, submitResponse{
		Summary: summary,
		Message: submittedMessage(r, summary),
	})
}

// recordSubmission persists the summary and drops the live controller.
// Runs exactly once per attempt: only the winning transition reaches it.
func (h *Handler) recordSubmission(userID int64, quizID string, summary model.AttemptSummary) {
	if _, err := h.store.InsertResult(userID, summary); err != nil {
		slog.Error("failed to store result", "quiz_id", quizID, "user_id", userID, "error", err)
	}
	h.attempts.Release(userID, quizID)
	slog.Info("attempt submitted",
		"quiz_id", quizID,
		"user_id", userID,
		"answered", summary.AnsweredCount,
		"total", summary.TotalQuestions,
		"auto", summary.AutoSubmitted,
	)
}

func attemptState(c *attempt.Controller) attemptStateResponse {
	quiz := c.Quiz()
	current := c.Current()

	resp := attemptStateResponse{
		QuizID:      quiz.ID,
		Title:       quiz.Title,
		Status:      c.Status(),
		Index:       c.Index(),
		Total:       len(quiz.Questions),
		Question:    current,
		Attempted:   c.AttemptedFlags(),
		Timed:       c.Timed(),
		RemainingMS: int64(c.Remaining() / time.Millisecond),
	}
	if a, ok := c.AnswerFor(current.ID); ok {
		resp.Answer = &a
	}
	return resp
}

func timeExpiredMessage(r *http.Request) string {
	return appI18n.T(r.Context(), "TimeExpired")
}

func submittedMessage(r *http.Request, summary model.AttemptSummary) string {
	if summary.AutoSubmitted {
		return timeExpiredMessage(r)
	}
	return appI18n.T(r.Context(), "AttemptSubmitted")
}
