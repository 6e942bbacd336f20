package store

import (
	"fmt"
	"time"

	"github.com/pavelanni/quizdesk/internal/model"
)

// ExportAllResults builds export-ready records from all stored results.
func (s *Store) ExportAllResults() (model.ResultsExport, error) {
	results, err := s.ListResults()
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("list results: %w", err)
	}

	quizzes := make(map[string]bool)
	var out []model.ResultExport
	for _, r := range results {
		quizzes[r.QuizID] = true

		user, err := s.GetUserByID(r.UserID)
		if err != nil {
			return model.ResultsExport{}, fmt.Errorf("get user %d: %w", r.UserID, err)
		}
		var username, displayName string
		if user != nil {
			username = user.Username
			displayName = user.DisplayName
		}

		out = append(out, model.ResultExport{
			Username:       username,
			DisplayName:    displayName,
			QuizID:         r.QuizID,
			QuizTitle:      r.Title,
			TotalQuestions: r.TotalQuestions,
			AnsweredCount:  r.AnsweredCount,
			ElapsedSeconds: r.ElapsedSeconds,
			AutoSubmitted:  r.AutoSubmitted,
			SubmittedAt:    r.SubmittedAt,
		})
	}

	return model.ResultsExport{
		ExportedAt: time.Now(),
		NumQuizzes: len(quizzes),
		Results:    out,
	}, nil
}
