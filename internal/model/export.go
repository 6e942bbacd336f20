package model

import "time"

// ResultsExport is the top-level JSON structure for result export.
type ResultsExport struct {
	ExportedAt time.Time      `json:"exported_at"`
	NumQuizzes int            `json:"num_quizzes"`
	Results    []ResultExport `json:"results"`
}

// ResultExport holds one submitted attempt for export.
type ResultExport struct {
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	QuizID         string    `json:"quiz_id"`
	QuizTitle      string    `json:"quiz_title"`
	TotalQuestions int       `json:"total_questions"`
	AnsweredCount  int       `json:"answered_count"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	AutoSubmitted  bool      `json:"auto_submitted"`
	SubmittedAt    time.Time `json:"submitted_at"`
}
