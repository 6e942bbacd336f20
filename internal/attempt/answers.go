package attempt

import (
	"strings"

	"github.com/pavelanni/quizdesk/internal/model"
)

// Answer is a student's current response to one question. Exactly one of
// Text and Selected is meaningful, according to the question kind.
type Answer struct {
	Kind     model.QuestionKind `json:"kind"`
	Text     string             `json:"text,omitempty"`
	Selected []string           `json:"selected,omitempty"`
}

// AnswerStore maps question id to the student's current response for the
// active attempt. There is no delete: once touched, an entry stays, though
// an emptied entry still reads as unattempted.
type AnswerStore struct {
	answers map[string]Answer
}

// NewAnswerStore returns an empty answer store.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[string]Answer)}
}

// Set records a response for the question. Single-choice and free-text
// overwrite the prior value; multi-choice toggles membership of one option
// in the stored selection (adding if absent, removing if present).
func (s *AnswerStore) Set(q model.Question, value string) {
	switch q.Kind {
	case model.KindMultiChoice:
		prev := s.answers[q.ID]
		selected := toggle(prev.Selected, value)
		s.answers[q.ID] = Answer{Kind: q.Kind, Selected: selected}
	default:
		s.answers[q.ID] = Answer{Kind: q.Kind, Text: value}
	}
}

func toggle(selected []string, value string) []string {
	for i, v := range selected {
		if v == value {
			return append(selected[:i], selected[i+1:]...)
		}
	}
	return append(selected, value)
}

// Get returns the stored answer for a question id.
func (s *AnswerStore) Get(questionID string) (Answer, bool) {
	a, ok := s.answers[questionID]
	return a, ok
}

// Attempted reports whether the question has a non-empty response: a
// whitespace-only free-text answer or an empty selection counts as
// unattempted even though the entry exists.
func (s *AnswerStore) Attempted(questionID string) bool {
	a, ok := s.answers[questionID]
	if !ok {
		return false
	}
	if a.Kind == model.KindMultiChoice {
		return len(a.Selected) > 0
	}
	return strings.TrimSpace(a.Text) != ""
}

// Len returns the number of touched questions, attempted or not.
func (s *AnswerStore) Len() int {
	return len(s.answers)
}
