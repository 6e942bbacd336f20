package attempt

import (
	"testing"

	"github.com/pavelanni/quizdesk/internal/model"
)

var (
	singleQ = model.Question{ID: "s1", Kind: model.KindSingleChoice, Options: []string{"a", "b", "c"}}
	multiQ  = model.Question{ID: "m1", Kind: model.KindMultiChoice, Options: []string{"a", "b", "c"}}
	textQ   = model.Question{ID: "t1", Kind: model.KindFreeText}
)

func TestSingleChoiceOverwrites(t *testing.T) {
	s := NewAnswerStore()
	s.Set(singleQ, "a")
	s.Set(singleQ, "b")

	a, ok := s.Get("s1")
	if !ok {
		t.Fatal("answer missing")
	}
	if a.Text != "b" {
		t.Errorf("answer = %q, want b", a.Text)
	}
	if !s.Attempted("s1") {
		t.Error("Attempted = false after selection")
	}
}

func TestMultiChoiceToggles(t *testing.T) {
	s := NewAnswerStore()

	s.Set(multiQ, "a")
	s.Set(multiQ, "c")
	a, _ := s.Get("m1")
	if len(a.Selected) != 2 || a.Selected[0] != "a" || a.Selected[1] != "c" {
		t.Fatalf("selected = %v, want [a c]", a.Selected)
	}

	// Selecting a chosen option again removes it.
	s.Set(multiQ, "a")
	a, _ = s.Get("m1")
	if len(a.Selected) != 1 || a.Selected[0] != "c" {
		t.Fatalf("selected after toggle = %v, want [c]", a.Selected)
	}

	// Removing the last selection leaves a touched but unattempted entry.
	s.Set(multiQ, "c")
	if s.Attempted("m1") {
		t.Error("Attempted = true with empty selection")
	}
	if _, ok := s.Get("m1"); !ok {
		t.Error("entry should still exist after emptying the selection")
	}
}

func TestAttempted(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *AnswerStore)
		qID   string
		want  bool
	}{
		{"never touched", func(s *AnswerStore) {}, "t1", false},
		{"free text answered", func(s *AnswerStore) { s.Set(textQ, "42") }, "t1", true},
		{"free text emptied", func(s *AnswerStore) {
			s.Set(textQ, "42")
			s.Set(textQ, "")
		}, "t1", false},
		{"free text whitespace only", func(s *AnswerStore) { s.Set(textQ, "  \t ") }, "t1", false},
		{"single choice selected", func(s *AnswerStore) { s.Set(singleQ, "a") }, "s1", true},
		{"multi choice selected", func(s *AnswerStore) { s.Set(multiQ, "b") }, "m1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAnswerStore()
			tt.setup(s)
			if got := s.Attempted(tt.qID); got != tt.want {
				t.Errorf("Attempted(%s) = %v, want %v", tt.qID, got, tt.want)
			}
		})
	}
}
