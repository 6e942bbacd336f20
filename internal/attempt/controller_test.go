package attempt

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pavelanni/quizdesk/internal/model"
)

func testQuiz(t *testing.T, numQuestions, timeLimitSeconds int) model.Quiz {
	t.Helper()
	quiz := model.Quiz{
		ID:               "quiz-1",
		Title:            "Go Basics",
		TimeLimitSeconds: timeLimitSeconds,
	}
	kinds := []model.QuestionKind{model.KindSingleChoice, model.KindMultiChoice, model.KindFreeText}
	for i := 0; i < numQuestions; i++ {
		q := model.Question{
			ID:   string(rune('a' + i)),
			Text: "question",
			Kind: kinds[i%len(kinds)],
		}
		if q.IsChoice() {
			q.Options = []string{"one", "two", "three"}
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	return quiz
}

func TestStartEmptyQuiz(t *testing.T) {
	quiz := model.Quiz{ID: "empty", Title: "Empty", TimeLimitSeconds: 60}
	_, err := Start(quiz, newFakeClock(), memKV{})
	if !errors.Is(err, ErrQuizUnavailable) {
		t.Fatalf("Start = %v, want ErrQuizUnavailable", err)
	}
}

func TestTimeoutAutoSubmits(t *testing.T) {
	clock := newFakeClock()
	kv := memKV{}
	c, err := Start(testQuiz(t, 3, 1), clock, kv)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	c.Answer("a", "one")

	// Not expired yet: the tick must not fire.
	if _, fired := c.Tick(); fired {
		t.Fatal("Tick fired before the deadline")
	}

	clock.Advance(1100 * time.Millisecond)
	summary, fired := c.Tick()
	if !fired {
		t.Fatal("Tick did not fire after the deadline")
	}
	if summary.TotalQuestions != 3 || summary.AnsweredCount != 1 || !summary.AutoSubmitted {
		t.Errorf("summary = %+v, want total 3, answered 1, auto", summary)
	}
	if c.Status() != model.StatusSubmittedTimeout {
		t.Errorf("status = %q, want %q", c.Status(), model.StatusSubmittedTimeout)
	}
	if _, ok := kv["quiz:quiz-1:expiresAt"]; ok {
		t.Error("deadline record not cleared on timeout")
	}

	// Exactly once: a later tick is a no-op.
	if _, fired := c.Tick(); fired {
		t.Error("Tick fired a second time")
	}
	// Manual submit after timeout is absorbed and returns the same summary.
	got, ok := c.Submit()
	if ok {
		t.Error("Submit succeeded on a submitted attempt")
	}
	if got != summary {
		t.Errorf("Submit returned %+v, want the timeout summary %+v", got, summary)
	}
}

func TestSubmittedAttemptIsFrozen(t *testing.T) {
	clock := newFakeClock()
	c, err := Start(testQuiz(t, 2, 1), clock, memKV{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	clock.Advance(2 * time.Second)
	if _, fired := c.Tick(); !fired {
		t.Fatal("Tick did not fire")
	}

	c.Answer("b", "late")
	if c.Attempted("b") {
		t.Error("answer accepted after submission")
	}
	c.Next()
	if c.Index() != 0 {
		t.Error("cursor moved after submission")
	}
}

func TestManualSubmitUntimed(t *testing.T) {
	clock := newFakeClock()
	c, err := Start(testQuiz(t, 10, 0), clock, memKV{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Timed() {
		t.Error("Timed = true for quiz without a time limit")
	}

	for _, q := range c.Quiz().Questions {
		c.Answer(q.ID, "one")
		c.Next()
	}
	clock.Advance(42 * time.Second)

	summary, ok := c.Submit()
	if !ok {
		t.Fatal("Submit failed")
	}
	if summary.AnsweredCount != 10 || summary.AutoSubmitted {
		t.Errorf("summary = %+v, want answered 10, manual", summary)
	}
	if summary.ElapsedSeconds != 42 {
		t.Errorf("elapsed = %d, want 42", summary.ElapsedSeconds)
	}
	if c.Status() != model.StatusSubmittedManual {
		t.Errorf("status = %q, want %q", c.Status(), model.StatusSubmittedManual)
	}
}

func TestNavigationKeepsAnswers(t *testing.T) {
	c, err := Start(testQuiz(t, 3, 600), newFakeClock(), memKV{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	c.Answer("a", "one")
	c.Answer("b", "two")
	c.Answer("c", "free text answer")

	for i := 0; i < 7; i++ {
		c.Next()
		c.Prev()
		c.JumpTo(2)
		c.JumpTo(0)
	}

	flags := c.AttemptedFlags()
	for i, attempted := range flags {
		if !attempted {
			t.Errorf("question %d lost its answer", i)
		}
	}
	if a, _ := c.AnswerFor("c"); a.Text != "free text answer" {
		t.Errorf("free text answer = %q", a.Text)
	}
}

func TestStaleQuestionReference(t *testing.T) {
	c, err := Start(testQuiz(t, 2, 600), newFakeClock(), memKV{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	c.Answer("no-such-question", "value")
	if _, ok := c.AnswerFor("no-such-question"); ok {
		t.Error("stale question id created an entry")
	}
	summary, _ := c.Submit()
	if summary.AnsweredCount != 0 {
		t.Errorf("answered = %d, want 0", summary.AnsweredCount)
	}
}

func TestReloadResumesDeadline(t *testing.T) {
	clock := newFakeClock()
	kv := memKV{}
	quiz := testQuiz(t, 3, 300)

	first, err := Start(quiz, clock, kv)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	clock.Advance(2 * time.Minute)

	// Simulate a reload: a new controller over the same stored deadline.
	second, err := Start(quiz, clock, kv)
	if err != nil {
		t.Fatalf("Start after reload: %v", err)
	}
	if !second.Deadline().Equal(first.Deadline()) {
		t.Errorf("reload changed deadline: %v != %v", second.Deadline(), first.Deadline())
	}
	if got := second.Remaining(); got != 3*time.Minute {
		t.Errorf("Remaining after reload = %v, want 3m", got)
	}

	// Elapsed time is measured from the original attempt start.
	clock.Advance(time.Minute)
	summary, ok := second.Submit()
	if !ok {
		t.Fatal("Submit failed")
	}
	if summary.ElapsedSeconds != 180 {
		t.Errorf("elapsed = %d, want 180", summary.ElapsedSeconds)
	}
}

func TestLapsedDeadlineOnResume(t *testing.T) {
	clock := newFakeClock()
	kv := memKV{}
	quiz := testQuiz(t, 2, 60)

	if _, err := Start(quiz, clock, kv); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Abandon the attempt, come back after the deadline lapsed.
	clock.Advance(time.Hour)
	c, err := Start(quiz, clock, kv)
	if err != nil {
		t.Fatalf("Start after lapse: %v", err)
	}
	summary, fired := c.Tick()
	if !fired {
		t.Fatal("Tick did not fire on a lapsed deadline")
	}
	if !summary.AutoSubmitted {
		t.Error("summary not marked auto-submitted")
	}
}

func TestSubmitTimeoutRace(t *testing.T) {
	clock := newFakeClock()
	c, err := Start(testQuiz(t, 3, 1), clock, memKV{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.Answer("a", "one")
	clock.Advance(time.Second)

	// A manual submit click and the expiry tick race at the same instant:
	// exactly one transition wins.
	var wg sync.WaitGroup
	results := make(chan bool, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, ok := c.Submit()
		results <- ok
	}()
	go func() {
		defer wg.Done()
		_, ok := c.Tick()
		results <- ok
	}()
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("got %d winning transitions, want exactly 1", wins)
	}

	summary := c.Summary()
	switch c.Status() {
	case model.StatusSubmittedManual:
		if summary.AutoSubmitted {
			t.Error("manual winner but summary says auto")
		}
	case model.StatusSubmittedTimeout:
		if !summary.AutoSubmitted {
			t.Error("timeout winner but summary says manual")
		}
	default:
		t.Errorf("status = %q, want a submitted state", c.Status())
	}
	if summary.AnsweredCount != 1 {
		t.Errorf("answered = %d, want 1", summary.AnsweredCount)
	}
}
