package attempt

import (
	"errors"
	"sync"
	"time"

	"github.com/pavelanni/quizdesk/internal/model"
)

// ErrQuizUnavailable is returned by Start when the quiz has no questions.
// It is the only user-visible attempt error; everything else in this
// package absorbs bad input as a no-op.
var ErrQuizUnavailable = errors.New("quiz unavailable")

// Controller owns all state of one attempt: the question snapshot, timer,
// answer store, and cursor. It is safe for concurrent use; the first
// transition into a submitted state wins and freezes the attempt.
type Controller struct {
	mu sync.Mutex

	quiz      model.Quiz
	timer     *Timer
	deadline  time.Time
	timed     bool
	startedAt time.Time

	answers *AnswerStore
	cursor  *Cursor
	status  model.AttemptStatus
	summary model.AttemptSummary
}

// Start creates an in-progress attempt over the quiz's question snapshot.
// For a timed quiz the deadline comes from the timer, so restarting after a
// reload resumes the stored countdown. A zero or negative time limit means
// the attempt is untimed and only a manual submit ends it.
func Start(quiz model.Quiz, clock Clock, kv KeyValueStore) (*Controller, error) {
	if len(quiz.Questions) == 0 {
		return nil, ErrQuizUnavailable
	}

	c := &Controller{
		quiz:    quiz,
		timer:   NewTimer(quiz.ID, clock, kv),
		answers: NewAnswerStore(),
		cursor:  NewCursor(len(quiz.Questions)),
		status:  model.StatusInProgress,
	}

	if quiz.TimeLimitSeconds > 0 {
		deadline, err := c.timer.Start(quiz.TimeLimit())
		if err != nil {
			return nil, err
		}
		c.timed = true
		c.deadline = deadline
		// Derive the start from the deadline so elapsed time stays
		// correct when the attempt is resumed after a reload.
		c.startedAt = deadline.Add(-quiz.TimeLimit())
	} else {
		c.startedAt = clock.Now()
	}

	return c, nil
}

// Status returns the attempt status.
func (c *Controller) Status() model.AttemptStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Quiz returns the attempt's immutable question snapshot.
func (c *Controller) Quiz() model.Quiz { return c.quiz }

// Timed reports whether the attempt has a deadline.
func (c *Controller) Timed() bool { return c.timed }

// Deadline returns the absolute deadline (zero time when untimed).
func (c *Controller) Deadline() time.Time { return c.deadline }

// Remaining returns the time left before auto-submission, never negative.
// Untimed attempts always report zero; check Timed to tell the cases apart.
func (c *Controller) Remaining() time.Duration {
	if !c.timed {
		return 0
	}
	return c.timer.Remaining(c.deadline)
}

// Answer records a response for the given question. Unknown question ids
// and mutations after submission are absorbed silently: the snapshot is
// immutable for the attempt, so a stale id cannot occur in correct
// operation, and a submitted attempt is frozen.
func (c *Controller) Answer(questionID, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != model.StatusInProgress {
		return
	}
	for _, q := range c.quiz.Questions {
		if q.ID == questionID {
			c.answers.Set(q, value)
			return
		}
	}
}

// AnswerFor returns the stored answer for a question id.
func (c *Controller) AnswerFor(questionID string) (Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers.Get(questionID)
}

// Attempted reports whether the question has a non-empty answer.
func (c *Controller) Attempted(questionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers.Attempted(questionID)
}

// AttemptedFlags returns one flag per question, in question order.
func (c *Controller) AttemptedFlags() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	flags := make([]bool, len(c.quiz.Questions))
	for i, q := range c.quiz.Questions {
		flags[i] = c.answers.Attempted(q.ID)
	}
	return flags
}

// Index returns the cursor position.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor.Index()
}

// Current returns the question under the cursor.
func (c *Controller) Current() model.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quiz.Questions[c.cursor.Index()]
}

// Next moves the cursor forward; no-op at the last question or after
// submission.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == model.StatusInProgress {
		c.cursor.Next()
	}
}

// Prev moves the cursor back; no-op at the first question or after
// submission.
func (c *Controller) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == model.StatusInProgress {
		c.cursor.Prev()
	}
}

// JumpTo moves the cursor to an index, ignoring out-of-range values.
func (c *Controller) JumpTo(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == model.StatusInProgress {
		c.cursor.JumpTo(index)
	}
}

// Submit ends the attempt manually. The second and any later submit
// trigger, manual or timeout, is a no-op: ok is false and the summary of
// the winning submission is returned.
func (c *Controller) Submit() (model.AttemptSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finish(model.StatusSubmittedManual)
}

// Tick checks the deadline and auto-submits the attempt when it has
// lapsed. It returns the summary and true exactly once, on the tick that
// fires the timeout transition.
func (c *Controller) Tick() (model.AttemptSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.timed || c.status != model.StatusInProgress {
		return c.summary, false
	}
	if !c.timer.Expired(c.deadline) {
		return model.AttemptSummary{}, false
	}
	return c.finish(model.StatusSubmittedTimeout)
}

// Summary returns the summary produced at submission time. Valid only
// after the attempt has been submitted.
func (c *Controller) Summary() model.AttemptSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// finish performs the single transition into a submitted state. Callers
// hold the mutex.
func (c *Controller) finish(status model.AttemptStatus) (model.AttemptSummary, bool) {
	if c.status != model.StatusInProgress {
		return c.summary, false
	}

	answered := 0
	for _, q := range c.quiz.Questions {
		if c.answers.Attempted(q.ID) {
			answered++
		}
	}

	elapsed := c.timer.clock.Now().Sub(c.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	c.status = status
	c.summary = model.AttemptSummary{
		QuizID:         c.quiz.ID,
		Title:          c.quiz.Title,
		TotalQuestions: len(c.quiz.Questions),
		AnsweredCount:  answered,
		ElapsedSeconds: int(elapsed / time.Second),
		AutoSubmitted:  status == model.StatusSubmittedTimeout,
	}

	if err := c.timer.Clear(); err != nil {
		// The attempt is already final; a leftover deadline record only
		// means the next start of this quiz sees a lapsed deadline.
		return c.summary, true
	}
	return c.summary, true
}
