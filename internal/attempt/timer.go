package attempt

import (
	"fmt"
	"strconv"
	"time"
)

// Timer tracks the absolute deadline of one attempt. The deadline is
// persisted under "quiz:<quizID>:expiresAt" as an epoch-millisecond string,
// so Start is idempotent per attempt: a second call (reload) returns the
// stored deadline unchanged.
type Timer struct {
	clock Clock
	kv    KeyValueStore
	key   string
}

// NewTimer creates a timer for the given quiz.
func NewTimer(quizID string, clock Clock, kv KeyValueStore) *Timer {
	return &Timer{
		clock: clock,
		kv:    kv,
		key:   deadlineKey(quizID),
	}
}

func deadlineKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:expiresAt", quizID)
}

// Start returns the attempt deadline, computing now + timeLimit and
// persisting it only when no deadline is stored yet. A stored value that
// does not parse, or is negative, yields an already-expired deadline: the
// failure mode is submission, never extra time.
func (t *Timer) Start(timeLimit time.Duration) (time.Time, error) {
	stored, err := t.kv.Get(t.key)
	if err != nil {
		return time.Time{}, fmt.Errorf("read deadline: %w", err)
	}
	if stored != "" {
		ms, err := strconv.ParseInt(stored, 10, 64)
		if err != nil || ms < 0 {
			return time.UnixMilli(0), nil
		}
		return time.UnixMilli(ms), nil
	}

	deadline := t.clock.Now().Add(timeLimit)
	if err := t.kv.Set(t.key, strconv.FormatInt(deadline.UnixMilli(), 10)); err != nil {
		return time.Time{}, fmt.Errorf("persist deadline: %w", err)
	}
	return deadline, nil
}

// Remaining returns the time left until the deadline, never negative.
func (t *Timer) Remaining(deadline time.Time) time.Duration {
	left := deadline.Sub(t.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the deadline has passed.
func (t *Timer) Expired(deadline time.Time) bool {
	return t.Remaining(deadline) == 0
}

// Clear removes the persisted deadline. Called on any transition into the
// submitted state.
func (t *Timer) Clear() error {
	return t.kv.Delete(t.key)
}
