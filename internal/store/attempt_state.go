package store

import (
	"database/sql"

	"github.com/pavelanni/quizdesk/internal/attempt"
)

// attemptStateKV is the durable per-user attempt storage: the server-side
// counterpart of the browser's session storage, holding keys such as
// "quiz:<quizID>:expiresAt".
type attemptStateKV struct {
	db     *sql.DB
	userID int64
}

// AttemptState returns the key-value view of one user's attempt state.
func (s *Store) AttemptState(userID int64) attempt.KeyValueStore {
	return &attemptStateKV{db: s.db, userID: userID}
}

func (kv *attemptStateKV) Get(key string) (string, error) {
	var value string
	err := kv.db.QueryRow(
		`SELECT value FROM attempt_state WHERE user_id = ? AND key = ?`, kv.userID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (kv *attemptStateKV) Set(key, value string) error {
	_, err := kv.db.Exec(
		`INSERT INTO attempt_state (user_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = ?`,
		kv.userID, key, value, value,
	)
	return err
}

func (kv *attemptStateKV) Delete(key string) error {
	_, err := kv.db.Exec(
		`DELETE FROM attempt_state WHERE user_id = ? AND key = ?`, kv.userID, key,
	)
	return err
}
