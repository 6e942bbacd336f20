package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/quizdesk/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'student',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS quizzes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		time_limit_seconds INTEGER NOT NULL DEFAULT 0,
		created_by INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		quiz_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		text TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		options TEXT NOT NULL DEFAULT '[]',
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
	);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quiz_id TEXT NOT NULL,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		total_questions INTEGER NOT NULL,
		answered_count INTEGER NOT NULL,
		elapsed_seconds INTEGER NOT NULL,
		auto_submitted BOOLEAN NOT NULL,
		submitted_at DATETIME NOT NULL,
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id),
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS attempt_state (
		user_id INTEGER NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (user_id, key)
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateQuiz stores a quiz and its questions in one transaction.
func (s *Store) CreateQuiz(quiz model.Quiz) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO quizzes (id, title, time_limit_seconds, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
		quiz.ID, quiz.Title, quiz.TimeLimitSeconds, quiz.CreatedBy, time.Now(),
	)
	if err != nil {
		return err
	}

	for i, q := range quiz.Questions {
		if err := insertQuestion(tx, quiz.ID, i, q); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertQuestion(tx *sql.Tx, quizID string, position int, q model.Question) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO questions (id, quiz_id, position, text, code, kind, options) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, quizID, position, q.Text, q.Code, q.Kind, string(opts),
	)
	return err
}

// AppendQuestions adds questions at the end of a quiz.
func (s *Store) AppendQuestions(quizID string, questions []model.Question) error {
	var next int
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(position), -1) + 1 FROM questions WHERE quiz_id = ?`, quizID,
	).Scan(&next)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, q := range questions {
		if err := insertQuestion(tx, quizID, next+i, q); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetQuiz returns a quiz with its questions in order.
func (s *Store) GetQuiz(id string) (model.Quiz, error) {
	var quiz model.Quiz
	err := s.db.QueryRow(
		`SELECT id, title, time_limit_seconds, created_by, created_at FROM quizzes WHERE id = ?`, id,
	).Scan(&quiz.ID, &quiz.Title, &quiz.TimeLimitSeconds, &quiz.CreatedBy, &quiz.CreatedAt)
	if err != nil {
		return quiz, err
	}

	rows, err := s.db.Query(
		`SELECT id, quiz_id, text, code, kind, options FROM questions WHERE quiz_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return quiz, err
	}
	defer rows.Close()
	for rows.Next() {
		var q model.Question
		var opts string
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.Code, &q.Kind, &opts); err != nil {
			return quiz, err
		}
		if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
			return quiz, fmt.Errorf("unmarshal options for question %s: %w", q.ID, err)
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	return quiz, rows.Err()
}

// ListQuizzes returns all quizzes without their questions, newest first.
func (s *Store) ListQuizzes() ([]model.Quiz, error) {
	rows, err := s.db.Query(
		`SELECT id, title, time_limit_seconds, created_by, created_at FROM quizzes ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var quizzes []model.Quiz
	for rows.Next() {
		var quiz model.Quiz
		if err := rows.Scan(&quiz.ID, &quiz.Title, &quiz.TimeLimitSeconds, &quiz.CreatedBy, &quiz.CreatedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

// QuizCount returns the number of quizzes in the database.
func (s *Store) QuizCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM quizzes`).Scan(&count)
	return count, err
}

// QuestionCount returns the number of questions in a quiz.
func (s *Store) QuestionCount(quizID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions WHERE quiz_id = ?`, quizID).Scan(&count)
	return count, err
}

// InsertResult records a submitted attempt summary.
func (s *Store) InsertResult(userID int64, summary model.AttemptSummary) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO results (quiz_id, user_id, title, total_questions, answered_count, elapsed_seconds, auto_submitted, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.QuizID, userID, summary.Title, summary.TotalQuestions,
		summary.AnsweredCount, summary.ElapsedSeconds, summary.AutoSubmitted, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListResults returns all stored results, newest first.
func (s *Store) ListResults() ([]model.Result, error) {
	return s.listResults(`SELECT id, quiz_id, user_id, title, total_questions, answered_count, elapsed_seconds, auto_submitted, submitted_at
		FROM results ORDER BY id DESC`)
}

// ListResultsForUser returns one user's results, newest first.
func (s *Store) ListResultsForUser(userID int64) ([]model.Result, error) {
	return s.listResults(`SELECT id, quiz_id, user_id, title, total_questions, answered_count, elapsed_seconds, auto_submitted, submitted_at
		FROM results WHERE user_id = ? ORDER BY id DESC`, userID)
}

// LatestResult returns the newest stored result for a user's quiz, or nil
// when the user never submitted it.
func (s *Store) LatestResult(userID int64, quizID string) (*model.Result, error) {
	results, err := s.listResults(`SELECT id, quiz_id, user_id, title, total_questions, answered_count, elapsed_seconds, auto_submitted, submitted_at
		FROM results WHERE user_id = ? AND quiz_id = ? ORDER BY id DESC LIMIT 1`, userID, quizID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

func (s *Store) listResults(query string, args ...any) ([]model.Result, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.Result
	for rows.Next() {
		var r model.Result
		if err := rows.Scan(&r.ID, &r.QuizID, &r.UserID, &r.Title, &r.TotalQuestions,
			&r.AnsweredCount, &r.ElapsedSeconds, &r.AutoSubmitted, &r.SubmittedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetImportedFileHash returns the stored content hash for an imported file,
// or empty string when the file was never imported.
func (s *Store) GetImportedFileHash(path string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash records the content hash of an imported file.
func (s *Store) SetImportedFileHash(path, hash string) error {
	_, err := s.db.Exec(
		`INSERT INTO imported_files (path, hash) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = ?`,
		path, hash, hash,
	)
	return err
}
