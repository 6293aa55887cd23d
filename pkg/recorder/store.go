package recorder

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Capture is one indexed save.
type Capture struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Path      string    `json:"path"`
	TakenAt   time.Time `json:"taken_at"`
	BoxX      int       `json:"box_x"`
	BoxY      int       `json:"box_y"`
	BoxW      int       `json:"box_w"`
	BoxH      int       `json:"box_h"`
	FrameW    int       `json:"frame_w"`
	FrameH    int       `json:"frame_h"`
}

// Store indexes saved captures in SQLite so the dashboard can list
// them across restarts. One session ID per process.
type Store struct {
	db      *sql.DB
	session string
}

// OpenStore opens (or creates) the capture index.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS captures (
			id          TEXT PRIMARY KEY,
			session_id  TEXT,
			path        TEXT,
			taken_at    TIMESTAMP,
			box_x       BIGINT,
			box_y       BIGINT,
			box_w       BIGINT,
			box_h       BIGINT,
			frame_w     BIGINT,
			frame_h     BIGINT
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create captures table: %w", err)
	}

	return &Store{db: db, session: uuid.NewString()}, nil
}

// SessionID returns this process's session identifier.
func (s *Store) SessionID() string { return s.session }

// Add indexes one capture and returns its generated ID.
func (s *Store) Add(c Capture) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO captures (id, session_id, path, taken_at, box_x, box_y, box_w, box_h, frame_w, frame_h)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.session, c.Path, c.TakenAt, c.BoxX, c.BoxY, c.BoxW, c.BoxH, c.FrameW, c.FrameH,
	)
	if err != nil {
		return "", fmt.Errorf("index capture: %w", err)
	}
	return id, nil
}

// Recent returns the newest captures, most recent first.
func (s *Store) Recent(limit int) ([]Capture, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, session_id, path, taken_at, box_x, box_y, box_w, box_h, frame_w, frame_h
		FROM captures ORDER BY taken_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Capture
	for rows.Next() {
		var c Capture
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Path, &c.TakenAt,
			&c.BoxX, &c.BoxY, &c.BoxW, &c.BoxH, &c.FrameW, &c.FrameH); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
