package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	DecisionYes = "yes"
	DecisionNo  = "no"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time keeps the journal free of SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			story_title TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL DEFAULT 'tui',
			start_ts TEXT NOT NULL,
			finale_ts TEXT NOT NULL DEFAULT '',
			decision TEXT NOT NULL DEFAULT '',
			decision_ts TEXT NOT NULL DEFAULT '',
			commands INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			line TEXT NOT NULL,
			mode TEXT NOT NULL DEFAULT '',
			ts TEXT NOT NULL,
			FOREIGN KEY(session_id) REFERENCES sessions(id)
		);`,
		`CREATE INDEX IF NOT EXISTS commands_session ON commands(session_id, seq);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) StartSession(ctx context.Context, session Session) error {
	id := strings.TrimSpace(session.ID)
	if id == "" {
		return errors.New("start session: empty id")
	}
	start := session.StartTS
	if start.IsZero() {
		start = time.Now()
	}
	mode := strings.TrimSpace(session.Mode)
	if mode == "" {
		mode = "tui"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions(id, story_title, mode, start_ts) VALUES(?,?,?,?)`,
		id,
		session.StoryTitle,
		mode,
		start.UTC().Format(timeLayout),
	)
	return err
}

func (s *SQLiteStore) RecordCommand(ctx context.Context, cmd Command) error {
	ts := cmd.TS
	if ts.IsZero() {
		ts = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO commands(session_id, seq, line, mode, ts) VALUES(?,?,?,?,?)`,
		cmd.SessionID, cmd.Seq, cmd.Line, cmd.Mode, ts.UTC().Format(timeLayout),
	); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE sessions SET commands = MAX(commands, ?) WHERE id = ?`, cmd.Seq, cmd.SessionID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordDecision stores the latest answer; a session can be asked more than
// once.
func (s *SQLiteStore) RecordDecision(ctx context.Context, sessionID string, yes bool, at time.Time) error {
	decision := DecisionNo
	if yes {
		decision = DecisionYes
	}
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET decision = ?, decision_ts = ? WHERE id = ?`,
		decision, at.UTC().Format(timeLayout), sessionID,
	)
	return err
}

func (s *SQLiteStore) MarkFinale(ctx context.Context, sessionID string, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET finale_ts = ? WHERE id = ? AND finale_ts = ''`,
		at.UTC().Format(timeLayout), sessionID,
	)
	return err
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context) (Summary, error) {
	var out Summary
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(commands),0),
			COALESCE(SUM(CASE WHEN finale_ts <> '' THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN decision = 'yes' THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN decision = 'no' THEN 1 ELSE 0 END),0),
			COALESCE(SUM(CASE WHEN decision = '' THEN 1 ELSE 0 END),0)
		FROM sessions
	`)
	if err := row.Scan(&out.Sessions, &out.Commands, &out.Finales, &out.Accepted, &out.Resisted, &out.Undecided); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *SQLiteStore) RecentSessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, story_title, mode, start_ts, finale_ts, decision, commands
		FROM sessions
		ORDER BY start_ts DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SessionInfo
	for rows.Next() {
		var (
			info     SessionInfo
			startRaw string
			endRaw   string
		)
		if err := rows.Scan(&info.ID, &info.StoryTitle, &info.Mode, &startRaw, &endRaw, &info.Decision, &info.Commands); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeLayout, startRaw); err == nil {
			info.StartTS = t
		}
		if t, err := time.Parse(timeLayout, endRaw); err == nil {
			info.FinaleTS = t
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
