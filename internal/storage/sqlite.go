package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "castbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()))
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("sqlite store ready", logx.String("path", path))
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil
	return db.Close()
}

const subscriberColumns = `telegram_id, first_name, last_name, joined_at, subscribed`

func (s *sqliteStore) ListAll(ctx context.Context) ([]Subscriber, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+subscriberColumns+` FROM subscribers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Create(ctx context.Context, sub Subscriber) (Subscriber, error) {
	if s == nil || s.db == nil {
		return Subscriber{}, ErrNotInitialized
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers(`+subscriberColumns+`) VALUES(?,?,?,?,?)`,
		sub.TelegramID, sub.FirstName, sub.LastName,
		sub.JoinedAt.UTC().Format(time.RFC3339), boolToInt(sub.Subscribed),
	)
	if err != nil {
		if isConstraintErr(err) {
			return Subscriber{}, ErrExists
		}
		return Subscriber{}, err
	}
	return s.FindByTelegramID(ctx, sub.TelegramID)
}

// Update applies only the provided fields. The SET list is built from a
// fixed column whitelist with parameterized assignments; values never end
// up inside the SQL text.
func (s *sqliteStore) Update(ctx context.Context, telegramID int64, u SubscriberUpdate) (Subscriber, error) {
	if s == nil || s.db == nil {
		return Subscriber{}, ErrNotInitialized
	}
	if u.isEmpty() {
		return Subscriber{}, ErrNoFields
	}

	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if u.FirstName != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, *u.FirstName)
	}
	if u.LastName != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, *u.LastName)
	}
	if u.Subscribed != nil {
		sets = append(sets, "subscribed = ?")
		args = append(args, boolToInt(*u.Subscribed))
	}
	args = append(args, telegramID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE subscribers SET `+strings.Join(sets, ", ")+` WHERE telegram_id = ?`,
		args...,
	)
	if err != nil {
		return Subscriber{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Subscriber{}, ErrNotFound
	}
	return s.FindByTelegramID(ctx, telegramID)
}

func (s *sqliteStore) FindByTelegramID(ctx context.Context, telegramID int64) (Subscriber, error) {
	if s == nil || s.db == nil {
		return Subscriber{}, ErrNotInitialized
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE telegram_id = ?`, telegramID)
	sub, err := scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscriber{}, ErrNotFound
	}
	return sub, err
}

func (s *sqliteStore) WALCheckpoint(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}
	_, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(r rowScanner) (Subscriber, error) {
	var (
		sub    Subscriber
		joined string
		subInt int
	)
	if err := r.Scan(&sub.TelegramID, &sub.FirstName, &sub.LastName, &joined, &subInt); err != nil {
		return Subscriber{}, err
	}
	t, err := time.Parse(time.RFC3339, joined)
	if err != nil {
		return Subscriber{}, fmt.Errorf("bad joined_at %q: %w", joined, err)
	}
	sub.JoinedAt = t
	sub.Subscribed = subInt != 0
	return sub, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isConstraintErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "constraint")
}
