package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	migrate "github.com/rubenv/sql-migrate"
	_ "modernc.org/sqlite"

	"github.com/dskvich/ifood-info-bot/pkg/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

const conversationColumns = `id, owner, title, last_message, messages, history, unread, created_at, updated_at`

type sqliteStore struct {
	db *sql.DB

	now   func() time.Time
	newID func() string
}

func NewSQLiteStore(path string) (*sqliteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting %q: %w", pragma, err)
		}
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}, nil
}

func migrateUp(db *sql.DB) error {
	src := &migrate.EmbedFileSystemMigrationSource{FileSystem: migrations, Root: "migrations"}

	n, err := migrate.Exec(db, "sqlite3", src, migrate.Up)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	slog.Info("Applied migrations", "count", n)
	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context, owner string) ([]domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations`
	args := []any{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	convs := []domain.Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}
	return convs, nil
}

func (s *sqliteStore) Create(ctx context.Context, owner string) (domain.Conversation, error) {
	conv := newConversation(s.newID(), owner, s.now())
	if err := save(ctx, s.db, conv); err != nil {
		return domain.Conversation{}, err
	}
	return conv, nil
}

func (s *sqliteStore) GetByID(ctx context.Context, id string) (domain.Conversation, error) {
	return get(ctx, s.db, id)
}

func (s *sqliteStore) Upsert(ctx context.Context, id string, messages []domain.Message, history []domain.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	conv, err := get(ctx, tx, id)
	if errors.Is(err, domain.ErrNotFound) {
		conv = newConversation(id, "", now)
	} else if err != nil {
		return err
	}

	applyTranscript(&conv, messages, history, now)

	if err := save(ctx, tx, conv); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing conversation %s: %w", id, err)
	}
	return nil
}

func (s *sqliteStore) Rename(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE conversations SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("renaming conversation %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func get(ctx context.Context, q querier, id string) (domain.Conversation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Conversation{}, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return conv, err
}

func save(ctx context.Context, q querier, conv domain.Conversation) error {
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}
	history, err := json.Marshal(conv.ConversationHistory)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO conversations (`+conversationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			last_message = excluded.last_message,
			messages = excluded.messages,
			history = excluded.history,
			unread = excluded.unread,
			updated_at = excluded.updated_at`,
		conv.ID, conv.Owner, conv.Title, conv.LastMessage, string(messages), string(history),
		conv.Unread, conv.CreatedAt.UnixNano(), conv.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving conversation %s: %w", conv.ID, err)
	}
	return nil
}

func scanConversation(row scanner) (domain.Conversation, error) {
	var (
		conv               domain.Conversation
		messages, history  string
		createdAt, updated int64
	)
	if err := row.Scan(&conv.ID, &conv.Owner, &conv.Title, &conv.LastMessage, &messages, &history, &conv.Unread, &createdAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Conversation{}, err
		}
		return domain.Conversation{}, fmt.Errorf("scanning conversation: %w", err)
	}

	if err := json.Unmarshal([]byte(messages), &conv.Messages); err != nil {
		return domain.Conversation{}, fmt.Errorf("decoding messages of %s: %w", conv.ID, err)
	}
	if err := json.Unmarshal([]byte(history), &conv.ConversationHistory); err != nil {
		return domain.Conversation{}, fmt.Errorf("decoding history of %s: %w", conv.ID, err)
	}
	conv.CreatedAt = time.Unix(0, createdAt).UTC()
	conv.Timestamp = time.Unix(0, updated).UTC()
	return conv, nil
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
