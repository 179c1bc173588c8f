package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rantbot/rantbot/internal/biz/domain"
	"github.com/rantbot/rantbot/internal/biz/repo"
	"github.com/rantbot/rantbot/internal/infra/logger"

	_ "modernc.org/sqlite"
)

// userContextRepo implements the user context repository on SQLite
type userContextRepo struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// NewUserContextRepo opens (or creates) the user context database.
// A nil log discards warnings.
func NewUserContextRepo(dbPath string, log logrus.FieldLogger) (repo.UserContextRepo, error) {
	if log == nil {
		log = logger.Discard()
	}
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; read-modify-write sequencing lives in the usecase
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS user_context (
			user_key TEXT PRIMARY KEY,
			platform TEXT NOT NULL,
			user_id TEXT NOT NULL,
			username TEXT COLLATE NOCASE,
			display_name TEXT,
			message_count INTEGER NOT NULL DEFAULT 0,
			total_length INTEGER NOT NULL DEFAULT 0,
			avg_message_length REAL NOT NULL DEFAULT 0,
			min_message_length INTEGER NOT NULL DEFAULT 0,
			max_message_length INTEGER NOT NULL DEFAULT 0,
			notable_messages TEXT NOT NULL DEFAULT '[]',
			keywords TEXT NOT NULL DEFAULT '{}',
			last_seen INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create user_context table: %w", err)
	}

	// Lookups compare usernames case-insensitively; the index must use the same collation
	for _, stmt := range []string{
		`DROP INDEX IF EXISTS idx_user_context_username`,
		`CREATE INDEX IF NOT EXISTS idx_user_context_username_nocase ON user_context(platform, username COLLATE NOCASE)`,
	} {
		if _, err = db.Exec(stmt); err != nil {
			break
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &userContextRepo{db: db, log: log.WithField("component", "user_context_store")}, nil
}

func userKey(platform domain.Platform, userID string) string {
	return string(platform) + ":" + userID
}

const userContextColumns = `platform, user_id, username, display_name, message_count, total_length,
	avg_message_length, min_message_length, max_message_length, notable_messages, keywords, last_seen, updated_at`

// Get returns the record for (platform, userID), nil if never seen
func (r *userContextRepo) Get(ctx context.Context, platform domain.Platform, userID string) (*domain.UserContext, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userContextColumns+` FROM user_context WHERE user_key = ?`,
		userKey(platform, userID))
	return r.scanUserContext(row)
}

// FindByUsername returns the most recently active record with that username
func (r *userContextRepo) FindByUsername(ctx context.Context, platform domain.Platform, username string) (*domain.UserContext, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userContextColumns+`
		FROM user_context
		WHERE platform = ? AND username = ? COLLATE NOCASE
		ORDER BY last_seen DESC
		LIMIT 1
	`, string(platform), username)
	return r.scanUserContext(row)
}

// scanUserContext reads one row. A JSON column that fails to decode is reset
// to empty so the record stays usable for later updates.
func (r *userContextRepo) scanUserContext(row *sql.Row) (*domain.UserContext, error) {
	var (
		c                   domain.UserContext
		platform            string
		username, display   sql.NullString
		notableRaw, kwRaw   string
		lastSeen, updatedAt int64
	)
	err := row.Scan(&platform, &c.UserID, &username, &display, &c.MessageCount, &c.TotalLength,
		&c.AvgMessageLength, &c.MinMessageLength, &c.MaxMessageLength, &notableRaw, &kwRaw, &lastSeen, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user context: %w", err)
	}

	c.Platform = domain.Platform(platform)
	c.Username = username.String
	c.DisplayName = display.String
	fields := logrus.Fields{"platform": platform, "user_id": c.UserID}
	if err := json.Unmarshal([]byte(notableRaw), &c.NotableMessages); err != nil {
		r.log.WithFields(fields).WithError(err).Warn("Resetting undecodable notable messages")
		c.NotableMessages = nil
	}
	if err := json.Unmarshal([]byte(kwRaw), &c.Keywords); err != nil {
		r.log.WithFields(fields).WithError(err).Warn("Resetting undecodable keywords")
		c.Keywords = nil
	}
	if c.Keywords == nil {
		c.Keywords = make(map[string]int)
	}
	c.LastSeen = time.UnixMilli(lastSeen)
	c.UpdatedAt = time.UnixMilli(updatedAt)
	return &c, nil
}

// Upsert writes the full record, keeping the stored username and display
// name when the new values are empty
func (r *userContextRepo) Upsert(ctx context.Context, c *domain.UserContext) error {
	notable := c.NotableMessages
	if notable == nil {
		notable = []string{}
	}
	notableJSON, err := json.Marshal(notable)
	if err != nil {
		return fmt.Errorf("failed to encode notable messages: %w", err)
	}
	keywords := c.Keywords
	if keywords == nil {
		keywords = map[string]int{}
	}
	kwJSON, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_context (user_key, `+userContextColumns+`)
		VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_key) DO UPDATE SET
			username = COALESCE(excluded.username, user_context.username),
			display_name = COALESCE(excluded.display_name, user_context.display_name),
			message_count = excluded.message_count,
			total_length = excluded.total_length,
			avg_message_length = excluded.avg_message_length,
			min_message_length = excluded.min_message_length,
			max_message_length = excluded.max_message_length,
			notable_messages = excluded.notable_messages,
			keywords = excluded.keywords,
			last_seen = excluded.last_seen,
			updated_at = excluded.updated_at
	`, userKey(c.Platform, c.UserID), string(c.Platform), c.UserID, c.Username, c.DisplayName,
		c.MessageCount, c.TotalLength, c.AvgMessageLength, c.MinMessageLength, c.MaxMessageLength,
		string(notableJSON), string(kwJSON), c.LastSeen.UnixMilli(), c.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert user context: %w", err)
	}
	return nil
}

// Close closes the database
func (r *userContextRepo) Close() error {
	return r.db.Close()
}
