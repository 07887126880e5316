package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// SQLiteStore writes conversations to a single sqlite table.
type SQLiteStore struct {
	db  *sql.DB
	log *logrus.Entry
}

func NewSQLiteStore(db *sql.DB, log *logrus.Entry) (*SQLiteStore, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &SQLiteStore{db: db, log: log.WithField("component", "store.sqlite")}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmt := `CREATE TABLE IF NOT EXISTS ` + TableName + ` (
                id TEXT PRIMARY KEY,
                question TEXT NOT NULL,
                response TEXT NOT NULL,
                context TEXT NOT NULL,
                timestamp TEXT NOT NULL,
                mode TEXT NOT NULL,
                create_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
            );`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("failed to create %s table: %w", TableName, err)
	}
	return nil
}

func (s *SQLiteStore) Put(ctx context.Context, c *Conversation) error {
	if c.ID == "" {
		return ErrMissingID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+TableName+` (id, question, response, context, timestamp, mode) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Question, c.Response, c.Context, c.Timestamp, c.Mode)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
		}
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	s.log.WithField("id", c.ID).Debug("conversation stored")
	return nil
}

// Get reads a stored conversation back. It is not part of the command surface.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, question, response, context, timestamp, mode FROM `+TableName+` WHERE id = ?`, id).
		Scan(&c.ID, &c.Question, &c.Response, &c.Context, &c.Timestamp, &c.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation by id: %w", err)
	}
	return &c, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
