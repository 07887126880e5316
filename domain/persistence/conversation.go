package persistence

import (
	"context"
	"errors"
)

// TableName is the logical name of the conversation table or bucket.
const TableName = "tars_conversations"

const (
	ModeClipboard  = "clipboard"
	ModeScreenshot = "screenshot"
)

// Conversation is one completed exchange. It is written once and never updated.
type Conversation struct {
	ID        string `json:"id" db:"id"`
	Question  string `json:"question" db:"question"`
	Response  string `json:"response" db:"response"`
	Context   string `json:"context" db:"context"`
	Timestamp string `json:"timestamp" db:"timestamp"`
	Mode      string `json:"mode" db:"mode"`
}

// Store is a write-only keyed sink for conversations.
type Store interface {
	Put(ctx context.Context, c *Conversation) error
	Close() error
}

var (
	ErrMissingID   = errors.New("conversation id is empty")
	ErrDuplicateID = errors.New("conversation id already stored")
)
