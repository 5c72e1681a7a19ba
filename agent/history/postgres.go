package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
)

const defaultPostgresRetention = 200

// ConversationRecord is the archived form of one conversation message.
type ConversationRecord struct {
	bun.BaseModel `bun:"table:conversation_messages,alias:cm"`

	ID             int64     `bun:"id,pk,autoincrement"`
	ConversationID string    `bun:"conversation_id,notnull"`
	Role           string    `bun:"role,notnull"`
	Content        string    `bun:"content,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

type PostgresConfig struct {
	DSN       string `envconfig:"DSN" split_words:"true" required:"true"`
	Retention int    `envconfig:"RETENTION" split_words:"true" default:"200"`
}

// PostgresArchive stores conversation messages in Postgres and prunes each
// conversation back to the retention cap after every append.
type PostgresArchive struct {
	db        *bun.DB
	retention int
}

var _ Archive = (*PostgresArchive)(nil)

func NewPostgresArchive(cfg PostgresConfig) (*PostgresArchive, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = defaultPostgresRetention
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return &PostgresArchive{
		db:        bun.NewDB(sqldb, pgdialect.New()),
		retention: retention,
	}, nil
}

// EnsureSchema creates the table and lookup index on first run.
func (p *PostgresArchive) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.NewCreateTable().
		Model((*ConversationRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create conversation_messages table: %w", err)
	}

	if _, err := p.db.NewCreateIndex().
		Model((*ConversationRecord)(nil)).
		IfNotExists().
		Index("conversation_messages_lookup_idx").
		Column("conversation_id", "created_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("create conversation lookup index: %w", err)
	}
	return nil
}

func (p *PostgresArchive) Append(ctx context.Context, conversationID string, message contractx.ConversationMessage) error {
	if strings.TrimSpace(conversationID) == "" {
		return ErrInvalidConversation
	}

	record := recordFromMessage(conversationID, message)
	if _, err := p.db.NewInsert().Model(&record).Exec(ctx); err != nil {
		return fmt.Errorf("insert conversation message: %w", err)
	}
	return p.prune(ctx, conversationID)
}

func (p *PostgresArchive) Tail(ctx context.Context, conversationID string, limit int) ([]contractx.ConversationMessage, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, ErrInvalidConversation
	}
	if limit <= 0 {
		limit = DefaultCapacity
	}

	var records []ConversationRecord
	if err := p.db.NewSelect().
		Model(&records).
		Where("conversation_id = ?", conversationID).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load conversation tail: %w", err)
	}

	// The query returns newest first; callers want chronological order.
	messages := make([]contractx.ConversationMessage, len(records))
	for i, record := range records {
		messages[len(records)-1-i] = record.message()
	}
	return messages, nil
}

func (p *PostgresArchive) prune(ctx context.Context, conversationID string) error {
	keep := p.db.NewSelect().
		Model((*ConversationRecord)(nil)).
		Column("id").
		Where("conversation_id = ?", conversationID).
		OrderExpr("created_at DESC, id DESC").
		Limit(p.retention)

	if _, err := p.db.NewDelete().
		Model((*ConversationRecord)(nil)).
		Where("conversation_id = ?", conversationID).
		Where("id NOT IN (?)", keep).
		Exec(ctx); err != nil {
		return fmt.Errorf("prune conversation archive: %w", err)
	}
	return nil
}

func (p *PostgresArchive) Close() error {
	return p.db.Close()
}

func recordFromMessage(conversationID string, message contractx.ConversationMessage) ConversationRecord {
	created := message.Timestamp
	if created.IsZero() {
		created = time.Now()
	}
	return ConversationRecord{
		ConversationID: conversationID,
		Role:           string(message.Role),
		Content:        message.Content,
		CreatedAt:      created.UTC(),
	}
}

func (r ConversationRecord) message() contractx.ConversationMessage {
	return contractx.ConversationMessage{
		Role:      contractx.Role(r.Role),
		Content:   r.Content,
		Timestamp: r.CreatedAt,
	}
}
