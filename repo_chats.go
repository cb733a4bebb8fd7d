package jobboard

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Chats interface {
	GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error)
	FindConversationBetween(ctx context.Context, a, b uuid.UUID) (*Conversation, error)
	CreateConversation(ctx context.Context, record *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error)

	AppendMessage(ctx context.Context, record *ChatMessage) (*ChatMessage, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*ChatMessage, error)

	DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
}

type chats struct {
	db *bun.DB
}

var _ Chats = (*chats)(nil)

func NewChatsRepository(db *bun.DB) Chats {
	return &chats{db: db}
}

func (a *chats) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	record := &Conversation{}
	err := a.db.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, recordNotFound("conversation", map[string]any{
				"id": id.String(),
			})
		}
		return nil, err
	}

	return record, nil
}

// FindConversationBetween treats the pair as unordered: either side may
// appear as initiator.
func (a *chats) FindConversationBetween(ctx context.Context, first, second uuid.UUID) (*Conversation, error) {
	record := &Conversation{}
	err := a.db.NewSelect().Model(record).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereGroup(" ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.
						Where("?TableAlias.initiator_id = ?", first).
						Where("?TableAlias.participant_id = ?", second)
				}).
				WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.
						Where("?TableAlias.initiator_id = ?", second).
						Where("?TableAlias.participant_id = ?", first)
				})
		}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, recordNotFound("conversation", map[string]any{
				"initiator_id":   first.String(),
				"participant_id": second.String(),
			})
		}
		return nil, err
	}

	return record, nil
}

func (a *chats) CreateConversation(ctx context.Context, record *Conversation) (*Conversation, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	_, err := a.db.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (a *chats) ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	var records []*Conversation
	err := a.db.NewSelect().Model(&records).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.initiator_id = ?", userID).
				WhereOr("?TableAlias.participant_id = ?", userID)
		}).
		Order("updated_at DESC").
		Scan(ctx)

	return records, err
}

func (a *chats) AppendMessage(ctx context.Context, record *ChatMessage) (*ChatMessage, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	_, err := a.db.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		return nil, err
	}

	_, err = a.db.NewUpdate().Model((*Conversation)(nil)).
		Set("updated_at = current_timestamp").
		Where("id = ?", record.ConversationID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (a *chats) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*ChatMessage, error) {
	var records []*ChatMessage
	q := a.db.NewSelect().Model(&records).
		Where("?TableAlias.conversation_id = ?", conversationID).
		Order("created_at ASC")

	if limit > 0 {
		q = q.Limit(limit)
	}

	err := q.Scan(ctx)

	return records, err
}

func (a *chats) DeleteByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	var conversationIDs []uuid.UUID
	err := tx.NewSelect().Model((*Conversation)(nil)).
		Column("id").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.initiator_id = ?", userID).
				WhereOr("?TableAlias.participant_id = ?", userID)
		}).
		Scan(ctx, &conversationIDs)
	if err != nil {
		return err
	}

	if len(conversationIDs) == 0 {
		return nil
	}

	if _, err := tx.NewDelete().Model((*ChatMessage)(nil)).
		Where("conversation_id IN (?)", bun.In(conversationIDs)).
		Exec(ctx); err != nil {
		return err
	}

	_, err = tx.NewDelete().Model((*Conversation)(nil)).
		Where("id IN (?)", bun.In(conversationIDs)).
		Exec(ctx)

	return err
}
