package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/elite-matchmaking/internal/db"
	"github.com/oggyb/elite-matchmaking/internal/utils/pagination"
)

// MessageRepository stores chat lines between two accounts.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Create appends a message and fills in its ID and CreatedAt.
func (r *MessageRepository) Create(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListBetween returns the conversation between a and b in both directions,
// oldest first.
//
// Behavior:
//   - Ordered by id ASC, which is insertion order. Timestamps are not used
//     for paging since their stored precision differs per driver.
//   - Supports cursor-based pagination via paginationToken; the cursor marks
//     the last message of the previous page.
//   - nextToken is nil on the final page.
//
// Example:
//
//	repo.ListBetween(ctx, "a", "b", nil, 50) // first 50 messages
func (r *MessageRepository) ListBetween(
	ctx context.Context,
	a, b string,
	paginationToken *string,
	limit int,
) ([]db.Message, *string, error) {
	var messages []db.Message

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("id ASC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		query = query.Where("id > ?", cursor.MessageID)
	}

	if err := query.Find(&messages).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(messages) > limit {
		last := messages[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{MessageID: last.ID})
		nextToken = &token
		messages = messages[:limit]
	}

	return messages, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
