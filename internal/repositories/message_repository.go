package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

// MessageRepository is the durable message store.
type MessageRepository interface {
	Insert(ctx context.Context, senderID, receiverID int, text, imageURL string) (models.Message, error)
	FindConversation(ctx context.Context, userA, userB int) ([]models.Message, error)
	MarkSeen(ctx context.Context, fromUser, toUser int) error
	MarkSeenByID(ctx context.Context, messageID int) error
	CountUnseen(ctx context.Context, fromUser, toUser int) (int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert stores a message. The database assigns id and created_at; seen
// starts false.
func (r *MessageRepo) Insert(ctx context.Context, senderID, receiverID int, text, imageURL string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (sender_id, receiver_id, text, image_url) VALUES ($1, $2, $3, $4) RETURNING id, sender_id, receiver_id, text, image_url, seen, created_at`, senderID, receiverID, text, imageURL).
		Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.ImageURL, &msg.Seen, &msg.CreatedAt)
	return msg, err
}

// FindConversation returns all messages between two users, either direction,
// oldest first.
func (r *MessageRepo) FindConversation(ctx context.Context, userA, userB int) ([]models.Message, error) {
	query := `SELECT id, sender_id, receiver_id, text, image_url, seen, created_at
        FROM messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
        ORDER BY created_at ASC, id ASC`
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, query, userA, userB)
	return msgs, err
}

// MarkSeen flips seen for every unseen message from one user to another.
// Idempotent.
func (r *MessageRepo) MarkSeen(ctx context.Context, fromUser, toUser int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET seen = TRUE WHERE sender_id=$1 AND receiver_id=$2 AND seen = FALSE`, fromUser, toUser)
	return err
}

// MarkSeenByID flips seen for a single message. A missing id is a no-op, not
// an error.
func (r *MessageRepo) MarkSeenByID(ctx context.Context, messageID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET seen = TRUE WHERE id=$1`, messageID)
	return err
}

// CountUnseen counts unseen messages from one user to another.
func (r *MessageRepo) CountUnseen(ctx context.Context, fromUser, toUser int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE sender_id=$1 AND receiver_id=$2 AND seen = FALSE`, fromUser, toUser)
	return count, err
}
