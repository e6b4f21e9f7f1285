package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

// UserDirectory is the user-service collaborator contract.
type UserDirectory interface {
	ListOtherUsers(ctx context.Context, viewerID int) ([]models.User, error)
}

// ConversationService computes sidebar views and conversation histories.
type ConversationService struct {
	messages repositories.MessageRepository
	users    UserDirectory
}

// NewConversationService constructs a ConversationService.
func NewConversationService(messages repositories.MessageRepository, users UserDirectory) *ConversationService {
	return &ConversationService{messages: messages, users: users}
}

// Sidebar returns every other user plus a sparse map of per-peer unseen
// counts. Peers with nothing unseen do not appear in the map. The per-peer
// counts are computed concurrently and always recomputed, never cached.
func (s *ConversationService) Sidebar(ctx context.Context, viewerID int) ([]models.User, map[int]int, error) {
	listed, err := s.users.ListOtherUsers(ctx, viewerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]models.User, 0, len(listed))
	for _, u := range listed {
		if u.ID != viewerID {
			users = append(users, u)
		}
	}

	unseen := make(map[int]int)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, u := range users {
		peerID := u.ID
		g.Go(func() error {
			count, err := s.messages.CountUnseen(gctx, peerID, viewerID)
			if err != nil {
				return err
			}
			if count > 0 {
				mu.Lock()
				unseen[peerID] = count
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("count unseen: %w", err)
	}

	return users, unseen, nil
}

// OpenConversation returns the full history between viewer and peer, oldest
// first, and marks everything the peer sent as seen. The returned messages
// carry the seen flags as they were before the update.
func (s *ConversationService) OpenConversation(ctx context.Context, viewerID, peerID int) ([]models.Message, error) {
	msgs, err := s.messages.FindConversation(ctx, viewerID, peerID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	if err := s.messages.MarkSeen(ctx, peerID, viewerID); err != nil {
		return nil, fmt.Errorf("mark seen: %w", err)
	}

	return msgs, nil
}

// MarkOneSeen marks a single message as seen. A missing id is a no-op.
func (s *ConversationService) MarkOneSeen(ctx context.Context, messageID int) error {
	return s.messages.MarkSeenByID(ctx, messageID)
}
