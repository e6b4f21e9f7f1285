package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
)

func TestSidebarSparseUnseenMap(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	directory := new(mocks.UserDirectoryMock)
	svc := NewConversationService(repo, directory)

	directory.On("ListOtherUsers", mock.Anything, 1).
		Return([]models.User{{ID: 2, Username: "bob"}, {ID: 3, Username: "carol"}}, nil).Once()
	repo.On("CountUnseen", mock.Anything, 2, 1).Return(2, nil).Once()
	repo.On("CountUnseen", mock.Anything, 3, 1).Return(0, nil).Once()

	users, unseen, err := svc.Sidebar(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, map[int]int{2: 2}, unseen, "peers with nothing unseen must not appear")

	repo.AssertExpectations(t)
	directory.AssertExpectations(t)
}

func TestSidebarNeverIncludesViewer(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	directory := new(mocks.UserDirectoryMock)
	svc := NewConversationService(repo, directory)

	// Defensive: even if the directory echoes the viewer back, it is dropped.
	directory.On("ListOtherUsers", mock.Anything, 1).
		Return([]models.User{{ID: 1, Username: "me"}, {ID: 2, Username: "bob"}}, nil).Once()
	repo.On("CountUnseen", mock.Anything, 2, 1).Return(0, nil).Once()

	users, _, err := svc.Sidebar(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 2, users[0].ID)
	repo.AssertExpectations(t)
}

func TestSidebarDirectoryError(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	directory := new(mocks.UserDirectoryMock)
	svc := NewConversationService(repo, directory)

	directory.On("ListOtherUsers", mock.Anything, 1).Return(([]models.User)(nil), assert.AnError).Once()

	_, _, err := svc.Sidebar(context.Background(), 1)
	require.Error(t, err)
}

func TestSidebarCountError(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	directory := new(mocks.UserDirectoryMock)
	svc := NewConversationService(repo, directory)

	directory.On("ListOtherUsers", mock.Anything, 1).
		Return([]models.User{{ID: 2}}, nil).Once()
	repo.On("CountUnseen", mock.Anything, 2, 1).Return(0, assert.AnError).Once()

	_, _, err := svc.Sidebar(context.Background(), 1)
	require.Error(t, err)
}

func TestOpenConversationMarksPeerMessagesSeen(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc := NewConversationService(repo, new(mocks.UserDirectoryMock))

	stored := []models.Message{
		{ID: 1, SenderID: 2, ReceiverID: 1, Text: "hey", CreatedAt: time.Now().Add(-time.Minute)},
		{ID: 2, SenderID: 1, ReceiverID: 2, Text: "hi", CreatedAt: time.Now()},
	}
	repo.On("FindConversation", mock.Anything, 1, 2).Return(stored, nil).Once()
	repo.On("MarkSeen", mock.Anything, 2, 1).Return(nil).Once()

	msgs, err := svc.OpenConversation(context.Background(), 1, 2)

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	// Returned messages carry the seen flags as stored at query time.
	assert.False(t, msgs[0].Seen)
	repo.AssertExpectations(t)
}

func TestOpenConversationMarkSeenError(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc := NewConversationService(repo, new(mocks.UserDirectoryMock))

	repo.On("FindConversation", mock.Anything, 1, 2).Return([]models.Message{}, nil).Once()
	repo.On("MarkSeen", mock.Anything, 2, 1).Return(assert.AnError).Once()

	_, err := svc.OpenConversation(context.Background(), 1, 2)
	require.Error(t, err)
}

func TestMarkOneSeenPassThrough(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	svc := NewConversationService(repo, new(mocks.UserDirectoryMock))

	repo.On("MarkSeenByID", mock.Anything, 42).Return(nil).Once()

	require.NoError(t, svc.MarkOneSeen(context.Background(), 42))
	repo.AssertExpectations(t)
}
