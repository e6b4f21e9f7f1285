package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/clients"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/service"
	"messaging-service/internal/ws"
)

type handlerDeps struct {
	repo      *mocks.MessageRepositoryMock
	directory *mocks.UserDirectoryMock
	uploader  *mocks.UploaderMock
	hub       *ws.Hub
}

func setupMessageRouter(t *testing.T) (*gin.Engine, handlerDeps) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deps := handlerDeps{
		repo:      new(mocks.MessageRepositoryMock),
		directory: new(mocks.UserDirectoryMock),
		uploader:  new(mocks.UploaderMock),
		hub:       ws.NewHub(),
	}

	conversations := service.NewConversationService(deps.repo, deps.directory)
	dispatcher := service.NewDispatcher(deps.repo, deps.uploader, deps.hub)
	handler := NewMessageHandler(conversations, dispatcher)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/api/messages/users", handler.Sidebar)
	r.GET("/api/messages/:id", handler.GetConversation)
	r.PUT("/api/messages/mark/:id", handler.MarkMessageSeen)
	r.POST("/api/messages/send/:id", handler.SendMessage)
	return r, deps
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestSidebarSuccess(t *testing.T) {
	router, deps := setupMessageRouter(t)

	deps.directory.On("ListOtherUsers", mock.Anything, 1).
		Return([]models.User{{ID: 2, Username: "bob"}, {ID: 3, Username: "carol"}}, nil).Once()
	deps.repo.On("CountUnseen", mock.Anything, 2, 1).Return(3, nil).Once()
	deps.repo.On("CountUnseen", mock.Anything, 3, 1).Return(0, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, true, resp["success"])

	unseen, ok := resp["unseenMessages"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, unseen, 1, "only peers with unseen messages appear")
	assert.Equal(t, float64(3), unseen["2"])

	deps.repo.AssertExpectations(t)
	deps.directory.AssertExpectations(t)
}

func TestSidebarDirectoryError(t *testing.T) {
	router, deps := setupMessageRouter(t)

	deps.directory.On("ListOtherUsers", mock.Anything, 1).Return(([]models.User)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, false, resp["success"])
}

func TestGetConversationMarksSeen(t *testing.T) {
	router, deps := setupMessageRouter(t)

	deps.repo.On("FindConversation", mock.Anything, 1, 2).
		Return([]models.Message{{ID: 5, SenderID: 2, ReceiverID: 1, Text: "hey"}}, nil).Once()
	deps.repo.On("MarkSeen", mock.Anything, 2, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, true, resp["success"])
	msgs, ok := resp["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 1)

	deps.repo.AssertExpectations(t)
}

func TestGetConversationInvalidID(t *testing.T) {
	router, _ := setupMessageRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/messages/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkMessageSeenSuccess(t *testing.T) {
	router, deps := setupMessageRouter(t)

	deps.repo.On("MarkSeenByID", mock.Anything, 9).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/api/messages/mark/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, true, resp["success"])
	deps.repo.AssertExpectations(t)
}

func TestMarkMessageSeenInvalidID(t *testing.T) {
	router, _ := setupMessageRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/messages/mark/oops", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageSuccess(t *testing.T) {
	router, deps := setupMessageRouter(t)

	stored := models.Message{ID: 12, SenderID: 1, ReceiverID: 2, Text: "hello"}
	deps.repo.On("Insert", mock.Anything, 1, 2, "hello", "").Return(stored, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/messages/send/2", bytes.NewBufferString(`{"text":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, true, resp["success"])
	newMessage, ok := resp["newMessage"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", newMessage["text"])
	assert.Equal(t, false, newMessage["seen"])

	deps.repo.AssertExpectations(t)
}

func TestSendMessageMissingContent(t *testing.T) {
	router, deps := setupMessageRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/messages/send/2", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	deps.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageToSelf(t *testing.T) {
	router, _ := setupMessageRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/messages/send/1", bytes.NewBufferString(`{"text":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageUploadFailure(t *testing.T) {
	router, deps := setupMessageRouter(t)

	deps.uploader.On("Upload", mock.Anything, "imgdata").
		Return("", fmt.Errorf("%w: status 500", clients.ErrUploadFailed)).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/messages/send/2", bytes.NewBufferString(`{"image":"imgdata"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, false, resp["success"])
	deps.repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageStorageFailure(t *testing.T) {
	router, deps := setupMessageRouter(t)

	deps.repo.On("Insert", mock.Anything, 1, 2, "hi", "").Return(models.Message{}, assert.AnError).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/messages/send/2", bytes.NewBufferString(`{"text":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
