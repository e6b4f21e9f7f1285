package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"messaging-service/internal/models"
)

// UserClient reads the account directory owned by the user service.
type UserClient struct {
	baseURL string
	http    *http.Client
}

// NewUserClient constructs the wrapper.
func NewUserClient(baseURL string) *UserClient {
	return &UserClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// ListOtherUsers returns every known user except the viewer.
func (u *UserClient) ListOtherUsers(ctx context.Context, viewerID int) ([]models.User, error) {
	url := u.baseURL + "/internal/users?exclude=" + strconv.Itoa(viewerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := u.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user service: status %d", resp.StatusCode)
	}

	var result struct {
		Users []models.User `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	return result.Users, nil
}
