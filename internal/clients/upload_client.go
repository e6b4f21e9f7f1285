package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrUploadFailed = errors.New("upload failed")

// UploadClient hands image payloads to the asset service and gets back a
// retrievable URL.
type UploadClient struct {
	baseURL string
	http    *http.Client
}

// NewUploadClient constructs the wrapper.
func NewUploadClient(baseURL string) *UploadClient {
	return &UploadClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload stores an encoded image payload and returns its URL.
func (u *UploadClient) Upload(ctx context.Context, data string) (string, error) {
	body, err := json.Marshal(map[string]string{"data": data})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/internal/upload", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode)
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("%w: empty url", ErrUploadFailed)
	}
	return result.URL, nil
}
