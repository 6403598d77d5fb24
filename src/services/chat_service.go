package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ChatService proxies chat messages to the analytics companion service, which
// runs the actual assistant. One attempt per request, no retries.
type ChatService struct {
	baseURL    string
	httpClient *http.Client
}

func NewChatService(baseURL string) *ChatService {
	return &ChatService{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Ask forwards the user's message and returns the assistant's reply text.
func (s *ChatService) Ask(ctx context.Context, userID, message string) (string, error) {
	body, err := json.Marshal(chatRequest{UserID: userID, Message: message})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: chat service returned status %d", ErrUpstreamFailed, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: invalid chat service response: %v", ErrUpstreamFailed, err)
	}
	return parsed.Response, nil
}
