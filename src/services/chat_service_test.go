package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatService_Ask(t *testing.T) {
	var got chatRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(chatResponse{Response: "You spent 40% on food this month."})
	}))
	defer upstream.Close()

	svc := NewChatService(upstream.URL)

	reply, err := svc.Ask(context.Background(), "user-1", "where does my money go?")
	require.NoError(t, err)
	assert.Equal(t, "You spent 40% on food this month.", reply)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "where does my money go?", got.Message)
}

func TestChatService_UpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	svc := NewChatService(upstream.URL)

	_, err := svc.Ask(context.Background(), "user-1", "hello")
	assert.ErrorIs(t, err, ErrUpstreamFailed)
}

func TestChatService_Unreachable(t *testing.T) {
	svc := NewChatService("http://127.0.0.1:1")

	_, err := svc.Ask(context.Background(), "user-1", "hello")
	assert.ErrorIs(t, err, ErrUpstreamFailed)
}
