package services

import (
	"context"
	"errors"
	"strconv"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/nuofunds/backend/src/logger"
	"github.com/nuofunds/backend/src/models"
	"google.golang.org/api/option"
)

// PushResult is the outcome of one device delivery attempt.
type PushResult struct {
	Token string `json:"token"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PushService fans a notification out to a user's registered devices through
// Firebase Cloud Messaging. Per-token failures never abort the batch; each
// token's outcome is collected independently.
type PushService struct {
	client *messaging.Client
}

// NewPushService initializes the FCM client once at process start. With no
// credentials file configured the service starts disabled and every send
// reports a per-token failure.
func NewPushService(ctx context.Context, credentialsFile string) (*PushService, error) {
	if credentialsFile == "" {
		logger.L.Warn("FIREBASE_CREDENTIALS_FILE not set; push delivery disabled")
		return &PushService{}, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &PushService{client: client}, nil
}

var errPushDisabled = errors.New("push delivery is not configured")

// SendToDevices dispatches the notification to every device concurrently and
// returns one result per token, in input order.
func (s *PushService) SendToDevices(ctx context.Context, devices []models.DeviceToken, title, body string, data map[string]string) []PushResult {
	results := make([]PushResult, len(devices))

	var wg sync.WaitGroup
	for i, device := range devices {
		wg.Add(1)
		go func(i int, device models.DeviceToken) {
			defer wg.Done()

			err := s.send(ctx, device, title, body, data)
			if err != nil {
				logger.L.Error("FCM send failed", "token", device.Token, "error", err)
				results[i] = PushResult{Token: device.Token, OK: false, Error: err.Error()}
				return
			}
			results[i] = PushResult{Token: device.Token, OK: true}
		}(i, device)
	}
	wg.Wait()

	return results
}

func (s *PushService) send(ctx context.Context, device models.DeviceToken, title, body string, data map[string]string) error {
	if s.client == nil {
		return errPushDisabled
	}

	payload := make(map[string]string, len(data)+2)
	for k, v := range data {
		payload[k] = v
	}
	payload["userId"] = device.UserID
	payload["deviceType"] = strconv.Itoa(device.DeviceType)

	_, err := s.client.Send(ctx, &messaging.Message{
		Token: device.Token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: payload,
	})
	return err
}
