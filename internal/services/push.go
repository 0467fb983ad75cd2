package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const oneSignalNotificationsURL = "https://onesignal.com/api/v1/notifications"

// Pusher delivers one push notification to a registered device.
type Pusher interface {
	SendPush(ctx context.Context, playerID, title, body string, data map[string]any) error
}

// PushError is a non-success response from the delivery service. Distinct
// from the session-engine error taxonomy: delivery errors are retried by
// the dispatcher, never surfaced to the participant.
type PushError struct {
	StatusCode int
	Body       string
}

func (e *PushError) Error() string {
	return fmt.Sprintf("push delivery returned HTTP %d: %s", e.StatusCode, e.Body)
}

// OneSignalClient sends push notifications through the OneSignal REST API.
type OneSignalClient struct {
	appID  string
	apiKey string
	client *http.Client
	log    *zap.Logger
}

func NewOneSignalClient(appID, apiKey string, log *zap.Logger) *OneSignalClient {
	return &OneSignalClient{
		appID:  appID,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// SendPush posts a notification for a single player ID. A non-2xx
// response becomes a PushError.
func (c *OneSignalClient) SendPush(ctx context.Context, playerID, title, body string, data map[string]any) error {
	payload := map[string]any{
		"app_id":             c.appID,
		"include_player_ids": []string{playerID},
		"headings":           map[string]string{"en": title},
		"contents":           map[string]string{"en": body},
	}
	if len(data) > 0 {
		payload["data"] = data
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oneSignalNotificationsURL, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Basic "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &PushError{StatusCode: resp.StatusCode, Body: string(responseBody)}
	}

	c.log.Debug("Push notification delivered", zap.String("playerID", playerID))
	return nil
}
