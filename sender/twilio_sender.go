package sender

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type TwilioSettings struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	// BaseURL overrides the Twilio API host; empty means production.
	BaseURL string
}

type TwilioSender struct {
	settings   TwilioSettings
	httpClient *http.Client
}

// NewTwilioSender returns nil, nil when Twilio is not configured.
func NewTwilioSender(settings TwilioSettings) (*TwilioSender, error) {
	if settings.AccountSID == "" && settings.AuthToken == "" {
		return nil, nil
	}
	if settings.AccountSID == "" || settings.AuthToken == "" || settings.FromNumber == "" {
		return nil, fmt.Errorf("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER are all required")
	}
	if settings.BaseURL == "" {
		settings.BaseURL = "https://api.twilio.com"
	}
	return &TwilioSender{
		settings:   settings,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (t *TwilioSender) SendSMS(ctx context.Context, to, msg string) (SendResult, error) {
	apiURL := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.settings.BaseURL, t.settings.AccountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.settings.FromNumber)
	form.Set("Body", msg)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(t.settings.AccountSID, t.settings.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return SendResult{}, fmt.Errorf("twilio error %s: %s", resp.Status, string(respBody))
	}

	now := time.Now()
	return SendResult{
		MessageID: fmt.Sprintf("twilio-%d", now.UnixNano()),
		SentAt:    now,
	}, nil
}
