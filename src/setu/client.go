// Package setu is a thin client for the Setu Account Aggregator partner API.
// Consent lifecycle (PENDING/ACTIVE/EXPIRED/REVOKED) is owned entirely by the
// partner; every call here is attempted exactly once, with no retries.
package setu

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nuofunds/backend/src/models"
	"github.com/patrickmn/go-cache"
)

const (
	consentEndpoint = "/v2/consents"

	tokenCacheKey = "setu-access-token"
)

type Client struct {
	baseURL           string
	orgServiceURL     string
	clientID          string
	clientSecret      string
	productInstanceID string

	httpClient *http.Client
	db         *sql.DB
	// tokenCache fronts the single DB row holding the partner access token so
	// consent calls do not hit the store on every request.
	tokenCache *cache.Cache
}

type Config struct {
	BaseURL           string
	OrgServiceURL     string
	ClientID          string
	ClientSecret      string
	ProductInstanceID string
	TokenCacheTTL     time.Duration
}

func NewClient(cfg Config, db *sql.DB) *Client {
	return &Client{
		baseURL:           cfg.BaseURL,
		orgServiceURL:     cfg.OrgServiceURL,
		clientID:          cfg.ClientID,
		clientSecret:      cfg.ClientSecret,
		productInstanceID: cfg.ProductInstanceID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		db:         db,
		tokenCache: cache.New(cfg.TokenCacheTTL, 2*cfg.TokenCacheTTL),
	}
}

// TokenPair is the credential pair issued by the Setu org service.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// FetchAccessToken logs in to the Setu org service with client credentials,
// replaces the stored token row, and refreshes the cache.
func (c *Client) FetchAccessToken(ctx context.Context) (*TokenPair, error) {
	body, err := json.Marshal(map[string]string{
		"clientID":   c.clientID,
		"grant_type": "client_credentials",
		"secret":     c.clientSecret,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.orgServiceURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("client", "bridge")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("org service request failed (%d): %s", resp.StatusCode, detail)
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, err
	}
	if pair.AccessToken == "" {
		return nil, fmt.Errorf("org service response missing access_token")
	}

	if err := models.ReplaceSetuAccessToken(c.db, pair.AccessToken, pair.RefreshToken); err != nil {
		return nil, err
	}
	c.tokenCache.SetDefault(tokenCacheKey, pair.AccessToken)

	return &pair, nil
}

// StoredAccessToken returns the partner access token, from cache when fresh
// or from the store otherwise. Returns "" when no token has been created yet.
func (c *Client) StoredAccessToken() (string, error) {
	if cached, ok := c.tokenCache.Get(tokenCacheKey); ok {
		return cached.(string), nil
	}

	row, err := models.GetSetuAccessToken(c.db)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", nil
	}
	c.tokenCache.SetDefault(tokenCacheKey, row.AccessToken)
	return row.AccessToken, nil
}

// ConsentResponse mirrors the fields of the partner's consent creation reply
// that we persist or forward.
type ConsentResponse struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Status string   `json:"status"`
	PAN    string   `json:"PAN"`
	Tags   []string `json:"tags"`
	Detail struct {
		ConsentMode string `json:"consentMode"`
		Frequency   struct {
			Unit  string `json:"unit"`
			Value int    `json:"value"`
		} `json:"frequency"`
		Vua       string   `json:"vua"`
		FiTypes   []string `json:"fiTypes"`
		DataRange struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"dataRange"`
		FetchType string `json:"fetchType"`
		Purpose   struct {
			Code string `json:"code"`
		} `json:"purpose"`
		DataLife struct {
			Unit  string `json:"unit"`
			Value int    `json:"value"`
		} `json:"dataLife"`
		ConsentTypes  []string `json:"consentTypes"`
		ConsentStart  string   `json:"consentStart"`
		ConsentExpiry string   `json:"consentExpiry"`
	} `json:"detail"`
}

// CreateConsent registers a new data-sharing consent at the partner for the
// given VUA (the customer's phone-derived virtual user address).
func (c *Client) CreateConsent(ctx context.Context, accessToken, vua string) (*ConsentResponse, error) {
	payload := map[string]any{
		"consentDuration": map[string]any{
			"unit":  "MONTH",
			"value": 24,
		},
		"vua":          vua,
		"consentTypes": []string{"PROFILE", "SUMMARY", "TRANSACTIONS"},
		"dataRange": map[string]string{
			"from": "2023-01-01T00:00:00Z",
			"to":   "2025-01-24T00:00:00Z",
		},
		"context": []any{},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+consentEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", accessToken)
	req.Header.Set("x-product-instance-id", c.productInstanceID)
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-client-secret", c.clientSecret)
	req.Header.Set("x-module", "AA")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("consent request failed (%d): %s", resp.StatusCode, detail)
	}

	var consent ConsentResponse
	if err := json.NewDecoder(resp.Body).Decode(&consent); err != nil {
		return nil, err
	}
	return &consent, nil
}
