package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/greenmart/checkout-service/models"
)

// PaymentAPI is the payment provider contract: look up the authoritative
// record for a payment id.
type PaymentAPI interface {
	GetPayment(ctx context.Context, paymentID string) (*models.PaymentRecord, error)
}

// tokenCache holds a short-lived access token from a credential exchange so
// that every lookup does not pay for a fresh exchange. Explicit object, not a
// package-level singleton.
type tokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// renewSkew forces a refresh slightly before the provider-reported expiry.
const renewSkew = 30 * time.Second

func (tc *tokenCache) get() (string, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.token == "" || time.Now().After(tc.expiresAt.Add(-renewSkew)) {
		return "", false
	}
	return tc.token, true
}

func (tc *tokenCache) set(token string, expiresAt time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.token = token
	tc.expiresAt = expiresAt
}

// PaymentClient exchanges an API key pair for a bearer token and reads
// payment records from the provider.
type PaymentClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	cache      *tokenCache
}

func NewPaymentClient(baseURL, apiKey, apiSecret string, timeout time.Duration) *PaymentClient {
	return &PaymentClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: &http.Client{Timeout: timeout},
		cache:      &tokenCache{},
	}
}

type paymentTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *PaymentClient) accessToken(ctx context.Context) (string, error) {
	if token, ok := c.cache.get(); ok {
		return token, nil
	}

	body, err := json.Marshal(map[string]string{
		"api_key":    c.apiKey,
		"api_secret": c.apiSecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", upstreamError("payment provider", resp)
	}

	var tok paymentTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("payment provider returned an empty access token")
	}

	c.cache.set(tok.AccessToken, time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second))
	return tok.AccessToken, nil
}

func (c *PaymentClient) GetPayment(ctx context.Context, paymentID string) (*models.PaymentRecord, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/payments/%s", c.baseURL, paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, upstreamError("payment provider", resp)
	}

	var record models.PaymentRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}
