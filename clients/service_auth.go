package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TokenSource yields a bearer token for privileged order-store calls. The
// scheduler callback handler runs outside any user session, so it logs in as
// a dedicated service account instead.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ServiceAccount exchanges service-account credentials for a short-lived
// bearer token and caches it until shortly before expiry.
type ServiceAccount struct {
	baseURL    string
	accountID  string
	secret     string
	httpClient *http.Client
	cache      *tokenCache
}

func NewServiceAccount(baseURL, accountID, secret string, timeout time.Duration) *ServiceAccount {
	return &ServiceAccount{
		baseURL:    baseURL,
		accountID:  accountID,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
		cache:      &tokenCache{},
	}
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *ServiceAccount) Token(ctx context.Context) (string, error) {
	if token, ok := s.cache.get(); ok {
		return token, nil
	}

	body, err := json.Marshal(map[string]string{
		"account_id": s.accountID,
		"secret":     s.secret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/service-login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", upstreamError("auth service", resp)
	}

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return "", err
	}
	if login.AccessToken == "" {
		return "", fmt.Errorf("auth service returned an empty access token")
	}

	s.cache.set(login.AccessToken, time.Now().Add(time.Duration(login.ExpiresIn)*time.Second))
	return login.AccessToken, nil
}
