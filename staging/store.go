package staging

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/greenmart/checkout-service/models"
)

// ErrNotFound covers every way a staged order can be absent: no token,
// expired token, tampered token, or a token issued for another user. Callers
// treat all of these as "no staged purchase" and re-stage.
var ErrNotFound = errors.New("no staged order, or the staging token has expired")

// TokenStore keeps staged orders entirely inside a signed, short-TTL token
// held by the client. No server-side state exists between requests; clearing
// a staged order is just the client dropping the token.
type TokenStore struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenStore(secret string, ttl time.Duration) *TokenStore {
	return &TokenStore{secret: []byte(secret), ttl: ttl}
}

type stagedClaims struct {
	Staged *models.StagedOrder `json:"staged"`
	jwt.RegisteredClaims
}

// Issue signs a fresh staging token for the user. The expiry is fixed at
// issue time; edits via Reissue never extend it.
func (s *TokenStore) Issue(userID string, staged *models.StagedOrder) (string, error) {
	now := time.Now()
	claims := stagedClaims{
		Staged: staged,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Decode returns the staged order carried by the token, or ErrNotFound.
func (s *TokenStore) Decode(tokenStr, userID string) (*models.StagedOrder, error) {
	claims, err := s.parse(tokenStr, userID)
	if err != nil {
		return nil, err
	}
	return claims.Staged, nil
}

// Reissue applies patch to the staged order and re-signs the token, keeping
// the original expiry.
func (s *TokenStore) Reissue(tokenStr, userID string, patch func(*models.StagedOrder)) (string, error) {
	claims, err := s.parse(tokenStr, userID)
	if err != nil {
		return "", err
	}
	patch(claims.Staged)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// TTL is the staging window applied to newly issued tokens.
func (s *TokenStore) TTL() time.Duration {
	return s.ttl
}

func (s *TokenStore) parse(tokenStr, userID string) (*stagedClaims, error) {
	if tokenStr == "" {
		return nil, ErrNotFound
	}

	var claims stagedClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrNotFound
	}
	if claims.Staged == nil || claims.Subject != userID {
		return nil, ErrNotFound
	}
	return &claims, nil
}
