package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/pairchat/internal/domain"
)

const tokenIssuer = "pairchat"

// DefaultSessionTTL is how long an issued session token stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// TokenService issues and verifies stateless HS256 session tokens.
// Tokens are never revoked server-side; they expire after TTL.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

type sessionClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// TTL reports the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token carrying the user's identity.
func (s *TokenService) Issue(user *domain.User) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the identity in token if it is well formed, signed with our
// secret and unexpired. Every failure looks the same to the caller.
func (s *TokenService) Verify(token string) (*domain.Claims, bool) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return nil, false
	}
	return &domain.Claims{
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
	}, true
}
