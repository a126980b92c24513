package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/imisi99/Spotify-api/internal/config"
	apperr "github.com/imisi99/Spotify-api/pkg/errors"
)

type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies the local session credential. It is independent
// of Spotify's tokens; expiry is the only invalidation mechanism, there is no
// revocation list.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(cfg *config.Config) *Issuer {
	return &Issuer{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.SessionTTL(),
	}
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

func (i *Issuer) Issue(userID, username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "spotify-api",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate parses and verifies a session credential, mapping failures onto
// the auth error taxonomy.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperr.ErrTokenExpired
	case err != nil:
		return nil, apperr.ErrTokenMalformed
	case !token.Valid:
		return nil, apperr.ErrTokenMalformed
	}

	if claims.UserID == "" || claims.Username == "" {
		return nil, apperr.ErrMissingClaims
	}
	return claims, nil
}
