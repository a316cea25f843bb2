package middleware

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
)

// HS256Validator validates access tokens signed with the shared secret.
type HS256Validator struct {
	secret []byte
}

func NewHS256Validator(secret string) *HS256Validator {
	return &HS256Validator{secret: []byte(secret)}
}

func (v *HS256Validator) ValidateToken(tokenString string) (*JWTClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("token is not valid")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}
	sub, _ := claims["sub"].(string)
	userID, err := id.ParseUserID(sub)
	if err != nil {
		return nil, errors.New("token subject is not a user id")
	}

	return &JWTClaims{UserID: userID}, nil
}

// SignAccessToken mints an access token for a user. Used by the dev seed and
// by tests; real logins are issued by the auth frontend, not this service.
func SignAccessToken(secret string, userID id.UserID, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}
