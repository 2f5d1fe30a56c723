package devportal

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"campusconnect/internal/ids"
	"campusconnect/internal/models"
)

type accessClaims struct {
	UserID     int64  `json:"uid"`
	Role       string `json:"role"`
	Generation int    `json:"gen"`
	jwt.RegisteredClaims
}

func issueToken(secret string, user models.User, generation int, ttl time.Duration, now time.Time) (string, error) {
	claims := accessClaims{
		UserID:     user.UserID,
		Role:       string(user.Role),
		Generation: generation,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   user.Email,
			ID:        ids.New(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

func parseToken(tokenStr string, secret string) (*accessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*accessClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
