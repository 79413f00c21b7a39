package utils

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
)

type JwtCustomClaim struct {
	ID   int    `json:"id"`
	Role string `json:"role"`
	jwt.StandardClaims
}

func getJwtSecret() string {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return "aSecret"
	}
	return secret
}

// TokenLifespan reads TOKEN_HOUR_LIFESPAN. Applies to both session
// tokens in redis and issued API tokens.
func TokenLifespan() time.Duration {
	lifespanHours, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN"))
	if err != nil || lifespanHours <= 0 {
		lifespanHours = 24
	}
	return time.Duration(lifespanHours) * time.Hour
}

func JwtGenerate(userID int, role string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		ID:   userID,
		Role: role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(TokenLifespan()).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	})

	token, err := t.SignedString([]byte(getJwtSecret()))
	if err != nil {
		return "", err
	}
	return token, nil
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(getJwtSecret()), nil
	})
}
