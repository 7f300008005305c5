package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// OperatorTokenTTL is how long a dashboard login stays valid
const OperatorTokenTTL = 12 * time.Hour

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateOperatorToken issues the bearer token a dashboard sends on mutating calls
func GenerateOperatorToken(operator, secret string, ttl time.Duration) (string, error) {
	if operator == "" {
		return "", errors.New("operator is required")
	}
	if ttl <= 0 {
		ttl = OperatorTokenTTL
	}

	claims := jwt.MapClaims{
		"operator": operator,
		"type":     "operator",
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and validates a token
func ValidateToken(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// OperatorFromClaims extracts the operator name of an operator token
func OperatorFromClaims(claims jwt.MapClaims) (string, bool) {
	if t, _ := claims["type"].(string); t != "operator" {
		return "", false
	}
	op, ok := claims["operator"].(string)
	return op, ok && op != ""
}
