package mock

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// createJWT creates a signed JWT of the given type valid for expiry
func (s *APIService) createJWT(tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": s.Issuer,
		"sub": s.Email,
		"jti": uuid.NewString(),
		"exp": now.Add(expiry).Unix(),
		"iat": now.Unix(),
		"typ": tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

// verifyJWT checks signature, expiry and type of a token issued by createJWT
func (s *APIService) verifyJWT(raw, tokenType string) error {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("unexpected claims")
	}
	if claims["typ"] != tokenType {
		return fmt.Errorf("expected %v token, got %v", tokenType, claims["typ"])
	}
	return nil
}
