// Package auth handles the principal tokens minted by the login provider.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the verified principal. Subject holds the provider account id.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Provider string `json:"provider,omitempty"`
	Image    string `json:"image,omitempty"`
}

func GenerateToken(p models.Principal, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ProviderID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Email:    p.Email,
		Name:     p.Name,
		Username: p.Username,
		Provider: p.Provider,
		Image:    p.Image,
	})

	return token.SignedString(secretKey)
}

// PrincipalFromToken validates an HS256 token and returns the principal it
// asserts. Expired tokens yield common.ErrTokenExpired, anything else that
// fails validation yields common.ErrInvalidToken.
func PrincipalFromToken(tokenString string, secretKey []byte) (models.Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Principal{}, common.ErrTokenExpired
		}
		return models.Principal{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.Email == "" {
		return models.Principal{}, common.ErrInvalidToken
	}

	return models.Principal{
		Email:      claims.Email,
		Name:       claims.Name,
		Username:   claims.Username,
		Provider:   claims.Provider,
		ProviderID: claims.Subject,
		Image:      claims.Image,
	}, nil
}
