package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hassonapp/chatter/config"
	"github.com/hassonapp/chatter/internal/api"
)

// IssueToken signs a session token for the given user. Claims are drawn
// from the credential, never from the cache record, so issuance does not
// depend on cache fidelity. The token is stateless: validity is purely
// cryptographic plus expiry, so early revocation is not supported.
func IssueToken(cfg config.JWTConfig, userID uuid.UUID, rec *api.AuthRecord) (string, error) {
	now := time.Now()
	claims := api.Claims{
		UserID:      userID.String(),
		UID:         rec.UID,
		Email:       rec.Email,
		Username:    rec.Username,
		AvatarColor: rec.AvatarColor,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// VerifyToken checks signature and expiry together. Every failure mode --
// forged signature, malformed token, expired claim, wrong issuer -- collapses
// to the same NotAuthorized outcome so the response is not an oracle on
// token validity.
func VerifyToken(cfg config.JWTConfig, tokenString string) (*api.Claims, error) {
	claims := &api.Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.SecretKey), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, api.NotAuthorized("Token is invalid. Please login again.")
	}
	return claims, nil
}
