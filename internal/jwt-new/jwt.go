package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/perfume-shop/internal/domain/models"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenPair - пара access/refresh токенов, выдаваемая при входе
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenIssuer выпускает JWT для аккаунтов
type TokenIssuer struct {
	secret      []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	rememberTTL time.Duration
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL, rememberTTL time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is not set")
	}
	return &TokenIssuer{
		secret:      []byte(secret),
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		rememberTTL: rememberTTL,
	}, nil
}

// Issue выпускает пару токенов. rememberMe продлевает жизнь refresh токена.
func (i *TokenIssuer) Issue(ctx context.Context, account *models.Account, rememberMe bool) (*TokenPair, error) {
	refreshTTL := i.refreshTTL
	if rememberMe {
		refreshTTL = i.rememberTTL
	}
	access, err := NewToken(ctx, account, TokenTypeAccess, i.accessTTL, i.secret)
	if err != nil {
		return nil, err
	}
	refresh, err := NewToken(ctx, account, TokenTypeRefresh, refreshTTL, i.secret)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// AccessToken выпускает только access токен
func (i *TokenIssuer) AccessToken(ctx context.Context, account *models.Account) (string, error) {
	return NewToken(ctx, account, TokenTypeAccess, i.accessTTL, i.secret)
}

// NewToken генерирует JWT-токен для указанного пользователя с заданным временем жизни.
func NewToken(ctx context.Context, account *models.Account, tokenType string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", account.ID),
		"email": account.Email,
		"typ":   tokenType,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
