package service

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"log/slog"
	"math/big"
	"strings"
)

// Ошибки бизнес-логики. Хендлеры сопоставляют их со статусами HTTP через errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrBadRequest           = errors.New("bad request")
	ErrConflict             = errors.New("conflict")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrUnauthorized         = errors.New("unauthorized")
)

const (
	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// ConfirmationTokenLength - длина токена подтверждения почты
	ConfirmationTokenLength = 64
	// GeneratedPasswordLength - длина пароля для аккаунтов, созданных при оформлении заказа
	GeneratedPasswordLength = 8
)

// randomString возвращает строку из алфавита alphanumeric, используя crypto/rand
func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(alphanumeric)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphanumeric[idx.Int64()]
	}
	return string(buf), nil
}

// NormalizeEmail приводит адрес к виду, в котором он хранится: без пробелов по краям, в нижнем регистре
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GenerateConfirmationToken - 64 случайных буквенно-цифровых символа
func GenerateConfirmationToken() (string, error) {
	return randomString(ConfirmationTokenLength)
}

// rollback откатывает транзакцию и логирует неудачу отката
func rollback(logger *slog.Logger, tx *sql.Tx) {
	if rbErr := tx.Rollback(); rbErr != nil {
		logger.Error("transaction rollback failed", slog.Any("error", rbErr))
	}
}
