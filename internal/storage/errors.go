package storage

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account with this email already exists")
	ErrAccountInUse      = errors.New("account is referenced by catalog records")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrPerfumeNotFound   = errors.New("perfume not found")
	ErrOfferNotFound     = errors.New("offer not found")
	ErrReviewNotFound    = errors.New("review not found")
	ErrReplyNotFound     = errors.New("reply not found")
	ErrOrderItemNotFound = errors.New("order item not found")
	ErrOrderNotFound     = errors.New("order not found")
)

const (
	pqUniqueViolation  = "23505"
	pqFKViolation      = "23503"
	pqLockNotAvailable = "55P03"
)

func isPQCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}

// rowScanner - общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}
