package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/perfume-shop/internal/domain/models"
)

type AccountStorage interface {
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	// GetAccountByEmailTx читает аккаунт внутри транзакции (используется при оформлении заказа гостем)
	GetAccountByEmailTx(ctx context.Context, tx *sql.Tx, email string) (*models.Account, error)
	// CreateAccount возвращает ErrAccountExists при нарушении уникальности email
	CreateAccount(ctx context.Context, tx *sql.Tx, account *models.Account) (*models.Account, error)
	LockAccountByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Account, error)
	UpdateAccount(ctx context.Context, tx *sql.Tx, account *models.Account) error
	ConfirmAccount(ctx context.Context, token string) (*models.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *accountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, email, pass_hash, first_name, last_name, phone_number,
	is_admin, is_staff, is_active, is_superuser, is_confirmed, confirmation_token, date_joined`

func scanAccount(row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.Email, &a.PassHash, &a.FirstName, &a.LastName, &a.PhoneNumber,
		&a.IsAdmin, &a.IsStaff, &a.IsActive, &a.IsSuperuser, &a.IsConfirmed, &a.ConfirmationToken, &a.DateJoined)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *accountRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE LOWER(email) = LOWER($1)", email)
	return scanAccount(row)
}

func (r *accountRepository) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = $1", id)
	return scanAccount(row)
}

func (r *accountRepository) GetAccountByEmailTx(ctx context.Context, tx *sql.Tx, email string) (*models.Account, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE LOWER(email) = LOWER($1)", email)
	return scanAccount(row)
}

func (r *accountRepository) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) CreateAccount(ctx context.Context, tx *sql.Tx, account *models.Account) (*models.Account, error) {
	query := `INSERT INTO accounts (email, pass_hash, first_name, last_name, phone_number, is_staff, is_confirmed, confirmation_token)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, date_joined`
	err := tx.QueryRowContext(ctx, query,
		account.Email, account.PassHash, account.FirstName, account.LastName, account.PhoneNumber,
		account.IsStaff, account.IsConfirmed, account.ConfirmationToken,
	).Scan(&account.ID, &account.DateJoined)
	if err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	account.IsActive = true
	return account, nil
}

// LockAccountByIDTx блокирует строку аккаунта до конца транзакции
func (r *accountRepository) LockAccountByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Account, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = $1 FOR UPDATE", id)
	a, err := scanAccount(row)
	if err != nil {
		if isPQCode(err, pqLockNotAvailable) {
			return nil, fmt.Errorf("resource is locked, please try again: %w", err)
		}
		return nil, err
	}
	return a, nil
}

func (r *accountRepository) UpdateAccount(ctx context.Context, tx *sql.Tx, account *models.Account) error {
	query := `UPDATE accounts SET email = $1, pass_hash = $2, first_name = $3, last_name = $4, phone_number = $5
	          WHERE id = $6`
	res, err := tx.ExecContext(ctx, query,
		account.Email, account.PassHash, account.FirstName, account.LastName, account.PhoneNumber, account.ID)
	if err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return ErrAccountExists
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ConfirmAccount подтверждает неподтверждённый аккаунт по токену и очищает токен
func (r *accountRepository) ConfirmAccount(ctx context.Context, token string) (*models.Account, error) {
	query := `UPDATE accounts SET is_confirmed = TRUE, confirmation_token = ''
	          WHERE confirmation_token = $1 AND is_confirmed = FALSE
	          RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRowContext(ctx, query, token))
}

func (r *accountRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = $1", id)
	if err != nil {
		// карточки ароматов не удаляются вместе с автором
		if isPQCode(err, pqFKViolation) {
			return ErrAccountInUse
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
