package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/perfume-shop/internal/domain/models"
	"github.com/linemk/perfume-shop/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const provisionSavepoint = "provision_account"

// Provisioned - результат подбора аккаунта для гостевого заказа
type Provisioned struct {
	Account *models.Account
	Created bool
	// Password и Token заполнены только для нового аккаунта, их нужно отправить письмом после коммита
	Password string
	Token    string
}

// Provisioner находит или создаёт аккаунт покупателя внутри транзакции оформления заказа
type Provisioner struct {
	log         *slog.Logger
	accountRepo storage.AccountStorage
	profileRepo storage.ProfileStorage
}

func NewProvisioner(log *slog.Logger, accountRepo storage.AccountStorage, profileRepo storage.ProfileStorage) *Provisioner {
	return &Provisioner{
		log:         log,
		accountRepo: accountRepo,
		profileRepo: profileRepo,
	}
}

// ProvisionForCheckout возвращает существующий аккаунт по email или создаёт новый
// со случайным паролем, токеном подтверждения и пустым профилем.
// Если параллельный заказ успел создать аккаунт с тем же email, вставка
// откатывается до точки сохранения и аккаунт перечитывается.
func (p *Provisioner) ProvisionForCheckout(ctx context.Context, tx *sql.Tx, contact models.GuestContact) (*Provisioned, error) {
	const op = "service.Provisioner.ProvisionForCheckout"
	contact.Email = NormalizeEmail(contact.Email)
	logger := p.log.With(slog.String("op", op), slog.String("email", contact.Email))

	existing, err := p.accountRepo.GetAccountByEmailTx(ctx, tx, contact.Email)
	if err == nil {
		logger.Info("reusing existing account", slog.Int64("userID", existing.ID))
		return &Provisioned{Account: existing}, nil
	}
	if !errors.Is(err, storage.ErrAccountNotFound) {
		logger.Error("failed to look up account", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to look up account: %w", op, err)
	}

	password, err := randomString(GeneratedPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to generate password: %w", op, err)
	}
	token, err := GenerateConfirmationToken()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to generate token: %w", op, err)
	}
	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+provisionSavepoint); err != nil {
		return nil, fmt.Errorf("%s: failed to create savepoint: %w", op, err)
	}

	account, err := p.accountRepo.CreateAccount(ctx, tx, &models.Account{
		Email:             contact.Email,
		PassHash:          passHash,
		FirstName:         contact.FirstName,
		LastName:          contact.LastName,
		PhoneNumber:       contact.PhoneNumber,
		ConfirmationToken: token,
	})
	if errors.Is(err, storage.ErrAccountExists) {
		logger.Warn("account created concurrently, retrying as lookup")
		if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+provisionSavepoint); err != nil {
			return nil, fmt.Errorf("%s: failed to roll back to savepoint: %w", op, err)
		}
		existing, err := p.accountRepo.GetAccountByEmailTx(ctx, tx, contact.Email)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to reread account: %w", op, err)
		}
		return &Provisioned{Account: existing}, nil
	}
	if err != nil {
		logger.Error("failed to create account", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create account: %w", op, err)
	}

	if err := p.profileRepo.EnsureProfile(ctx, tx, account.ID); err != nil {
		logger.Error("failed to create profile", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create profile: %w", op, err)
	}

	logger.Info("account provisioned for checkout", slog.Int64("userID", account.ID))
	return &Provisioned{Account: account, Created: true, Password: password, Token: token}, nil
}
