package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/perfume-shop/internal/domain/models"
	security "github.com/linemk/perfume-shop/internal/jwt-new"
	"github.com/linemk/perfume-shop/internal/notify"
	"github.com/linemk/perfume-shop/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer выпускает JWT для аккаунтов
type TokenIssuer interface {
	Issue(ctx context.Context, account *models.Account, rememberMe bool) (*security.TokenPair, error)
	AccessToken(ctx context.Context, account *models.Account) (string, error)
}

// RegisterInput - данные для регистрации
type RegisterInput struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Email       string
	Password    string
}

// ProfileUpdate - частичное обновление аккаунта и профиля. nil означает "не менять".
type ProfileUpdate struct {
	FirstName      *string
	LastName       *string
	Email          *string
	PhoneNumber    *string
	Password       *string
	AddressLine    *string
	City           *string
	ProfilePicture *string
}

type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*models.Account, string, error)
	Login(ctx context.Context, email, password string, rememberMe bool) (*models.Account, *security.TokenPair, error)
	ConfirmEmail(ctx context.Context, token string) (*models.Account, error)
	GetProfile(ctx context.Context, userID int64) (*models.Account, *models.Profile, error)
	UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*models.Account, *models.Profile, error)
	ListAccounts(ctx context.Context, actorID int64) ([]*models.Account, error)
	DeleteAccount(ctx context.Context, actorID int64) error
	VerifyPassword(ctx context.Context, email, password string) (bool, error)
}

type accountService struct {
	log         *slog.Logger
	db          *sql.DB
	accountRepo storage.AccountStorage
	profileRepo storage.ProfileStorage
	tokens      TokenIssuer
	notifier    notify.Dispatcher
}

func NewAccountService(
	log *slog.Logger,
	db *sql.DB,
	accountRepo storage.AccountStorage,
	profileRepo storage.ProfileStorage,
	tokens TokenIssuer,
	notifier notify.Dispatcher,
) AccountService {
	return &accountService{
		log:         log,
		db:          db,
		accountRepo: accountRepo,
		profileRepo: profileRepo,
		tokens:      tokens,
		notifier:    notifier,
	}
}

// Register создаёт аккаунт и пустой профиль в одной транзакции.
// Письмо с подтверждением отправляется только после коммита.
func (s *accountService) Register(ctx context.Context, in RegisterInput) (*models.Account, string, error) {
	const op = "service.AccountService.Register"
	in.Email = NormalizeEmail(in.Email)
	logger := s.log.With(slog.String("op", op), slog.String("email", in.Email))

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to hash password: %w", op, err)
	}
	token, err := GenerateConfirmationToken()
	if err != nil {
		return nil, "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	account, err := s.accountRepo.CreateAccount(ctx, tx, &models.Account{
		Email:             in.Email,
		PassHash:          passHash,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		PhoneNumber:       in.PhoneNumber,
		ConfirmationToken: token,
	})
	if err != nil {
		rollback(logger, tx)
		if errors.Is(err, storage.ErrAccountExists) {
			logger.Warn("email already registered")
			return nil, "", fmt.Errorf("%s: %w: user with this email already exists", op, ErrConflict)
		}
		logger.Error("failed to create account", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to create account: %w", op, err)
	}

	if err := s.profileRepo.EnsureProfile(ctx, tx, account.ID); err != nil {
		rollback(logger, tx)
		logger.Error("failed to create profile", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to create profile: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	s.notifier.Dispatch(ctx, notify.Message{Kind: notify.KindConfirm, Recipient: account.Email, Token: token})

	access, err := s.tokens.AccessToken(ctx, account)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return nil, "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("account registered", slog.Int64("userID", account.ID))
	return account, access, nil
}

// Login проверяет пароль и выдаёт пару токенов. Неподтверждённые аккаунты не пускаются.
func (s *accountService) Login(ctx context.Context, email, password string, rememberMe bool) (*models.Account, *security.TokenPair, error) {
	const op = "service.AccountService.Login"
	email = NormalizeEmail(email)
	logger := s.log.With(slog.String("op", op), slog.String("email", email))

	account, err := s.accountRepo.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			logger.Warn("account not found")
			return nil, nil, fmt.Errorf("%s: %w: invalid credentials", op, ErrAuthenticationFailed)
		}
		logger.Error("failed to get account", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: failed to get account: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(account.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return nil, nil, fmt.Errorf("%s: %w: invalid credentials", op, ErrAuthenticationFailed)
	}
	if !account.IsConfirmed {
		logger.Warn("account is not confirmed")
		return nil, nil, fmt.Errorf("%s: %w: account is not activated", op, ErrAuthenticationFailed)
	}

	pair, err := s.tokens.Issue(ctx, account, rememberMe)
	if err != nil {
		logger.Error("failed to generate tokens", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: failed to generate tokens: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", account.ID), slog.Bool("remember_me", rememberMe))
	return account, pair, nil
}

func (s *accountService) ConfirmEmail(ctx context.Context, token string) (*models.Account, error) {
	const op = "service.AccountService.ConfirmEmail"
	logger := s.log.With(slog.String("op", op))

	if token == "" {
		return nil, fmt.Errorf("%s: %w: invalid or expired token", op, ErrBadRequest)
	}
	account, err := s.accountRepo.ConfirmAccount(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			logger.Warn("unknown confirmation token")
			return nil, fmt.Errorf("%s: %w: invalid or expired token", op, ErrBadRequest)
		}
		logger.Error("failed to confirm account", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to confirm account: %w", op, err)
	}

	logger.Info("email confirmed", slog.Int64("userID", account.ID))
	return account, nil
}

func (s *accountService) GetProfile(ctx context.Context, userID int64) (*models.Account, *models.Profile, error) {
	const op = "service.AccountService.GetProfile"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	account, err := s.accountRepo.GetAccountByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, nil, fmt.Errorf("%s: %w: account", op, ErrNotFound)
		}
		logger.Error("failed to get account", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: failed to get account: %w", op, err)
	}

	profile, err := s.profileRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrProfileNotFound) {
			return account, &models.Profile{UserID: userID}, nil
		}
		logger.Error("failed to get profile", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: failed to get profile: %w", op, err)
	}
	return account, profile, nil
}

// UpdateProfile частично обновляет аккаунт и профиль и пересчитывает could_sell.
func (s *accountService) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*models.Account, *models.Profile, error) {
	const op = "service.AccountService.UpdateProfile"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	account, err := s.accountRepo.LockAccountByIDTx(ctx, tx, userID)
	if err != nil {
		rollback(logger, tx)
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, nil, fmt.Errorf("%s: %w: account", op, ErrNotFound)
		}
		logger.Error("failed to lock account", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: failed to lock account: %w", op, err)
	}

	applyString(&account.FirstName, upd.FirstName)
	applyString(&account.LastName, upd.LastName)
	if upd.Email != nil {
		account.Email = NormalizeEmail(*upd.Email)
	}
	applyString(&account.PhoneNumber, upd.PhoneNumber)
	if upd.Password != nil && *upd.Password != "" {
		passHash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			rollback(logger, tx)
			return nil, nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
		}
		account.PassHash = passHash
	}

	if err := s.accountRepo.UpdateAccount(ctx, tx, account); err != nil {
		rollback(logger, tx)
		if errors.Is(err, storage.ErrAccountExists) {
			return nil, nil, fmt.Errorf("%s: %w: user with this email already exists", op, ErrConflict)
		}
		logger.Error("failed to update account", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: failed to update account: %w", op, err)
	}

	if err := s.profileRepo.EnsureProfile(ctx, tx, userID); err != nil {
		rollback(logger, tx)
		logger.Error("failed to ensure profile", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: failed to ensure profile: %w", op, err)
	}
	profile, err := s.profileRepo.GetProfileByUserIDTx(ctx, tx, userID)
	if err != nil {
		rollback(logger, tx)
		logger.Error("failed to get profile", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: failed to get profile: %w", op, err)
	}

	applyString(&profile.AddressLine, upd.AddressLine)
	applyString(&profile.City, upd.City)
	applyString(&profile.ProfilePicture, upd.ProfilePicture)
	profile.CouldSell = profile.IsComplete()

	if err := s.profileRepo.UpdateProfile(ctx, tx, profile); err != nil {
		rollback(logger, tx)
		logger.Error("failed to update profile", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: failed to update profile: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("profile updated", slog.Bool("could_sell", profile.CouldSell))
	return account, profile, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// ListAccounts доступен только персоналу
func (s *accountService) ListAccounts(ctx context.Context, actorID int64) ([]*models.Account, error) {
	const op = "service.AccountService.ListAccounts"
	logger := s.log.With(slog.String("op", op), slog.Int64("actorID", actorID))

	actor, err := s.accountRepo.GetAccountByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: failed to get actor: %w", op, err)
	}
	if !actor.IsStaff {
		logger.Warn("non-staff user requested account list")
		return nil, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}

	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		logger.Error("failed to list accounts", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list accounts: %w", op, err)
	}
	return accounts, nil
}

func (s *accountService) DeleteAccount(ctx context.Context, actorID int64) error {
	const op = "service.AccountService.DeleteAccount"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actorID))

	if err := s.accountRepo.DeleteAccount(ctx, actorID); err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return fmt.Errorf("%s: %w: account", op, ErrNotFound)
		}
		if errors.Is(err, storage.ErrAccountInUse) {
			return fmt.Errorf("%s: %w: account owns catalog perfumes and cannot be deleted", op, ErrConflict)
		}
		logger.Error("failed to delete account", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete account: %w", op, err)
	}

	logger.Info("account deleted")
	return nil
}

// VerifyPassword сверяет пароль с хэшем аккаунта
func (s *accountService) VerifyPassword(ctx context.Context, email, password string) (bool, error) {
	const op = "service.AccountService.VerifyPassword"

	if password == "" {
		return false, fmt.Errorf("%s: %w: password is required", op, ErrBadRequest)
	}
	account, err := s.accountRepo.GetAccountByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return false, fmt.Errorf("%s: %w: user", op, ErrNotFound)
		}
		return false, fmt.Errorf("%s: failed to get account: %w", op, err)
	}
	return bcrypt.CompareHashAndPassword(account.PassHash, []byte(password)) == nil, nil
}
