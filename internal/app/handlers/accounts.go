package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linemk/perfume-shop/internal/domain/models"
	"github.com/linemk/perfume-shop/internal/service"
)

// RegisterRequest - тело запроса регистрации
type RegisterRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=50"`
	LastName    string `json:"last_name" validate:"required,max=50"`
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
	Email       string `json:"email" validate:"required,email,max=100"`
	Password    string `json:"password" validate:"required,min=8"`
}

type RegisterResponse struct {
	User   *models.Account `json:"user"`
	Access string          `json:"access"`
}

// LoginRequest - тело запроса входа
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type LoginResponse struct {
	User    *models.Account `json:"user"`
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
}

// ProfileRequest - частичное обновление профиля, отсутствующие поля не меняются
type ProfileRequest struct {
	FirstName      *string `json:"first_name" validate:"omitempty,max=50"`
	LastName       *string `json:"last_name" validate:"omitempty,max=50"`
	Email          *string `json:"email" validate:"omitempty,email,max=100"`
	PhoneNumber    *string `json:"phone_number" validate:"omitempty,max=20"`
	Password       *string `json:"password"`
	AddressLine    *string `json:"address_line" validate:"omitempty,max=100"`
	City           *string `json:"city" validate:"omitempty,max=20"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,max=255"`
}

type ProfileResponse struct {
	User    *models.Account `json:"user"`
	Profile *models.Profile `json:"profile"`
}

type VerifyPasswordRequest struct {
	Password string `json:"password"`
}

type VerifyPasswordResponse struct {
	Verified bool `json:"verified"`
}

// RegisterHandler обрабатывает POST /api/accounts/register
func RegisterHandler(log *slog.Logger, accounts service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterRequest
		if err := decodeAndValidate(r, &req); err != nil {
			logger.Warn("invalid request", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		account, access, err := accounts.Register(r.Context(), service.RegisterInput{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			PhoneNumber: req.PhoneNumber,
			Email:       req.Email,
			Password:    req.Password,
		})
		if err != nil {
			logger.Error("registration failed", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, RegisterResponse{User: account, Access: access})
	}
}

// LoginHandler обрабатывает POST /api/accounts/login
func LoginHandler(log *slog.Logger, accounts service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
		if err := decodeAndValidate(r, &req); err != nil {
			logger.Warn("invalid request", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		account, pair, err := accounts.Login(r.Context(), req.Email, req.Password, req.RememberMe)
		if err != nil {
			logger.Warn("login failed", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, LoginResponse{User: account, Access: pair.Access, Refresh: pair.Refresh})
	}
}

// ConfirmEmailHandler обрабатывает GET /api/accounts/confirm-email/{token}
func ConfirmEmailHandler(log *slog.Logger, accounts service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ConfirmEmailHandler"
		logger := log.With(slog.String("op", op))

		if _, err := accounts.ConfirmEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
			logger.Warn("confirmation failed", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		writeDetail(w, logger, http.StatusOK, "Email confirmed successfully")
	}
}

// GetProfileHandler обрабатывает GET /api/accounts/profile
func GetProfileHandler(log *slog.Logger, accounts service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProfileHandler"
		logger := log.With(slog.String("op", op))

		account, profile, err := accounts.GetProfile(r.Context(), actorID(r))
		if err != nil {
			logger.Error("failed to get profile", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, ProfileResponse{User: account, Profile: profile})
	}
}

// UpdateProfileHandler обрабатывает PUT /api/accounts/profile
func UpdateProfileHandler(log *slog.Logger, accounts service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProfileHandler"
		logger := log.With(slog.String("op", op))

		var req ProfileRequest
		if err := decodeAndValidate(r, &req); err != nil {
			logger.Warn("invalid request", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		account, profile, err := accounts.UpdateProfile(r.Context(), actorID(r), service.ProfileUpdate{
			FirstName:      req.FirstName,
			LastName:       req.LastName,
			Email:          req.Email,
			PhoneNumber:    req.PhoneNumber,
			Password:       req.Password,
			AddressLine:    req.AddressLine,
			City:           req.City,
			ProfilePicture: req.ProfilePicture,
		})
		if err != nil {
			logger.Error("failed to update profile", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, ProfileResponse{User: account, Profile: profile})
	}
}

// ListAccountsHandler обрабатывает GET /api/accounts/ (только персонал)
func ListAccountsHandler(log *slog.Logger, accounts service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListAccountsHandler"
		logger := log.With(slog.String("op", op))

		list, err := accounts.ListAccounts(r.Context(), actorID(r))
		if err != nil {
			logger.Warn("failed to list accounts", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// DeleteAccountHandler обрабатывает DELETE /api/accounts/delete
func DeleteAccountHandler(log *slog.Logger, accounts service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteAccountHandler"
		logger := log.With(slog.String("op", op))

		if err := accounts.DeleteAccount(r.Context(), actorID(r)); err != nil {
			logger.Error("failed to delete account", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// VerifyPasswordHandler обрабатывает POST /api/accounts/{email}
func VerifyPasswordHandler(log *slog.Logger, accounts service.AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.VerifyPasswordHandler"
		logger := log.With(slog.String("op", op))

		var req VerifyPasswordRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		ok, err := accounts.VerifyPassword(r.Context(), chi.URLParam(r, "email"), req.Password)
		if err != nil {
			logger.Warn("password verification failed", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		status := http.StatusOK
		if !ok {
			status = http.StatusBadRequest
		}
		writeJSON(w, logger, status, VerifyPasswordResponse{Verified: ok})
	}
}
