package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/perfume-shop/internal/domain/models"
)

// ProfileStorage описывает методы для работы с профилями продавцов.
type ProfileStorage interface {
	// EnsureProfile создаёт пустой профиль, если его ещё нет
	EnsureProfile(ctx context.Context, tx *sql.Tx, userID int64) error
	GetProfileByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	GetProfileByUserIDTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Profile, error)
	UpdateProfile(ctx context.Context, tx *sql.Tx, profile *models.Profile) error
}

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) ProfileStorage {
	return &profileRepository{db: db}
}

const profileQuery = `SELECT id, user_id, address_line, city, profile_picture, could_sell FROM profiles WHERE user_id = $1`

func scanProfile(row rowScanner) (*models.Profile, error) {
	p := &models.Profile{}
	if err := row.Scan(&p.ID, &p.UserID, &p.AddressLine, &p.City, &p.ProfilePicture, &p.CouldSell); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) EnsureProfile(ctx context.Context, tx *sql.Tx, userID int64) error {
	_, err := tx.ExecContext(ctx, "INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING", userID)
	if err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}
	return nil
}

func (r *profileRepository) GetProfileByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx, profileQuery, userID))
}

func (r *profileRepository) GetProfileByUserIDTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Profile, error) {
	return scanProfile(tx.QueryRowContext(ctx, profileQuery, userID))
}

func (r *profileRepository) UpdateProfile(ctx context.Context, tx *sql.Tx, profile *models.Profile) error {
	query := `UPDATE profiles SET address_line = $1, city = $2, profile_picture = $3, could_sell = $4
	          WHERE user_id = $5`
	res, err := tx.ExecContext(ctx, query,
		profile.AddressLine, profile.City, profile.ProfilePicture, profile.CouldSell, profile.UserID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProfileNotFound
	}
	return nil
}
