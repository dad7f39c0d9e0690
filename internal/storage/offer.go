package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/perfume-shop/internal/domain/models"
)

// OfferStorage описывает методы для работы с предложениями продавцов.
type OfferStorage interface {
	CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	GetOffer(ctx context.Context, id int64) (*models.Offer, error)
	// GetSellerOffer ищет предложение только среди предложений продавца
	GetSellerOffer(ctx context.Context, sellerID, id int64) (*models.Offer, error)
	ListOffersByPerfume(ctx context.Context, perfumeID int64) ([]*models.Offer, error)
	ListOffersBySeller(ctx context.Context, sellerID int64) ([]*models.Offer, error)
	UpdateOffer(ctx context.Context, offer *models.Offer) error
	DeleteOffer(ctx context.Context, sellerID, id int64) error
}

type offerRepository struct {
	db *sql.DB
}

func NewOfferRepository(db *sql.DB) OfferStorage {
	return &offerRepository{db: db}
}

const offerColumns = `id, seller_id, perfume_id, brand_id, category_id, image1, image2, description,
	quantity, price_per_ml, created_at, updated_at`

func scanOffer(row rowScanner) (*models.Offer, error) {
	o := &models.Offer{}
	err := row.Scan(&o.ID, &o.SellerID, &o.PerfumeID, &o.BrandID, &o.CategoryID, &o.Image1, &o.Image2,
		&o.Description, &o.Quantity, &o.PricePerML, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *offerRepository) CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	query := `INSERT INTO offers (seller_id, perfume_id, brand_id, category_id, image1, image2, description, quantity, price_per_ml)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		offer.SellerID, offer.PerfumeID, offer.BrandID, offer.CategoryID, offer.Image1, offer.Image2,
		offer.Description, offer.Quantity, offer.PricePerML,
	).Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	return offer, nil
}

func (r *offerRepository) GetOffer(ctx context.Context, id int64) (*models.Offer, error) {
	return scanOffer(r.db.QueryRowContext(ctx, "SELECT "+offerColumns+" FROM offers WHERE id = $1", id))
}

func (r *offerRepository) GetSellerOffer(ctx context.Context, sellerID, id int64) (*models.Offer, error) {
	query := "SELECT " + offerColumns + " FROM offers WHERE seller_id = $1 AND id = $2"
	return scanOffer(r.db.QueryRowContext(ctx, query, sellerID, id))
}

func (r *offerRepository) ListOffersByPerfume(ctx context.Context, perfumeID int64) ([]*models.Offer, error) {
	return r.listOffers(ctx, "SELECT "+offerColumns+" FROM offers WHERE perfume_id = $1 ORDER BY price_per_ml, id", perfumeID)
}

func (r *offerRepository) ListOffersBySeller(ctx context.Context, sellerID int64) ([]*models.Offer, error) {
	return r.listOffers(ctx, "SELECT "+offerColumns+" FROM offers WHERE seller_id = $1 ORDER BY created_at DESC", sellerID)
}

func (r *offerRepository) listOffers(ctx context.Context, query string, args ...any) ([]*models.Offer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	offers := []*models.Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return offers, nil
}

// UpdateOffer не трогает продавца, аромат и категорию
func (r *offerRepository) UpdateOffer(ctx context.Context, offer *models.Offer) error {
	query := `UPDATE offers SET image1 = $1, image2 = $2, description = $3, quantity = $4, price_per_ml = $5,
	          updated_at = NOW()
	          WHERE id = $6 AND seller_id = $7`
	res, err := r.db.ExecContext(ctx, query, offer.Image1, offer.Image2, offer.Description, offer.Quantity,
		offer.PricePerML, offer.ID, offer.SellerID)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}
	return expectAffected(res, ErrOfferNotFound)
}

func (r *offerRepository) DeleteOffer(ctx context.Context, sellerID, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM offers WHERE id = $1 AND seller_id = $2", id, sellerID)
	if err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	return expectAffected(res, ErrOfferNotFound)
}
