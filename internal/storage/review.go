package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/perfume-shop/internal/domain/models"
)

// ReviewStorage описывает методы для работы с отзывами и ответами на них.
type ReviewStorage interface {
	CreateReview(ctx context.Context, review *models.Review) (*models.Review, error)
	GetReview(ctx context.Context, id int64) (*models.Review, error)
	// ListReviewsByPerfumes возвращает отзывы по нескольким ароматам одним запросом
	ListReviewsByPerfumes(ctx context.Context, perfumeIDs []int64) ([]*models.Review, error)
	ListReviewsByOffer(ctx context.Context, offerID int64) ([]*models.Review, error)
	DeleteReview(ctx context.Context, id int64) error
	CreateReply(ctx context.Context, reply *models.ReviewReply) (*models.ReviewReply, error)
	ListRepliesByReviews(ctx context.Context, reviewIDs []int64) ([]*models.ReviewReply, error)
	// DeleteReply удаляет ответ, только если он относится к указанному отзыву
	DeleteReply(ctx context.Context, reviewID, replyID int64) error
}

type reviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) ReviewStorage {
	return &reviewRepository{db: db}
}

// автор отзыва может быть удалён, поэтому LEFT JOIN
const reviewSelect = `
		SELECT r.id, r.perfume_id, r.offer_id, r.user_id, r.rating, r.comment, r.name, r.created_at,
		       a.email, a.first_name, a.last_name
		FROM reviews r
		LEFT JOIN accounts a ON r.user_id = a.id`

func scanReview(row rowScanner) (*models.Review, error) {
	rv := &models.Review{Replies: []models.ReviewReply{}}
	var (
		userID                     sql.NullInt64
		email, firstName, lastName sql.NullString
	)
	err := row.Scan(&rv.ID, &rv.PerfumeID, &rv.OfferID, &userID, &rv.Rating, &rv.Comment, &rv.Name, &rv.CreatedAt,
		&email, &firstName, &lastName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if userID.Valid {
		rv.UserID = userID.Int64
		rv.Author = &models.Account{
			ID:        userID.Int64,
			Email:     email.String,
			FirstName: firstName.String,
			LastName:  lastName.String,
		}
	}
	return rv, nil
}

func (r *reviewRepository) CreateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	query := `INSERT INTO reviews (perfume_id, offer_id, user_id, rating, comment, name)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		review.PerfumeID, review.OfferID, review.UserID, review.Rating, review.Comment, review.Name,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	if review.Replies == nil {
		review.Replies = []models.ReviewReply{}
	}
	return review, nil
}

func (r *reviewRepository) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	return scanReview(r.db.QueryRowContext(ctx, reviewSelect+"\n\t\tWHERE r.id = $1", id))
}

func (r *reviewRepository) ListReviewsByPerfumes(ctx context.Context, perfumeIDs []int64) ([]*models.Review, error) {
	if len(perfumeIDs) == 0 {
		return []*models.Review{}, nil
	}
	query := reviewSelect + "\n\t\tWHERE r.perfume_id = ANY($1)\n\t\tORDER BY r.created_at DESC"
	return r.listReviews(ctx, query, pq.Array(perfumeIDs))
}

func (r *reviewRepository) ListReviewsByOffer(ctx context.Context, offerID int64) ([]*models.Review, error) {
	query := reviewSelect + "\n\t\tWHERE r.offer_id = $1\n\t\tORDER BY r.created_at DESC"
	return r.listReviews(ctx, query, offerID)
}

func (r *reviewRepository) listReviews(ctx context.Context, query string, args ...any) ([]*models.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) DeleteReview(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return expectAffected(res, ErrReviewNotFound)
}

func (r *reviewRepository) CreateReply(ctx context.Context, reply *models.ReviewReply) (*models.ReviewReply, error) {
	query := `INSERT INTO review_replies (review_id, user_id, comment) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, reply.ReviewID, reply.UserID, reply.Comment).
		Scan(&reply.ID, &reply.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}
	return reply, nil
}

func (r *reviewRepository) ListRepliesByReviews(ctx context.Context, reviewIDs []int64) ([]*models.ReviewReply, error) {
	if len(reviewIDs) == 0 {
		return []*models.ReviewReply{}, nil
	}
	query := `
		SELECT rr.id, rr.review_id, rr.user_id, rr.comment, rr.created_at, a.email, a.first_name, a.last_name
		FROM review_replies rr
		JOIN accounts a ON rr.user_id = a.id
		WHERE rr.review_id = ANY($1)
		ORDER BY rr.created_at`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(reviewIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query replies: %w", err)
	}
	defer rows.Close()

	replies := []*models.ReviewReply{}
	for rows.Next() {
		reply := &models.ReviewReply{Author: &models.Account{}}
		if err := rows.Scan(&reply.ID, &reply.ReviewID, &reply.UserID, &reply.Comment, &reply.CreatedAt,
			&reply.Author.Email, &reply.Author.FirstName, &reply.Author.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		reply.Author.ID = reply.UserID
		replies = append(replies, reply)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return replies, nil
}

func (r *reviewRepository) DeleteReply(ctx context.Context, reviewID, replyID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM review_replies WHERE id = $1 AND review_id = $2", replyID, reviewID)
	if err != nil {
		return fmt.Errorf("failed to delete reply: %w", err)
	}
	return expectAffected(res, ErrReplyNotFound)
}
