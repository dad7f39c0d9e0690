package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/perfume-shop/internal/domain/models"
	"github.com/linemk/perfume-shop/internal/storage"
)

// ReviewTarget - к чему относится отзыв: ровно одно из полей заполнено
type ReviewTarget struct {
	PerfumeID *int64
	OfferID   *int64
}

func (t ReviewTarget) valid() bool {
	return (t.PerfumeID == nil) != (t.OfferID == nil)
}

// matches проверяет, что отзыв относится к цели. Предложение имеет приоритет.
func (t ReviewTarget) matches(rv *models.Review) bool {
	if t.OfferID != nil {
		return rv.OfferID != nil && *rv.OfferID == *t.OfferID
	}
	if t.PerfumeID != nil {
		return rv.PerfumeID != nil && *rv.PerfumeID == *t.PerfumeID
	}
	return true
}

// ReviewInput - содержимое отзыва. Рейтинг не ограничивается диапазоном.
type ReviewInput struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
	Name    *string `json:"name" validate:"omitempty,max=200"`
}

type ReviewService interface {
	CreateReview(ctx context.Context, actorID int64, target ReviewTarget, in ReviewInput) (*models.Review, error)
	ListReviews(ctx context.Context, target ReviewTarget) ([]*models.Review, error)
	DeleteReview(ctx context.Context, actorID, reviewID int64, scope ReviewTarget) error
	CreateReply(ctx context.Context, actorID, reviewID int64, comment string) (*models.ReviewReply, error)
	ListReplies(ctx context.Context, reviewID int64) ([]models.ReviewReply, error)
	// DeleteReply: replyID == nil означает, что параметр не передан
	DeleteReply(ctx context.Context, actorID, reviewID int64, replyID *int64) error
}

type reviewService struct {
	log         *slog.Logger
	reviewRepo  storage.ReviewStorage
	catalogRepo storage.CatalogStorage
	offerRepo   storage.OfferStorage
	accountRepo storage.AccountStorage
}

func NewReviewService(
	log *slog.Logger,
	reviewRepo storage.ReviewStorage,
	catalogRepo storage.CatalogStorage,
	offerRepo storage.OfferStorage,
	accountRepo storage.AccountStorage,
) ReviewService {
	return &reviewService{
		log:         log,
		reviewRepo:  reviewRepo,
		catalogRepo: catalogRepo,
		offerRepo:   offerRepo,
		accountRepo: accountRepo,
	}
}

func (s *reviewService) CreateReview(ctx context.Context, actorID int64, target ReviewTarget, in ReviewInput) (*models.Review, error) {
	const op = "service.ReviewService.CreateReview"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actorID))

	if !target.valid() {
		return nil, fmt.Errorf("%s: %w: review must target either a perfume or an offer", op, ErrBadRequest)
	}
	if err := s.ensureTarget(ctx, target); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	review, err := s.reviewRepo.CreateReview(ctx, &models.Review{
		PerfumeID: target.PerfumeID,
		OfferID:   target.OfferID,
		UserID:    actorID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		Name:      in.Name,
	})
	if err != nil {
		logger.Error("failed to create review", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create review: %w", op, err)
	}
	if author, err := s.accountRepo.GetAccountByID(ctx, actorID); err == nil {
		review.Author = author
	}

	logger.Info("review created", slog.Int64("reviewID", review.ID))
	return review, nil
}

func (s *reviewService) ensureTarget(ctx context.Context, target ReviewTarget) error {
	if target.OfferID != nil {
		if _, err := s.offerRepo.GetOffer(ctx, *target.OfferID); err != nil {
			if errors.Is(err, storage.ErrOfferNotFound) {
				return fmt.Errorf("%w: offer", ErrNotFound)
			}
			return fmt.Errorf("failed to get offer: %w", err)
		}
		return nil
	}
	if _, err := s.catalogRepo.GetPerfume(ctx, *target.PerfumeID); err != nil {
		if errors.Is(err, storage.ErrPerfumeNotFound) {
			return fmt.Errorf("%w: perfume", ErrNotFound)
		}
		return fmt.Errorf("failed to get perfume: %w", err)
	}
	return nil
}

// ListReviews возвращает отзывы предложения, если оно указано, иначе отзывы аромата
func (s *reviewService) ListReviews(ctx context.Context, target ReviewTarget) ([]*models.Review, error) {
	const op = "service.ReviewService.ListReviews"

	var (
		reviews []*models.Review
		err     error
	)
	switch {
	case target.OfferID != nil:
		reviews, err = s.reviewRepo.ListReviewsByOffer(ctx, *target.OfferID)
	case target.PerfumeID != nil:
		reviews, err = s.reviewRepo.ListReviewsByPerfumes(ctx, []int64{*target.PerfumeID})
	default:
		return nil, fmt.Errorf("%s: %w: perfume or offer is required", op, ErrBadRequest)
	}
	if err != nil {
		s.log.Error("failed to list reviews", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list reviews: %w", op, err)
	}
	if err := attachReplies(ctx, s.reviewRepo, reviews); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reviews, nil
}

// DeleteReview разрешено автору отзыва и персоналу
func (s *reviewService) DeleteReview(ctx context.Context, actorID, reviewID int64, scope ReviewTarget) error {
	const op = "service.ReviewService.DeleteReview"
	logger := s.log.With(slog.String("op", op), slog.Int64("reviewID", reviewID), slog.Int64("actorID", actorID))

	review, err := s.reviewRepo.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, storage.ErrReviewNotFound) {
			return fmt.Errorf("%s: %w: review", op, ErrNotFound)
		}
		return fmt.Errorf("%s: failed to get review: %w", op, err)
	}
	if !scope.matches(review) {
		return fmt.Errorf("%s: %w: review", op, ErrNotFound)
	}

	if review.UserID != actorID {
		staff, err := isStaff(ctx, s.accountRepo, actorID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !staff {
			logger.Warn("attempt to delete someone else's review")
			return fmt.Errorf("%s: %w: you do not have permission to delete this review", op, ErrPermissionDenied)
		}
	}

	if err := s.reviewRepo.DeleteReview(ctx, reviewID); err != nil {
		if errors.Is(err, storage.ErrReviewNotFound) {
			return fmt.Errorf("%s: %w: review", op, ErrNotFound)
		}
		logger.Error("failed to delete review", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete review: %w", op, err)
	}

	logger.Info("review deleted")
	return nil
}

func (s *reviewService) CreateReply(ctx context.Context, actorID, reviewID int64, comment string) (*models.ReviewReply, error) {
	const op = "service.ReviewService.CreateReply"
	logger := s.log.With(slog.String("op", op), slog.Int64("reviewID", reviewID), slog.Int64("userID", actorID))

	if comment == "" {
		return nil, fmt.Errorf("%s: %w: comment is required", op, ErrBadRequest)
	}
	if _, err := s.reviewRepo.GetReview(ctx, reviewID); err != nil {
		if errors.Is(err, storage.ErrReviewNotFound) {
			return nil, fmt.Errorf("%s: %w: review", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get review: %w", op, err)
	}

	reply, err := s.reviewRepo.CreateReply(ctx, &models.ReviewReply{ReviewID: reviewID, UserID: actorID, Comment: comment})
	if err != nil {
		logger.Error("failed to create reply", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create reply: %w", op, err)
	}
	if author, err := s.accountRepo.GetAccountByID(ctx, actorID); err == nil {
		reply.Author = author
	}

	logger.Info("reply created", slog.Int64("replyID", reply.ID))
	return reply, nil
}

func (s *reviewService) ListReplies(ctx context.Context, reviewID int64) ([]models.ReviewReply, error) {
	const op = "service.ReviewService.ListReplies"

	if _, err := s.reviewRepo.GetReview(ctx, reviewID); err != nil {
		if errors.Is(err, storage.ErrReviewNotFound) {
			return nil, fmt.Errorf("%s: %w: review", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get review: %w", op, err)
	}
	replies, err := s.reviewRepo.ListRepliesByReviews(ctx, []int64{reviewID})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list replies: %w", op, err)
	}
	out := make([]models.ReviewReply, 0, len(replies))
	for _, r := range replies {
		out = append(out, *r)
	}
	return out, nil
}

// DeleteReply не проверяет автора ответа
func (s *reviewService) DeleteReply(ctx context.Context, actorID, reviewID int64, replyID *int64) error {
	const op = "service.ReviewService.DeleteReply"
	logger := s.log.With(slog.String("op", op), slog.Int64("reviewID", reviewID), slog.Int64("actorID", actorID))

	if replyID == nil {
		return fmt.Errorf("%s: %w: reply_id is required", op, ErrBadRequest)
	}
	if err := s.reviewRepo.DeleteReply(ctx, reviewID, *replyID); err != nil {
		if errors.Is(err, storage.ErrReplyNotFound) {
			return fmt.Errorf("%s: %w: reply", op, ErrNotFound)
		}
		logger.Error("failed to delete reply", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete reply: %w", op, err)
	}

	logger.Info("reply deleted", slog.Int64("replyID", *replyID))
	return nil
}

// attachReplies раскладывает ответы по отзывам одним запросом
func attachReplies(ctx context.Context, repo storage.ReviewStorage, reviews []*models.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(reviews))
	byID := make(map[int64]*models.Review, len(reviews))
	for _, rv := range reviews {
		ids = append(ids, rv.ID)
		byID[rv.ID] = rv
	}

	replies, err := repo.ListRepliesByReviews(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to list replies: %w", err)
	}
	for _, reply := range replies {
		if rv, ok := byID[reply.ReviewID]; ok {
			rv.Replies = append(rv.Replies, *reply)
		}
	}
	return nil
}
