package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/perfume-shop/internal/domain/models"
	"github.com/linemk/perfume-shop/internal/notify"
	"github.com/linemk/perfume-shop/internal/storage"
	"github.com/shopspring/decimal"
)

// OfferInput - поля предложения, которые задаёт продавец.
// Продавец, бренд и категория в запросе не принимаются.
type OfferInput struct {
	PerfumeID   int64           `json:"perfume" validate:"required,gt=0"`
	Image1      string          `json:"image1" validate:"max=255"`
	Image2      string          `json:"image2" validate:"max=255"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity" validate:"gte=0,lte=1000000"`
	PricePerML  decimal.Decimal `json:"price_per_ml"`
}

// maxPricePerML - верхняя граница столбца offers.price_per_ml NUMERIC(10, 2)
var maxPricePerML = decimal.RequireFromString("99999999.99")

func checkPrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("%w: price_per_ml must be positive", ErrBadRequest)
	}
	if price.GreaterThan(maxPricePerML) {
		return fmt.Errorf("%w: price_per_ml must not exceed %s", ErrBadRequest, maxPricePerML.StringFixed(2))
	}
	return nil
}

type OfferService interface {
	CreateOffer(ctx context.Context, actorID int64, in OfferInput) (*models.Offer, error)
	GetOffer(ctx context.Context, id int64) (*models.Offer, error)
	ListPerfumeOffers(ctx context.Context, perfumeID int64) ([]*models.Offer, error)
	ListSellerOffers(ctx context.Context, actorID int64) ([]*models.Offer, error)
	UpdateOffer(ctx context.Context, actorID, id int64, in OfferInput) (*models.Offer, error)
	DeleteOffer(ctx context.Context, actorID, id int64) error
}

type offerService struct {
	log         *slog.Logger
	offerRepo   storage.OfferStorage
	catalogRepo storage.CatalogStorage
	accountRepo storage.AccountStorage
	profileRepo storage.ProfileStorage
	notifier    notify.Dispatcher
}

func NewOfferService(
	log *slog.Logger,
	offerRepo storage.OfferStorage,
	catalogRepo storage.CatalogStorage,
	accountRepo storage.AccountStorage,
	profileRepo storage.ProfileStorage,
	notifier notify.Dispatcher,
) OfferService {
	return &offerService{
		log:         log,
		offerRepo:   offerRepo,
		catalogRepo: catalogRepo,
		accountRepo: accountRepo,
		profileRepo: profileRepo,
		notifier:    notifier,
	}
}

// CreateOffer выставляет предложение от имени actor. Категория и бренд копируются из аромата.
func (s *offerService) CreateOffer(ctx context.Context, actorID int64, in OfferInput) (*models.Offer, error) {
	const op = "service.OfferService.CreateOffer"
	logger := s.log.With(slog.String("op", op), slog.Int64("sellerID", actorID), slog.Int64("perfumeID", in.PerfumeID))

	if err := checkPrice(in.PricePerML); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profile, err := s.profileRepo.GetProfileByUserID(ctx, actorID)
	if err != nil && !errors.Is(err, storage.ErrProfileNotFound) {
		logger.Error("failed to get profile", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get profile: %w", op, err)
	}
	if profile == nil || !profile.CouldSell {
		logger.Warn("seller profile is incomplete")
		return nil, fmt.Errorf("%s: %w: complete your profile (address, city, picture) before selling", op, ErrPermissionDenied)
	}

	perfume, err := s.catalogRepo.GetPerfume(ctx, in.PerfumeID)
	if err != nil {
		if errors.Is(err, storage.ErrPerfumeNotFound) {
			return nil, fmt.Errorf("%s: %w: perfume", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get perfume: %w", op, err)
	}

	categoryID := perfume.Category.ID
	offer, err := s.offerRepo.CreateOffer(ctx, &models.Offer{
		SellerID:    actorID,
		PerfumeID:   perfume.ID,
		BrandID:     perfume.Brand.ID,
		CategoryID:  &categoryID,
		Image1:      in.Image1,
		Image2:      in.Image2,
		Description: in.Description,
		Quantity:    in.Quantity,
		PricePerML:  in.PricePerML,
	})
	if err != nil {
		logger.Error("failed to create offer", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create offer: %w", op, err)
	}

	if seller, err := s.accountRepo.GetAccountByID(ctx, actorID); err == nil {
		s.notifier.Dispatch(ctx, notify.Message{Kind: notify.KindOfferCreated, Recipient: seller.Email, Offer: offer})
	} else {
		logger.Warn("offer created but seller lookup failed, notification skipped", slog.Any("error", err))
	}

	logger.Info("offer created", slog.Int64("offerID", offer.ID))
	return offer, nil
}

func (s *offerService) GetOffer(ctx context.Context, id int64) (*models.Offer, error) {
	const op = "service.OfferService.GetOffer"

	offer, err := s.offerRepo.GetOffer(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrOfferNotFound) {
			return nil, fmt.Errorf("%s: %w: offer", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get offer: %w", op, err)
	}
	return offer, nil
}

func (s *offerService) ListPerfumeOffers(ctx context.Context, perfumeID int64) ([]*models.Offer, error) {
	const op = "service.OfferService.ListPerfumeOffers"

	if _, err := s.catalogRepo.GetPerfume(ctx, perfumeID); err != nil {
		if errors.Is(err, storage.ErrPerfumeNotFound) {
			return nil, fmt.Errorf("%s: %w: perfume", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get perfume: %w", op, err)
	}
	offers, err := s.offerRepo.ListOffersByPerfume(ctx, perfumeID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list offers: %w", op, err)
	}
	return offers, nil
}

func (s *offerService) ListSellerOffers(ctx context.Context, actorID int64) ([]*models.Offer, error) {
	const op = "service.OfferService.ListSellerOffers"

	offers, err := s.offerRepo.ListOffersBySeller(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list offers: %w", op, err)
	}
	return offers, nil
}

// UpdateOffer доступен только продавцу. Чужое предложение выглядит как несуществующее.
func (s *offerService) UpdateOffer(ctx context.Context, actorID, id int64, in OfferInput) (*models.Offer, error) {
	const op = "service.OfferService.UpdateOffer"
	logger := s.log.With(slog.String("op", op), slog.Int64("offerID", id), slog.Int64("sellerID", actorID))

	if err := checkPrice(in.PricePerML); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	offer, err := s.offerRepo.GetSellerOffer(ctx, actorID, id)
	if err != nil {
		if errors.Is(err, storage.ErrOfferNotFound) {
			return nil, fmt.Errorf("%s: %w: offer", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get offer: %w", op, err)
	}

	offer.Image1 = in.Image1
	offer.Image2 = in.Image2
	offer.Description = in.Description
	offer.Quantity = in.Quantity
	offer.PricePerML = in.PricePerML

	if err := s.offerRepo.UpdateOffer(ctx, offer); err != nil {
		if errors.Is(err, storage.ErrOfferNotFound) {
			return nil, fmt.Errorf("%s: %w: offer", op, ErrNotFound)
		}
		logger.Error("failed to update offer", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update offer: %w", op, err)
	}

	logger.Info("offer updated")
	return offer, nil
}

func (s *offerService) DeleteOffer(ctx context.Context, actorID, id int64) error {
	const op = "service.OfferService.DeleteOffer"
	logger := s.log.With(slog.String("op", op), slog.Int64("offerID", id), slog.Int64("sellerID", actorID))

	if err := s.offerRepo.DeleteOffer(ctx, actorID, id); err != nil {
		if errors.Is(err, storage.ErrOfferNotFound) {
			return fmt.Errorf("%s: %w: offer", op, ErrNotFound)
		}
		logger.Error("failed to delete offer", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete offer: %w", op, err)
	}

	logger.Info("offer deleted")
	return nil
}
