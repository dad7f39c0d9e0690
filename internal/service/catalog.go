package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/perfume-shop/internal/domain/models"
	"github.com/linemk/perfume-shop/internal/search"
	"github.com/linemk/perfume-shop/internal/storage"
)

// PerfumeView - аромат для выдачи: с подписью диапазона цен и отзывами
type PerfumeView struct {
	*models.Perfume
	PriceRange string           `json:"price_range"`
	Reviews    []*models.Review `json:"reviews"`
}

// PerfumeUpdate - редактируемые поля аромата
type PerfumeUpdate struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"max=100"`
	FirstNote   string `json:"first_note" validate:"max=255"`
	HeartNote   string `json:"heart_note" validate:"max=255"`
	LastNote    string `json:"last_note" validate:"max=255"`
	BrandID     int64  `json:"brand" validate:"required,gt=0"`
	CategoryID  int64  `json:"category" validate:"required,gt=0"`
	GenderID    int64  `json:"gender" validate:"required,gt=0"`
}

type CatalogService interface {
	Search(ctx context.Context, query string, filter models.PerfumeFilter) ([]*PerfumeView, error)
	FilterProducts(ctx context.Context, selection models.ProductSelection) ([]*PerfumeView, error)
	GetPerfume(ctx context.Context, id int64) (*PerfumeView, error)
	UpdatePerfume(ctx context.Context, actorID, id int64, upd PerfumeUpdate) (*PerfumeView, error)
	DeletePerfume(ctx context.Context, actorID, id int64) error
	ListBrands(ctx context.Context) ([]*models.Brand, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	ListGenders(ctx context.Context) ([]*models.Gender, error)
}

type catalogService struct {
	log         *slog.Logger
	catalogRepo storage.CatalogStorage
	reviewRepo  storage.ReviewStorage
	accountRepo storage.AccountStorage
}

func NewCatalogService(
	log *slog.Logger,
	catalogRepo storage.CatalogStorage,
	reviewRepo storage.ReviewStorage,
	accountRepo storage.AccountStorage,
) CatalogService {
	return &catalogService{
		log:         log,
		catalogRepo: catalogRepo,
		reviewRepo:  reviewRepo,
		accountRepo: accountRepo,
	}
}

// Search - фильтрация каталога по свободному тексту и справочникам, без ранжирования
func (s *catalogService) Search(ctx context.Context, query string, filter models.PerfumeFilter) ([]*PerfumeView, error) {
	const op = "service.CatalogService.Search"
	criteria := search.Parse(query)
	logger := s.log.With(slog.String("op", op), slog.String("query", query), slog.Int("fragments", len(criteria.Fragments)))

	perfumes, err := s.catalogRepo.SearchPerfumes(ctx, criteria, filter)
	if err != nil {
		logger.Error("failed to search perfumes", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to search perfumes: %w", op, err)
	}
	logger.Debug("search finished", slog.Int("found", len(perfumes)))
	return s.withReviews(ctx, perfumes)
}

func (s *catalogService) FilterProducts(ctx context.Context, selection models.ProductSelection) ([]*PerfumeView, error) {
	const op = "service.CatalogService.FilterProducts"

	perfumes, err := s.catalogRepo.FilterPerfumes(ctx, selection)
	if err != nil {
		s.log.Error("failed to filter perfumes", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to filter perfumes: %w", op, err)
	}
	return s.withReviews(ctx, perfumes)
}

func (s *catalogService) GetPerfume(ctx context.Context, id int64) (*PerfumeView, error) {
	const op = "service.CatalogService.GetPerfume"

	perfume, err := s.catalogRepo.GetPerfume(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrPerfumeNotFound) {
			return nil, fmt.Errorf("%s: %w: perfume", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: failed to get perfume: %w", op, err)
	}
	views, err := s.withReviews(ctx, []*models.Perfume{perfume})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return views[0], nil
}

func (s *catalogService) UpdatePerfume(ctx context.Context, actorID, id int64, upd PerfumeUpdate) (*PerfumeView, error) {
	const op = "service.CatalogService.UpdatePerfume"
	logger := s.log.With(slog.String("op", op), slog.Int64("perfumeID", id), slog.Int64("actorID", actorID))

	perfume, err := s.authorizePerfume(ctx, actorID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	perfume.Name = upd.Name
	perfume.Description = upd.Description
	perfume.Type = upd.Type
	perfume.FirstNote = upd.FirstNote
	perfume.HeartNote = upd.HeartNote
	perfume.LastNote = upd.LastNote
	perfume.Brand.ID = upd.BrandID
	perfume.Category.ID = upd.CategoryID
	perfume.Gender.ID = upd.GenderID

	if err := s.catalogRepo.UpdatePerfume(ctx, perfume); err != nil {
		if errors.Is(err, storage.ErrPerfumeNotFound) {
			return nil, fmt.Errorf("%s: %w: perfume", op, ErrNotFound)
		}
		logger.Error("failed to update perfume", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update perfume: %w", op, err)
	}

	logger.Info("perfume updated")
	return s.GetPerfume(ctx, id)
}

func (s *catalogService) DeletePerfume(ctx context.Context, actorID, id int64) error {
	const op = "service.CatalogService.DeletePerfume"
	logger := s.log.With(slog.String("op", op), slog.Int64("perfumeID", id), slog.Int64("actorID", actorID))

	if _, err := s.authorizePerfume(ctx, actorID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.catalogRepo.DeletePerfume(ctx, id); err != nil {
		if errors.Is(err, storage.ErrPerfumeNotFound) {
			return fmt.Errorf("%s: %w: perfume", op, ErrNotFound)
		}
		logger.Error("failed to delete perfume", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete perfume: %w", op, err)
	}

	logger.Info("perfume deleted")
	return nil
}

// authorizePerfume пропускает только создателя аромата и персонал
func (s *catalogService) authorizePerfume(ctx context.Context, actorID, id int64) (*models.Perfume, error) {
	perfume, err := s.catalogRepo.GetPerfume(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrPerfumeNotFound) {
			return nil, fmt.Errorf("%w: perfume", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get perfume: %w", err)
	}
	if perfume.UserID == actorID {
		return perfume, nil
	}
	staff, err := isStaff(ctx, s.accountRepo, actorID)
	if err != nil {
		return nil, err
	}
	if !staff {
		return nil, fmt.Errorf("%w: only the creator or staff may modify this perfume", ErrPermissionDenied)
	}
	return perfume, nil
}

func (s *catalogService) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	brands, err := s.catalogRepo.ListBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.CatalogService.ListBrands: %w", err)
	}
	return brands, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.catalogRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.CatalogService.ListCategories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) ListGenders(ctx context.Context) ([]*models.Gender, error) {
	genders, err := s.catalogRepo.ListGenders(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.CatalogService.ListGenders: %w", err)
	}
	return genders, nil
}

// withReviews подтягивает отзывы с ответами для всех ароматов двумя запросами
func (s *catalogService) withReviews(ctx context.Context, perfumes []*models.Perfume) ([]*PerfumeView, error) {
	ids := make([]int64, 0, len(perfumes))
	for _, p := range perfumes {
		ids = append(ids, p.ID)
	}

	reviews, err := s.reviewRepo.ListReviewsByPerfumes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	if err := attachReplies(ctx, s.reviewRepo, reviews); err != nil {
		return nil, err
	}

	byPerfume := make(map[int64][]*models.Review, len(perfumes))
	for _, rv := range reviews {
		if rv.PerfumeID != nil {
			byPerfume[*rv.PerfumeID] = append(byPerfume[*rv.PerfumeID], rv)
		}
	}

	views := make([]*PerfumeView, 0, len(perfumes))
	for _, p := range perfumes {
		list := byPerfume[p.ID]
		if list == nil {
			list = []*models.Review{}
		}
		views = append(views, &PerfumeView{Perfume: p, PriceRange: p.PriceRange.Label(), Reviews: list})
	}
	return views, nil
}

func isStaff(ctx context.Context, accountRepo storage.AccountStorage, actorID int64) (bool, error) {
	actor, err := accountRepo.GetAccountByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return false, ErrUnauthorized
		}
		return false, fmt.Errorf("failed to get actor: %w", err)
	}
	return actor.IsStaff, nil
}
