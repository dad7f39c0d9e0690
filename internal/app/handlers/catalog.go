package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/perfume-shop/internal/domain/models"
	"github.com/linemk/perfume-shop/internal/service"
)

// SearchPerfumesHandler обрабатывает GET /api/perfumes/?perfume_name=&category_id=&brand_id=&gender_id=
func SearchPerfumesHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SearchPerfumesHandler"
		logger := log.With(slog.String("op", op))

		var (
			filter models.PerfumeFilter
			err    error
		)
		if filter.CategoryID, err = queryID(r, "category_id"); err != nil {
			writeError(w, logger, err)
			return
		}
		if filter.BrandID, err = queryID(r, "brand_id"); err != nil {
			writeError(w, logger, err)
			return
		}
		if filter.GenderID, err = queryID(r, "gender_id"); err != nil {
			writeError(w, logger, err)
			return
		}

		perfumes, err := catalog.Search(r.Context(), r.URL.Query().Get("perfume_name"), filter)
		if err != nil {
			logger.Error("search failed", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, perfumes)
	}
}

// FilteredProductsHandler обрабатывает GET /api/perfumes/filtered-products
func FilteredProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.FilteredProductsHandler"
		logger := log.With(slog.String("op", op))

		var (
			selection models.ProductSelection
			err       error
		)
		if selection.CategoryIDs, err = queryIDList(r, "selectedCategories"); err != nil {
			writeError(w, logger, err)
			return
		}
		if selection.BrandIDs, err = queryIDList(r, "selectedBrands"); err != nil {
			writeError(w, logger, err)
			return
		}
		if selection.GenderID, err = queryID(r, "selectedGender"); err != nil {
			writeError(w, logger, err)
			return
		}

		perfumes, err := catalog.FilterProducts(r.Context(), selection)
		if err != nil {
			logger.Error("filter failed", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, perfumes)
	}
}

// GetPerfumeHandler обрабатывает GET /api/perfumes/{id}
func GetPerfumeHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetPerfumeHandler"
		logger := log.With(slog.String("op", op))

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		perfume, err := catalog.GetPerfume(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, perfume)
	}
}

// UpdatePerfumeHandler обрабатывает PUT /api/perfumes/{id}
func UpdatePerfumeHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdatePerfumeHandler"
		logger := log.With(slog.String("op", op))

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		var req service.PerfumeUpdate
		if err := decodeAndValidate(r, &req); err != nil {
			logger.Warn("invalid request", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		perfume, err := catalog.UpdatePerfume(r.Context(), actorID(r), id, req)
		if err != nil {
			logger.Warn("failed to update perfume", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, perfume)
	}
}

// DeletePerfumeHandler обрабатывает DELETE /api/perfumes/{id}
func DeletePerfumeHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeletePerfumeHandler"
		logger := log.With(slog.String("op", op))

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if err := catalog.DeletePerfume(r.Context(), actorID(r), id); err != nil {
			logger.Warn("failed to delete perfume", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// BrandsHandler обрабатывает GET /api/perfumes/brands
func BrandsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.BrandsHandler"))
		brands, err := catalog.ListBrands(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, brands)
	}
}

// CategoriesHandler обрабатывает GET /api/perfumes/categories
func CategoriesHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.CategoriesHandler"))
		categories, err := catalog.ListCategories(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, categories)
	}
}

// GendersHandler обрабатывает GET /api/perfumes/genders
func GendersHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.GendersHandler"))
		genders, err := catalog.ListGenders(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, genders)
	}
}
