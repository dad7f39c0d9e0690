package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/perfume-shop/internal/service"
)

// CreateOfferHandler обрабатывает POST /api/perfumes/offers. Продавец берётся из токена.
func CreateOfferHandler(log *slog.Logger, offers service.OfferService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOfferHandler"
		logger := log.With(slog.String("op", op))

		var req service.OfferInput
		if err := decodeAndValidate(r, &req); err != nil {
			logger.Warn("invalid request", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		offer, err := offers.CreateOffer(r.Context(), actorID(r), req)
		if err != nil {
			logger.Warn("failed to create offer", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, offer)
	}
}

// SellerOffersHandler обрабатывает GET /api/perfumes/offers?offer-user=1
func SellerOffersHandler(log *slog.Logger, offers service.OfferService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SellerOffersHandler"
		logger := log.With(slog.String("op", op))

		if r.URL.Query().Get("offer-user") == "" {
			writeDetail(w, logger, http.StatusBadRequest, "offer-user parameter is required")
			return
		}
		list, err := offers.ListSellerOffers(r.Context(), actorID(r))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// PerfumeOffersHandler обрабатывает GET /api/perfumes/offers/{id}
func PerfumeOffersHandler(log *slog.Logger, offers service.OfferService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PerfumeOffersHandler"
		logger := log.With(slog.String("op", op))

		perfumeID, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		list, err := offers.ListPerfumeOffers(r.Context(), perfumeID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// GetOfferHandler обрабатывает GET /api/perfumes/offer-detail/{id}
func GetOfferHandler(log *slog.Logger, offers service.OfferService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOfferHandler"
		logger := log.With(slog.String("op", op))

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		offer, err := offers.GetOffer(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, offer)
	}
}

// UpdateOfferHandler обрабатывает PUT /api/perfumes/offer-detail/{id}
func UpdateOfferHandler(log *slog.Logger, offers service.OfferService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOfferHandler"
		logger := log.With(slog.String("op", op))

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		var req service.OfferInput
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		offer, err := offers.UpdateOffer(r.Context(), actorID(r), id, req)
		if err != nil {
			logger.Warn("failed to update offer", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, offer)
	}
}

// DeleteOfferHandler обрабатывает DELETE /api/perfumes/offer-detail/{id}
func DeleteOfferHandler(log *slog.Logger, offers service.OfferService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteOfferHandler"
		logger := log.With(slog.String("op", op))

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if err := offers.DeleteOffer(r.Context(), actorID(r), id); err != nil {
			logger.Warn("failed to delete offer", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
