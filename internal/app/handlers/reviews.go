package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/perfume-shop/internal/service"
)

// ReviewRequest - тело отзыва. Offer=true означает, что id в пути - это id предложения.
type ReviewRequest struct {
	service.ReviewInput
	Offer bool `json:"offer"`
}

type ReplyRequest struct {
	Comment string `json:"comment" validate:"required"`
}

// reviewTarget: ?offerId= имеет приоритет над id аромата из пути
func reviewTarget(r *http.Request) (service.ReviewTarget, error) {
	perfumeID, err := pathID(r, "id")
	if err != nil {
		return service.ReviewTarget{}, err
	}
	offerID, err := queryID(r, "offerId")
	if err != nil {
		return service.ReviewTarget{}, err
	}
	if offerID != nil {
		return service.ReviewTarget{OfferID: offerID}, nil
	}
	return service.ReviewTarget{PerfumeID: &perfumeID}, nil
}

// ListReviewsHandler обрабатывает GET /api/perfumes/reviews/{id}?offerId=
func ListReviewsHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListReviewsHandler"
		logger := log.With(slog.String("op", op))

		target, err := reviewTarget(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		list, err := reviews.ListReviews(r.Context(), target)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, list)
	}
}

// CreateReviewHandler обрабатывает POST /api/perfumes/reviews/{id}
func CreateReviewHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateReviewHandler"
		logger := log.With(slog.String("op", op))

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		var req ReviewRequest
		if err := decodeAndValidate(r, &req); err != nil {
			logger.Warn("invalid request", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		target := service.ReviewTarget{PerfumeID: &id}
		if req.Offer {
			target = service.ReviewTarget{OfferID: &id}
		}

		review, err := reviews.CreateReview(r.Context(), actorID(r), target, req.ReviewInput)
		if err != nil {
			logger.Warn("failed to create review", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, review)
	}
}

// DeleteReviewHandler обрабатывает DELETE /api/perfumes/reviews/{id}/{reviewID}?offerId=
func DeleteReviewHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteReviewHandler"
		logger := log.With(slog.String("op", op))

		scope, err := reviewTarget(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		reviewID, err := pathID(r, "reviewID")
		if err != nil {
			writeError(w, logger, err)
			return
		}

		if err := reviews.DeleteReview(r.Context(), actorID(r), reviewID, scope); err != nil {
			logger.Warn("failed to delete review", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListRepliesHandler обрабатывает GET /api/perfumes/reviews/{id}/replies
func ListRepliesHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListRepliesHandler"
		logger := log.With(slog.String("op", op))

		reviewID, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		replies, err := reviews.ListReplies(r.Context(), reviewID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, replies)
	}
}

// CreateReplyHandler обрабатывает POST /api/perfumes/reviews/{id}/replies
func CreateReplyHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateReplyHandler"
		logger := log.With(slog.String("op", op))

		reviewID, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		var req ReplyRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, logger, err)
			return
		}

		reply, err := reviews.CreateReply(r.Context(), actorID(r), reviewID, req.Comment)
		if err != nil {
			logger.Warn("failed to create reply", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, reply)
	}
}

// DeleteReplyHandler обрабатывает DELETE /api/perfumes/reviews/{id}/replies?reply_id=
func DeleteReplyHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteReplyHandler"
		logger := log.With(slog.String("op", op))

		reviewID, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		replyID, err := queryID(r, "reply_id")
		if err != nil {
			writeError(w, logger, err)
			return
		}

		if err := reviews.DeleteReply(r.Context(), actorID(r), reviewID, replyID); err != nil {
			logger.Warn("failed to delete reply", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
