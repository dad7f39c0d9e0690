package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linemk/perfume-shop/internal/domain/models"
	"github.com/linemk/perfume-shop/internal/service"
)

type reviewFixture struct {
	accounts *fakeAccountRepo
	reviews  *fakeReviewRepo
	offers   *fakeOfferRepo
	svc      service.ReviewService

	author, stranger, staff *models.Account
}

func newReviewFixture() *reviewFixture {
	f := &reviewFixture{
		accounts: newFakeAccountRepo(),
		reviews:  newFakeReviewRepo(),
		offers:   newFakeOfferRepo(),
	}
	f.author = f.accounts.add(&models.Account{Email: "author@example.com"})
	f.stranger = f.accounts.add(&models.Account{Email: "stranger@example.com"})
	f.staff = f.accounts.add(&models.Account{Email: "staff@example.com", IsStaff: true})
	f.offers.offers[7] = &models.Offer{ID: 7, PerfumeID: 1, SellerID: f.stranger.ID}

	catalog := newFakeCatalogRepo(&models.Perfume{ID: 1, Name: "Chanel No. 5"})
	f.svc = service.NewReviewService(discardLogger(), f.reviews, catalog, f.offers, f.accounts)
	return f
}

func perfumeTarget(id int64) service.ReviewTarget { return service.ReviewTarget{PerfumeID: ptr(id)} }
func offerTarget(id int64) service.ReviewTarget   { return service.ReviewTarget{OfferID: ptr(id)} }

func TestReviewService_CreateReview_Targets(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()
	in := service.ReviewInput{Rating: ptr(11), Comment: ptr("lovely")}

	review, err := f.svc.CreateReview(ctx, f.author.ID, perfumeTarget(1), in)
	assert.NoError(t, err)
	assert.Equal(t, 11, *review.Rating, "rating is not bounded")
	assert.Nil(t, review.OfferID)
	assert.Equal(t, f.author.Email, review.Author.Email)

	_, err = f.svc.CreateReview(ctx, f.author.ID, service.ReviewTarget{PerfumeID: ptr(int64(1)), OfferID: ptr(int64(7))}, in)
	assert.ErrorIs(t, err, service.ErrBadRequest, "both targets")

	_, err = f.svc.CreateReview(ctx, f.author.ID, service.ReviewTarget{}, in)
	assert.ErrorIs(t, err, service.ErrBadRequest, "no target")

	_, err = f.svc.CreateReview(ctx, f.author.ID, perfumeTarget(404), in)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.CreateReview(ctx, f.author.ID, offerTarget(404), in)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestReviewService_ListReviews_OfferTakesPrecedence(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	_, err := f.svc.CreateReview(ctx, f.author.ID, perfumeTarget(1), service.ReviewInput{Comment: ptr("perfume")})
	assert.NoError(t, err)
	onOffer, err := f.svc.CreateReview(ctx, f.author.ID, offerTarget(7), service.ReviewInput{Comment: ptr("offer")})
	assert.NoError(t, err)
	_, err = f.svc.CreateReply(ctx, f.stranger.ID, onOffer.ID, "thanks")
	assert.NoError(t, err)

	list, err := f.svc.ListReviews(ctx, service.ReviewTarget{PerfumeID: ptr(int64(1)), OfferID: ptr(int64(7))})
	assert.NoError(t, err)
	if assert.Len(t, list, 1) {
		assert.Equal(t, "offer", *list[0].Comment)
		if assert.Len(t, list[0].Replies, 1) {
			assert.Equal(t, "thanks", list[0].Replies[0].Comment)
		}
	}

	list, err = f.svc.ListReviews(ctx, perfumeTarget(1))
	assert.NoError(t, err)
	if assert.Len(t, list, 1) {
		assert.Equal(t, "perfume", *list[0].Comment)
	}
}

func TestReviewService_DeleteReview_Authorization(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	create := func() int64 {
		rv, err := f.svc.CreateReview(ctx, f.author.ID, perfumeTarget(1), service.ReviewInput{Comment: ptr("x")})
		assert.NoError(t, err)
		return rv.ID
	}

	id := create()
	err := f.svc.DeleteReview(ctx, f.stranger.ID, id, perfumeTarget(1))
	assert.ErrorIs(t, err, service.ErrPermissionDenied)
	assert.Contains(t, f.reviews.reviews, id)

	assert.NoError(t, f.svc.DeleteReview(ctx, f.author.ID, id, perfumeTarget(1)))

	id = create()
	assert.NoError(t, f.svc.DeleteReview(ctx, f.staff.ID, id, perfumeTarget(1)))

	err = f.svc.DeleteReview(ctx, f.author.ID, id, perfumeTarget(1))
	assert.ErrorIs(t, err, service.ErrNotFound)

	id = create()
	err = f.svc.DeleteReview(ctx, f.author.ID, id, offerTarget(7))
	assert.ErrorIs(t, err, service.ErrNotFound, "review belongs to the perfume, not the offer")
}

func TestReviewService_Replies(t *testing.T) {
	f := newReviewFixture()
	ctx := context.Background()

	rv, err := f.svc.CreateReview(ctx, f.author.ID, perfumeTarget(1), service.ReviewInput{Comment: ptr("x")})
	assert.NoError(t, err)
	other, err := f.svc.CreateReview(ctx, f.author.ID, perfumeTarget(1), service.ReviewInput{Comment: ptr("y")})
	assert.NoError(t, err)

	reply, err := f.svc.CreateReply(ctx, f.stranger.ID, rv.ID, "agree")
	assert.NoError(t, err)
	assert.Equal(t, f.stranger.Email, reply.Author.Email)

	_, err = f.svc.CreateReply(ctx, f.stranger.ID, rv.ID, "")
	assert.ErrorIs(t, err, service.ErrBadRequest)
	_, err = f.svc.CreateReply(ctx, f.stranger.ID, 404, "hi")
	assert.ErrorIs(t, err, service.ErrNotFound)

	replies, err := f.svc.ListReplies(ctx, rv.ID)
	assert.NoError(t, err)
	assert.Len(t, replies, 1)

	assert.ErrorIs(t, f.svc.DeleteReply(ctx, f.author.ID, rv.ID, nil), service.ErrBadRequest)
	assert.ErrorIs(t, f.svc.DeleteReply(ctx, f.author.ID, other.ID, ptr(reply.ID)), service.ErrNotFound)

	// автор ответа не проверяется
	assert.NoError(t, f.svc.DeleteReply(ctx, f.author.ID, rv.ID, ptr(reply.ID)))

	replies, err = f.svc.ListReplies(ctx, rv.ID)
	assert.NoError(t, err)
	assert.Empty(t, replies)
}
