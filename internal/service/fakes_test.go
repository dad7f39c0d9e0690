package service_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/linemk/perfume-shop/internal/domain/models"
	security "github.com/linemk/perfume-shop/internal/jwt-new"
	"github.com/linemk/perfume-shop/internal/notify"
	"github.com/linemk/perfume-shop/internal/search"
	"github.com/linemk/perfume-shop/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// fakeAccountRepo - аккаунты в памяти
type fakeAccountRepo struct {
	accounts map[int64]*models.Account
	nextID   int64
	// raceOnCreate имитирует параллельную вставку аккаунта с тем же email
	raceOnCreate bool
}

var _ storage.AccountStorage = (*fakeAccountRepo)(nil)

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[int64]*models.Account)}
}

func (f *fakeAccountRepo) add(a *models.Account) *models.Account {
	f.nextID++
	a.ID = f.nextID
	a.IsActive = true
	f.accounts[a.ID] = a
	return a
}

// byEmail сравнивает без учёта регистра, как LOWER(email) в хранилище
func (f *fakeAccountRepo) byEmail(email string) (*models.Account, error) {
	for _, a := range f.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return nil, storage.ErrAccountNotFound
}

func (f *fakeAccountRepo) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return f.byEmail(email)
}

func (f *fakeAccountRepo) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, storage.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeAccountRepo) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	out := make([]*models.Account, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAccountRepo) GetAccountByEmailTx(ctx context.Context, tx *sql.Tx, email string) (*models.Account, error) {
	return f.byEmail(email)
}

func (f *fakeAccountRepo) CreateAccount(ctx context.Context, tx *sql.Tx, account *models.Account) (*models.Account, error) {
	if f.raceOnCreate {
		f.raceOnCreate = false
		f.add(&models.Account{Email: account.Email, FirstName: "Concurrent"})
		return nil, storage.ErrAccountExists
	}
	if _, err := f.byEmail(account.Email); err == nil {
		return nil, storage.ErrAccountExists
	}
	return f.add(account), nil
}

// LockAccountByIDTx отдаёт копию, как если бы строка читалась из БД
func (f *fakeAccountRepo) LockAccountByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Account, error) {
	a, err := f.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccountRepo) UpdateAccount(ctx context.Context, tx *sql.Tx, account *models.Account) error {
	if other, err := f.byEmail(account.Email); err == nil && other.ID != account.ID {
		return storage.ErrAccountExists
	}
	if _, ok := f.accounts[account.ID]; !ok {
		return storage.ErrAccountNotFound
	}
	cp := *account
	f.accounts[account.ID] = &cp
	return nil
}

func (f *fakeAccountRepo) ConfirmAccount(ctx context.Context, token string) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.ConfirmationToken == token && !a.IsConfirmed {
			a.IsConfirmed = true
			a.ConfirmationToken = ""
			return a, nil
		}
	}
	return nil, storage.ErrAccountNotFound
}

func (f *fakeAccountRepo) DeleteAccount(ctx context.Context, id int64) error {
	if _, ok := f.accounts[id]; !ok {
		return storage.ErrAccountNotFound
	}
	delete(f.accounts, id)
	return nil
}

// fakeProfileRepo - профили по userID
type fakeProfileRepo struct {
	profiles map[int64]*models.Profile
}

var _ storage.ProfileStorage = (*fakeProfileRepo)(nil)

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[int64]*models.Profile)}
}

func (f *fakeProfileRepo) EnsureProfile(ctx context.Context, tx *sql.Tx, userID int64) error {
	if _, ok := f.profiles[userID]; !ok {
		f.profiles[userID] = &models.Profile{ID: int64(len(f.profiles) + 1), UserID: userID}
	}
	return nil
}

func (f *fakeProfileRepo) GetProfileByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, storage.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepo) GetProfileByUserIDTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Profile, error) {
	return f.GetProfileByUserID(ctx, userID)
}

func (f *fakeProfileRepo) UpdateProfile(ctx context.Context, tx *sql.Tx, profile *models.Profile) error {
	if _, ok := f.profiles[profile.UserID]; !ok {
		return storage.ErrProfileNotFound
	}
	cp := *profile
	f.profiles[profile.UserID] = &cp
	return nil
}

// fakeOrderRepo - позиции и заказы; prices задаёт цену за мл для известных предложений
type fakeOrderRepo struct {
	prices map[int64]decimal.Decimal
	items  map[int64]*models.OrderItem
	orders []*models.Order
	nextID int64
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo(prices map[int64]decimal.Decimal) *fakeOrderRepo {
	return &fakeOrderRepo{prices: prices, items: make(map[int64]*models.OrderItem)}
}

func (f *fakeOrderRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeOrderRepo) CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) (*models.OrderItem, error) {
	price, ok := f.prices[item.OfferID]
	if !ok {
		return nil, storage.ErrOfferNotFound
	}
	item.ID = f.id()
	item.PricePerML = price
	item.CreatedAt = time.Now()
	f.items[item.ID] = item
	return item, nil
}

func (f *fakeOrderRepo) GetLatestOrderByUserTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Order, error) {
	for i := len(f.orders) - 1; i >= 0; i-- {
		if f.orders[i].UserID == userID {
			return f.orders[i], nil
		}
	}
	return nil, storage.ErrOrderNotFound
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, tx *sql.Tx, userID int64) (*models.Order, error) {
	order := &models.Order{ID: f.id(), UserID: userID, Items: []*models.OrderItem{}, CreatedAt: time.Now()}
	f.orders = append(f.orders, order)
	return order, nil
}

func (f *fakeOrderRepo) AttachItem(ctx context.Context, tx *sql.Tx, orderID, itemID int64) error {
	for _, o := range f.orders {
		if o.ID == orderID {
			o.Items = append(o.Items, f.items[itemID])
			return nil
		}
	}
	return storage.ErrOrderNotFound
}

func (f *fakeOrderRepo) GetOrderTx(ctx context.Context, tx *sql.Tx, orderID int64) (*models.Order, error) {
	for _, o := range f.orders {
		if o.ID == orderID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, storage.ErrOrderNotFound
}

func (f *fakeOrderRepo) GetOrderItem(ctx context.Context, id int64) (*models.OrderItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, storage.ErrOrderItemNotFound
	}
	return item, nil
}

func (f *fakeOrderRepo) DeleteOrderItem(ctx context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return storage.ErrOrderItemNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	out := []*models.Order{}
	for i := len(f.orders) - 1; i >= 0; i-- {
		if f.orders[i].UserID == userID {
			out = append(out, f.orders[i])
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ordersOf(userID int64) int {
	n := 0
	for _, o := range f.orders {
		if o.UserID == userID {
			n++
		}
	}
	return n
}

// fakeCatalogRepo - ароматы в памяти, запоминает последние критерии поиска
type fakeCatalogRepo struct {
	perfumes     map[int64]*models.Perfume
	lastCriteria search.Criteria
	lastFilter   models.PerfumeFilter
}

var _ storage.CatalogStorage = (*fakeCatalogRepo)(nil)

func newFakeCatalogRepo(perfumes ...*models.Perfume) *fakeCatalogRepo {
	f := &fakeCatalogRepo{perfumes: make(map[int64]*models.Perfume)}
	for _, p := range perfumes {
		f.perfumes[p.ID] = p
	}
	return f
}

func (f *fakeCatalogRepo) sorted() []*models.Perfume {
	out := make([]*models.Perfume, 0, len(f.perfumes))
	for _, p := range f.perfumes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeCatalogRepo) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	return []*models.Brand{{ID: 1, Name: "Chanel"}}, nil
}

func (f *fakeCatalogRepo) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return []*models.Category{{ID: 1, Name: "Woody"}}, nil
}

func (f *fakeCatalogRepo) ListGenders(ctx context.Context) ([]*models.Gender, error) {
	return []*models.Gender{{ID: 1, Name: "Unisex"}}, nil
}

// SearchPerfumes повторяет SQL-предикат через Criteria.Match
func (f *fakeCatalogRepo) SearchPerfumes(ctx context.Context, criteria search.Criteria, filter models.PerfumeFilter) ([]*models.Perfume, error) {
	f.lastCriteria, f.lastFilter = criteria, filter
	out := []*models.Perfume{}
	for _, p := range f.sorted() {
		if filter.CategoryID != nil && p.Category.ID != *filter.CategoryID {
			continue
		}
		if filter.BrandID != nil && p.Brand.ID != *filter.BrandID {
			continue
		}
		if filter.GenderID != nil && p.Gender.ID != *filter.GenderID {
			continue
		}
		if criteria.Match(search.Perfume{
			Name: p.Name, Description: p.Description,
			FirstNote: p.FirstNote, HeartNote: p.HeartNote, LastNote: p.LastNote,
		}) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) FilterPerfumes(ctx context.Context, selection models.ProductSelection) ([]*models.Perfume, error) {
	return f.sorted(), nil
}

func (f *fakeCatalogRepo) GetPerfume(ctx context.Context, id int64) (*models.Perfume, error) {
	p, ok := f.perfumes[id]
	if !ok {
		return nil, storage.ErrPerfumeNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCatalogRepo) UpdatePerfume(ctx context.Context, perfume *models.Perfume) error {
	if _, ok := f.perfumes[perfume.ID]; !ok {
		return storage.ErrPerfumeNotFound
	}
	cp := *perfume
	f.perfumes[perfume.ID] = &cp
	return nil
}

func (f *fakeCatalogRepo) DeletePerfume(ctx context.Context, id int64) error {
	if _, ok := f.perfumes[id]; !ok {
		return storage.ErrPerfumeNotFound
	}
	delete(f.perfumes, id)
	return nil
}

// fakeOfferRepo - предложения в памяти
type fakeOfferRepo struct {
	offers map[int64]*models.Offer
	nextID int64
}

var _ storage.OfferStorage = (*fakeOfferRepo)(nil)

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{offers: make(map[int64]*models.Offer)}
}

func (f *fakeOfferRepo) CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	f.nextID++
	offer.ID = f.nextID
	f.offers[offer.ID] = offer
	return offer, nil
}

func (f *fakeOfferRepo) GetOffer(ctx context.Context, id int64) (*models.Offer, error) {
	o, ok := f.offers[id]
	if !ok {
		return nil, storage.ErrOfferNotFound
	}
	return o, nil
}

func (f *fakeOfferRepo) GetSellerOffer(ctx context.Context, sellerID, id int64) (*models.Offer, error) {
	o, ok := f.offers[id]
	if !ok || o.SellerID != sellerID {
		return nil, storage.ErrOfferNotFound
	}
	return o, nil
}

func (f *fakeOfferRepo) ListOffersByPerfume(ctx context.Context, perfumeID int64) ([]*models.Offer, error) {
	out := []*models.Offer{}
	for _, o := range f.offers {
		if o.PerfumeID == perfumeID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOfferRepo) ListOffersBySeller(ctx context.Context, sellerID int64) ([]*models.Offer, error) {
	out := []*models.Offer{}
	for _, o := range f.offers {
		if o.SellerID == sellerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOfferRepo) UpdateOffer(ctx context.Context, offer *models.Offer) error {
	o, ok := f.offers[offer.ID]
	if !ok || o.SellerID != offer.SellerID {
		return storage.ErrOfferNotFound
	}
	f.offers[offer.ID] = offer
	return nil
}

func (f *fakeOfferRepo) DeleteOffer(ctx context.Context, sellerID, id int64) error {
	o, ok := f.offers[id]
	if !ok || o.SellerID != sellerID {
		return storage.ErrOfferNotFound
	}
	delete(f.offers, id)
	return nil
}

// fakeReviewRepo - отзывы и ответы в памяти
type fakeReviewRepo struct {
	reviews map[int64]*models.Review
	replies map[int64]*models.ReviewReply
	nextID  int64
}

var _ storage.ReviewStorage = (*fakeReviewRepo)(nil)

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[int64]*models.Review), replies: make(map[int64]*models.ReviewReply)}
}

func (f *fakeReviewRepo) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeReviewRepo) CreateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	review.ID = f.id()
	review.Replies = []models.ReviewReply{}
	f.reviews[review.ID] = review
	return review, nil
}

func (f *fakeReviewRepo) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	rv, ok := f.reviews[id]
	if !ok {
		return nil, storage.ErrReviewNotFound
	}
	return rv, nil
}

func (f *fakeReviewRepo) list(keep func(*models.Review) bool) []*models.Review {
	out := []*models.Review{}
	for _, rv := range f.reviews {
		if keep(rv) {
			cp := *rv
			cp.Replies = []models.ReviewReply{}
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeReviewRepo) ListReviewsByPerfumes(ctx context.Context, perfumeIDs []int64) ([]*models.Review, error) {
	ids := make(map[int64]bool, len(perfumeIDs))
	for _, id := range perfumeIDs {
		ids[id] = true
	}
	return f.list(func(rv *models.Review) bool { return rv.PerfumeID != nil && ids[*rv.PerfumeID] }), nil
}

func (f *fakeReviewRepo) ListReviewsByOffer(ctx context.Context, offerID int64) ([]*models.Review, error) {
	return f.list(func(rv *models.Review) bool { return rv.OfferID != nil && *rv.OfferID == offerID }), nil
}

func (f *fakeReviewRepo) DeleteReview(ctx context.Context, id int64) error {
	if _, ok := f.reviews[id]; !ok {
		return storage.ErrReviewNotFound
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeReviewRepo) CreateReply(ctx context.Context, reply *models.ReviewReply) (*models.ReviewReply, error) {
	reply.ID = f.id()
	f.replies[reply.ID] = reply
	return reply, nil
}

func (f *fakeReviewRepo) ListRepliesByReviews(ctx context.Context, reviewIDs []int64) ([]*models.ReviewReply, error) {
	ids := make(map[int64]bool, len(reviewIDs))
	for _, id := range reviewIDs {
		ids[id] = true
	}
	out := []*models.ReviewReply{}
	for _, r := range f.replies {
		if ids[r.ReviewID] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReviewRepo) DeleteReply(ctx context.Context, reviewID, replyID int64) error {
	r, ok := f.replies[replyID]
	if !ok || r.ReviewID != reviewID {
		return storage.ErrReplyNotFound
	}
	delete(f.replies, replyID)
	return nil
}

// fakeNotifier запоминает отправленные сообщения
type fakeNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

var _ notify.Dispatcher = (*fakeNotifier)(nil)

func (f *fakeNotifier) Dispatch(ctx context.Context, msg notify.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

// fakeTokens выдаёт предсказуемые токены
type fakeTokens struct{}

func (fakeTokens) Issue(ctx context.Context, account *models.Account, rememberMe bool) (*security.TokenPair, error) {
	refresh := "refresh"
	if rememberMe {
		refresh = "refresh-long"
	}
	return &security.TokenPair{Access: "access", Refresh: refresh}, nil
}

func (fakeTokens) AccessToken(ctx context.Context, account *models.Account) (string, error) {
	return "access", nil
}
