package storage_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/linemk/perfume-shop/internal/domain/models"
	"github.com/linemk/perfume-shop/internal/search"
	"github.com/linemk/perfume-shop/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var accountCols = []string{"id", "email", "pass_hash", "first_name", "last_name", "phone_number",
	"is_admin", "is_staff", "is_active", "is_superuser", "is_confirmed", "confirmation_token", "date_joined"}

func accountRow(id int64, email string) []driver.Value {
	return []driver.Value{id, email, []byte("hashed"), "Olena", "Koval", "+380501112233",
		false, false, true, false, true, "", time.Now()}
}

var perfumeCols = []string{"id", "user_id", "name", "price", "description", "type", "first_note", "heart_note",
	"last_note", "image", "created_at", "updated_at", "b_id", "b_name", "c_id", "c_name", "g_id", "g_name",
	"min", "max"}

func perfumeRow(id int64, name string, min, max any) []driver.Value {
	now := time.Now()
	return []driver.Value{id, 1, name, nil, "floral", "EDP", "bergamot", "rose", "musk", "",
		now, now, 1, "Chanel", 2, "Woody", 1, "Unisex", min, max}
}

func TestGetAccountByEmail_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewAccountRepository(db)
	email := "buyer@example.com"

	rows := sqlmock.NewRows(accountCols).AddRow(accountRow(7, email)...)
	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE LOWER\\(email\\) = LOWER\\(\\$1\\)").WithArgs(email).WillReturnRows(rows)

	account, err := repo.GetAccountByEmail(context.Background(), email)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), account.ID)
	assert.Equal(t, email, account.Email)
	assert.True(t, account.IsConfirmed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewAccountRepository(db)
	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE LOWER\\(email\\) = LOWER\\(\\$1\\)").
		WithArgs("nobody@example.com").WillReturnRows(sqlmock.NewRows(accountCols))

	account, err := repo.GetAccountByEmail(context.Background(), "nobody@example.com")
	assert.Nil(t, account)
	assert.True(t, errors.Is(err, storage.ErrAccountNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccount_UniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewAccountRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(&pq.Error{Code: "23505"})

	account, err := repo.CreateAccount(ctx, tx, &models.Account{Email: "dup@example.com"})
	assert.Nil(t, account)
	assert.True(t, errors.Is(err, storage.ErrAccountExists))

	mock.ExpectRollback()
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccount_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewAccountRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	token := "tok"
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs("new@example.com", []byte("hash"), "Ivan", "Petrenko", "+380", false, false, token).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date_joined"}).AddRow(11, time.Now()))

	account, err := repo.CreateAccount(ctx, tx, &models.Account{
		Email:             "new@example.com",
		PassHash:          []byte("hash"),
		FirstName:         "Ivan",
		LastName:          "Petrenko",
		PhoneNumber:       "+380",
		ConfirmationToken: token,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(11), account.ID)
	assert.True(t, account.IsActive)

	mock.ExpectCommit()
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmAccount_InvalidToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewAccountRepository(db)
	mock.ExpectQuery("UPDATE accounts SET is_confirmed = TRUE").
		WithArgs("missing").WillReturnRows(sqlmock.NewRows(accountCols))

	account, err := repo.ConfirmAccount(context.Background(), "missing")
	assert.Nil(t, account)
	assert.True(t, errors.Is(err, storage.ErrAccountNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPerfumes_TextAndFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCatalogRepository(db)
	categoryID := int64(2)

	rows := sqlmock.NewRows(perfumeCols).AddRow(perfumeRow(1, "Rose Noir", "100.00", "150.00")...)
	mock.ExpectQuery(`STRPOS\(LOWER\(REPLACE\(p\.name, ' ', ''\)\), \$1\) > 0 OR STRPOS\(LOWER\(p\.name\), \$2\) > 0`).
		WithArgs("rose", "rose", categoryID).
		WillReturnRows(rows)

	perfumes, err := repo.SearchPerfumes(context.Background(), search.Parse("Rose"), models.PerfumeFilter{CategoryID: &categoryID})
	assert.NoError(t, err)
	assert.Len(t, perfumes, 1)
	assert.Equal(t, "Rose Noir", perfumes[0].Name)
	assert.Equal(t, "Chanel", perfumes[0].Brand.Name)
	assert.Equal(t, "Від ₴100.00 до ₴150.00", perfumes[0].PriceRange.Label())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPerfumes_ShortQueryOnlyNormalizedName(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCatalogRepository(db)

	mock.ExpectQuery(`WHERE \(STRPOS\(LOWER\(REPLACE\(p\.name, ' ', ''\)\), \$1\) > 0\)`).
		WithArgs("oud").
		WillReturnRows(sqlmock.NewRows(perfumeCols).AddRow(perfumeRow(3, "Oud Wood", nil, nil)...))

	perfumes, err := repo.SearchPerfumes(context.Background(), search.Parse("oud"), models.PerfumeFilter{})
	assert.NoError(t, err)
	assert.Len(t, perfumes, 1)
	assert.Equal(t, "Пропозицій немає", perfumes[0].PriceRange.Label())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPerfumes_NoQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCatalogRepository(db)

	mock.ExpectQuery(`LEFT JOIN offers o ON o\.perfume_id = p\.id\s+GROUP BY`).
		WillReturnRows(sqlmock.NewRows(perfumeCols))

	perfumes, err := repo.SearchPerfumes(context.Background(), search.Parse(""), models.PerfumeFilter{})
	assert.NoError(t, err)
	assert.Empty(t, perfumes)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterPerfumes(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCatalogRepository(db)
	genderID := int64(1)

	mock.ExpectQuery(`p\.category_id = ANY\(\$1\) AND p\.brand_id = ANY\(\$2\) AND p\.gender_id = \$3`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), genderID).
		WillReturnRows(sqlmock.NewRows(perfumeCols).AddRow(perfumeRow(5, "Bleu", "90", nil)...))

	perfumes, err := repo.FilterPerfumes(context.Background(), models.ProductSelection{
		CategoryIDs: []int64{1, 2},
		BrandIDs:    []int64{3},
		GenderID:    &genderID,
	})
	assert.NoError(t, err)
	assert.Len(t, perfumes, 1)
	assert.Equal(t, "₴90.00", perfumes[0].PriceRange.Label())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPerfume_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCatalogRepository(db)
	mock.ExpectQuery(`WHERE p\.id = \$1`).WithArgs(int64(404)).WillReturnRows(sqlmock.NewRows(perfumeCols))

	perfume, err := repo.GetPerfume(context.Background(), 404)
	assert.Nil(t, perfume)
	assert.True(t, errors.Is(err, storage.ErrPerfumeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderItem_UnknownOffer(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_items")).
		WillReturnError(&pq.Error{Code: "23503"})

	item, err := repo.CreateOrderItem(ctx, tx, &models.OrderItem{UserID: 1, OfferID: 999, Quantity: 1})
	assert.Nil(t, item)
	assert.True(t, errors.Is(err, storage.ErrOfferNotFound))

	mock.ExpectRollback()
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderItem_Guest(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_items")).
		WithArgs(int64(4), int64(2), 3, "Kyiv", "Podil", "nova_poshta", "12",
			"Olena", "Koval", "guest@example.com", "+380").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "price_per_ml"}).AddRow(21, time.Now(), "150.00"))

	item, err := repo.CreateOrderItem(ctx, tx, &models.OrderItem{
		UserID:   4,
		OfferID:  2,
		Quantity: 3,
		Guest: &models.GuestContact{
			FirstName: "Olena", LastName: "Koval", Email: "guest@example.com", PhoneNumber: "+380",
		},
		Delivery: models.Delivery{City: "Kyiv", District: "Podil", DeliveryMethod: "nova_poshta", DeliveryBranch: "12"},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(21), item.ID)
	assert.True(t, decimal.RequireFromString("150").Equal(item.PricePerML))
	assert.Equal(t, "450", item.Price().String())

	mock.ExpectCommit()
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestOrderByUserTx_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	mock.ExpectQuery(`SELECT id, user_id, created_at FROM orders WHERE user_id = \$1`).
		WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "created_at"}))

	order, err := repo.GetLatestOrderByUserTx(ctx, tx, 1)
	assert.Nil(t, order)
	assert.True(t, errors.Is(err, storage.ErrOrderNotFound))

	mock.ExpectRollback()
	assert.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

var orderItemCols = []string{"id", "user_id", "offer_id", "quantity", "city", "district", "delivery_method",
	"delivery_branch", "fn", "ln", "email", "phone", "created_at", "price_per_ml", "order_id"}

func TestGetOrdersByUserID_WithItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	userID := int64(1)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, user_id, created_at FROM orders WHERE user_id = \$1 ORDER BY created_at DESC`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "created_at"}).
			AddRow(2, userID, now).
			AddRow(1, userID, now.Add(-time.Hour)))
	mock.ExpectQuery(`FROM order_order_items ooi`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(orderItemCols).
			AddRow(10, userID, 5, 2, "Lviv", "Centre", "courier", nil, nil, nil, nil, nil, now, "80.50", 1).
			AddRow(11, userID, 6, 1, "Lviv", "Centre", "courier", "7", nil, nil, nil, nil, now, "120", 1))

	orders, err := repo.GetOrdersByUserID(context.Background(), userID)
	assert.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Empty(t, orders[0].Items)
	assert.Len(t, orders[1].Items, 2)
	assert.Equal(t, "161", orders[1].Items[0].Price().String())
	assert.Equal(t, "7", orders[1].Items[1].DeliveryBranch)
	assert.Nil(t, orders[1].Items[0].Guest)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReply_WrongReview(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewReviewRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM review_replies WHERE id = $1 AND review_id = $2")).
		WithArgs(int64(5), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DeleteReply(context.Background(), 9, 5)
	assert.True(t, errors.Is(err, storage.ErrReplyNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReviewsByOffer(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewReviewRepository(db)
	offerID := int64(3)

	mock.ExpectQuery(`WHERE r\.offer_id = \$1`).
		WithArgs(offerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "perfume_id", "offer_id", "user_id", "rating", "comment",
			"name", "created_at", "email", "first_name", "last_name"}).
			AddRow(1, nil, offerID, 2, 5, "great", nil, time.Now(), "a@example.com", "Anna", "Bondar").
			AddRow(2, nil, offerID, nil, nil, nil, nil, time.Now(), nil, nil, nil))

	reviews, err := repo.ListReviewsByOffer(context.Background(), offerID)
	assert.NoError(t, err)
	assert.Len(t, reviews, 2)
	assert.Nil(t, reviews[0].PerfumeID)
	assert.Equal(t, offerID, *reviews[0].OfferID)
	assert.Equal(t, 5, *reviews[0].Rating)
	assert.Equal(t, "Anna", reviews[0].Author.FirstName)
	assert.Nil(t, reviews[1].Author)
	assert.Nil(t, reviews[1].Rating)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOffer_NotOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOfferRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM offers WHERE id = $1 AND seller_id = $2")).
		WithArgs(int64(8), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DeleteOffer(context.Background(), 2, 8)
	assert.True(t, errors.Is(err, storage.ErrOfferNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAccount_OwnsPerfumes(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewAccountRepository(db)
	mock.ExpectExec("DELETE FROM accounts WHERE id = \\$1").WithArgs(int64(3)).
		WillReturnError(&pq.Error{Code: "23503"})

	err = repo.DeleteAccount(context.Background(), 3)
	assert.ErrorIs(t, err, storage.ErrAccountInUse)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAccount_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewAccountRepository(db)
	mock.ExpectExec("DELETE FROM accounts WHERE id = \\$1").WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.DeleteAccount(context.Background(), 3), storage.ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
