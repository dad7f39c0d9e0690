package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Gender struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Perfume - карточка аромата в каталоге. Цена для витрины вычисляется по предложениям.
type Perfume struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"user_id"` // создатель карточки
	Name        string           `json:"name"`
	Price       *decimal.Decimal `json:"-"`
	Description string           `json:"description"`
	Type        string           `json:"type"`
	FirstNote   string           `json:"first_note"`
	HeartNote   string           `json:"heart_note"`
	LastNote    string           `json:"last_note"`
	Image       string           `json:"image"`
	Brand       Brand            `json:"brand"`
	Category    Category         `json:"category"`
	Gender      Gender           `json:"gender"`
	PriceRange  PriceRange       `json:"-"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Offer - предложение продавца по конкретному аромату
type Offer struct {
	ID          int64           `json:"id"`
	SellerID    int64           `json:"seller"`
	PerfumeID   int64           `json:"perfume"`
	BrandID     int64           `json:"brand"`
	CategoryID  *int64          `json:"category"` // копируется из аромата при создании
	Image1      string          `json:"image1"`
	Image2      string          `json:"image2"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	PricePerML  decimal.Decimal `json:"price_per_ml"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PerfumeFilter - фильтры по справочникам, применяемые поверх текстового поиска
type PerfumeFilter struct {
	CategoryID *int64
	BrandID    *int64
	GenderID   *int64
}

// ProductSelection - мультивыбор для страницы фильтрации товаров
type ProductSelection struct {
	CategoryIDs []int64
	BrandIDs    []int64
	GenderID    *int64
}
