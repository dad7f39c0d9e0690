package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GuestContact - контактные данные незарегистрированного покупателя
type GuestContact struct {
	FirstName   string `json:"non_registered_first_name,omitempty"`
	LastName    string `json:"non_registered_last_name,omitempty"`
	Email       string `json:"non_registered_email,omitempty"`
	PhoneNumber string `json:"non_registered_phone_number,omitempty"`
}

// Delivery - параметры доставки позиции заказа
type Delivery struct {
	City           string `json:"city"`
	District       string `json:"district"`
	DeliveryMethod string `json:"delivery_method"`
	DeliveryBranch string `json:"delivery_branch,omitempty"`
}

// OrderItem - позиция заказа. После оформления всегда принадлежит конкретному аккаунту.
type OrderItem struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user"`
	OfferID   int64         `json:"offer"`
	Quantity  int           `json:"quantity"`
	Guest     *GuestContact `json:"guest,omitempty"`
	Delivery
	PricePerML decimal.Decimal `json:"-"` // подтягивается JOIN-ом с offers
	CreatedAt  time.Time       `json:"created_at"`
}

// Price - стоимость позиции: количество × цена за мл. В БД не хранится.
func (i *OrderItem) Price() decimal.Decimal {
	return i.PricePerML.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order - заказ пользователя, в котором накапливаются позиции
type Order struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"-"`
	User      *Account     `json:"user"`
	Items     []*OrderItem `json:"items"`
	CreatedAt time.Time    `json:"created_at"`
}
