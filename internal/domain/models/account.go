package models

import "time"

// Account представляет пользователя маркетплейса (покупателя или продавца)
type Account struct {
	ID                int64     `json:"id"`
	Email             string    `json:"email"`
	PassHash          []byte    `json:"-"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	PhoneNumber       string    `json:"phone_number"`
	IsAdmin           bool      `json:"-"`
	IsStaff           bool      `json:"is_staff"`
	IsActive          bool      `json:"-"`
	IsSuperuser       bool      `json:"-"`
	IsConfirmed       bool      `json:"is_confirmed"`
	ConfirmationToken string    `json:"-"` // очищается после подтверждения
	DateJoined        time.Time `json:"date_joined"`
}

// FullName возвращает имя и фамилию через пробел
func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Profile - профиль продавца, который создаётся вместе с аккаунтом
type Profile struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"-"`
	AddressLine    string `json:"address_line"`
	City           string `json:"city"`
	ProfilePicture string `json:"profile_picture"`
	CouldSell      bool   `json:"could_sell"`
}

// IsComplete сообщает, достаточно ли данных для выставления предложений
func (p *Profile) IsComplete() bool {
	return p.AddressLine != "" && p.City != "" && p.ProfilePicture != ""
}
