package models

import "time"

// Review - отзыв, привязанный ровно к одному из: аромат или предложение
type Review struct {
	ID        int64         `json:"id"`
	PerfumeID *int64        `json:"perfume"`
	OfferID   *int64        `json:"offer"`
	UserID    int64         `json:"-"`
	Author    *Account      `json:"user"`
	Rating    *int          `json:"rating"`
	Comment   *string       `json:"comment"`
	Name      *string       `json:"name"`
	Replies   []ReviewReply `json:"replies"`
	CreatedAt time.Time     `json:"created_at"`
}

// ReviewReply - ответ на отзыв
type ReviewReply struct {
	ID        int64     `json:"id"`
	ReviewID  int64     `json:"-"`
	UserID    int64     `json:"-"`
	Author    *Account  `json:"user"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
