// Package notify отправляет письма пользователям: подтверждение почты, сброс пароля,
// уведомление о созданном предложении. Доставка не гарантируется.
package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/linemk/perfume-shop/internal/domain/models"
)

type Kind string

const (
	KindConfirm      Kind = "confirm"
	KindReset        Kind = "reset"
	KindOfferCreated Kind = "offer_created"
)

// Message - письмо, поставленное в очередь на отправку
type Message struct {
	Kind      Kind
	Recipient string
	Token     string
	// Password - пароль в открытом виде, только для аккаунтов, созданных при оформлении заказа
	Password string
	Offer    *models.Offer
}

// Dispatcher - точка входа для сервисов. Отправка best-effort, ошибки не возвращаются.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message)
}

// Sender - транспорт, который действительно доставляет письмо
type Sender interface {
	Send(ctx context.Context, mail Mail) error
}

// Mail - отрендеренное письмо
type Mail struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Renderer превращает Message в Mail
type Renderer struct {
	siteURL string
}

func NewRenderer(siteURL string) *Renderer {
	return &Renderer{siteURL: siteURL}
}

type templateData struct {
	Link       string
	Password   string
	OfferID    int64
	PricePerML string
	Quantity   int
}

func (r *Renderer) Render(msg Message) (Mail, error) {
	var (
		subject, tmpl string
		data          templateData
	)
	switch msg.Kind {
	case KindConfirm:
		subject, tmpl = "Confirm Your Email", "email_confirm.html"
		data.Link = fmt.Sprintf("%s/confirm-email/%s/", r.siteURL, msg.Token)
		data.Password = msg.Password
	case KindReset:
		subject, tmpl = "Reset Your Password", "password_reset.html"
		data.Link = fmt.Sprintf("%s/api/users/reset-password-confirm/%s/", r.siteURL, msg.Token)
	case KindOfferCreated:
		if msg.Offer == nil {
			return Mail{}, fmt.Errorf("offer_created message without offer")
		}
		subject, tmpl = "Your Offer Has Been Created", "email_offer_created.html"
		data.OfferID = msg.Offer.ID
		data.PricePerML = msg.Offer.PricePerML.StringFixed(2)
		data.Quantity = msg.Offer.Quantity
	default:
		return Mail{}, fmt.Errorf("unknown message kind %q", msg.Kind)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return Mail{}, fmt.Errorf("failed to render %s: %w", tmpl, err)
	}

	text := "An offer has been created."
	if data.Link != "" {
		text = "Please follow this link: " + data.Link
	}
	return Mail{To: msg.Recipient, Subject: subject, Text: text, HTML: buf.String()}, nil
}
