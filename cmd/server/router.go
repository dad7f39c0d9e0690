package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/linemk/perfume-shop/internal/app/handlers"
	"github.com/linemk/perfume-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/perfume-shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/perfume-shop/internal/service"
)

// Services - набор сервисов, которые обслуживают HTTP API
type Services struct {
	Accounts service.AccountService
	Catalog  service.CatalogService
	Offers   service.OfferService
	Reviews  service.ReviewService
	Orders   service.OrderService
}

// NewRouter регистрирует маршруты API.
// middleware.URLFormat не подключается: он отрезал бы ".com" у /api/accounts/{email}.
func NewRouter(log *slog.Logger, jwtSecret string, s Services) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)

	requireAuth := jwtmiddleware.NewJWTMiddleware(jwtSecret)
	optionalAuth := jwtmiddleware.NewOptionalJWTMiddleware(jwtSecret)

	router.Route("/api/accounts", func(r chi.Router) {
		r.Post("/register", handlers.RegisterHandler(log, s.Accounts))
		r.Post("/login", handlers.LoginHandler(log, s.Accounts))
		r.Get("/confirm-email/{token}", handlers.ConfirmEmailHandler(log, s.Accounts))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", handlers.ListAccountsHandler(log, s.Accounts))
			r.Get("/profile", handlers.GetProfileHandler(log, s.Accounts))
			r.Put("/profile", handlers.UpdateProfileHandler(log, s.Accounts))
			r.Delete("/delete", handlers.DeleteAccountHandler(log, s.Accounts))
			r.Post("/{email}", handlers.VerifyPasswordHandler(log, s.Accounts))
		})
	})

	router.Route("/api/perfumes", func(r chi.Router) {
		// публичное чтение каталога
		r.Get("/", handlers.SearchPerfumesHandler(log, s.Catalog))
		r.Get("/filtered-products", handlers.FilteredProductsHandler(log, s.Catalog))
		r.Get("/brands", handlers.BrandsHandler(log, s.Catalog))
		r.Get("/categories", handlers.CategoriesHandler(log, s.Catalog))
		r.Get("/genders", handlers.GendersHandler(log, s.Catalog))
		r.Get("/{id}", handlers.GetPerfumeHandler(log, s.Catalog))
		r.Get("/offers/{id}", handlers.PerfumeOffersHandler(log, s.Offers))
		r.Get("/offer-detail/{id}", handlers.GetOfferHandler(log, s.Offers))
		r.Get("/reviews/{id}", handlers.ListReviewsHandler(log, s.Reviews))
		r.Get("/reviews/{id}/replies", handlers.ListRepliesHandler(log, s.Reviews))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Put("/{id}", handlers.UpdatePerfumeHandler(log, s.Catalog))
			r.Delete("/{id}", handlers.DeletePerfumeHandler(log, s.Catalog))

			r.Get("/offers", handlers.SellerOffersHandler(log, s.Offers))
			r.Post("/offers", handlers.CreateOfferHandler(log, s.Offers))
			r.Put("/offer-detail/{id}", handlers.UpdateOfferHandler(log, s.Offers))
			r.Delete("/offer-detail/{id}", handlers.DeleteOfferHandler(log, s.Offers))

			r.Post("/reviews/{id}", handlers.CreateReviewHandler(log, s.Reviews))
			r.Delete("/reviews/{id}/{reviewID}", handlers.DeleteReviewHandler(log, s.Reviews))
			r.Post("/reviews/{id}/replies", handlers.CreateReplyHandler(log, s.Reviews))
			r.Delete("/reviews/{id}/replies", handlers.DeleteReplyHandler(log, s.Reviews))
		})
	})

	router.Route("/api/orders", func(r chi.Router) {
		// гость оформляет заказ без токена
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Post("/item/create", handlers.CreateOrderItemHandler(log, s.Orders))
			r.Delete("/item/{id}/delete", handlers.DeleteOrderItemHandler(log, s.Orders))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", handlers.ListOrdersHandler(log, s.Orders))
			r.Post("/new", handlers.StartOrderHandler(log, s.Orders))
		})
	})

	return router
}
