package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/linemk/perfume-shop/internal/domain/models"
	"github.com/linemk/perfume-shop/internal/service"
)

// OrderItemView - позиция заказа с рассчитанной стоимостью
type OrderItemView struct {
	*models.OrderItem
	Price string `json:"order_item_price"`
}

type OrderView struct {
	ID        int64           `json:"id"`
	User      *models.Account `json:"user"`
	Items     []OrderItemView `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
}

func newOrderView(o *models.Order) OrderView {
	items := make([]OrderItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemView{OrderItem: item, Price: item.Price().String()})
	}
	return OrderView{ID: o.ID, User: o.User, Items: items, CreatedAt: o.CreatedAt}
}

// CreateOrderItemHandler обрабатывает POST /api/orders/item/create.
// С токеном тело проверяется по схеме зарегистрированного покупателя, без токена по гостевой.
func CreateOrderItemHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderItemHandler"
		logger := log.With(slog.String("op", op))

		var (
			order *models.Order
			err   error
		)
		if userID := actorID(r); userID != 0 {
			var req service.RegisteredCheckoutRequest
			if err := decodeAndValidate(r, &req); err != nil {
				logger.Warn("invalid request", slog.Any("error", err))
				writeError(w, logger, err)
				return
			}
			order, err = orders.PlaceOrderItem(r.Context(), userID, req)
		} else {
			var req service.GuestCheckoutRequest
			if err := decodeAndValidate(r, &req); err != nil {
				logger.Warn("invalid guest request", slog.Any("error", err))
				writeError(w, logger, err)
				return
			}
			order, err = orders.PlaceGuestOrderItem(r.Context(), req)
		}
		if err != nil {
			logger.Error("failed to place order item", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, newOrderView(order))
	}
}

// DeleteOrderItemHandler обрабатывает DELETE /api/orders/item/{id}/delete[?email=]
func DeleteOrderItemHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteOrderItemHandler"
		logger := log.With(slog.String("op", op))

		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if err := orders.DeleteOrderItem(r.Context(), actorID(r), id, r.URL.Query().Get("email")); err != nil {
			logger.Warn("failed to delete order item", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListOrdersHandler обрабатывает GET /api/orders/
func ListOrdersHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		list, err := orders.ListOrders(r.Context(), actorID(r))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		views := make([]OrderView, 0, len(list))
		for _, o := range list {
			views = append(views, newOrderView(o))
		}
		writeJSON(w, logger, http.StatusOK, views)
	}
}

// StartOrderHandler обрабатывает POST /api/orders/new
func StartOrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.StartOrderHandler"
		logger := log.With(slog.String("op", op))

		order, err := orders.StartNewOrder(r.Context(), actorID(r))
		if err != nil {
			logger.Error("failed to start order", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, newOrderView(order))
	}
}
