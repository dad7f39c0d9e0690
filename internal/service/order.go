package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/perfume-shop/internal/domain/models"
	"github.com/linemk/perfume-shop/internal/notify"
	"github.com/linemk/perfume-shop/internal/storage"
)

// CheckoutItem - общая часть запроса на оформление позиции
type CheckoutItem struct {
	OfferID        int64  `json:"offer" validate:"required,gt=0"`
	Quantity       int    `json:"quantity" validate:"required,gt=0,lte=10000"`
	City           string `json:"city" validate:"required,max=100"`
	District       string `json:"district" validate:"required,max=100"`
	DeliveryMethod string `json:"delivery_method" validate:"required,max=100"`
	DeliveryBranch string `json:"delivery_branch" validate:"max=100"`
}

func (c CheckoutItem) delivery() models.Delivery {
	return models.Delivery{
		City:           c.City,
		District:       c.District,
		DeliveryMethod: c.DeliveryMethod,
		DeliveryBranch: c.DeliveryBranch,
	}
}

// RegisteredCheckoutRequest - заказ авторизованного пользователя, владелец берётся из токена
type RegisteredCheckoutRequest struct {
	CheckoutItem
}

// GuestCheckoutRequest - заказ без авторизации, аккаунт подбирается по email
type GuestCheckoutRequest struct {
	CheckoutItem
	FirstName   string `json:"non_registered_first_name" validate:"required,max=50"`
	LastName    string `json:"non_registered_last_name" validate:"required,max=50"`
	Email       string `json:"non_registered_email" validate:"required,email,max=100"`
	PhoneNumber string `json:"non_registered_phone_number" validate:"required,max=20"`
}

func (g GuestCheckoutRequest) contact() models.GuestContact {
	return models.GuestContact{
		FirstName:   g.FirstName,
		LastName:    g.LastName,
		Email:       NormalizeEmail(g.Email),
		PhoneNumber: g.PhoneNumber,
	}
}

type OrderService interface {
	PlaceOrderItem(ctx context.Context, actorID int64, req RegisteredCheckoutRequest) (*models.Order, error)
	PlaceGuestOrderItem(ctx context.Context, req GuestCheckoutRequest) (*models.Order, error)
	// DeleteOrderItem: actorID == 0 означает гостя, тогда guestEmail должен совпасть с email владельца
	DeleteOrderItem(ctx context.Context, actorID, itemID int64, guestEmail string) error
	ListOrders(ctx context.Context, actorID int64) ([]*models.Order, error)
	StartNewOrder(ctx context.Context, actorID int64) (*models.Order, error)
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	accountRepo storage.AccountStorage
	orderRepo   storage.OrderStorage
	provisioner *Provisioner
	notifier    notify.Dispatcher
}

func NewOrderService(
	log *slog.Logger,
	db *sql.DB,
	accountRepo storage.AccountStorage,
	orderRepo storage.OrderStorage,
	provisioner *Provisioner,
	notifier notify.Dispatcher,
) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		accountRepo: accountRepo,
		orderRepo:   orderRepo,
		provisioner: provisioner,
		notifier:    notifier,
	}
}

func (s *orderService) PlaceOrderItem(ctx context.Context, actorID int64, req RegisteredCheckoutRequest) (*models.Order, error) {
	const op = "service.OrderService.PlaceOrderItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actorID), slog.Int64("offerID", req.OfferID))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.placeItem(ctx, tx, &models.OrderItem{
		UserID:   actorID,
		OfferID:  req.OfferID,
		Quantity: req.Quantity,
		Delivery: req.delivery(),
	})
	if err != nil {
		rollback(logger, tx)
		logger.Error("failed to place order item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order item placed", slog.Int64("orderID", order.ID))
	return order, nil
}

// PlaceGuestOrderItem подбирает аккаунт по email и оформляет позицию в одной транзакции.
// Письмо с паролем уходит только после коммита и только для нового аккаунта.
func (s *orderService) PlaceGuestOrderItem(ctx context.Context, req GuestCheckoutRequest) (*models.Order, error) {
	const op = "service.OrderService.PlaceGuestOrderItem"
	logger := s.log.With(slog.String("op", op), slog.String("email", req.Email), slog.Int64("offerID", req.OfferID))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	contact := req.contact()
	provisioned, err := s.provisioner.ProvisionForCheckout(ctx, tx, contact)
	if err != nil {
		rollback(logger, tx)
		logger.Error("failed to provision account", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order, err := s.placeItem(ctx, tx, &models.OrderItem{
		UserID:   provisioned.Account.ID,
		OfferID:  req.OfferID,
		Quantity: req.Quantity,
		Guest:    &contact,
		Delivery: req.delivery(),
	})
	if err != nil {
		rollback(logger, tx)
		logger.Error("failed to place order item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	if provisioned.Created {
		s.notifier.Dispatch(ctx, notify.Message{
			Kind:      notify.KindConfirm,
			Recipient: provisioned.Account.Email,
			Token:     provisioned.Token,
			Password:  provisioned.Password,
		})
	}

	logger.Info("guest order item placed",
		slog.Int64("orderID", order.ID),
		slog.Int64("userID", provisioned.Account.ID),
		slog.Bool("account_created", provisioned.Created),
	)
	return order, nil
}

// placeItem создаёт позицию, находит самый свежий заказ пользователя (или создаёт новый)
// и привязывает к нему позицию. Строка аккаунта блокируется, чтобы параллельные
// оформления одного пользователя не создали два заказа.
func (s *orderService) placeItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) (*models.Order, error) {
	owner, err := s.accountRepo.LockAccountByIDTx(ctx, tx, item.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: account no longer exists", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	created, err := s.orderRepo.CreateOrderItem(ctx, tx, item)
	if err != nil {
		if errors.Is(err, storage.ErrOfferNotFound) {
			return nil, fmt.Errorf("%w: offer", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to create order item: %w", err)
	}

	order, err := s.orderRepo.GetLatestOrderByUserTx(ctx, tx, item.UserID)
	if errors.Is(err, storage.ErrOrderNotFound) {
		order, err = s.orderRepo.CreateOrder(ctx, tx, item.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get or create order: %w", err)
	}

	if err := s.orderRepo.AttachItem(ctx, tx, order.ID, created.ID); err != nil {
		return nil, fmt.Errorf("failed to attach item: %w", err)
	}

	full, err := s.orderRepo.GetOrderTx(ctx, tx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read order: %w", err)
	}
	full.User = owner
	return full, nil
}

func (s *orderService) DeleteOrderItem(ctx context.Context, actorID, itemID int64, guestEmail string) error {
	const op = "service.OrderService.DeleteOrderItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("itemID", itemID), slog.Int64("actorID", actorID))

	item, err := s.orderRepo.GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderItemNotFound) {
			return fmt.Errorf("%s: %w: order item", op, ErrNotFound)
		}
		logger.Error("failed to get order item", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get order item: %w", op, err)
	}

	if actorID != 0 {
		if item.UserID != actorID {
			logger.Warn("attempt to delete someone else's order item")
			return fmt.Errorf("%s: %w: you do not have permission to delete this item", op, ErrPermissionDenied)
		}
	} else {
		if guestEmail == "" {
			logger.Warn("guest delete without email")
			return fmt.Errorf("%s: %w: email used at checkout is required", op, ErrPermissionDenied)
		}
		owner, err := s.accountRepo.GetAccountByID(ctx, item.UserID)
		if err != nil && !errors.Is(err, storage.ErrAccountNotFound) {
			return fmt.Errorf("%s: failed to get item owner: %w", op, err)
		}
		if owner == nil || !strings.EqualFold(owner.Email, guestEmail) {
			logger.Warn("guest email does not match item owner")
			return fmt.Errorf("%s: %w: you do not have permission to delete this item", op, ErrPermissionDenied)
		}
	}

	if err := s.orderRepo.DeleteOrderItem(ctx, itemID); err != nil {
		if errors.Is(err, storage.ErrOrderItemNotFound) {
			return fmt.Errorf("%s: %w: order item", op, ErrNotFound)
		}
		logger.Error("failed to delete order item", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete order item: %w", op, err)
	}

	logger.Info("order item deleted")
	return nil
}

func (s *orderService) ListOrders(ctx context.Context, actorID int64) ([]*models.Order, error) {
	const op = "service.OrderService.ListOrders"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actorID))

	if actorID == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	account, err := s.accountRepo.GetAccountByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: failed to get account: %w", op, err)
	}

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, actorID)
	if err != nil {
		logger.Error("failed to get orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}
	for _, o := range orders {
		o.User = account
	}
	return orders, nil
}

// StartNewOrder открывает пустой заказ, в который будут попадать следующие позиции
func (s *orderService) StartNewOrder(ctx context.Context, actorID int64) (*models.Order, error) {
	const op = "service.OrderService.StartNewOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actorID))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	owner, err := s.accountRepo.LockAccountByIDTx(ctx, tx, actorID)
	if err != nil {
		rollback(logger, tx)
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: failed to lock account: %w", op, err)
	}

	order, err := s.orderRepo.CreateOrder(ctx, tx, actorID)
	if err != nil {
		rollback(logger, tx)
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	order.User = owner
	logger.Info("new order started", slog.Int64("orderID", order.ID))
	return order, nil
}
