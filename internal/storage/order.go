package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/perfume-shop/internal/domain/models"
)

// OrderStorage описывает методы для работы с заказами и их позициями.
type OrderStorage interface {
	// CreateOrderItem вставляет позицию заказа в рамках транзакции.
	CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) (*models.OrderItem, error)
	// GetLatestOrderByUserTx возвращает самый свежий заказ пользователя или ErrOrderNotFound.
	GetLatestOrderByUserTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Order, error)
	CreateOrder(ctx context.Context, tx *sql.Tx, userID int64) (*models.Order, error)
	AttachItem(ctx context.Context, tx *sql.Tx, orderID, itemID int64) error
	// GetOrderTx читает заказ с позициями внутри транзакции
	GetOrderTx(ctx context.Context, tx *sql.Tx, orderID int64) (*models.Order, error)
	GetOrderItem(ctx context.Context, id int64) (*models.OrderItem, error)
	DeleteOrderItem(ctx context.Context, id int64) error
	// GetOrdersByUserID возвращает заказы пользователя с позициями, новые первыми.
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

// querier - общее подмножество *sql.DB и *sql.Tx
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *orderRepository) CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) (*models.OrderItem, error) {
	var guest models.GuestContact
	if item.Guest != nil {
		guest = *item.Guest
	}
	query := `INSERT INTO order_items (user_id, offer_id, quantity, city, district, delivery_method, delivery_branch,
	              non_registered_first_name, non_registered_last_name, non_registered_email, non_registered_phone_number)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id, created_at, (SELECT price_per_ml FROM offers WHERE id = $2)`
	err := tx.QueryRowContext(ctx, query,
		item.UserID, item.OfferID, item.Quantity, item.City, item.District, item.DeliveryMethod,
		nullIfEmpty(item.DeliveryBranch), nullIfEmpty(guest.FirstName), nullIfEmpty(guest.LastName),
		nullIfEmpty(guest.Email), nullIfEmpty(guest.PhoneNumber),
	).Scan(&item.ID, &item.CreatedAt, &item.PricePerML)
	if err != nil {
		if isPQCode(err, pqFKViolation) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to create order item: %w", err)
	}
	return item, nil
}

func (r *orderRepository) GetLatestOrderByUserTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT id, user_id, created_at FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	if err := tx.QueryRowContext(ctx, query, userID).Scan(&order.ID, &order.UserID, &order.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, userID int64) (*models.Order, error) {
	order := &models.Order{UserID: userID, Items: []*models.OrderItem{}}
	err := tx.QueryRowContext(ctx, "INSERT INTO orders (user_id) VALUES ($1) RETURNING id, created_at", userID).
		Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) AttachItem(ctx context.Context, tx *sql.Tx, orderID, itemID int64) error {
	query := `INSERT INTO order_order_items (order_id, order_item_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, orderID, itemID); err != nil {
		return fmt.Errorf("failed to attach order item: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrderTx(ctx context.Context, tx *sql.Tx, orderID int64) (*models.Order, error) {
	order := &models.Order{}
	err := tx.QueryRowContext(ctx, "SELECT id, user_id, created_at FROM orders WHERE id = $1", orderID).
		Scan(&order.ID, &order.UserID, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := loadItems(ctx, tx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

const orderItemColumns = `oi.id, oi.user_id, oi.offer_id, oi.quantity, oi.city, oi.district, oi.delivery_method,
		       oi.delivery_branch, oi.non_registered_first_name, oi.non_registered_last_name,
		       oi.non_registered_email, oi.non_registered_phone_number, oi.created_at, o.price_per_ml`

func scanOrderItem(row rowScanner, extra ...any) (*models.OrderItem, error) {
	item := &models.OrderItem{}
	var (
		userID                                    sql.NullInt64
		branch, firstName, lastName, email, phone sql.NullString
	)
	dest := []any{&item.ID, &userID, &item.OfferID, &item.Quantity, &item.City, &item.District, &item.DeliveryMethod,
		&branch, &firstName, &lastName, &email, &phone, &item.CreatedAt, &item.PricePerML}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderItemNotFound
		}
		return nil, err
	}
	item.UserID = userID.Int64
	item.DeliveryBranch = branch.String
	if email.Valid {
		item.Guest = &models.GuestContact{
			FirstName:   firstName.String,
			LastName:    lastName.String,
			Email:       email.String,
			PhoneNumber: phone.String,
		}
	}
	return item, nil
}

func (r *orderRepository) GetOrderItem(ctx context.Context, id int64) (*models.OrderItem, error) {
	query := `SELECT ` + orderItemColumns + `
		FROM order_items oi
		JOIN offers o ON oi.offer_id = o.id
		WHERE oi.id = $1`
	return scanOrderItem(r.db.QueryRowContext(ctx, query, id))
}

func (r *orderRepository) DeleteOrderItem(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM order_items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	return expectAffected(res, ErrOrderItemNotFound)
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := `SELECT id, user_id, created_at FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := loadItems(ctx, r.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems подтягивает позиции для набора заказов одним запросом
func loadItems(ctx context.Context, q querier, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, order := range orders {
		order.Items = []*models.OrderItem{}
		byID[order.ID] = order
		ids = append(ids, order.ID)
	}

	query := `SELECT ` + orderItemColumns + `, ooi.order_id
		FROM order_order_items ooi
		JOIN order_items oi ON ooi.order_item_id = oi.id
		JOIN offers o ON oi.offer_id = o.id
		WHERE ooi.order_id = ANY($1)
		ORDER BY oi.created_at, oi.id`
	rows, err := q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		item, err := scanOrderItem(rows, &orderID)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := byID[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return rows.Err()
}
