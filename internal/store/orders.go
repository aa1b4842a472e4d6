package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/lib/pq"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrInvalidOrderItems = errors.New("invalid order items")

type PlaceOrderRequest struct {
	UserID int64
	Items  []OrderItemRequest
}

type OrderItemRequest struct {
	ProductID int64
	Quantity  int
}

// normalizeItems merges repeated products and sorts lines by product id so
// that concurrent orders always lock rows in the same order.
func normalizeItems(items []OrderItemRequest) ([]OrderItemRequest, error) {
	if len(items) == 0 {
		return nil, ErrInvalidOrderItems
	}

	quantities := make(map[int64]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidOrderItems
		}
		quantities[item.ProductID] += item.Quantity
	}

	lines := make([]OrderItemRequest, 0, len(quantities))
	for id, qty := range quantities {
		lines = append(lines, OrderItemRequest{ProductID: id, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	return lines, nil
}

// PlaceOrder validates every line against live stock, decrements inventory
// and records the order with its items in a single transaction. Line prices
// and the order total come from the locked product rows.
func (s *Store) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "store.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", req.UserID), attribute.Int("order.lines", len(req.Items)))

	lines, err := normalizeItems(req.Items)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var order *models.Order

	err = database.WithRetry(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)",
			req.UserID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check user exists: %w", err)
		}
		if !exists {
			return database.ErrUserNotFound
		}

		items := make([]models.OrderItem, 0, len(lines))
		total := decimal.Zero

		for _, line := range lines {
			product, err := ReserveStock(ctx, tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}

			items = append(items, models.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     product.Price,
			})
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		created := &models.Order{UserID: req.UserID, Total: total, Items: items}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, total, status)
			 VALUES ($1, $2, $3)
			 RETURNING id, status, created_at`,
			req.UserID, total, models.OrderStatusPending).Scan(&created.ID, &created.Status, &created.CreatedAt)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, item := range items {
			if err := DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, price)
				 VALUES ($1, $2, $3, $4)`,
				created.ID, item.ProductID, item.Quantity, item.Price)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		order = created
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID), attribute.String("order.total", order.Total.String()))
	s.invalidateCatalog(ctx)

	return order, nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}

	query := `
		SELECT id, user_id, total, status, created_at
		FROM orders
		WHERE id = $1`

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.Total,
		&order.Status,
		&order.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	orders := []models.Order{*order}
	if err := loadItems(ctx, s.db, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// ListOrders returns every order with its items, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, total, status, created_at
		FROM orders
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}

	if err := loadItems(ctx, s.db, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// ListUserOrdersCursor pages through one user's orders, newest first.
func (s *Store) ListUserOrdersCursor(ctx context.Context, userID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	var rows *sql.Rows
	if cursorData == nil {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, user_id, total, status, created_at
			FROM orders
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, userID, limit+1)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, user_id, total, status, created_at
			FROM orders
			WHERE user_id = $1
			  AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	if err := loadItems(ctx, s.db, orders); err != nil {
		return nil, err
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// UpdateOrderStatus sets status unconditionally; callers validate the value.
func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, database.ErrOrderNotFound
	}

	return s.GetOrder(ctx, id)
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Total,
			&order.Status,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// loadItems fills Items on every order with one query.
func loadItems(ctx context.Context, q querier, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []models.OrderItem{}
	}

	rows, err := q.QueryContext(ctx, `
		SELECT order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		var item models.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	return nil
}
