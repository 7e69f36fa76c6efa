package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sahanw/storefront-api/internal/model"
)

// ErrEmptyCart is returned by CommitOrder when the user has no cart lines.
var ErrEmptyCart = errors.New("cart is empty")

// InsufficientStockError identifies the first product whose current stock
// could not cover the requested quantity. The whole commit rolls back.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Name      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.Name)
}

type OrderRepository interface {
	CommitOrder(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

// CommitOrder converts the user's cart into a persisted order inside a
// single transaction: it loads the cart lines, creates the order header,
// snapshots every line, decrements stock under row locks, and clears the
// cart. Either every write lands or none does. Stock rows are locked with
// SELECT ... FOR UPDATE so concurrent commits against the same product
// serialize and the later one observes the decremented quantity; two
// commits can never together drive stock below zero.
func (r *pgOrderRepo) CommitOrder(ctx context.Context, order *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT id, product_id, quantity, price FROM cart_lines WHERE user_id = $1 ORDER BY created_at`,
		order.UserID,
	)
	if err != nil {
		return fmt.Errorf("load cart lines: %w", err)
	}
	var lines []model.CartLine
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Quantity, &l.Price); err != nil {
			rows.Close()
			return fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read cart lines: %w", err)
	}
	if len(lines) == 0 {
		return ErrEmptyCart
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	// Order header first, so the lines have a stable order id.
	order.ID = uuid.New()
	order.Status = model.OrderStatusConfirmed
	order.TotalAmount = total
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, shipping_address, payment_method, phone_number, total_amount, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.ShippingAddress, order.PaymentMethod,
		order.PhoneNumber, order.TotalAmount, order.Status,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	order.Lines = order.Lines[:0]
	for _, l := range lines {
		var name string
		var stock int
		err = tx.QueryRow(ctx,
			`SELECT name, stock_quantity FROM products WHERE id = $1 FOR UPDATE`, l.ProductID,
		).Scan(&name, &stock)
		if err != nil {
			return fmt.Errorf("lock product %s: %w", l.ProductID, err)
		}
		if stock < l.Quantity {
			return &InsufficientStockError{ProductID: l.ProductID, Name: name}
		}

		item := model.OrderLine{
			ID:         uuid.New(),
			OrderID:    order.ID,
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			Price:      l.Price,
			TotalPrice: l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))),
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO order_lines (id, order_id, product_id, quantity, price, total_price)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price, item.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE products
			 SET stock_quantity = stock_quantity - $2,
			     available = (stock_quantity - $2) > 0,
			     updated_at = NOW()
			 WHERE id = $1`,
			l.ProductID, l.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}

		order.Lines = append(order.Lines, item)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, order.UserID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order := &model.Order{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, shipping_address, payment_method, phone_number, total_amount, status, created_at, updated_at
		 FROM orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.UserID, &order.ShippingAddress, &order.PaymentMethod,
		&order.PhoneNumber, &order.TotalAmount, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, quantity, price, total_price FROM order_lines WHERE order_id = $1`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderLine
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.Price, &item.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		item.OrderID = order.ID
		order.Lines = append(order.Lines, item)
	}
	return order, rows.Err()
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, shipping_address, payment_method, phone_number, total_amount, status, created_at, updated_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		o.UserID = userID
		if err := rows.Scan(&o.ID, &o.ShippingAddress, &o.PaymentMethod, &o.PhoneNumber,
			&o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
