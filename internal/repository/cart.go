package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sahanw/storefront-api/internal/model"
)

type CartRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error)
	AddLine(ctx context.Context, line *model.CartLine) error
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, userID, productID uuid.UUID) error
	ClearUser(ctx context.Context, userID uuid.UUID) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

func (r *pgCartRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, product_id, quantity, price, created_at, updated_at
		 FROM cart_lines WHERE user_id = $1 ORDER BY created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("find cart lines: %w", err)
	}
	defer rows.Close()

	var lines []model.CartLine
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.Price, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// AddLine inserts a new cart line or, when the user already has the product,
// bumps the quantity. The UNIQUE (user_id, product_id) constraint guarantees
// concurrent adds never create duplicate lines; the price captured on first
// add is kept.
func (r *pgCartRepo) AddLine(ctx context.Context, line *model.CartLine) error {
	line.ID = uuid.New()
	query := `INSERT INTO cart_lines (id, user_id, product_id, quantity, price, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			  ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_lines.quantity + $4, updated_at = NOW()
			  RETURNING id, quantity, price, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, line.ID, line.UserID, line.ProductID, line.Quantity, line.Price).
		Scan(&line.ID, &line.Quantity, &line.Price, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add cart line: %w", err)
	}
	return nil
}

// UpdateQuantity is last-writer-wins for the same user's concurrent tabs.
func (r *pgCartRepo) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE cart_lines SET quantity = $3, updated_at = NOW() WHERE user_id = $1 AND product_id = $2`,
		userID, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) DeleteLine(ctx context.Context, userID, productID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM cart_lines WHERE user_id = $1 AND product_id = $2`, userID, productID,
	)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) ClearUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
