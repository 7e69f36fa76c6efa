package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sahanw/storefront-api/internal/model"
)

type PurchaseRepository interface {
	Create(ctx context.Context, booking *model.PurchaseBooking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PurchaseBooking, error)
	ListByUsername(ctx context.Context, username string) ([]model.PurchaseBooking, error)
	ListUpcoming(ctx context.Context, username string, from time.Time) ([]model.PurchaseBooking, error)
	ListPast(ctx context.Context, username string, before time.Time) ([]model.PurchaseBooking, error)
	Update(ctx context.Context, booking *model.PurchaseBooking) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgPurchaseRepo struct{ pool *pgxpool.Pool }

func NewPurchaseRepository(pool *pgxpool.Pool) PurchaseRepository {
	return &pgPurchaseRepo{pool: pool}
}

const purchaseColumns = `id, username, purchase_date, delivery_time, delivery_location, product_name, quantity, message, created_at, updated_at`

func scanPurchase(row pgx.Row, b *model.PurchaseBooking) error {
	return row.Scan(&b.ID, &b.Username, &b.PurchaseDate, &b.DeliveryTime, &b.DeliveryLocation,
		&b.ProductName, &b.Quantity, &b.Message, &b.CreatedAt, &b.UpdatedAt)
}

func (r *pgPurchaseRepo) Create(ctx context.Context, booking *model.PurchaseBooking) error {
	booking.ID = uuid.New()
	query := `INSERT INTO purchases (id, username, purchase_date, delivery_time, delivery_location, product_name, quantity, message, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		booking.ID, booking.Username, booking.PurchaseDate, booking.DeliveryTime,
		booking.DeliveryLocation, booking.ProductName, booking.Quantity, booking.Message,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create purchase: %w", err)
	}
	return nil
}

func (r *pgPurchaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.PurchaseBooking, error) {
	b := &model.PurchaseBooking{}
	err := scanPurchase(r.pool.QueryRow(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id), b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return b, nil
}

func (r *pgPurchaseRepo) ListByUsername(ctx context.Context, username string) ([]model.PurchaseBooking, error) {
	return r.list(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE username = $1 ORDER BY purchase_date DESC`,
		username)
}

func (r *pgPurchaseRepo) ListUpcoming(ctx context.Context, username string, from time.Time) ([]model.PurchaseBooking, error) {
	return r.list(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE username = $1 AND purchase_date >= $2 ORDER BY purchase_date`,
		username, from)
}

func (r *pgPurchaseRepo) ListPast(ctx context.Context, username string, before time.Time) ([]model.PurchaseBooking, error) {
	return r.list(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE username = $1 AND purchase_date < $2 ORDER BY purchase_date DESC`,
		username, before)
}

func (r *pgPurchaseRepo) list(ctx context.Context, query string, args ...any) ([]model.PurchaseBooking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var bookings []model.PurchaseBooking
	for rows.Next() {
		var b model.PurchaseBooking
		if err := scanPurchase(rows, &b); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *pgPurchaseRepo) Update(ctx context.Context, booking *model.PurchaseBooking) error {
	query := `UPDATE purchases SET purchase_date=$2, delivery_time=$3, delivery_location=$4, product_name=$5, quantity=$6, message=$7, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		booking.ID, booking.PurchaseDate, booking.DeliveryTime, booking.DeliveryLocation,
		booking.ProductName, booking.Quantity, booking.Message,
	).Scan(&booking.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("update purchase: %w", err)
	}
	return nil
}

func (r *pgPurchaseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
