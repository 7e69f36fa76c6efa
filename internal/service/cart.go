package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sahanw/storefront-api/internal/model"
	"github.com/sahanw/storefront-api/internal/repository"
)

var (
	ErrCartLineNotFound = errors.New("cart line not found")
	ErrNotEnoughStock   = errors.New("insufficient stock")
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, userRepo repository.UserRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo, userRepo: userRepo}
}

// GetCart returns the user's cart lines and their running total, priced
// from the captured add-time prices rather than the current catalog.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) ([]model.CartLine, decimal.Decimal, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, decimal.Zero, err
	}
	lines, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("find cart: %w", err)
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return lines, total, nil
}

// AddLine captures the product's current price on first add. The add-time
// stock check is advisory; the authoritative check happens again at commit.
func (s *CartService) AddLine(ctx context.Context, userID, productID uuid.UUID, quantity int) (*model.CartLine, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.StockQuantity < quantity {
		return nil, ErrNotEnoughStock
	}

	line := &model.CartLine{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     product.Price,
	}
	if err := s.cartRepo.AddLine(ctx, line); err != nil {
		return nil, fmt.Errorf("add line: %w", err)
	}
	return line, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	if product.StockQuantity < quantity {
		return ErrNotEnoughStock
	}
	if err := s.cartRepo.UpdateQuantity(ctx, userID, productID, quantity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCartLineNotFound
		}
		return fmt.Errorf("update quantity: %w", err)
	}
	return nil
}

func (s *CartService) RemoveLine(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if err := s.cartRepo.DeleteLine(ctx, userID, productID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCartLineNotFound
		}
		return fmt.Errorf("delete line: %w", err)
	}
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if err := s.cartRepo.ClearUser(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *CartService) requireUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	return nil
}
