package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sahanw/storefront-api/internal/dto"
	"github.com/sahanw/storefront-api/internal/model"
	"github.com/sahanw/storefront-api/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

type OrderService struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	amqpCh    *amqp.Channel
}

func NewOrderService(orderRepo repository.OrderRepository, userRepo repository.UserRepository, amqpCh *amqp.Channel) *OrderService {
	return &OrderService{orderRepo: orderRepo, userRepo: userRepo, amqpCh: amqpCh}
}

// CreateOrder converts the user's cart into a confirmed order. The cart
// read, stock checks, inventory decrement, and cart clearing all happen in
// one transaction inside the repository; a failure on any line leaves
// nothing behind. Callers see repository.ErrEmptyCart or
// *repository.InsufficientStockError for the recoverable cases.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req dto.CreateOrderRequest) (*model.Order, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	order := &model.Order{
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PhoneNumber:     req.PhoneNumber,
	}
	if err := s.orderRepo.CommitOrder(ctx, order); err != nil {
		return nil, err
	}

	// Publish post-commit so the worker can invalidate cached products.
	if s.amqpCh != nil {
		productIDs := make([]uuid.UUID, 0, len(order.Lines))
		for _, line := range order.Lines {
			productIDs = append(productIDs, line.ProductID)
		}
		msg, _ := json.Marshal(model.OrderConfirmedMessage{
			OrderID: order.ID, UserID: userID, ProductIDs: productIDs,
		})
		_ = s.amqpCh.PublishWithContext(ctx, "", "orders.confirmed", false, false, amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg,
			DeliveryMode: amqp.Persistent,
		})
	}

	return order, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.orderRepo.ListByUserID(ctx, userID)
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*model.Order, error) {
	parsed, err := model.ParseOrderStatus(status)
	if err != nil {
		return nil, ErrInvalidOrderStatus
	}
	if err := s.orderRepo.UpdateStatus(ctx, orderID, parsed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	return s.GetByID(ctx, orderID)
}
