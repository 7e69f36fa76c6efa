package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahanw/storefront-api/internal/dto"
	"github.com/sahanw/storefront-api/internal/model"
)

type mockOrderRepo struct {
	orders    map[uuid.UUID]*model.Order
	commitErr error
	lines     []model.OrderLine
	total     decimal.Decimal
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepo) CommitOrder(_ context.Context, order *model.Order) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	order.ID = uuid.New()
	order.Status = model.OrderStatusConfirmed
	order.TotalAmount = m.total
	order.Lines = m.lines
	order.CreatedAt = time.Now()
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return m.orders[id], nil
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return pgx.ErrNoRows
	}
	o.Status = status
	return nil
}

var shippingReq = dto.CreateOrderRequest{
	ShippingAddress: "12 Galle Road",
	PaymentMethod:   "cash_on_delivery",
	PhoneNumber:     "0771234567",
}

func TestOrderService_CreateOrder_UserNotFound(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), newMockUserRepo(), nil)
	_, err := svc.CreateOrder(context.Background(), uuid.New(), shippingReq)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestOrderService_CreateOrder_Success(t *testing.T) {
	userRepo := newMockUserRepo()
	user := userRepo.add("buyer")

	repo := newMockOrderRepo()
	repo.total = decimal.RequireFromString("25.00")
	repo.lines = []model.OrderLine{
		{ProductID: uuid.New(), Quantity: 2, Price: decimal.RequireFromString("10.00"), TotalPrice: decimal.RequireFromString("20.00")},
		{ProductID: uuid.New(), Quantity: 1, Price: decimal.RequireFromString("5.00"), TotalPrice: decimal.RequireFromString("5.00")},
	}

	svc := NewOrderService(repo, userRepo, nil)
	order, err := svc.CreateOrder(context.Background(), user.ID, shippingReq)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, "12 Galle Road", order.ShippingAddress)
	assert.Len(t, order.Lines, 2)
}

func TestOrderService_GetByID_NotFound(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), newMockUserRepo(), nil)
	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_ListByUserID(t *testing.T) {
	userRepo := newMockUserRepo()
	user := userRepo.add("buyer")

	repo := newMockOrderRepo()
	orderID := uuid.New()
	repo.orders[orderID] = &model.Order{
		ID: orderID, UserID: user.ID, Status: model.OrderStatusConfirmed,
		TotalAmount: decimal.RequireFromString("99.99"), CreatedAt: time.Now(),
	}

	svc := NewOrderService(repo, userRepo, nil)
	orders, err := svc.ListByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, orderID, orders[0].ID)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	userRepo := newMockUserRepo()
	user := userRepo.add("buyer")

	repo := newMockOrderRepo()
	orderID := uuid.New()
	repo.orders[orderID] = &model.Order{ID: orderID, UserID: user.ID, Status: model.OrderStatusConfirmed}

	svc := NewOrderService(repo, userRepo, nil)

	order, err := svc.UpdateStatus(context.Background(), orderID, "SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, order.Status)

	_, err = svc.UpdateStatus(context.Background(), orderID, "TELEPORTED")
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)

	_, err = svc.UpdateStatus(context.Background(), uuid.New(), "SHIPPED")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
