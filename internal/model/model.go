package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID            uuid.UUID
	Name          string
	Description   string
	Brand         string
	Category      string
	Price         decimal.Decimal
	StockQuantity int
	Available     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CartLine is one (user, product) pairing with the unit price captured
// at add time. The (user_id, product_id) pair is unique per user.
type CartLine struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus maps a wire string to the closed status enumeration.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("invalid order status %q", s)
}

type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	ShippingAddress string
	PaymentMethod   string
	PhoneNumber     string
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	Lines           []OrderLine
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderLine snapshots quantity, unit price, and line total at commit time.
// TotalPrice is never re-derived from the catalog afterwards.
type OrderLine struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ProductID  uuid.UUID
	Quantity   int
	Price      decimal.Decimal
	TotalPrice decimal.Decimal
}

// PurchaseBooking is a scheduled-delivery reservation record. It is
// independent of the cart/order graph and never touches inventory.
type PurchaseBooking struct {
	ID               uuid.UUID
	Username         string
	PurchaseDate     time.Time
	DeliveryTime     string
	DeliveryLocation string
	ProductName      string
	Quantity         int
	Message          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderConfirmedMessage is published after a successful commit so the
// worker can run post-commit side effects.
type OrderConfirmedMessage struct {
	OrderID    uuid.UUID   `json:"order_id"`
	UserID     uuid.UUID   `json:"user_id"`
	ProductIDs []uuid.UUID `json:"product_ids"`
}
