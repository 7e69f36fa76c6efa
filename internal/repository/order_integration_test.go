package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahanw/storefront-api/internal/model"
)

func addCartLine(t *testing.T, user *model.User, product *model.Product, qty int) {
	t.Helper()
	line := &model.CartLine{
		UserID: user.ID, ProductID: product.ID, Quantity: qty, Price: product.Price,
	}
	require.NoError(t, NewCartRepository(testPool).AddLine(context.Background(), line))
}

func currentStock(t *testing.T, product *model.Product) (stock int, available bool) {
	t.Helper()
	err := testPool.QueryRow(context.Background(),
		`SELECT stock_quantity, available FROM products WHERE id = $1`, product.ID,
	).Scan(&stock, &available)
	require.NoError(t, err)
	return stock, available
}

func TestOrderRepo_CommitOrder_Success(t *testing.T) {
	cleanupTable(t, "order_lines", "orders", "cart_lines", "products", "users")

	orderRepo := NewOrderRepository(testPool)
	cartRepo := NewCartRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "buyer", "buyer@example.com")
	prodA := createTestProduct(t, "Widget A", 10.00, 5)
	prodB := createTestProduct(t, "Widget B", 5.00, 1)
	addCartLine(t, user, prodA, 2)
	addCartLine(t, user, prodB, 1)

	order := &model.Order{
		UserID:          user.ID,
		ShippingAddress: "12 Main St",
		PaymentMethod:   "CARD",
		PhoneNumber:     "0771234567",
	}
	require.NoError(t, orderRepo.CommitOrder(ctx, order))

	assert.Equal(t, model.OrderStatusConfirmed, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(25.00)))
	require.Len(t, order.Lines, 2)
	for _, line := range order.Lines {
		if line.ProductID == prodA.ID {
			assert.True(t, line.TotalPrice.Equal(decimal.NewFromFloat(20.00)))
		}
	}

	stockA, availA := currentStock(t, prodA)
	assert.Equal(t, 3, stockA)
	assert.True(t, availA)

	// B sold out: stock zero and the flag flipped off.
	stockB, availB := currentStock(t, prodB)
	assert.Equal(t, 0, stockB)
	assert.False(t, availB)

	lines, err := cartRepo.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.TotalAmount.Equal(order.TotalAmount))
	require.Len(t, found.Lines, 2)
}

func TestOrderRepo_CommitOrder_InsufficientStockRollsBack(t *testing.T) {
	cleanupTable(t, "order_lines", "orders", "cart_lines", "products", "users")

	orderRepo := NewOrderRepository(testPool)
	cartRepo := NewCartRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "buyer2", "buyer2@example.com")
	prodA := createTestProduct(t, "Widget A", 10.00, 5)
	prodB := createTestProduct(t, "Widget B", 5.00, 0)
	addCartLine(t, user, prodA, 2)
	addCartLine(t, user, prodB, 1)

	order := &model.Order{UserID: user.ID, ShippingAddress: "12 Main St", PaymentMethod: "CARD"}
	err := orderRepo.CommitOrder(ctx, order)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, prodB.ID, stockErr.ProductID)
	assert.Equal(t, "Widget B", stockErr.Name)

	// Nothing landed: A's stock untouched, no order rows, cart intact.
	stockA, _ := currentStock(t, prodA)
	assert.Equal(t, 5, stockA)

	var orderCount int
	require.NoError(t, testPool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&orderCount))
	assert.Zero(t, orderCount)

	lines, err := cartRepo.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestOrderRepo_CommitOrder_EmptyCart(t *testing.T) {
	cleanupTable(t, "order_lines", "orders", "cart_lines", "users")

	orderRepo := NewOrderRepository(testPool)
	user := createTestUser(t, "empty", "empty@example.com")

	order := &model.Order{UserID: user.ID}
	err := orderRepo.CommitOrder(context.Background(), order)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

// Concurrent commits against one product with stock S: exactly S of the N
// single-unit orders succeed and stock never goes negative.
func TestOrderRepo_CommitOrder_ConcurrentNeverOversells(t *testing.T) {
	cleanupTable(t, "order_lines", "orders", "cart_lines", "products", "users")

	const buyers = 8
	const stock = 5

	orderRepo := NewOrderRepository(testPool)
	ctx := context.Background()
	product := createTestProduct(t, "Scarce Widget", 10.00, stock)

	users := make([]*model.User, buyers)
	for i := range users {
		users[i] = createTestUser(t,
			fmt.Sprintf("racer%d", i), fmt.Sprintf("racer%d@example.com", i))
		addCartLine(t, users[i], product, 1)
	}

	var wg sync.WaitGroup
	results := make([]error, buyers)
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order := &model.Order{UserID: users[i].ID, ShippingAddress: "x", PaymentMethod: "CARD"}
			results[i] = orderRepo.CommitOrder(ctx, order)
		}(i)
	}
	wg.Wait()

	var succeeded, outOfStock int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			var stockErr *InsufficientStockError
			require.ErrorAs(t, err, &stockErr)
			outOfStock++
		}
	}
	assert.Equal(t, stock, succeeded)
	assert.Equal(t, buyers-stock, outOfStock)

	remaining, available := currentStock(t, product)
	assert.Equal(t, 0, remaining)
	assert.False(t, available)

	var orderCount int
	require.NoError(t, testPool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&orderCount))
	assert.Equal(t, stock, orderCount)
}

func TestOrderRepo_UpdateStatusAndList(t *testing.T) {
	cleanupTable(t, "order_lines", "orders", "cart_lines", "products", "users")

	orderRepo := NewOrderRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "lister", "lister@example.com")
	product := createTestProduct(t, "Widget", 10.00, 10)
	addCartLine(t, user, product, 1)

	order := &model.Order{UserID: user.ID, ShippingAddress: "x", PaymentMethod: "CARD"}
	require.NoError(t, orderRepo.CommitOrder(ctx, order))

	require.NoError(t, orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusShipped))
	found, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, found.Status)

	orders, err := orderRepo.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	err = orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusDelivered)
	require.NoError(t, err)
	assert.ErrorIs(t, orderRepo.UpdateStatus(ctx, uuid.New(), model.OrderStatusShipped), pgx.ErrNoRows)
}
