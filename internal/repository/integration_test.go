package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahanw/storefront-api/internal/model"
)

func createTestUser(t *testing.T, username, email string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username, Email: email, Password: "hashed",
		FirstName: "Test", LastName: "User", Role: "customer",
	}
	require.NoError(t, NewUserRepository(testPool).Create(context.Background(), user))
	return user
}

func createTestProduct(t *testing.T, name string, price float64, stock int) *model.Product {
	t.Helper()
	product := &model.Product{
		Name: name, Description: "desc", Brand: "Acme", Category: "Electronics",
		Price: decimal.NewFromFloat(price), StockQuantity: stock,
	}
	require.NoError(t, NewProductRepository(testPool).Create(context.Background(), product))
	return product
}

func TestUserRepo_CreateAndLookups(t *testing.T) {
	cleanupTable(t, "order_lines", "orders", "cart_lines", "users")

	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "jdoe", "jdoe@example.com")
	assert.NotEqual(t, uuid.Nil, user.ID)

	byEmail, err := repo.GetByEmail(ctx, "jdoe@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)

	byUsername, err := repo.GetByUsername(ctx, "jdoe")
	require.NoError(t, err)
	require.NotNil(t, byUsername)
	assert.Equal(t, user.ID, byUsername.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductRepo_CRUD(t *testing.T) {
	cleanupTable(t, "order_lines", "orders", "cart_lines", "products")

	repo := NewProductRepository(testPool)
	ctx := context.Background()

	product := createTestProduct(t, "Mechanical Keyboard", 89.99, 20)
	assert.True(t, product.Available)

	found, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Mechanical Keyboard", found.Name)
	assert.True(t, found.Price.Equal(decimal.NewFromFloat(89.99)))

	found.StockQuantity = 0
	require.NoError(t, repo.Update(ctx, found))
	assert.False(t, found.Available)

	// Restock flips the flag back on.
	found.StockQuantity = 5
	require.NoError(t, repo.Update(ctx, found))
	reloaded, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Available)
	assert.Equal(t, 5, reloaded.StockQuantity)

	require.NoError(t, repo.Delete(ctx, product.ID))
	gone, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.ErrorIs(t, repo.Delete(ctx, product.ID), pgx.ErrNoRows)
}

func TestProductRepo_ListSearchAndCategories(t *testing.T) {
	cleanupTable(t, "order_lines", "orders", "cart_lines", "products")

	repo := NewProductRepository(testPool)
	ctx := context.Background()

	createTestProduct(t, "Gaming Laptop", 1499, 3)
	createTestProduct(t, "Office Laptop", 699, 8)
	createTestProduct(t, "Webcam", 49, 15)

	results, total, err := repo.List(ctx, 10, 0, "laptop", "price", "asc")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, results, 2)
	assert.Equal(t, "Office Laptop", results[0].Name)

	byCategory, err := repo.FindByCategory(ctx, "Electronics")
	require.NoError(t, err)
	assert.Len(t, byCategory, 3)

	categories, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics"}, categories)
}

func TestCartRepo_UpsertKeepsSingleLine(t *testing.T) {
	cleanupTable(t, "order_lines", "orders", "cart_lines", "products", "users")

	cartRepo := NewCartRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "cartuser", "cart@example.com")
	product := createTestProduct(t, "Mouse", 19.90, 50)

	first := &model.CartLine{
		UserID: user.ID, ProductID: product.ID, Quantity: 2, Price: product.Price,
	}
	require.NoError(t, cartRepo.AddLine(ctx, first))

	// Same product again: quantity bumps, no second row, first price kept.
	second := &model.CartLine{
		UserID: user.ID, ProductID: product.ID, Quantity: 3,
		Price: decimal.NewFromFloat(25),
	}
	require.NoError(t, cartRepo.AddLine(ctx, second))

	lines, err := cartRepo.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.True(t, lines[0].Price.Equal(decimal.NewFromFloat(19.90)))

	require.NoError(t, cartRepo.UpdateQuantity(ctx, user.ID, product.ID, 1))
	lines, _ = cartRepo.FindByUser(ctx, user.ID)
	assert.Equal(t, 1, lines[0].Quantity)

	assert.ErrorIs(t, cartRepo.UpdateQuantity(ctx, user.ID, uuid.New(), 1), pgx.ErrNoRows)

	require.NoError(t, cartRepo.DeleteLine(ctx, user.ID, product.ID))
	lines, err = cartRepo.FindByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestPurchaseRepo_CRUDAndWindows(t *testing.T) {
	cleanupTable(t, "purchases")

	repo := NewPurchaseRepository(testPool)
	ctx := context.Background()
	today := time.Now().UTC().Truncate(24 * time.Hour)

	upcoming := &model.PurchaseBooking{
		Username: "jdoe", PurchaseDate: today.AddDate(0, 0, 3),
		DeliveryTime: "10 AM", DeliveryLocation: "Colombo",
		ProductName: "Laptop", Quantity: 1, Message: "call first",
	}
	require.NoError(t, repo.Create(ctx, upcoming))

	past := &model.PurchaseBooking{
		Username: "jdoe", PurchaseDate: today.AddDate(0, 0, -3),
		DeliveryTime: "11 AM", DeliveryLocation: "Kandy",
		ProductName: "Monitor", Quantity: 2,
	}
	require.NoError(t, repo.Create(ctx, past))

	all, err := repo.ListByUsername(ctx, "jdoe")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	up, err := repo.ListUpcoming(ctx, "jdoe", today)
	require.NoError(t, err)
	require.Len(t, up, 1)
	assert.Equal(t, upcoming.ID, up[0].ID)

	pastList, err := repo.ListPast(ctx, "jdoe", today)
	require.NoError(t, err)
	require.Len(t, pastList, 1)
	assert.Equal(t, past.ID, pastList[0].ID)

	upcoming.Quantity = 4
	require.NoError(t, repo.Update(ctx, upcoming))
	got, err := repo.GetByID(ctx, upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)

	require.NoError(t, repo.Delete(ctx, upcoming.ID))
	gone, err := repo.GetByID(ctx, upcoming.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
