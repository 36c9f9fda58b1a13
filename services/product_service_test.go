package services_test

import (
	"context"
	"testing"

	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newProductService(t *testing.T, b *bakery) (*services.ProductService, *services.MockS3Service) {
	t.Helper()

	images, store := services.NewMockImageService()
	return services.NewProductService(b.db, images, b.log), store
}

func TestCreateProduct(t *testing.T) {
	b := newBakery(t)
	products, _ := newProductService(t, b)
	ctx := context.Background()

	product, err := products.CreateProduct(ctx, as(b.mainBaker), 0, services.ProductInput{
		Name:     strPtr("  Lemon Tart "),
		Price:    decPtr("12.345"),
		Category: strPtr("Tarts"),
		IsNew:    boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Lemon Tart", product.Name)
	assert.Equal(t, "tarts", product.Category)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("12.35")))
	assert.Equal(t, b.mainBaker.ID, product.MainBakerID)
	assert.True(t, product.IsAvailable)
	assert.True(t, product.IsNew)

	byAdmin, err := products.CreateProduct(ctx, as(b.admin), b.otherBaker.ID, services.ProductInput{
		Name: strPtr("Baguette"), Price: decPtr("3"), Category: strPtr("bread"),
	})
	require.NoError(t, err)
	assert.Equal(t, b.otherBaker.ID, byAdmin.MainBakerID)

	tests := []struct {
		name        string
		caller      *models.User
		mainBakerID uint
		in          services.ProductInput
		wantErr     error
	}{
		{"customers cannot add products", b.customer, 0, services.ProductInput{Name: strPtr("x"), Price: decPtr("1"), Category: strPtr("c")}, services.ErrForbidden},
		{"junior bakers cannot add products", b.junior, 0, services.ProductInput{Name: strPtr("x"), Price: decPtr("1"), Category: strPtr("c")}, services.ErrForbidden},
		{"admin must name a main baker", b.admin, b.customer.ID, services.ProductInput{Name: strPtr("x"), Price: decPtr("1"), Category: strPtr("c")}, services.ErrInvalidBaker},
		{"price is required", b.mainBaker, 0, services.ProductInput{Name: strPtr("x"), Category: strPtr("c")}, services.ErrValidation},
		{"price must be positive", b.mainBaker, 0, services.ProductInput{Name: strPtr("x"), Price: decPtr("0"), Category: strPtr("c")}, services.ErrValidation},
		{"name is required", b.mainBaker, 0, services.ProductInput{Name: strPtr(" "), Price: decPtr("1"), Category: strPtr("c")}, services.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := products.CreateProduct(ctx, as(tt.caller), tt.mainBakerID, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListProducts(t *testing.T) {
	b := newBakery(t)
	products, _ := newProductService(t, b)
	ctx := context.Background()

	bread := testutil.CreateProduct(t, b.db, b.otherBaker.ID, "Sourdough", "6.50")
	require.NoError(t, b.db.Model(bread).Updates(map[string]interface{}{"category": "bread", "is_best_seller": true}).Error)
	hidden := testutil.CreateProduct(t, b.db, b.mainBaker.ID, "Retired Cake", "20.00")
	require.NoError(t, b.db.Model(hidden).Update("is_available", false).Error)

	all, err := products.ListProducts(ctx, services.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2, "unavailable products are hidden")

	byCategory, err := products.ListProducts(ctx, services.ProductFilter{Category: "bread"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Sourdough", byCategory[0].Name)

	byBaker, err := products.ListProducts(ctx, services.ProductFilter{MainBakerID: b.mainBaker.ID})
	require.NoError(t, err)
	require.Len(t, byBaker, 1)
	assert.Equal(t, b.product.ID, byBaker[0].ID)

	bestSellers, err := products.ListProducts(ctx, services.ProductFilter{IsBestSeller: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, bestSellers, 1)
	assert.Equal(t, bread.ID, bestSellers[0].ID)

	_, err = products.GetProduct(ctx, 9999)
	assert.ErrorIs(t, err, services.ErrProductNotFound)
}

func TestUpdateProduct(t *testing.T) {
	b := newBakery(t)
	products, _ := newProductService(t, b)
	ctx := context.Background()

	updated, err := products.UpdateProduct(ctx, as(b.mainBaker), b.product.ID, services.ProductInput{
		Price:       decPtr("27.50"),
		IsAvailable: boolPtr(false),
	})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("27.50")))
	assert.Equal(t, "Chocolate Cake", updated.Name)

	var stored models.Product
	require.NoError(t, b.db.First(&stored, b.product.ID).Error)
	assert.False(t, stored.IsAvailable)

	_, err = products.UpdateProduct(ctx, as(b.otherBaker), b.product.ID, services.ProductInput{Name: strPtr("Mine now")})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = products.UpdateProduct(ctx, as(b.admin), b.product.ID, services.ProductInput{Name: strPtr("Admin Cake")})
	assert.NoError(t, err)

	_, err = products.UpdateProduct(ctx, as(b.mainBaker), 9999, services.ProductInput{})
	assert.ErrorIs(t, err, services.ErrProductNotFound)
}

func TestSetProductImage(t *testing.T) {
	b := newBakery(t)
	products, store := newProductService(t, b)
	ctx := context.Background()

	first, err := products.SetProductImage(ctx, as(b.mainBaker), b.product.ID, testutil.ImageFileHeader(t, "cake.png", testutil.PNGContent))
	require.NoError(t, err)
	require.NotNil(t, first.ImageURL)
	assert.Contains(t, *first.ImageURL, "products/mock_cake.png")

	_, err = products.SetProductImage(ctx, as(b.mainBaker), b.product.ID, testutil.ImageFileHeader(t, "better.png", testutil.PNGContent))
	require.NoError(t, err)
	assert.False(t, store.FileExists("products/mock_cake.png"), "previous image is removed")
	assert.True(t, store.FileExists("products/mock_better.png"))

	fetched, err := products.GetProduct(ctx, b.product.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.ImageURL)
	assert.Contains(t, *fetched.ImageURL, "products/mock_better.png")

	_, err = products.SetProductImage(ctx, as(b.mainBaker), b.product.ID, testutil.ImageFileHeader(t, "notes.txt", []byte("hello")))
	assert.ErrorIs(t, err, services.ErrInvalidImage)

	_, err = products.SetProductImage(ctx, as(b.otherBaker), b.product.ID, testutil.ImageFileHeader(t, "cake.png", testutil.PNGContent))
	assert.ErrorIs(t, err, services.ErrForbidden)

	noImages := services.NewProductService(b.db, nil, b.log)
	_, err = noImages.SetProductImage(ctx, as(b.mainBaker), b.product.ID, testutil.ImageFileHeader(t, "cake.png", testutil.PNGContent))
	assert.ErrorIs(t, err, services.ErrInvalidImage)
}
