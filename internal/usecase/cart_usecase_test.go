package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type cartFixture struct {
	cart     *OrdCartItemRepoMock
	products *OrdProductRepoMock
	uc       *usecase.CartUsecase
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		cart:     new(OrdCartItemRepoMock),
		products: new(OrdProductRepoMock),
	}

	tx := &TxManagerStub{Repos: &TxReposStub{
		cartItems: f.cart,
		products:  f.products,
	}}

	f.uc = usecase.NewCartUsecase(tx)
	return f
}

// UpsertByUserAndProduct を使うのでCartMockを差し替える
type cartUpsertMock struct{ OrdCartItemRepoMock }

func (m *cartUpsertMock) UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64) error {
	args := m.Called(ctx, userID, productID, addQty)
	return args.Error(0)
}

func (m *cartUpsertMock) DeleteByUserAndProduct(ctx context.Context, userID int64, productID int64) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func newCartUpsertFixture() (*cartUpsertMock, *OrdProductRepoMock, *usecase.CartUsecase) {
	cart := new(cartUpsertMock)
	products := new(OrdProductRepoMock)
	tx := &TxManagerStub{Repos: &TxReposStub{cartItems: cart, products: products}}
	return cart, products, usecase.NewCartUsecase(tx)
}

func TestCartUsecase_GetCart_SkipsDeletedProducts(t *testing.T) {
	f := newCartFixture()

	f.cart.On("ListByUserID", mock.Anything, int64(1)).Return([]model.CartItem{
		{UserID: 1, ProductID: 100, Quantity: 2},
		{UserID: 1, ProductID: 999, Quantity: 1}, // 商品が消えている
	}, nil)
	f.products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, Name: "Mug", Price: 5000, Stock: 10}, nil)
	f.products.On("FindByID", mock.Anything, int64(999)).Return(model.Product{}, repo.ErrNotFound)

	out, err := f.uc.GetCart(context.Background(), 1)

	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(10000), out.Subtotal)
	assert.Equal(t, int64(10000), out.Items[0].LineTotal)
}

func TestCartUsecase_AddToCart_AddsQuantity(t *testing.T) {
	cart, products, uc := newCartUpsertFixture()

	products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, Name: "Mug", Price: 5000, Stock: 10}, nil)
	cart.On("ListByUserID", mock.Anything, int64(1)).Return([]model.CartItem{
		{UserID: 1, ProductID: 100, Quantity: 3},
	}, nil)
	cart.On("UpsertByUserAndProduct", mock.Anything, int64(1), int64(100), int64(2)).Return(nil)

	err := uc.AddToCart(context.Background(), 1, usecase.AddToCartInput{ProductID: 100, Quantity: 2})

	assert.NoError(t, err)
	cart.AssertCalled(t, "UpsertByUserAndProduct", mock.Anything, int64(1), int64(100), int64(2))
}

func TestCartUsecase_AddToCart_CappedByStock(t *testing.T) {
	cart, products, uc := newCartUpsertFixture()

	products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, Name: "Mug", Price: 5000, Stock: 4}, nil)
	cart.On("ListByUserID", mock.Anything, int64(1)).Return([]model.CartItem{
		{UserID: 1, ProductID: 100, Quantity: 3},
	}, nil)

	//3 + 2 > 4
	err := uc.AddToCart(context.Background(), 1, usecase.AddToCartInput{ProductID: 100, Quantity: 2})

	assertHTTPErr(t, err, http.StatusBadRequest, usecase.KindInsufficientStock)
	cart.AssertNotCalled(t, "UpsertByUserAndProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_AddToCart_UnknownProduct(t *testing.T) {
	_, products, uc := newCartUpsertFixture()

	products.On("FindByID", mock.Anything, int64(999)).Return(model.Product{}, repo.ErrNotFound)

	err := uc.AddToCart(context.Background(), 1, usecase.AddToCartInput{ProductID: 999, Quantity: 1})
	assertHTTPErr(t, err, http.StatusNotFound, usecase.KindNotFound)
}

func TestCartUsecase_AddToCart_RejectsNonPositiveQuantity(t *testing.T) {
	_, _, uc := newCartUpsertFixture()

	err := uc.AddToCart(context.Background(), 1, usecase.AddToCartInput{ProductID: 100, Quantity: 0})
	assertHTTPErr(t, err, http.StatusBadRequest, usecase.KindValidation)

	err = uc.AddToCart(context.Background(), 1, usecase.AddToCartInput{ProductID: 100, Quantity: -2})
	assertHTTPErr(t, err, http.StatusBadRequest, usecase.KindValidation)
}

func TestCartUsecase_RemoveFromCart(t *testing.T) {
	cart, _, uc := newCartUpsertFixture()

	cart.On("DeleteByUserAndProduct", mock.Anything, int64(1), int64(100)).Return(nil)

	assert.NoError(t, uc.RemoveFromCart(context.Background(), 1, 100))
	cart.AssertCalled(t, "DeleteByUserAndProduct", mock.Anything, int64(1), int64(100))
}
