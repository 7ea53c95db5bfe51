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
	"github.com/stretchr/testify/require"
)

func TestProductUsecase_List(t *testing.T) {
	products := new(OrdProductRepoMock)
	uc := usecase.NewProductUsecase(products)

	products.On("List", mock.Anything, repo.ProductListQuery{Page: 2, Limit: 10}).Return(
		[]model.Product{
			{ID: 11, Name: "Mug", Price: 5000, Stock: 3},
			{ID: 12, Name: "Tee", Price: 3000, Stock: 0},
		}, int64(25), nil)

	out, err := uc.List(context.Background(), 2, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(25), out.Total)
	assert.Equal(t, 2, out.Page)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Mug", out.Items[0].Name)
	assert.Equal(t, int64(5000), out.Items[0].Price)
}

// 範囲外のpage/limitは黙ってデフォルトに丸める
func TestProductUsecase_List_ClampsPaging(t *testing.T) {
	products := new(OrdProductRepoMock)
	uc := usecase.NewProductUsecase(products)

	products.On("List", mock.Anything, repo.ProductListQuery{Page: 1, Limit: 20}).Return(
		[]model.Product{}, int64(0), nil)

	out, err := uc.List(context.Background(), 0, 500)

	require.NoError(t, err)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 20, out.Limit)
	assert.Empty(t, out.Items)
}

func TestProductUsecase_Detail_NotFound(t *testing.T) {
	products := new(OrdProductRepoMock)
	uc := usecase.NewProductUsecase(products)

	products.On("FindByID", mock.Anything, int64(99)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.Detail(context.Background(), 99)
	assertHTTPErr(t, err, http.StatusNotFound, usecase.KindNotFound)

	_, err = uc.Detail(context.Background(), 0)
	assertHTTPErr(t, err, http.StatusBadRequest, usecase.KindValidation)
}
