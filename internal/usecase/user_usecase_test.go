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

func userShippingInput() usecase.ShippingAddressInput {
	return usecase.ShippingAddressInput{
		Name:       "Buyer",
		Mobile:     "9999999999",
		Line1:      "1 Main St",
		City:       "Pune",
		State:      "MH",
		PostalCode: "411001",
		Country:    "IN",
	}
}

func TestUserUsecase_GetProfile(t *testing.T) {
	users := new(AuthUserRepoMock)
	uc := usecase.NewUserUsecase(users)

	users.On("FindByID", mock.Anything, int64(7)).Return(model.User{
		ID: 7, Name: "Buyer", Email: "buyer@example.com", Role: model.RoleUser,
		ShippingName: "Buyer", ShippingCity: "Pune",
	}, nil)

	out, err := uc.GetProfile(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", out.Email)
	assert.Equal(t, "Pune", out.Shipping.City)
}

func TestUserUsecase_UpdateShippingAddress(t *testing.T) {
	users := new(AuthUserRepoMock)
	uc := usecase.NewUserUsecase(users)

	// 前後の空白は保存前に落とす
	in := userShippingInput()
	in.City = "  Pune "

	users.On("UpdateShippingAddress", mock.Anything, int64(7), mock.MatchedBy(func(u model.User) bool {
		return u.ShippingCity == "Pune" && u.ShippingName == "Buyer"
	})).Return(nil)

	require.NoError(t, uc.UpdateShippingAddress(context.Background(), 7, in))
	users.AssertExpectations(t)
}

func TestUserUsecase_UpdateShippingAddress_Incomplete(t *testing.T) {
	users := new(AuthUserRepoMock)
	uc := usecase.NewUserUsecase(users)

	//line2だけは空でよい
	in := userShippingInput()
	in.PostalCode = "   "

	err := uc.UpdateShippingAddress(context.Background(), 7, in)

	assertHTTPErr(t, err, http.StatusBadRequest, usecase.KindValidation)
	users.AssertNotCalled(t, "UpdateShippingAddress", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserUsecase_UpdateShippingAddress_UserGone(t *testing.T) {
	users := new(AuthUserRepoMock)
	uc := usecase.NewUserUsecase(users)

	users.On("UpdateShippingAddress", mock.Anything, int64(7), mock.Anything).Return(repo.ErrNotFound)

	err := uc.UpdateShippingAddress(context.Background(), 7, userShippingInput())
	assertHTTPErr(t, err, http.StatusNotFound, usecase.KindNotFound)
}
