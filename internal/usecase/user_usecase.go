package usecase

import (
	"context"
	"errors"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type UserUsecase struct {
	users repo.UserRepository
}

func NewUserUsecase(users repo.UserRepository) *UserUsecase {
	return &UserUsecase{users: users}
}

type ShippingAddressInput struct {
	Name       string `json:"name"`
	Mobile     string `json:"mobile"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type ProfileOutput struct {
	UserOutput
	Shipping ShippingOutput `json:"shipping"`
}

func (u *UserUsecase) GetProfile(ctx context.Context, userID int64) (ProfileOutput, error) {
	if userID <= 0 {
		return ProfileOutput{}, newUnauthorizedError()
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProfileOutput{}, newNotFoundError("user not found")
	}
	if err != nil {
		return ProfileOutput{}, newPersistenceError()
	}

	return ProfileOutput{
		UserOutput: toUserOutput(user),
		Shipping: ShippingOutput{
			Name:       user.ShippingName,
			Mobile:     user.ShippingMobile,
			Line1:      user.ShippingLine1,
			Line2:      user.ShippingLine2,
			City:       user.ShippingCity,
			State:      user.ShippingState,
			PostalCode: user.ShippingPostalCode,
			Country:    user.ShippingCountry,
		},
	}, nil
}

// 配送先の更新。line2以外は必須。
func (u *UserUsecase) UpdateShippingAddress(ctx context.Context, userID int64, in ShippingAddressInput) error {
	if userID <= 0 {
		return newUnauthorizedError()
	}

	addr := model.User{
		ShippingName:       strings.TrimSpace(in.Name),
		ShippingMobile:     strings.TrimSpace(in.Mobile),
		ShippingLine1:      strings.TrimSpace(in.Line1),
		ShippingLine2:      strings.TrimSpace(in.Line2),
		ShippingCity:       strings.TrimSpace(in.City),
		ShippingState:      strings.TrimSpace(in.State),
		ShippingPostalCode: strings.TrimSpace(in.PostalCode),
		ShippingCountry:    strings.TrimSpace(in.Country),
	}
	if !addr.HasCompleteShippingAddress() {
		return newValidationError("all address fields except line2 are required")
	}

	if err := u.users.UpdateShippingAddress(ctx, userID, addr); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return newNotFoundError("user not found")
		}
		return newPersistenceError()
	}
	return nil
}
