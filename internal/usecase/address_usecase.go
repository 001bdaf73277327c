package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	repo "github.com/rs-labo46/ec-backoffice/internal/repository"
	"github.com/rs-labo46/ec-backoffice/internal/validator"
)

type AddressDTO struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// 作成・更新共通。更新ではnilの項目は変更しない
type AddressInput struct {
	Street  *string `json:"street"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Zip     *string `json:"zip"`
	Country *string `json:"country"`
	Type    *string `json:"type"`
}

// 項目ごとの最大文字数
var addressLimits = []struct {
	field string
	max   int
	get   func(in AddressInput) *string
}{
	{"street", 255, func(in AddressInput) *string { return in.Street }},
	{"city", 100, func(in AddressInput) *string { return in.City }},
	{"state", 100, func(in AddressInput) *string { return in.State }},
	{"zip", 20, func(in AddressInput) *string { return in.Zip }},
	{"country", 100, func(in AddressInput) *string { return in.Country }},
}

func (in AddressInput) validate(partial bool) validator.Errors {
	fields := validator.Errors{}
	for _, l := range addressLimits {
		v := l.get(in)
		if v == nil && partial {
			continue
		}
		if fields.Required(l.field, v) {
			fields.MaxLen(l.field, strings.TrimSpace(*v), l.max)
		}
	}
	if in.Type != nil || !partial {
		if fields.Required("type", in.Type) {
			fields.In("type", *in.Type, string(model.AddressTypeDelivery), string(model.AddressTypeBilling))
		}
	}
	return fields
}

type AddressUsecase struct {
	addresses repo.AddressRepository
}

func NewAddressUsecase(addresses repo.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses}
}

// addrTypeが空なら全種別
func (u *AddressUsecase) List(ctx context.Context, userID int64, addrType string) ([]AddressDTO, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	t := model.AddressType(strings.TrimSpace(addrType))
	if t != "" && !t.Valid() {
		return nil, NewHTTPError(http.StatusBadRequest, "type must be delivery or billing")
	}

	list, err := u.addresses.ListByUserID(ctx, userID, t)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, toAddressDTO(&list[i]))
	}
	return out, nil
}

func (u *AddressUsecase) Get(ctx context.Context, userID int64, addressID int64) (AddressDTO, error) {
	a, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return AddressDTO{}, err
	}
	return toAddressDTO(&a), nil
}

func (u *AddressUsecase) Create(ctx context.Context, userID int64, in AddressInput) (AddressDTO, error) {
	if userID <= 0 {
		return AddressDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//入力チェック
	if fields := in.validate(false); !fields.Empty() {
		return AddressDTO{}, NewValidationError(fields)
	}

	created, err := u.addresses.Create(ctx, model.Address{
		UserID:  userID,
		Street:  strings.TrimSpace(*in.Street),
		City:    strings.TrimSpace(*in.City),
		State:   strings.TrimSpace(*in.State),
		Zip:     strings.TrimSpace(*in.Zip),
		Country: strings.TrimSpace(*in.Country),
		Type:    model.AddressType(*in.Type),
	})
	if err != nil {
		return AddressDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toAddressDTO(&created), nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, in AddressInput) (AddressDTO, error) {
	//所有チェック（本人のみ）
	a, err := u.owned(ctx, userID, addressID)
	if err != nil {
		return AddressDTO{}, err
	}

	if fields := in.validate(true); !fields.Empty() {
		return AddressDTO{}, NewValidationError(fields)
	}
	apply := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	apply(&a.Street, in.Street)
	apply(&a.City, in.City)
	apply(&a.State, in.State)
	apply(&a.Zip, in.Zip)
	apply(&a.Country, in.Country)
	if in.Type != nil {
		a.Type = model.AddressType(*in.Type)
	}

	updated, err := u.addresses.Update(ctx, a)
	if errors.Is(err, repo.ErrNotFound) {
		return AddressDTO{}, NewHTTPError(http.StatusNotFound, "address not found")
	}
	if err != nil {
		return AddressDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toAddressDTO(&updated), nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if _, err := u.owned(ctx, userID, addressID); err != nil {
		return err
	}

	err := u.addresses.Delete(ctx, addressID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "address not found")
	case errors.Is(err, repo.ErrConflict):
		//注文が参照中などで削除できない 409
		return NewHTTPError(http.StatusConflict, "address is used by existing orders")
	}
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

// 存在しなければ404、他人の住所なら403
func (u *AddressUsecase) owned(ctx context.Context, userID int64, addressID int64) (model.Address, error) {
	if userID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if addressID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusNotFound, "address not found")
	}

	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Address{}, NewHTTPError(http.StatusNotFound, "address not found")
	}
	if err != nil {
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if a.UserID != userID {
		return model.Address{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return a, nil
}

func toAddressDTO(a *model.Address) AddressDTO {
	return AddressDTO{
		ID:        a.ID,
		UserID:    a.UserID,
		Street:    a.Street,
		City:      a.City,
		State:     a.State,
		Zip:       a.Zip,
		Country:   a.Country,
		Type:      string(a.Type),
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}
