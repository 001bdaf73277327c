package repository

import (
	"context"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
)

// 住所(Address)を保存・取得する窓口
type AddressRepository interface {
	Create(ctx context.Context, address model.Address) (model.Address, error)

	//ユーザーが持つ住所一覧を返す（addrTypeが空なら全種別）
	ListByUserID(ctx context.Context, userID int64, addrType model.AddressType) ([]model.Address, error)

	FindByID(ctx context.Context, addressID int64) (model.Address, error)
	Update(ctx context.Context, address model.Address) (model.Address, error)
	Delete(ctx context.Context, addressID int64) error
}
