package repository

import (
	"context"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	repo "github.com/rs-labo46/ec-backoffice/internal/repository"

	"gorm.io/gorm"
)

type addressGormRepository struct {
	db *gorm.DB
}

// DI
func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &addressGormRepository{db: db}
}

// 住所を作成
func (r *addressGormRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	if err := r.db.WithContext(ctx).Create(&address).Error; err != nil {
		return model.Address{}, translate(err)
	}
	return address, nil
}

// ユーザーの住所一覧を返す
func (r *addressGormRepository) ListByUserID(ctx context.Context, userID int64, addrType model.AddressType) ([]model.Address, error) {
	list := []model.Address{}
	tx := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if addrType != "" {
		tx = tx.Where("type = ?", addrType)
	}
	if err := tx.Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// 住所IDで1件取得
func (r *addressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	if err := r.db.WithContext(ctx).First(&a, addressID).Error; err != nil {
		return model.Address{}, translate(err)
	}
	return a, nil
}

// 住所を更新
func (r *addressGormRepository) Update(ctx context.Context, address model.Address) (model.Address, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Address{}).
		Where("id = ?", address.ID).
		Select("street", "city", "state", "zip", "country", "type").
		Updates(address)

	if result.Error != nil {
		return model.Address{}, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return model.Address{}, repo.ErrNotFound
	}
	return r.FindByID(ctx, address.ID)
}

// 住所を削除（注文から参照中ならErrConflict）
func (r *addressGormRepository) Delete(ctx context.Context, addressID int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", addressID).
		Delete(&model.Address{})

	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
