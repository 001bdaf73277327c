package db

import (
	"context"
	"errors"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "password123"
)

var demoProducts = []model.Product{
	{Name: "Smartphone Samsung Galaxy", Description: "Latest generation smartphone", Price: decimal.RequireFromString("89999.99"), Stock: 50},
	{Name: "Laptop Dell Inspiron", Description: "Laptop for professional use", Price: decimal.RequireFromString("125999.99"), Stock: 25},
	{Name: "Sony Bluetooth Headphones", Description: "Wireless headphones with noise cancelling", Price: decimal.RequireFromString("15999.99"), Stock: 100},
	{Name: `LG Smart TV 55"`, Description: "4K Ultra HD smart TV", Price: decimal.RequireFromString("75999.99"), Stock: 30},
	{Name: "Logitech Gaming Mouse", Description: "Gaming mouse with high precision sensor", Price: decimal.RequireFromString("8999.99"), Stock: 75},
}

// デモ用のユーザー・住所・商品を入れる。既にあるものは作らない。
func Seed(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		err := tx.Where("email = ?", DemoEmail).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user = model.User{Name: "Demo User", Email: DemoEmail, PasswordHash: string(hash)}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			if err := tx.Create(&model.Address{
				UserID:  user.ID,
				Street:  "Calle Falsa 123",
				City:    "Buenos Aires",
				State:   "CABA",
				Zip:     "1234",
				Country: "Argentina",
				Type:    model.AddressTypeDelivery,
			}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		for _, p := range demoProducts {
			var n int64
			if err := tx.Model(&model.Product{}).Where("name = ?", p.Name).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			p := p
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
