// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	"github.com/rs-labo46/ec-backoffice/internal/infra/db"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB はテスト毎に独立したインメモリSQLiteを返す（マイグレーション済み）。
// 接続を1本に固定して、同じ :memory: DBを共有させる。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gormDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gormDB
}

func CreateUser(t testing.TB, gormDB *gorm.DB, email string) model.User {
	t.Helper()
	u := model.User{Name: "user " + email, Email: email, PasswordHash: "x"}
	if err := gormDB.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func CreateAddress(t testing.TB, gormDB *gorm.DB, userID int64) model.Address {
	t.Helper()
	a := model.Address{
		UserID:  userID,
		Street:  "Calle Falsa 123",
		City:    "Buenos Aires",
		State:   "CABA",
		Zip:     "1234",
		Country: "Argentina",
		Type:    model.AddressTypeDelivery,
	}
	if err := gormDB.Create(&a).Error; err != nil {
		t.Fatalf("create address: %v", err)
	}
	return a
}

func CreateProduct(t testing.TB, gormDB *gorm.DB, name string, price string, stock int64) model.Product {
	t.Helper()
	p := model.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
	}
	if err := gormDB.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}
