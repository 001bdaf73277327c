package model

import "time"

type AddressType string

const (
	AddressTypeDelivery AddressType = "delivery"
	AddressTypeBilling  AddressType = "billing"
)

func (t AddressType) Valid() bool {
	return t == AddressTypeDelivery || t == AddressTypeBilling
}

// 住所
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	Street  string `gorm:"type:varchar(255);not null" json:"street"`
	City    string `gorm:"type:varchar(100);not null" json:"city"`
	State   string `gorm:"type:varchar(100);not null" json:"state"`
	Zip     string `gorm:"type:varchar(20);not null" json:"zip"`
	Country string `gorm:"type:varchar(100);not null" json:"country"`

	//delivery / billing
	Type AddressType `gorm:"type:varchar(20);not null;index" json:"type"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
