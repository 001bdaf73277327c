package repository

import (
	"context"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	//トークンのバージョンを＋１（ログアウト）
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
