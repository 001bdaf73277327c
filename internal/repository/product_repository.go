package repository

import (
	"context"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	"github.com/rs-labo46/ec-backoffice/internal/query"
)

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	// 論理削除されていない商品を、フィルタ/ソート/ページング付きで返す。
	List(ctx context.Context, p query.Params) ([]model.Product, int64, error)

	// 論理削除されていない商品を1件取得
	FindByID(ctx context.Context, id int64) (model.Product, error)

	// 論理削除済みも含めて1件取得
	FindWithTrashed(ctx context.Context, id int64) (model.Product, error)

	// 同名の有効な商品があるか（excludeIDは自分自身を除くため。0なら除外なし）
	ExistsActiveByName(ctx context.Context, name string, excludeID int64) (bool, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) (model.Product, error)
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error

	// 物理削除（元に戻せない）
	Purge(ctx context.Context, id int64) error
}
