package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs-labo46/ec-backoffice/internal/cache"
	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	"github.com/rs-labo46/ec-backoffice/internal/query"
	repo "github.com/rs-labo46/ec-backoffice/internal/repository"
	"github.com/rs-labo46/ec-backoffice/internal/validator"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
	cache       *cache.Cache
	ttl         CacheTTL
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, c *cache.Cache, ttl CacheTTL) *ProductUsecase {
	if c == nil {
		c = cache.NewNop()
	}
	return &ProductUsecase{
		productRepo: productRepo,
		cache:       c,
		ttl:         ttl,
	}
}

// POST/PUT /productsの入力DTO。nilは「送られていない」
type ProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int64           `json:"stock"`
}

// GET /products
func (u *ProductUsecase) List(ctx context.Context, values url.Values) (query.Page[model.Product], error) {
	p, err := parseQuery(values, query.ProductSpec)
	if err != nil {
		return query.Page[model.Product]{}, err
	}

	return cache.Remember(ctx, u.cache, cache.ProductListKey(p), u.ttl.ProductList, []string{cache.ProductsTag},
		func(ctx context.Context) (query.Page[model.Product], error) {
			items, total, err := u.productRepo.List(ctx, p)
			if err != nil {
				return query.Page[model.Product]{}, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			return query.NewPage(items, total, p), nil
		})
}

// GET /products/:id（論理削除済みは404）
func (u *ProductUsecase) Get(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	return u.find(ctx, u.productRepo, id)
}

// キャッシュ経由で有効な商品を読む。ミス時はrで取得する。
func (u *ProductUsecase) find(ctx context.Context, r repo.ProductRepository, id int64) (model.Product, error) {
	return cache.Remember(ctx, u.cache, cache.ProductKey(id), u.ttl.ProductDetail, []string{cache.ProductsTag},
		func(ctx context.Context) (model.Product, error) {
			p, err := r.FindByID(ctx, id)
			if errors.Is(err, repo.ErrNotFound) {
				return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
			}
			if err != nil {
				return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			return p, nil
		})
}

func (u *ProductUsecase) Create(ctx context.Context, in ProductInput) (model.Product, error) {
	fields := validator.Errors{}
	if fields.Required("name", in.Name) {
		fields.MaxLen("name", strings.TrimSpace(*in.Name), 255)
	}
	if fields.Required("description", in.Description) {
		fields.MaxLen("description", *in.Description, 1000)
	}
	if in.Price == nil {
		fields.Add("price", "The price field is required.")
	} else {
		fields.Price("price", *in.Price)
	}
	if in.Stock == nil {
		fields.Add("stock", "The stock field is required.")
	} else {
		fields.NonNegative("stock", *in.Stock)
	}

	if _, ok := fields["name"]; !ok {
		if err := u.checkNameAvailable(ctx, fields, strings.TrimSpace(*in.Name), 0); err != nil {
			return model.Product{}, err
		}
	}
	if !fields.Empty() {
		return model.Product{}, NewValidationError(fields)
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        strings.TrimSpace(*in.Name),
		Description: *in.Description,
		Price:       *in.Price,
		Stock:       *in.Stock,
	})
	if err != nil {
		return model.Product{}, u.writeErr(err)
	}

	u.invalidate(ctx, p.ID)
	return p, nil
}

// 送られたフィールドだけ更新する
func (u *ProductUsecase) Update(ctx context.Context, id int64, in ProductInput) (model.Product, error) {
	current, err := u.productRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	fields := validator.Errors{}
	if in.Name != nil {
		if fields.Required("name", in.Name) {
			current.Name = strings.TrimSpace(*in.Name)
			fields.MaxLen("name", current.Name, 255)
		}
	}
	if in.Description != nil {
		if fields.Required("description", in.Description) {
			current.Description = *in.Description
			fields.MaxLen("description", current.Description, 1000)
		}
	}
	if in.Price != nil {
		fields.Price("price", *in.Price)
		current.Price = *in.Price
	}
	if in.Stock != nil {
		fields.NonNegative("stock", *in.Stock)
		current.Stock = *in.Stock
	}

	if _, bad := fields["name"]; in.Name != nil && !bad {
		//自分自身との重複はOK
		if err := u.checkNameAvailable(ctx, fields, current.Name, id); err != nil {
			return model.Product{}, err
		}
	}
	if !fields.Empty() {
		return model.Product{}, NewValidationError(fields)
	}

	updated, err := u.productRepo.Update(ctx, current)
	if err != nil {
		return model.Product{}, u.writeErr(err)
	}

	u.invalidate(ctx, id)
	return updated, nil
}

// 論理削除。すでに削除済みなら400
func (u *ProductUsecase) SoftDelete(ctx context.Context, id int64) (model.Product, error) {
	p, err := u.findWithTrashed(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	if p.Trashed() {
		return model.Product{}, NewCodedError(http.StatusBadRequest, CodeAlreadyDeleted, "product is already deleted")
	}

	if err := u.productRepo.SoftDelete(ctx, id); err != nil {
		return model.Product{}, u.writeErr(err)
	}
	u.invalidate(ctx, id)

	return u.findWithTrashed(ctx, id)
}

// 論理削除の取り消し。削除されていなければ400
func (u *ProductUsecase) Restore(ctx context.Context, id int64) (model.Product, error) {
	p, err := u.findWithTrashed(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	if !p.Trashed() {
		return model.Product{}, NewCodedError(http.StatusBadRequest, CodeNotDeleted, "product is not deleted")
	}

	//削除中に同名の商品が作られていたら戻せない
	fields := validator.Errors{}
	if err := u.checkNameAvailable(ctx, fields, p.Name, id); err != nil {
		return model.Product{}, err
	}
	if !fields.Empty() {
		return model.Product{}, NewValidationError(fields)
	}

	if err := u.productRepo.Restore(ctx, id); err != nil {
		return model.Product{}, u.writeErr(err)
	}
	u.invalidate(ctx, id)

	return u.findWithTrashed(ctx, id)
}

// 物理削除。先に論理削除されている必要がある
func (u *ProductUsecase) Purge(ctx context.Context, id int64) error {
	p, err := u.findWithTrashed(ctx, id)
	if err != nil {
		return err
	}
	if !p.Trashed() {
		return NewCodedError(http.StatusBadRequest, CodeNotSoftDeleted, "product must be soft-deleted before it can be permanently deleted")
	}

	if err := u.productRepo.Purge(ctx, id); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return NewHTTPError(http.StatusConflict, "product is referenced by existing orders")
		}
		return u.writeErr(err)
	}
	u.invalidate(ctx, id)
	return nil
}

func (u *ProductUsecase) findWithTrashed(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	p, err := u.productRepo.FindWithTrashed(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

// 有効な商品の中で名前が重複していないか
func (u *ProductUsecase) checkNameAvailable(ctx context.Context, fields validator.Errors, name string, excludeID int64) error {
	exists, err := u.productRepo.ExistsActiveByName(ctx, name, excludeID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if exists {
		fields.Add("name", "The name has already been taken.")
	}
	return nil
}

// 詳細キーと一覧（タグ or 既知のキー）を消す
func (u *ProductUsecase) invalidate(ctx context.Context, id int64) {
	u.cache.Forget(ctx, cache.ProductKey(id))
	u.cache.FlushTag(ctx, cache.ProductsTag, cache.ProductListFallbackKeys()...)
}

func (u *ProductUsecase) writeErr(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "product not found")
	case errors.Is(err, repo.ErrConflict):
		fields := validator.Errors{}
		fields.Add("name", "The name has already been taken.")
		return NewValidationError(fields)
	}
	return NewHTTPError(http.StatusInternalServerError, "db error")
}
