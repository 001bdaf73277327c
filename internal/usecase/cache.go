package usecase

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/rs-labo46/ec-backoffice/internal/config"
	"github.com/rs-labo46/ec-backoffice/internal/query"
)

// 読み取りキャッシュの有効期限
type CacheTTL struct {
	ProductList   time.Duration
	ProductDetail time.Duration
	Order         time.Duration
	OrderStats    time.Duration
}

func CacheTTLFromConfig(cfg config.Config) CacheTTL {
	return CacheTTL{
		ProductList:   cfg.ProductListTTL,
		ProductDetail: cfg.ProductDetailTTL,
		Order:         cfg.OrderTTL,
		OrderStats:    cfg.OrderStatsTTL,
	}
}

// クエリ文字列を解釈する。不正なパラメータは400
func parseQuery(values url.Values, spec query.Spec) (query.Params, error) {
	p, err := query.Parse(values, spec)
	if err != nil {
		var qe *query.Error
		if errors.As(err, &qe) {
			return query.Params{}, NewHTTPError(http.StatusBadRequest, qe.Error())
		}
		return query.Params{}, NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	return p, nil
}
