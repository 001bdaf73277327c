package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/rs-labo46/ec-backoffice/internal/query"
)

const (
	// 商品の一覧・詳細すべてに付けるタグ
	ProductsTag = "products"

	OrderStatsKey = "orders:stats"

	// タグ非対応時に個別に消す一覧ページ数
	fallbackPages = 3
)

func ProductKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func ProductListKey(p query.Params) string {
	return "products:list:" + digest(p.CacheKey())
}

// タグが使えないときに消す既知の一覧キー（条件なしの先頭ページ）
func ProductListFallbackKeys() []string {
	keys := make([]string, 0, fallbackPages)
	for page := 1; page <= fallbackPages; page++ {
		keys = append(keys, ProductListKey(query.Params{Page: page, PerPage: query.DefaultPerPage}))
	}
	return keys
}

func OrderKey(id int64) string {
	return fmt.Sprintf("order:%d", id)
}

func UserOrdersTag(userID int64) string {
	return fmt.Sprintf("orders:user:%d", userID)
}

func UserOrdersKey(userID int64, p query.Params) string {
	return UserOrdersTag(userID) + ":" + digest(p.CacheKey())
}

func UserOrdersFallbackKeys(userID int64) []string {
	keys := make([]string, 0, fallbackPages)
	for page := 1; page <= fallbackPages; page++ {
		keys = append(keys, UserOrdersKey(userID, query.Params{Page: page, PerPage: query.DefaultPerPage}))
	}
	return keys
}

func digest(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
