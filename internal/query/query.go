// Package query turns URL-style filter/sort/page parameters into bounded,
// allow-listed gorm queries.
package query

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

type FilterKind int

const (
	// 完全一致
	Exact FilterKind = iota
	// 部分一致（大文字小文字を区別しない）
	Partial
	// column >= value
	Min
	// column <= value
	Max
	// 真ならCondを足す。偽なら何もしない
	Flag
)

// 許可するフィルタ1つ分
type Filter struct {
	Name    string
	Column  string
	Kind    FilterKind
	Numeric bool
	// Exactで許可する値（空なら制限なし）
	Enum []string
	// Flag用の条件
	Cond string
}

// 許可リスト
type Spec struct {
	Filters []Filter
	// ソート名 -> カラム
	Sorts       map[string]string
	DefaultSort string
}

func (s Spec) filter(name string) (Filter, bool) {
	for _, f := range s.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return Filter{}, false
}

// Parse 済みのパラメータ。Filtersは正規化された filter[...] の値。
type Params struct {
	Filters map[string]string
	Sort    string
	Page    int
	PerPage int
}

// 不正なパラメータ（400）
type Error struct {
	Param   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Message)
}

// フラットな ?name=x を filter[name]=x に寄せる。
// 明示的な filter[name] があればそちらを優先する。
func Normalize(values url.Values, spec Spec) url.Values {
	out := url.Values{}
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}
	for _, f := range spec.Filters {
		key := "filter[" + f.Name + "]"
		if _, explicit := out[key]; explicit {
			continue
		}
		if v, ok := out[f.Name]; ok && len(v) > 0 {
			out.Set(key, v[0])
		}
	}
	return out
}

func Parse(values url.Values, spec Spec) (Params, error) {
	values = Normalize(values, spec)

	p := Params{
		Filters: map[string]string{},
		Page:    1,
		PerPage: DefaultPerPage,
	}

	for key, v := range values {
		if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(key, "filter["), "]")
		f, ok := spec.filter(name)
		if !ok {
			return Params{}, &Error{Param: key, Message: "filter not allowed"}
		}
		val := ""
		if len(v) > 0 {
			val = strings.TrimSpace(v[0])
		}
		if val == "" {
			continue
		}
		if f.Numeric {
			if _, err := decimal.NewFromString(val); err != nil {
				return Params{}, &Error{Param: key, Message: "must be a number"}
			}
		}
		if len(f.Enum) > 0 && !contains(f.Enum, val) {
			return Params{}, &Error{Param: key, Message: "invalid value"}
		}
		p.Filters[name] = val
	}

	if s := strings.TrimSpace(values.Get("sort")); s != "" {
		if _, ok := spec.Sorts[strings.TrimPrefix(s, "-")]; !ok {
			return Params{}, &Error{Param: "sort", Message: "sort not allowed"}
		}
		p.Sort = s
	}

	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Params{}, &Error{Param: "page", Message: "must be a positive integer"}
		}
		p.Page = n
	}
	if v := values.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Params{}, &Error{Param: "per_page", Message: "must be a positive integer"}
		}
		if n > MaxPerPage {
			n = MaxPerPage
		}
		p.PerPage = n
	}
	// OFFSETがintに収まらないページは存在しない
	if p.Page-1 > math.MaxInt/p.Limit() {
		return Params{}, &Error{Param: "page", Message: "page is out of range"}
	}

	return p, nil
}

// 順序に依存しないキャッシュキー用の文字列
func (p Params) CacheKey() string {
	v := url.Values{}
	for name, val := range p.Filters {
		v.Set("filter["+name+"]", val)
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	page, perPage := p.Page, p.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("per_page", strconv.Itoa(perPage))
	// url.Values.Encode はキー順に並べる
	return v.Encode()
}

func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

func (p Params) Limit() int {
	if p.PerPage < 1 {
		return DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		return MaxPerPage
	}
	return p.PerPage
}

func sortedFilterNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
