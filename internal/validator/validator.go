package validator

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// フィールドごとのエラーメッセージ（422でそのまま返す）
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Empty() bool {
	return len(e) == 0
}

// 必須。空白だけもNG
func (e Errors) Required(field string, v *string) bool {
	if v == nil || strings.TrimSpace(*v) == "" {
		e.Add(field, "The "+label(field)+" field is required.")
		return false
	}
	return true
}

// 文字数（バイト数ではない）の上限
func (e Errors) MaxLen(field, v string, max int) {
	if utf8.RuneCountInString(v) > max {
		e.Add(field, "The "+label(field)+" must not be greater than "+strconv.Itoa(max)+" characters.")
	}
}

func (e Errors) MinLen(field, v string, min int) {
	if utf8.RuneCountInString(v) < min {
		e.Add(field, "The "+label(field)+" must be at least "+strconv.Itoa(min)+" characters.")
	}
}

func (e Errors) Email(field, v string) {
	if !IsEmailLike(v) {
		e.Add(field, "The "+label(field)+" must be a valid email address.")
	}
}

// 値が候補のどれか
func (e Errors) In(field, v string, allowed ...string) {
	for _, a := range allowed {
		if v == a {
			return
		}
	}
	e.Add(field, "The selected "+label(field)+" is invalid.")
}

// 金額：0より大きく、小数は2桁まで
func (e Errors) Price(field string, v decimal.Decimal) {
	if !v.IsPositive() {
		e.Add(field, "The "+label(field)+" must be greater than 0.")
	}
	if !v.Equal(v.Round(2)) {
		e.Add(field, "The "+label(field)+" must have at most 2 decimal places.")
	}
}

func (e Errors) NonNegative(field string, v int64) {
	if v < 0 {
		e.Add(field, "The "+label(field)+" must be at least 0.")
	}
}

func (e Errors) Positive(field string, v int64) {
	if v < 1 {
		e.Add(field, "The "+label(field)+" must be at least 1.")
	}
}

// 簡易メール形式をチェック
func IsEmailLike(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// "address_id" -> "address id", "items.0.quantity" -> "items.0.quantity"
func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
