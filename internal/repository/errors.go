package repository

import "errors"

var (
	// 対象の行が存在しない
	ErrNotFound = errors.New("not found")
	// 一意制約・外部キーなどの競合
	ErrConflict = errors.New("conflict")
)
