package model

// マイグレーション対象
func All() []any {
	return []any{
		&User{},
		&Address{},
		&Product{},
		&Invoice{},
		&Order{},
		&OrderItem{},
		&Job{},
		&FailedJob{},
		&CacheEntry{},
	}
}
