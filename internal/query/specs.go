package query

// 商品一覧で許可するフィルタ/ソート
var ProductSpec = Spec{
	Filters: []Filter{
		{Name: "name", Column: "name", Kind: Partial},
		{Name: "price", Column: "price", Kind: Exact, Numeric: true},
		{Name: "min_price", Column: "price", Kind: Min, Numeric: true},
		{Name: "max_price", Column: "price", Kind: Max, Numeric: true},
		{Name: "in_stock", Kind: Flag, Cond: "stock > 0"},
	},
	Sorts: map[string]string{
		"name":       "name",
		"price":      "price",
		"stock":      "stock",
		"created_at": "created_at",
	},
	DefaultSort: "id",
}

// 注文一覧で許可するフィルタ/ソート
var OrderSpec = Spec{
	Filters: []Filter{
		{Name: "status", Column: "status", Kind: Exact, Enum: []string{
			"pending", "processing", "shipped", "delivered", "cancelled", "completed",
		}},
		{Name: "min_total", Column: "total", Kind: Min, Numeric: true},
		{Name: "max_total", Column: "total", Kind: Max, Numeric: true},
	},
	Sorts: map[string]string{
		"created_at": "created_at",
		"total":      "total",
		"status":     "status",
	},
	DefaultSort: "-created_at",
}
