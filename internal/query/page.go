package query

// ページングした結果
type Page[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
}

func NewPage[T any](items []T, total int64, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	perPage := p.Limit()
	current := p.Page
	if current < 1 {
		current = 1
	}

	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}

	out := Page[T]{
		Data:        items,
		CurrentPage: current,
		PerPage:     perPage,
		Total:       total,
		LastPage:    last,
	}
	if len(items) > 0 {
		from := p.Offset() + 1
		to := p.Offset() + len(items)
		out.From = &from
		out.To = &to
	}
	return out
}
