package query

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// フィルタだけを足す（AND結合）。ソート/ページングは含まない。
func Where(db *gorm.DB, p Params, spec Spec) *gorm.DB {
	for _, name := range sortedFilterNames(p.Filters) {
		f, ok := spec.filter(name)
		if !ok {
			continue
		}
		val := p.Filters[name]
		switch f.Kind {
		case Exact:
			db = db.Where(clause.Eq{Column: clause.Column{Name: f.Column}, Value: val})
		case Partial:
			like := "%" + escapeLike(strings.ToLower(val)) + "%"
			db = db.Where("LOWER("+f.Column+") LIKE ? ESCAPE '\\'", like)
		case Min:
			db = db.Where(clause.Gte{Column: clause.Column{Name: f.Column}, Value: val})
		case Max:
			db = db.Where(clause.Lte{Column: clause.Column{Name: f.Column}, Value: val})
		case Flag:
			if truthy(val) && f.Cond != "" {
				db = db.Where(f.Cond)
			}
		}
	}
	return db
}

// ソートを足す。同値のときはidで順序を固定する。
func OrderBy(db *gorm.DB, p Params, spec Spec) *gorm.DB {
	s := p.Sort
	if s == "" {
		s = spec.DefaultSort
	}
	desc := strings.HasPrefix(s, "-")
	if col, ok := spec.Sorts[strings.TrimPrefix(s, "-")]; ok {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc})
	}
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
}

func Paginate(db *gorm.DB, p Params) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.Limit())
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
