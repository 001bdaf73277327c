package query_test

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/rs-labo46/ec-backoffice/internal/domain/model"
	"github.com/rs-labo46/ec-backoffice/internal/query"
	"github.com/rs-labo46/ec-backoffice/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func listProducts(t *testing.T, db *gorm.DB, v url.Values) ([]model.Product, int64) {
	t.Helper()
	p, err := query.Parse(v, query.ProductSpec)
	require.NoError(t, err)

	var total int64
	tx := query.Where(db.Model(&model.Product{}), p, query.ProductSpec)
	require.NoError(t, tx.Count(&total).Error)

	var out []model.Product
	require.NoError(t, query.Paginate(query.OrderBy(tx, p, query.ProductSpec), p).Find(&out).Error)
	return out, total
}

func names(ps []model.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestWhere_PartialNameIsCaseInsensitive(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateProduct(t, db, "Smart TV", "100", 1)
	testutil.CreateProduct(t, db, "smartphone", "200", 1)
	testutil.CreateProduct(t, db, "Mouse", "10", 1)

	got, total := listProducts(t, db, url.Values{"filter[name]": {"SMART"}})

	assert.Equal(t, int64(2), total)
	assert.ElementsMatch(t, []string{"Smart TV", "smartphone"}, names(got))
}

func TestWhere_LikeWildcardsAreEscaped(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateProduct(t, db, "100% cotton", "10", 1)
	testutil.CreateProduct(t, db, "1000 cotton", "10", 1)

	got, _ := listProducts(t, db, url.Values{"name": {"100%"}})

	assert.Equal(t, []string{"100% cotton"}, names(got))
}

func TestWhere_RangesAndStock(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateProduct(t, db, "a", "10", 0)
	testutil.CreateProduct(t, db, "b", "50", 3)
	testutil.CreateProduct(t, db, "c", "100", 5)
	testutil.CreateProduct(t, db, "d", "150", 5)

	got, _ := listProducts(t, db, url.Values{
		"min_price":         {"50"},
		"filter[max_price]": {"100"},
		"sort":              {"price"},
	})
	assert.Equal(t, []string{"b", "c"}, names(got))

	got, _ = listProducts(t, db, url.Values{"in_stock": {"true"}, "sort": {"name"}})
	assert.Equal(t, []string{"b", "c", "d"}, names(got))

	// in_stock=false は条件なし
	_, total := listProducts(t, db, url.Values{"in_stock": {"false"}})
	assert.Equal(t, int64(4), total)

	got, _ = listProducts(t, db, url.Values{"price": {"100"}})
	assert.Equal(t, []string{"c"}, names(got))
}

func TestWhere_SoftDeletedAreExcluded(t *testing.T) {
	db := testutil.NewDB(t)
	p := testutil.CreateProduct(t, db, "gone", "10", 1)
	testutil.CreateProduct(t, db, "kept", "10", 1)
	require.NoError(t, db.Delete(&model.Product{}, p.ID).Error)

	got, total := listProducts(t, db, url.Values{})
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"kept"}, names(got))
}

// 同じ価格が並んでもページ間で重複・欠落しない
func TestPaginate_DisjointContiguousPages(t *testing.T) {
	db := testutil.NewDB(t)
	for i := 0; i < 7; i++ {
		testutil.CreateProduct(t, db, fmt.Sprintf("p%d", i), "10", 1)
	}

	all, total := listProducts(t, db, url.Values{"sort": {"-price"}, "per_page": {"100"}})
	require.Equal(t, int64(7), total)

	var paged []string
	for page := 1; page <= 3; page++ {
		got, _ := listProducts(t, db, url.Values{
			"sort":     {"-price"},
			"per_page": {"3"},
			"page":     {fmt.Sprint(page)},
		})
		paged = append(paged, names(got)...)
	}

	assert.Equal(t, names(all), paged)
}
