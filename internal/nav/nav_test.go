package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMarksCatalogActive(t *testing.T) {
	for _, p := range []string{"/", "/catalog", "/catalog/products"} {
		items := Build(p)
		require.NotEmpty(t, items)
		assert.True(t, items[0].Active, p)
		assert.False(t, items[1].Active, p)
	}
	assert.False(t, Build("/catalogue")[0].Active)
}

func TestBreadcrumbs(t *testing.T) {
	crumbs := Breadcrumbs("/", "pt")
	require.Len(t, crumbs, 1)
	assert.True(t, crumbs[0].Active)

	crumbs = Breadcrumbs("/catalog/modal/order-by", "en")
	require.Len(t, crumbs, 4)
	assert.Equal(t, "nav.catalog", crumbs[1].LabelKey)
	assert.Equal(t, "/catalog/modal", crumbs[2].Href)
	assert.Equal(t, "Modal", crumbs[2].Label)
	assert.Equal(t, "Order By", crumbs[3].Label)
	assert.True(t, crumbs[3].Active)
	assert.False(t, crumbs[1].Active)
}
