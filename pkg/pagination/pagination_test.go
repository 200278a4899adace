package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQueryDefaults(t *testing.T) {
	params := ParseQuery("", "")
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, DefaultPerPage, params.PerPage)
}

func TestParseQueryTortuousInput(t *testing.T) {
	params := ParseQuery("abc", "-5")
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, DefaultPerPage, params.PerPage)
}

func TestNormalizeCapsPerPage(t *testing.T) {
	params := Params{Page: 3, PerPage: 5000}.Normalize()
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, MaxPerPage, params.PerPage)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, PerPage: 25}.Offset())
	assert.Equal(t, 50, Params{Page: 3, PerPage: 25}.Offset())
	// unset params normalize before computing
	assert.Equal(t, 0, Params{}.Offset())
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(Params{Page: 2, PerPage: 10}, 45)
	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 10, meta.PerPage)
	assert.Equal(t, int64(45), meta.TotalCount)
}
