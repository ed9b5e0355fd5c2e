package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMeta(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		total     int64
		wantPages int
		wantNext  bool
		wantPrev  bool
	}{
		{"empty result", 1, 20, 0, 0, false, false},
		{"single page", 1, 20, 15, 1, false, false},
		{"exact fit", 1, 20, 40, 2, true, false},
		{"partial last page", 2, 20, 41, 3, true, true},
		{"last page", 3, 20, 41, 3, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := GetMeta(&Params{Page: tt.page, Limit: tt.limit}, tt.total)
			assert.Equal(t, tt.wantPages, meta.TotalPages)
			assert.Equal(t, tt.wantNext, meta.HasNext)
			assert.Equal(t, tt.wantPrev, meta.HasPrev)
			assert.Equal(t, tt.total, meta.Total)
		})
	}
}

func TestNewResponseWrapsDataAndMeta(t *testing.T) {
	data := []string{"a", "b"}
	resp := NewResponse(data, &Params{Page: 1, Limit: 2}, 5)

	assert.Equal(t, data, resp.Data)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.True(t, resp.Meta.HasNext)
}
