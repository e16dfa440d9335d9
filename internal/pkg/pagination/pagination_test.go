package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		page   string
		limit  string
		want   Request
		offset int
	}{
		{"Defaults", "", "", Request{Number: 1, Limit: DefaultLimit}, 0},
		{"Explicit", "3", "10", Request{Number: 3, Limit: 10}, 20},
		{"Zero", "0", "0", Request{Number: 1, Limit: DefaultLimit}, 0},
		{"Negative", "-2", "-5", Request{Number: 1, Limit: DefaultLimit}, 0},
		{"Garbage", "abc", "xyz", Request{Number: 1, Limit: DefaultLimit}, 0},
		{"LimitCapped", "2", "1000", Request{Number: 2, Limit: MaxLimit}, MaxLimit},
		{"HugePage", "9223372036854775807", "100", Request{Number: MaxPage, Limit: 100}, (MaxPage - 1) * 100},
		{"BeyondInt", "99999999999999999999999", "10", Request{Number: 1, Limit: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.page, tt.limit)
			assert.Equal(t, tt.want, got)

			window := got.Window()
			assert.Equal(t, tt.offset, window.Offset)
			assert.GreaterOrEqual(t, window.Offset, 0)
			assert.Equal(t, got.Limit, window.Limit)
		})
	}
}

func TestRequest_Meta(t *testing.T) {
	meta := Request{Number: 2, Limit: 20}.Meta(45)
	assert.EqualValues(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	meta = Request{Number: 1, Limit: 20}.Meta(0)
	assert.Zero(t, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.False(t, meta.HasPrev)

	meta = Request{Number: 3, Limit: 15}.Meta(45)
	assert.EqualValues(t, 3, meta.TotalPages)
	assert.False(t, meta.HasNext)
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]int{1, 2}, Request{Number: 1, Limit: 2}, 5)
	assert.Equal(t, []int{1, 2}, resp.Data)
	assert.EqualValues(t, 3, resp.Meta.TotalPages)
	assert.EqualValues(t, 5, resp.Meta.Total)
}
