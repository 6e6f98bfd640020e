package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []int64
		wantErr  bool
	}{
		{"empty", "", nil, false},
		{"single", "tags=1", []int64{1}, false},
		{"several", "tags=1,2,3", []int64{1, 2, 3}, false},
		{"spaces and blanks tolerated", "tags=1,%202,,3", []int64{1, 2, 3}, false},
		{"garbage", "tags=1,x", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			ids, err := parseIDList(req, "tags")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids)
		})
	}
}
