package http

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromURL(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"https://api.carelink.test", false},
		{"http://localhost:8080/api", false},
		{"localhost:8080", true},
		{"/relative/path", true},
		{"://bad", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := FromURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestURLBuilder(t *testing.T) {
	base, err := FromURL("https://api.carelink.test/v1?lang=en")
	require.NoError(t, err)

	tests := []struct {
		name     string
		segments []string
		query    url.Values
		want     string
	}{
		{"root", nil, nil, "https://api.carelink.test/v1?lang=en"},
		{"single", []string{"/observations"}, nil, "https://api.carelink.test/v1/observations?lang=en"},
		{"slashes collapse", []string{"/family-members/", "/m-1"}, nil, "https://api.carelink.test/v1/family-members/m-1?lang=en"},
		{"embedded query", []string{"/observations?page=2"}, url.Values{"limit": {"10"}}, "https://api.carelink.test/v1/observations?lang=en&limit=10&page=2"},
		{"escaped segment", []string{Join("/records", "a b/c")}, nil, "https://api.carelink.test/v1/records/a%20b%2Fc?lang=en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.Clone().AppendPath(tt.segments...).QueryValues(tt.query).String()
			assert.Equal(t, tt.want, got)
		})
	}

	// the base is untouched by its clones
	assert.Equal(t, "https://api.carelink.test/v1?lang=en", base.String())
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "/api/observations/o-1", Join("/api/observations", "o-1"))
	assert.Equal(t, "/api/records", Join("/api/records", ""))
	assert.Equal(t, "/api/records/x%2Fy", Join("/api/records", "x/y"))
}
