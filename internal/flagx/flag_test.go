package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value travels with its flag",
			args:    []string{"-a", "http://srv:8080", "-x", "ignored"},
			allowed: []string{"-a"},
			want:    []string{"-a", "http://srv:8080"},
		},
		{
			name:    "equals form kept whole",
			args:    []string{"-config=qp.json", "-x", "1"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-config=qp.json"},
		},
		{
			name:    "order preserved across mixed forms",
			args:    []string{"-config=one.json", "-c", "two.json", "-zz"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-config=one.json", "-c", "two.json"},
		},
		{
			name:    "nothing allowed gives empty non-nil slice",
			args:    []string{"-x", "1", "-y=2", "positional"},
			allowed: []string{"-a"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-a"},
			allowed: []string{"-a"},
			want:    []string{"-a"},
		},
		{
			name:    "dash-starting token is not taken as a value",
			args:    []string{"-a", "-f", "cache.db"},
			allowed: []string{"-a", "-f"},
			want:    []string{"-a", "-f", "cache.db"},
		},
		{
			name:    "repeated flag kept in order",
			args:    []string{"-f", "one.db", "-f", "two.db"},
			allowed: []string{"-f"},
			want:    []string{"-f", "one.db", "-f", "two.db"},
		},
		{
			name:    "empty input",
			args:    []string{},
			allowed: []string{"-a"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short form", func(t *testing.T) {
		os.Args = []string{"qp", "-c", "/etc/qp/short.json"}
		assert.Equal(t, "/etc/qp/short.json", JsonConfigFlags())
	})

	t.Run("long form", func(t *testing.T) {
		os.Args = []string{"qp", "-config", "/etc/qp/long.json"}
		assert.Equal(t, "/etc/qp/long.json", JsonConfigFlags())
	})

	t.Run("absent", func(t *testing.T) {
		os.Args = []string{"qp", "-x", "1"}
		assert.Empty(t, JsonConfigFlags())
	})

	t.Run("last occurrence wins", func(t *testing.T) {
		os.Args = []string{"qp", "-c", "/a.json", "-config", "/b.json"}
		assert.Equal(t, "/b.json", JsonConfigFlags())
	})
}
