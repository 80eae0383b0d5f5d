package cli

import (
	goruntime "runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	t.Cleanup(func() { SetVersion("dev") })
	SetVersion("1.4.0")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "full",
			args: []string{"version"},
			want: "vault-rag version 1.4.0 (" + goruntime.Version() + ", " + goruntime.GOOS + "/" + goruntime.GOARCH + ")\n",
		},
		{
			name: "short",
			args: []string{"version", "--short"},
			want: "1.4.0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	_, err := execute(t, "version", "extra")
	assert.Error(t, err)
}
