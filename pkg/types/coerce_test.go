package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCommitHash(t *testing.T) {
	valid := strings.Repeat("0f", 32)
	raw := make([]byte, HashSize)
	for i := range raw {
		raw[i] = 0x0f
	}

	tests := []struct {
		name    string
		input   CommitSource
		want    CommitHash
		wantErr bool
	}{
		{"text", CommitText(valid), CommitHash(valid), false},
		{"text upper case", CommitText(strings.ToUpper(valid)), CommitHash(valid), false},
		{"text too short", CommitText("0f0f"), "", true},
		{"text not hex", CommitText(strings.Repeat("xy", 32)), "", true},
		{"raw bytes", CommitBytes(raw), CommitHash(valid), false},
		{"raw bytes wrong length", CommitBytes(raw[:31]), "", true},
		{"untyped hash", Hash(valid), CommitHash(valid), false},
		{"untyped hash malformed", Hash("nope"), "", true},
		{"untyped hash upper case", Hash(strings.ToUpper(valid)), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.input.ToCommitHash()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidHash)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToCommitHash_TypedIsPassthrough(t *testing.T) {
	// 已经是 CommitHash 的值不会被重新校验
	typed := CommitHash("not-even-hex")
	got, err := typed.ToCommitHash()
	require.NoError(t, err)
	assert.Equal(t, typed, got)
}
