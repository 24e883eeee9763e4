package compression

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		in      string
		want    Tag
		wantErr bool
	}{
		{"", None, false},
		{"none", None, false},
		{"zstd", Zstd, false},
		{"lz4", LZ4, false},
		{"gzip", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTag(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownTag)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	text := bytes.Repeat([]byte("commitfs compressible payload "), 200)
	random := make([]byte, 4096)
	_, _ = rand.Read(random)

	for _, tag := range []Tag{None, Zstd, LZ4} {
		t.Run(tag.String(), func(t *testing.T) {
			enc, err := Encode(text, tag)
			require.NoError(t, err)
			assert.Equal(t, byte(tag), enc[0])
			if tag != None {
				assert.Less(t, len(enc), len(text), "可压缩数据应该变小")
			}

			dec, err := Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, text, dec)

			// 随机数据压缩后不会变小，回退为 None
			enc, err = Encode(random, tag)
			require.NoError(t, err)
			assert.Equal(t, byte(None), enc[0])
			dec, err = Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, random, dec)
		})
	}
}

func TestEncode_SmallPayloadStaysRaw(t *testing.T) {
	enc, err := Encode([]byte("tiny"), Zstd)
	require.NoError(t, err)
	assert.Equal(t, append([]byte{byte(None)}, "tiny"...), enc)
}

func TestEncode_EmptyPayload(t *testing.T) {
	enc, err := Encode(nil, LZ4)
	require.NoError(t, err)
	dec, err := Decode(enc)
	require.NoError(t, err)
	assert.Empty(t, dec)
}

type closeSpy struct {
	io.Reader
	closed int
}

func (c *closeSpy) Close() error { c.closed++; return nil }

func TestNewReader_ClosesUnderlying(t *testing.T) {
	enc, err := Encode(bytes.Repeat([]byte("z"), 1024), Zstd)
	require.NoError(t, err)

	spy := &closeSpy{Reader: bytes.NewReader(enc)}
	r, err := NewReader(spy)
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Len(t, got, 1024)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 1, spy.closed)
}

func TestNewReader_BadInput(t *testing.T) {
	_, err := NewReader(io.NopCloser(bytes.NewReader(nil)))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = NewReader(io.NopCloser(bytes.NewReader([]byte{9, 1, 2})))
	assert.ErrorIs(t, err, ErrUnknownTag)
}
