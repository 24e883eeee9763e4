package compression

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Tag 是每个落盘对象的第一个字节，标识负载使用的压缩算法。
// 取值是存储格式的一部分，不能修改。
type Tag uint8

const (
	None Tag = 0
	Zstd Tag = 1
	LZ4  Tag = 2
)

// 小于该长度的对象不压缩
const minCompressSize = 128

var ErrUnknownTag = errors.New("unknown compression tag")

func (t Tag) String() string {
	switch t {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// ParseTag 解析配置中的压缩算法名，空字符串等价于 none
func ParseTag(name string) (Tag, error) {
	switch name {
	case "", "none":
		return None, nil
	case "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTag, name)
	}
}

// zstd.Encoder / zstd.Decoder 的 *All 方法并发安全，全局复用
var (
	zstdEncoder *zstd.Encoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic("compression: zstd encoder initialization failed: " + err.Error())
	}
}

// Encode 返回 [tag | payload]。
// 压缩后没有变小时退回 None，所以结果的 tag 不一定等于请求的 tag。
func Encode(data []byte, tag Tag) ([]byte, error) {
	if tag == None || len(data) < minCompressSize {
		return frame(None, data), nil
	}

	var payload []byte
	switch tag {
	case Zstd:
		payload = zstdEncoder.EncodeAll(data, nil)
	case LZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		payload = buf.Bytes()
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTag, tag)
	}

	if len(payload) >= len(data) {
		return frame(None, data), nil
	}
	return frame(tag, payload), nil
}

func frame(tag Tag, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+1)
	out = append(out, byte(tag))
	return append(out, payload...)
}

// NewReader 读取 tag 字节，返回边读边解压的流。
// 返回的流只能向前读；Close 会同时关闭 rc。
func NewReader(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	b, err := br.ReadByte()
	if err != nil {
		rc.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("read compression tag: %w", io.ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("read compression tag: %w", err)
	}

	switch Tag(b) {
	case None:
		return &readCloser{Reader: br, closers: []func(){func() { rc.Close() }}}, nil
	case Zstd:
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return &readCloser{Reader: zr, closers: []func(){zr.Close, func() { rc.Close() }}}, nil
	case LZ4:
		return &readCloser{Reader: lz4.NewReader(br), closers: []func(){func() { rc.Close() }}}, nil
	default:
		rc.Close()
		return nil, fmt.Errorf("%w: %d", ErrUnknownTag, b)
	}
}

// Decode 一次性解出完整负载 (小对象用)
func Decode(data []byte) ([]byte, error) {
	r, err := NewReader(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

type readCloser struct {
	io.Reader
	closers []func()
	closed  bool
}

func (r *readCloser) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	for _, c := range r.closers {
		c()
	}
	return nil
}
