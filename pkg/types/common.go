// pkg/types/common.go
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// HashSize 是 SHA-256 摘要的原始字节长度
const HashSize = 32

var ErrInvalidHash = errors.New("invalid hash")

// Hash 代表对象的唯一标识符 (SHA256 Hex String)
// 这是一个“值对象”，应当是不可变的。
// 它是“无类型”的引用：Hash 本身不携带对象类型，类型只能向存储层查询。
type Hash string

func (h Hash) String() string { return string(h) }

// 验证 Hash 合法性
func (h Hash) IsZero() bool { return h == "" }

// IsValid 只接受 64 位小写 Hex，与存储中的规范形式一致。
// 大写输入需要先经过 ParseHash。
func (h Hash) IsValid() bool {
	if len(h) != HashSize*2 {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}

// Short 返回用于展示的前 8 位
func (h Hash) Short() string {
	if len(h) <= 8 {
		return string(h)
	}
	return string(h[:8])
}

// CommitHash 是“有类型”的引用：已知指向一个 Commit 对象
type CommitHash string

func (h CommitHash) String() string { return string(h) }

// Untyped 丢弃类型信息，退化为普通 Hash
func (h CommitHash) Untyped() Hash { return Hash(h) }

type HashPrefix string

func (p HashPrefix) String() string { return string(p) }

// ParseHash 解析 64 位 Hex 文本，统一转为小写
func ParseHash(s string) (Hash, error) {
	h := Hash(strings.ToLower(strings.TrimSpace(s)))
	if !h.IsValid() {
		return "", fmt.Errorf("%w: %q (want %d hex chars)", ErrInvalidHash, s, HashSize*2)
	}
	return h, nil
}

// HashFromBytes 将 32 字节原始摘要转为 Hash
func HashFromBytes(b []byte) (Hash, error) {
	if len(b) != HashSize {
		return "", fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidHash, len(b), HashSize)
	}
	return Hash(hex.EncodeToString(b)), nil
}

type RepoPath string
