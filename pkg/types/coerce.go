package types

import "fmt"

// CommitSource 是可以被转换为 CommitHash 的输入的封闭集合。
// 实现者: CommitHash, Hash, CommitText, CommitBytes
type CommitSource interface {
	ToCommitHash() (CommitHash, error)
}

// CommitText 是用户输入的文本形式 Commit ID (64 位 Hex)
type CommitText string

// CommitBytes 是 32 字节原始摘要形式的 Commit ID
type CommitBytes []byte

var (
	_ CommitSource = CommitHash("")
	_ CommitSource = Hash("")
	_ CommitSource = CommitText("")
	_ CommitSource = CommitBytes(nil)
)

// ToCommitHash 原样返回：已经是有类型的引用，不再重复校验
func (h CommitHash) ToCommitHash() (CommitHash, error) { return h, nil }

// ToCommitHash 只校验格式。它是否真的指向 Commit，由存储层在读取时确认。
func (h Hash) ToCommitHash() (CommitHash, error) {
	if !h.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidHash, string(h))
	}
	return CommitHash(h), nil
}

func (t CommitText) ToCommitHash() (CommitHash, error) {
	h, err := ParseHash(string(t))
	if err != nil {
		return "", err
	}
	return CommitHash(h), nil
}

func (b CommitBytes) ToCommitHash() (CommitHash, error) {
	h, err := HashFromBytes(b)
	if err != nil {
		return "", err
	}
	return CommitHash(h), nil
}
