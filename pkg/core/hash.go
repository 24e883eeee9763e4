package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"commitfs/pkg/types"

	"github.com/fxamacker/cbor/v2"
)

// 定义符合 DAG-CBOR 规范的编码选项
var encOptions = cbor.EncOptions{
	// 1. 强制 Map Key 排序 (Canonical)
	// 保证相同的对象生成唯一的 Hash
	Sort: cbor.SortCanonical,

	// 2. 浮点数必须使用 64 位表示
	ShortestFloat: cbor.ShortestFloatNone,

	// 3. 时间格式化为 Unix 整数，禁止 Tag 0/1
	Time:    cbor.TimeUnix,
	TimeTag: cbor.EncTagNone,

	// 4. 禁止不定长编码 (Indefinite Length)
	IndefLength: cbor.IndefLengthForbidden,

	BigIntConvert: cbor.BigIntConvertShortest,
}

// 全局复用的编码模式
var em, _ = encOptions.EncMode()

// 定义符合 DAG-CBOR 规范的解码选项
var decOptions = cbor.DecOptions{
	// --- 安全性配置 (防 DoS 攻击) ---
	MaxArrayElements: 10000,
	MaxMapPairs:      10000,
	MaxNestedLevels:  100,

	// --- 规范性配置 (DAG-CBOR Strictness) ---
	IndefLength: cbor.IndefLengthForbidden,
	DupMapKey:   cbor.DupMapKeyEnforcedAPF,
	BignumTag:   cbor.BignumTagForbidden,
	TimeTag:     cbor.DecTagIgnored,

	// 目录项名字是文件系统路径分量，不保证是合法 UTF-8。
	// 解码时原样保留，由上层决定是否拒绝。
	UTF8: cbor.UTF8DecodeInvalid,
}

var dm, _ = decOptions.DecMode()

// CalculateHash 计算对象的 Hash (CID) 和序列化数据
func CalculateHash(v any) (types.Hash, []byte, error) {
	data, err := em.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal object: %w", err)
	}
	return CalculateBlobHash(data), data, nil
}

// CalculateBlobHash 计算原始数据块的 Hash
func CalculateBlobHash(data []byte) types.Hash {
	hashBytes := sha256.Sum256(data)
	return types.Hash(hex.EncodeToString(hashBytes[:]))
}

// EncodeValue 使用规范编码序列化任意值 (供 RPC 编解码器复用)
func EncodeValue(v any) ([]byte, error) {
	return em.Marshal(v)
}

// DecodeObject 通用的解码函数 (供外部使用)
func DecodeObject(data []byte, v any) error {
	return dm.Unmarshal(data, v)
}

// PeekType 探测序列化数据的对象类型。
// 解不出 CBOR 头的数据一律视为原始 Chunk。
func PeekType(data []byte) ObjectType {
	var header struct {
		TypeVal ObjectType `cbor:"t"`
	}
	if err := dm.Unmarshal(data, &header); err != nil {
		return TypeChunk
	}
	switch header.TypeVal {
	case TypeFileNode, TypeTree, TypeCommit:
		return header.TypeVal
	default:
		return TypeChunk
	}
}
