package core

import (
	"encoding/hex"
	"testing"
	"time"

	"commitfs/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 1. Link 测试
// -----------------------------------------------------------------------------

func TestLink_Marshal_Compliance(t *testing.T) {
	link := NewLink(mockHash("test-content"))

	data, err := link.MarshalCBOR()
	require.NoError(t, err)

	// Tag 42 (0xd82a) + ByteString 33 bytes (0x5821) + Prefix (0x00)
	expectedPrefix := "d82a582100"
	encodedHex := hex.EncodeToString(data)

	assert.Equal(t, expectedPrefix, encodedHex[:10], "Link 序列化必须包含 Tag 42 和 0x00 前缀")
}

func TestLink_Unmarshal_RoundTrip(t *testing.T) {
	originalHash := mockHash("round-trip-test")
	data, err := NewLink(originalHash).MarshalCBOR()
	require.NoError(t, err)

	var l2 Link
	require.NoError(t, l2.UnmarshalCBOR(data))
	assert.Equal(t, originalHash, l2.Hash)
}

func TestLink_Unmarshal_Strictness(t *testing.T) {
	// Case A: 缺少 0x00 前缀
	badPrefixBytes, _ := hex.DecodeString("d82a5820" + string(mockHash("bad")))

	var l Link
	err := l.UnmarshalCBOR(badPrefixBytes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing 0x00 multibase prefix")

	// Case B: 错误的 Tag (不是 42)
	wrongTagBytes, _ := hex.DecodeString("d82b582100" + string(mockHash("wrong")))
	assert.Error(t, l.UnmarshalCBOR(wrongTagBytes))
}

func TestLink_Marshal_InvalidHex(t *testing.T) {
	_, err := NewLink(types.Hash("not-hex")).MarshalCBOR()
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------
// 2. 确定性哈希测试 (Canonical Encoding)
// -----------------------------------------------------------------------------

func TestCanonical_Encoding(t *testing.T) {
	c := mustNewCommit(t,
		mockHash("tree_root"),
		[]types.Hash{mockHash("parent1"), mockHash("parent2")},
		"author_test",
		"message_test",
	)

	hash1, bytes1 := mustCalculateHash(t, c)

	c2, err := DecodeCommit(bytes1)
	require.NoError(t, err)

	hash2, _ := mustCalculateHash(t, c2)
	assert.Equal(t, hash1, hash2, "Merkle DAG 哈希计算必须具备确定性")
	assert.Equal(t, c.ID(), c2.ID())
}

// -----------------------------------------------------------------------------
// 3. 完整对象 Round-Trip 测试
// -----------------------------------------------------------------------------

func TestFileNode_RoundTrip(t *testing.T) {
	chunks := []ChunkLink{
		{Cid: NewLink(mockHash("chunk1")), Size: 1024},
		{Cid: NewLink(mockHash("chunk2")), Size: 2048},
	}

	node, err := NewFileNode(3072, chunks)
	require.NoError(t, err)
	assert.NotEmpty(t, node.Bytes())

	node2, err := DecodeFileNode(node.Bytes())
	require.NoError(t, err)

	assert.Equal(t, TypeFileNode, node2.TypeVal)
	assert.Equal(t, int64(3072), node2.TotalSize)
	require.Len(t, node2.Chunks, 2)
	assert.Equal(t, chunks[0].Cid.Hash, node2.Chunks[0].Cid.Hash)
	assert.Equal(t, node.ID(), node2.ID())
}

func TestFileNodeBuilder(t *testing.T) {
	b := NewFileNodeBuilder()
	b.Add(NewChunk([]byte("hello ")))
	b.Add(NewChunk([]byte("world")))

	node, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, int64(11), node.Size())
	require.Len(t, node.Chunks, 2)
	assert.Equal(t, CalculateBlobHash([]byte("world")), node.Chunks[1].Cid.Hash)
	assert.Equal(t, 5, node.Chunks[1].Size)
}

func TestTree_EntryLookup(t *testing.T) {
	tree, err := NewTree([]TreeEntry{
		NewFileEntry("b.txt", mockHash("b"), 1),
		NewDirEntry("a", mockHash("a")),
		NewCommitEntry("vendor", mockHash("sub")),
	})
	require.NoError(t, err)

	decoded, err := DecodeTree(tree.Bytes())
	require.NoError(t, err)

	// 顺序保持写入时的顺序
	names := make([]string, 0, len(decoded.Entries))
	for _, e := range decoded.Entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"b.txt", "a", "vendor"}, names)

	e, ok := decoded.Entry("vendor")
	require.True(t, ok)
	assert.Equal(t, EntryCommit, e.Type)

	_, ok = decoded.Entry("missing")
	assert.False(t, ok)
}

func TestTree_NonUTF8Name(t *testing.T) {
	bad := string([]byte{0xff, 0xfe, 'x'})
	tree, err := NewTree([]TreeEntry{NewFileEntry(bad, mockHash("x"), 0)})
	require.NoError(t, err)

	decoded, err := DecodeTree(tree.Bytes())
	require.NoError(t, err, "非法 UTF-8 名字在解码时应被保留")
	assert.Equal(t, bad, decoded.Entries[0].Name)
}

func TestDecode_TypeMismatch(t *testing.T) {
	tree, err := NewTree(nil)
	require.NoError(t, err)

	_, err = DecodeCommit(tree.Bytes())
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = DecodeFileNode(tree.Bytes())
	assert.ErrorIs(t, err, ErrTypeMismatch)

	// 原始 Chunk 数据不是合法的对象
	_, err = DecodeTree([]byte("plain bytes"))
	assert.Error(t, err)
}

func TestPeekType(t *testing.T) {
	tree, err := NewTree(nil)
	require.NoError(t, err)
	node, err := NewFileNode(0, nil)
	require.NoError(t, err)
	c := mustNewCommit(t, tree.ID(), nil, "me", "msg")

	assert.Equal(t, TypeTree, PeekType(tree.Bytes()))
	assert.Equal(t, TypeFileNode, PeekType(node.Bytes()))
	assert.Equal(t, TypeCommit, PeekType(c.Bytes()))
	assert.Equal(t, TypeChunk, PeekType([]byte("README contents")))
	assert.Equal(t, TypeChunk, PeekType(nil))
}

func TestCommit_Timestamp_Type(t *testing.T) {
	c := mustNewCommit(t, mockHash("tree"), nil, "me", "msg")

	assert.Greater(t, c.Timestamp, int64(1700000000))
	assert.Less(t, c.Timestamp, time.Now().Unix()+100)
	assert.Equal(t, mockHash("tree"), c.TreeHash())
}

func TestNewCommitAt_Deterministic(t *testing.T) {
	at := time.Unix(1700000000, 0)
	c1, err := NewCommitAt(mockHash("tree"), nil, "me", "msg", at)
	require.NoError(t, err)
	c2, err := NewCommitAt(mockHash("tree"), nil, "me", "msg", at)
	require.NoError(t, err)
	assert.Equal(t, c1.ID(), c2.ID())
}
