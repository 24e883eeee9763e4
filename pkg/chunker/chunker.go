package chunker

import (
	"math"
)

// gearTable 是 Gear Hash 的 256 项随机表。
// 由固定种子的 splitmix64 生成，保证不同进程间切点一致。
var gearTable = func() (t [256]uint64) {
	x := uint64(0x9E3779B97F4A7C15)
	for i := range t {
		x += 0x9E3779B97F4A7C15
		z := x
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		t[i] = z ^ (z >> 31)
	}
	return t
}()

// 针对 AI 大文件场景的配置 (单位: 字节)
const (
	MinSize   = 4 * 1024  // 4KB
	AvgSize   = 8 * 1024  // 8KB (生产环境建议设为 2MB-4MB，测试环境用小一点方便观察)
	MaxSize   = 64 * 1024 // 64KB
	NormLevel = 2
)

// Chunker 是一个无状态的切分工具
type Chunker struct {
	maskS uint64
	maskL uint64
}

func NewChunker() *Chunker {
	// 预计算掩码 (和实验代码一致)
	bits := int(math.Round(math.Log2(float64(AvgSize))))
	return &Chunker{
		maskS: uint64(1<<(bits+NormLevel)) - 1,
		maskL: uint64(1<<(bits-NormLevel)) - 1,
	}
}

// Cut 将数据切分成一系列的切点。
// 返回值:
//
//	[]int: 每个块的结束 offset，最后一个切点恒等于 len(data)。

func (c *Chunker) Cut(data []byte) []int {
	var cutPoints []int
	offset := 0
	n := len(data)

	for offset < n {
		// 1. 剩余不足最小块，直接收尾
		if n-offset <= MinSize {
			return append(cutPoints, n)
		}

		// 2. 初始化状态
		// 每次新块开始，fp 重置为 0
		fp := uint64(0)
		idx := offset + MinSize

		// 确定边界
		normLimit := min(offset+AvgSize, n)
		maxLimit := min(offset+MaxSize, n)

		// 定义扫描闭包 (DRY)
		scan := func(limit int, mask uint64) bool {
			for ; idx < limit; idx++ {
				fp = (fp << 1) + gearTable[data[idx]]
				// 判断掩码
				if (fp & mask) == 0 {
					cutPoints = append(cutPoints, idx+1)
					offset = idx + 1
					return true
				}
			}
			return false
		}

		// A. 归一化区域 (严掩码)
		if scan(normLimit, c.maskS) {
			continue
		}

		// B. 普通区域 (宽掩码)
		if scan(maxLimit, c.maskL) {
			continue
		}

		// C. 强制切分
		cutPoints = append(cutPoints, maxLimit)
		offset = maxLimit
	}

	return cutPoints
}
