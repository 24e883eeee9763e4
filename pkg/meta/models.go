package meta

import (
	"time"

	"commitfs/pkg/types"

	"gorm.io/datatypes"
)

// Ref 存储分支指针 (例如 "HEAD" 或 "refs/heads/main")
type Ref struct {
	// Name 是主键
	Name string `gorm:"primaryKey;type:varchar(255)"`

	// CommitHash 指向当前的 Commit ID
	CommitHash types.Hash `gorm:"type:char(64);not null"`

	// Version 用于乐观锁并发控制 (CAS)
	// 每次更新时 +1，防止并发覆盖
	Version int64 `gorm:"default:1"`

	UpdatedAt time.Time
}

// CommitModel 是 core.Commit 在关系型数据库中的投影 (索引)
// 用于快速查询历史 (cfs log)，支持按作者、时间查询
type CommitModel struct {
	// Hash 是主键 (Merkle Root)
	Hash types.Hash `gorm:"primaryKey;type:char(64)"`

	Author    string `gorm:"index;type:varchar(100)"`
	Message   string `gorm:"type:text"`
	Timestamp int64  `gorm:"index"` // 使用 int64 存时间戳，方便范围查询

	// 根目录树
	TreeHash types.Hash `gorm:"type:char(64);not null"`

	// Parents: 父节点列表 ["hash1", "hash2"]
	Parents datatypes.JSON

	// Meta: 快照统计等非结构化数据 (文件数、字节数)
	Meta datatypes.JSON

	CreatedAt time.Time
}

// TableName 强制指定表名
func (CommitModel) TableName() string {
	return "commits"
}

// Models 返回需要迁移的全部表
func Models() []any {
	return []any{&Ref{}, &CommitModel{}}
}
