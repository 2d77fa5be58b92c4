/*
 * Copyright (c) 2025 ivfzhou
 * baidu-pcs-api is licensed under Mulan PSL v2.
 * You can use this software according to the terms and conditions of the Mulan PSL v2.
 * You may obtain a copy of Mulan PSL v2 at:
 *          http://license.coscl.org.cn/MulanPSL2
 * THIS SOFTWARE IS PROVIDED ON AN "AS IS" BASIS, WITHOUT WARRANTIES OF ANY KIND,
 * EITHER EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO NON-INFRINGEMENT,
 * MERCHANTABILITY OR FIT FOR A PARTICULAR PURPOSE.
 * See the Mulan PSL v2 for more details.
 */

package pcs

import "context"

// Quota 空间配额信息。
type Quota struct {
	// Quota 总空间，单位字节。
	Quota int64 `json:"quota"`
	// Used 已使用空间，单位字节。
	Used int64 `json:"used"`
}

// FileMeta 文件或目录的元信息。
type FileMeta struct {
	File
	// IsDir 是否是目录，0 文件，1 目录。
	IsDir int `json:"isdir"`
	// IfHasSubdir 目录下是否还有子目录。
	IfHasSubdir int `json:"ifhassubdir"`
	// BlockList 文件所有分片的 MD5，JSON 数组字符串。
	BlockList string `json:"block_list"`
}

// Dir 是否是目录。
func (m *FileMeta) Dir() bool {
	return m.IsDir != 0
}

// MoveResult 移动或复制的结果。
type MoveResult struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ListOptions 列出目录的参数。
type ListOptions struct {
	// By 排序字段：time、name、size，默认 name。
	By string
	// Order 排序方式：asc、desc，默认 desc。
	Order string
	// Limit 返回条目的范围，如 "0-100"。
	Limit string
}

type Filer interface {
	// Quota 获取空间配额。
	Quota(ctx context.Context) (*Quota, error)

	// Mkdir 创建目录。
	Mkdir(ctx context.Context, path string) (*File, error)

	// Meta 获取文件或目录的元信息。
	Meta(ctx context.Context, path string) (*FileMeta, error)

	// MetaBatch 批量获取元信息。
	MetaBatch(ctx context.Context, paths []string) ([]*FileMeta, error)

	// List 列出目录下的文件。
	List(ctx context.Context, path string, opts *ListOptions) ([]*FileMeta, error)

	// Search 按关键字搜索文件。
	Search(ctx context.Context, path, keyword string, recursive bool) ([]*FileMeta, error)

	// Move 移动文件。
	Move(ctx context.Context, from, to string) ([]*MoveResult, error)

	// MoveBatch 批量移动文件，from 和 to 一一对应。
	MoveBatch(ctx context.Context, from, to []string) ([]*MoveResult, error)

	// Copy 复制文件。
	Copy(ctx context.Context, from, to string) ([]*MoveResult, error)

	// CopyBatch 批量复制文件，from 和 to 一一对应。
	CopyBatch(ctx context.Context, from, to []string) ([]*MoveResult, error)

	// Delete 删除文件或目录。
	Delete(ctx context.Context, path string) error

	// DeleteBatch 批量删除。
	DeleteBatch(ctx context.Context, paths []string) error
}
