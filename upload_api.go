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

import (
	"context"
	"fmt"
	"io"
)

// File 文件信息。
type File struct {
	// FsID 文件在服务端的唯一标识。
	FsID uint64 `json:"fs_id"`
	// Path 文件的绝对路径。
	Path string `json:"path"`
	// Size 文件大小。
	Size int64 `json:"size"`
	// MD5 文件内容的 MD5。
	MD5 string `json:"md5"`
	// Ctime 创建时间，Unix 秒。
	Ctime int64 `json:"ctime"`
	// Mtime 修改时间，Unix 秒。
	Mtime int64 `json:"mtime"`
}

// BlockResult 临时分片上传结果。
type BlockResult struct {
	// MD5 分片内容的 MD5，用于合并文件。
	MD5 string `json:"md5"`
}

// UploadRequest 上传请求。传输开始后不要修改。
type UploadRequest struct {
	// Source 文件内容，分片并发上传时需要支持并发读取。
	Source io.ReaderAt
	// Size 文件大小。
	Size int64
	// Path 保存路径，相对于应用目录。
	Path string
	// Overwrite 为 true 时覆盖同名文件，否则服务端生成新文件名。
	Overwrite bool
	// BlockUpload 分片上传策略。
	BlockUpload BlockUploadPolicy
	// Retry 分片上传和合并文件的重试策略，为 nil 时使用 DefaultRetryPolicy。
	Retry *RetryPolicy
	// Concurrency 并发上传分片的协程数，小于 1 时按顺序上传。
	Concurrency int
	// Manifest 之前上传中断时 BlockUploadError 返回的分片 MD5 列表，已有 MD5 的分片不会重新上传。
	Manifest []string
}

// BlockUploadError 分片上传失败。
//
// Manifest 按分片顺序记录已上传分片的 MD5，未上传的为空字符串，可用于 UploadRequest.Manifest 续传。
type BlockUploadError struct {
	Manifest []string
	Err      error
}

func (e *BlockUploadError) Error() string {
	done := 0
	for _, v := range e.Manifest {
		if len(v) > 0 {
			done++
		}
	}
	return fmt.Sprintf("block upload aborted, %d/%d blocks uploaded: %v", done, len(e.Manifest), e.Err)
}

func (e *BlockUploadError) Unwrap() error {
	return e.Err
}

type BlockUploader interface {
	// UploadBlock 上传临时分片。
	UploadBlock(ctx context.Context, data []byte) (*BlockResult, error)

	// CreateSuperFile 合并分片。blockList 的大小必须在 2 到 1024 之间。
	CreateSuperFile(ctx context.Context, blockList []string, path string, overwrite bool) (*File, error)

	// RapidUpload 秒传文件，服务端没有相同内容的文件时返回错误。
	RapidUpload(ctx context.Context, path string, size int64, contentMD5, sliceMD5, contentCRC32 string,
		overwrite bool) (*File, error)
}

type Uploader interface {
	// Upload 上传文件。文件较大时自动使用分片上传。
	Upload(ctx context.Context, req *UploadRequest) (*File, error)

	// UploadBytes 上传文件。
	UploadBytes(ctx context.Context, path string, data []byte, overwrite bool) (*File, error)

	// UploadFromDisk 上传本地文件。path 为空时使用本地文件名。
	UploadFromDisk(ctx context.Context, path, filePath string, overwrite bool) (*File, error)

	BlockUploader
}
