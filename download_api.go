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

// Range 下载的字节范围。
type Range struct {
	// Begin 开始位置。
	Begin int64
	// End 结束位置（包含），小于 0 表示到文件末尾。
	End int64
}

// RangeFrom 从 begin 下载到文件末尾。
func RangeFrom(begin int64) *Range {
	return &Range{Begin: begin, End: -1}
}

// ByteRange 下载 [begin, end] 范围内的字节。
func ByteRange(begin, end int64) *Range {
	return &Range{Begin: begin, End: end}
}

// String 生成 HTTP 请求头 Range 的值。
func (r *Range) String() string {
	if r.End < 0 {
		return fmt.Sprintf("bytes=%d-", r.Begin)
	}
	return fmt.Sprintf("bytes=%d-%d", r.Begin, r.End)
}

type Downloader interface {
	// Download 下载文件到内存。rng 为 nil 时下载整个文件。
	Download(ctx context.Context, path string, rng *Range) ([]byte, error)

	// DownloadStream 分段读取文件内容，适合大文件。fn 返回后 segment 会被复用，不要持有。
	DownloadStream(ctx context.Context, path string, rng *Range, fn func(segment []byte) error) error

	// DownloadToWriter 下载文件到写入流。
	DownloadToWriter(ctx context.Context, path string, rng *Range, w io.Writer) error

	// DownloadToReader 下载文件，从返回的读取流中读出。大文件按范围并发下载，读取流需要关闭。
	DownloadToReader(ctx context.Context, path string) (io.ReadCloser, error)

	// DownloadToWriterAt 下载文件。大文件按范围并发下载。
	DownloadToWriterAt(ctx context.Context, path string, wa io.WriterAt) error

	// DownloadToDisk 下载文件到本地，失败时删除本地文件。
	DownloadToDisk(ctx context.Context, path, filePath string) error

	// Thumbnail 获取图片缩略图。
	Thumbnail(ctx context.Context, path string, width, height, quality int) ([]byte, error)
}
