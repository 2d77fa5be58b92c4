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
	"net/http"
	"os"
	"path/filepath"

	gu "gitee.com/ivfzhou/goroutine-util"
	iu "gitee.com/ivfzhou/io-util"
	"github.com/docker/go-units"
)

type downloadImpl struct {
	*baseImpl
	Filer
}

// Download 下载文件到内存。rng 为 nil 时下载整个文件。
func (c *downloadImpl) Download(ctx context.Context, path string, rng *Range) ([]byte, error) {
	r, err := c.downloadReq(path, rng)
	if err != nil {
		return nil, err
	}
	return c.raw(ctx, r)
}

// DownloadStream 分段读取文件内容。
func (c *downloadImpl) DownloadStream(ctx context.Context, path string, rng *Range,
	fn func(segment []byte) error) error {

	if fn == nil {
		return invalidArgument("segment consumer must not be nil")
	}
	r, err := c.downloadReq(path, rng)
	if err != nil {
		return err
	}
	return c.stream(ctx, r, fn)
}

// DownloadToWriter 下载文件到写入流。
func (c *downloadImpl) DownloadToWriter(ctx context.Context, path string, rng *Range, w io.Writer) error {
	if w == nil {
		return invalidArgument("writer must not be nil")
	}
	return c.DownloadStream(ctx, path, rng, func(segment []byte) error {
		_, err := w.Write(segment)
		return err
	})
}

// DownloadToReader 下载文件，从返回的读取流中读出。
func (c *downloadImpl) DownloadToReader(ctx context.Context, path string) (io.ReadCloser, error) {
	// 获取文件信息。
	meta, err := c.Meta(ctx, path)
	if err != nil {
		return nil, err
	}
	if meta.Dir() {
		return nil, invalidArgument("%s is a directory", path)
	}

	if useBlocks(meta.Size, BlockUploadAuto) {
		return c.downloadToReader(ctx, path, meta.Size), nil
	}

	r, err := c.downloadReq(path, nil)
	if err != nil {
		return nil, err
	}
	rsp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return rsp.Body, nil
}

// DownloadToWriterAt 下载文件。大文件按范围并发下载。
func (c *downloadImpl) DownloadToWriterAt(ctx context.Context, path string, wa io.WriterAt) error {
	if wa == nil {
		return invalidArgument("writer must not be nil")
	}

	// 获取文件信息。
	meta, err := c.Meta(ctx, path)
	if err != nil {
		return err
	}
	if meta.Dir() {
		return invalidArgument("%s is a directory", path)
	}

	// 是否使用分片模式下载。
	if useBlocks(meta.Size, BlockUploadAuto) {
		return c.downloadToWriterAt(ctx, path, meta.Size, wa)
	}

	r, err := c.downloadReq(path, nil)
	if err != nil {
		return err
	}
	rsp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	defer c.closeRsp(rsp)
	_, err = iu.CopyReaderToWriterAt(rsp.Body, wa, 0, false)
	return err
}

// DownloadToDisk 下载文件到本地。
func (c *downloadImpl) DownloadToDisk(ctx context.Context, path, filePath string) (err error) {
	// 开启文件流。
	if err = os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	fileObj, err := os.OpenFile(filePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		c.closeIO(fileObj)
		if err != nil {
			c.printError(os.Remove(filePath))
		}
	}()

	return c.DownloadToWriterAt(ctx, path, fileObj)
}

// Thumbnail 获取图片缩略图。
func (c *downloadImpl) Thumbnail(ctx context.Context, path string, width, height, quality int) ([]byte, error) {
	p, err := joinPath(c.root, path, false)
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, invalidArgument("thumbnail size must be positive, got %dx%d", width, height)
	}
	if quality <= 0 || quality > 100 {
		quality = 100
	}

	query := c.baseQuery("generate")
	query["path"] = p
	query["width"] = width
	query["height"] = height
	query["quality"] = quality
	return c.raw(ctx, &request{
		method: http.MethodGet,
		site:   c.site,
		path:   basePath + "/thumbnail",
		query:  query,
	})
}

// 生成下载请求。
func (c *downloadImpl) downloadReq(path string, rng *Range) (*request, error) {
	p, err := joinPath(c.root, path, false)
	if err != nil {
		return nil, err
	}
	query := c.baseQuery("download")
	query["path"] = p

	header := http.Header{}
	if rng != nil {
		if rng.Begin < 0 || (rng.End >= 0 && rng.End < rng.Begin) {
			return nil, invalidArgument("invalid range %d-%d", rng.Begin, rng.End)
		}
		header.Set("Range", rng.String())
	}

	return &request{
		method: http.MethodGet,
		site:   c.downloadSite,
		path:   basePath + "/file",
		query:  query,
		header: header,
	}, nil
}

// 按范围并发下载文件到写入流。
func (c *downloadImpl) downloadToWriterAt(ctx context.Context, path string, fileSize int64,
	wa io.WriterAt) (err error) {

	type data struct {
		offset, end int64
	}
	run, wait := gu.NewRunner(ctx, c.concurrency, func(ctx context.Context, t *data) error {
		return c.downloadPartToWriterAt(ctx, path, t.offset, t.end, wa)
	})

	// 并发下载。
	partSize := int64(MinBlockSize)
	for offset, end, next := int64(0), partSize-1, true; next; {
		if end >= fileSize-1 {
			end = fileSize - 1
			next = false
		}
		if err = run(&data{offset, end}, false); err != nil {
			if werr := wait(false); werr != nil {
				return werr
			}
			return err
		}
		offset += partSize
		end = offset + partSize - 1
	}

	return wait(true)
}

// 按范围并发下载文件，并从读取流中读出。
func (c *downloadImpl) downloadToReader(ctx context.Context, path string, fileSize int64) io.ReadCloser {
	wc, rc := iu.NewWriteAtToReader()

	type data struct {
		offset, end int64
	}
	run, wait := gu.NewRunner(ctx, c.concurrency, func(ctx context.Context, t *data) error {
		return c.downloadPartToWriterAt(ctx, path, t.offset, t.end, wc)
	})

	// 并发下载数据。
	go func() {
		partSize := int64(MinBlockSize)
		for offset, end, next := int64(0), partSize-1, true; next; {
			if end >= fileSize-1 {
				end = fileSize - 1
				next = false
			}
			if err := run(&data{offset, end}, false); err != nil {
				c.printError(wc.CloseByError(err))
				return
			}
			offset += partSize
			end = offset + partSize - 1
		}
		c.printError(wc.CloseByError(wait(true)))
	}()

	return rc
}

// 下载一个范围的字节数据到写入流。
func (c *downloadImpl) downloadPartToWriterAt(ctx context.Context, path string, offset, end int64,
	wa io.WriterAt) error {

	r, err := c.downloadReq(path, ByteRange(offset, end))
	if err != nil {
		return err
	}
	rsp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	defer c.closeRsp(rsp)

	n, err := iu.CopyReaderToWriterAt(rsp.Body, wa, offset, false)
	if err != nil {
		return err
	}
	if n != end-offset+1 {
		return fmt.Errorf("part size not match, actual is %s, expected is %s, offset is %d, end is %d",
			units.BytesSize(float64(n)), units.BytesSize(float64(end-offset+1)), offset, end)
	}

	return nil
}
