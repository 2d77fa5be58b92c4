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
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	gu "gitee.com/ivfzhou/goroutine-util"
	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type uploadImpl struct {
	*baseImpl
}

// Upload 上传文件。文件较大时自动使用分片上传。
func (c *uploadImpl) Upload(ctx context.Context, req *UploadRequest) (*File, error) {
	if req == nil || req.Source == nil {
		return nil, invalidArgument("upload source must not be nil")
	}
	if req.Size < 0 {
		return nil, invalidArgument("upload size must not be negative, got %d", req.Size)
	}

	logger := c.logger.WithFields(logrus.Fields{
		"transfer": uuid.NewString(),
		"path":     req.Path,
		"size":     units.BytesSize(float64(req.Size)),
	})

	// 是否启用分片模式上传。
	if useBlocks(req.Size, req.BlockUpload) {
		return c.uploadBlocks(ctx, logger, req)
	}

	return c.upload(ctx, req)
}

// UploadBytes 上传文件。
func (c *uploadImpl) UploadBytes(ctx context.Context, path string, data []byte, overwrite bool) (*File, error) {
	return c.Upload(ctx, &UploadRequest{
		Source:    bytes.NewReader(data),
		Size:      int64(len(data)),
		Path:      path,
		Overwrite: overwrite,
	})
}

// UploadFromDisk 上传本地文件。path 为空时使用本地文件名。
func (c *uploadImpl) UploadFromDisk(ctx context.Context, path, filePath string, overwrite bool) (*File, error) {
	if len(path) <= 0 {
		path = filepath.Base(filePath)
	}

	// 获取文件信息。
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if fileInfo.IsDir() {
		return nil, invalidArgument("%s is a directory", filePath)
	}

	// 打开文件流。
	fileObj, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer c.closeIO(fileObj)

	return c.Upload(ctx, &UploadRequest{
		Source:    fileObj,
		Size:      fileInfo.Size(),
		Path:      path,
		Overwrite: overwrite,
	})
}

// 单次上传文件。
func (c *uploadImpl) upload(ctx context.Context, req *UploadRequest) (*File, error) {
	if req.Size > MaxSingleUploadSize {
		return nil, errors.WithMessagef(ErrPayloadTooLarge, "file size %s is larger than %s",
			units.BytesSize(float64(req.Size)), units.BytesSize(MaxSingleUploadSize))
	}
	query, err := c.uploadQuery("upload", req.Path, req.Overwrite)
	if err != nil {
		return nil, err
	}

	r := &request{
		method: http.MethodPost,
		site:   c.uploadSite,
		path:   basePath + "/file",
		query:  query,
		form:   params{"file": io.NewSectionReader(req.Source, 0, req.Size)},
	}
	var f File
	if err = c.call(ctx, r, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// 分片上传文件：按偏移量顺序上传临时分片，再合并。
func (c *uploadImpl) uploadBlocks(ctx context.Context, logger logrus.FieldLogger, req *UploadRequest) (*File, error) {
	if _, err := joinPath(c.root, req.Path, true); err != nil {
		return nil, err
	}

	blocks := planBlocks(req.Size)
	manifest := make([]string, len(blocks))
	if len(req.Manifest) > 0 {
		if len(req.Manifest) != len(blocks) {
			return nil, invalidArgument("manifest size %d does not match block count %d", len(req.Manifest), len(blocks))
		}
		copy(manifest, req.Manifest)
	}
	logger.WithFields(logrus.Fields{
		"blocks":     len(blocks),
		"block_size": units.BytesSize(float64(blocks[0].length)),
	}).Info("block upload started")

	// 上传分片，分片的 MD5 按序号保存，保证合并顺序与偏移量顺序一致。
	var (
		errOnce  sync.Once
		blockErr error
	)
	run, wait := gu.NewRunner(ctx, max(req.Concurrency, 1), func(ctx context.Context, b *block) error {
		md5, err := c.uploadBlockAt(ctx, logger, req, b)
		if err != nil {
			errOnce.Do(func() { blockErr = err })
			return err
		}
		manifest[b.index] = md5
		return nil
	})
	var runErr error
	for i := range blocks {
		if len(manifest[i]) > 0 {
			continue
		}
		if runErr = run(&blocks[i], false); runErr != nil {
			break
		}
	}
	err := wait(false) // 等待所有协程退出。
	if blockErr != nil {
		err = blockErr
	} else if err == nil {
		err = runErr
	}
	if err != nil {
		logger.WithError(err).Error("block upload aborted")
		return nil, &BlockUploadError{Manifest: manifest, Err: err}
	}

	// 合并分片。
	f, err := withRetries(ctx, req.Retry, logger, "create super file", func(ctx context.Context) (*File, error) {
		return c.CreateSuperFile(ctx, manifest, req.Path, req.Overwrite)
	})
	if err != nil {
		logger.WithError(err).Error("create super file failed")
		return nil, &BlockUploadError{Manifest: manifest, Err: err}
	}
	logger.WithField("fs_id", f.FsID).Info("block upload finished")

	return f, nil
}

// 读取并上传一个分片，返回分片 MD5。
func (c *uploadImpl) uploadBlockAt(ctx context.Context, logger logrus.FieldLogger, req *UploadRequest,
	b *block) (string, error) {

	buf := makeBytes(b.length)
	defer rollbackBytes(buf)
	n, err := req.Source.ReadAt(buf, b.offset)
	if n < len(buf) {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return "", errors.Wrapf(err, "read block %d at offset %d", b.index, b.offset)
	}

	logger = logger.WithField("block", b.index)
	res, err := withRetries(ctx, req.Retry, logger, "upload block", func(ctx context.Context) (*BlockResult, error) {
		res, err := c.UploadBlock(ctx, buf)
		if err != nil {
			return nil, err
		}
		if len(res.MD5) <= 0 {
			return nil, &Error{Kind: KindGeneric, Msg: "block md5 missing in response"}
		}
		return res, nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "upload block %d", b.index)
	}
	logger.Debug("block uploaded")

	return res.MD5, nil
}
