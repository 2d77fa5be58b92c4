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
	"encoding/json"
	"net/http"

	"github.com/docker/go-units"
)

const (
	// MinBlockSize 分片的初始大小。
	MinBlockSize = 4 * units.MiB
	// MinBlocks 合并文件最少的分片数。
	MinBlocks = 2
	// MaxBlocks 合并文件最多的分片数。
	MaxBlocks = 1024
	// BlockThreshold 未指定策略时，文件达到该大小就使用分片上传。
	BlockThreshold = 128 * units.MiB
	// MaxSingleUploadSize 单次上传文件的大小上限。
	MaxSingleUploadSize = 2 * units.GiB
)

// BlockUploadPolicy 分片上传策略。
type BlockUploadPolicy int

const (
	// BlockUploadAuto 文件达到 BlockThreshold 时使用分片上传。
	BlockUploadAuto BlockUploadPolicy = iota
	// BlockUploadOn 文件至少能分成 MinBlocks 个分片时使用分片上传。
	BlockUploadOn
	// BlockUploadOff 总是单次上传。
	BlockUploadOff
)

// 文件分片。
type block struct {
	index  int
	offset int64
	length int64
}

// 判断是否使用分片上传。
func useBlocks(size int64, policy BlockUploadPolicy) bool {
	switch policy {
	case BlockUploadOn:
		return size >= MinBlockSize*MinBlocks
	case BlockUploadOff:
		return false
	default:
		return size >= BlockThreshold
	}
}

// 计算分片大小：从 MinBlockSize 开始翻倍，直到分片数不超过 MaxBlocks。
func blockSize(size int64) int64 {
	bs := int64(MinBlockSize)
	for bs*MaxBlocks < size {
		bs *= 2
	}
	return bs
}

// 生成分片计划，按偏移量排序。
func planBlocks(size int64) []block {
	bs := blockSize(size)
	blocks := make([]block, 0, (size+bs-1)/bs)
	for offset := int64(0); offset < size; offset += bs {
		blocks = append(blocks, block{
			index:  len(blocks),
			offset: offset,
			length: min(bs, size-offset),
		})
	}
	return blocks
}

// UploadBlock 上传一个临时分片，返回分片的 MD5。
func (c *uploadImpl) UploadBlock(ctx context.Context, data []byte) (*BlockResult, error) {
	query := c.baseQuery("upload")
	query["type"] = "tmpfile"
	r := &request{
		method: http.MethodPost,
		site:   c.uploadSite,
		path:   basePath + "/file",
		query:  query,
		form:   params{"file": bytes.NewReader(data)},
	}

	var res BlockResult
	if err := c.call(ctx, r, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateSuperFile 按 blockList 的顺序把临时分片合并成一个文件。
func (c *uploadImpl) CreateSuperFile(ctx context.Context, blockList []string, path string, overwrite bool) (
	*File, error) {

	if len(blockList) < MinBlocks || len(blockList) > MaxBlocks {
		return nil, invalidArgument("block list size must be in %d..%d, got %d", MinBlocks, MaxBlocks, len(blockList))
	}
	query, err := c.uploadQuery("createsuperfile", path, overwrite)
	if err != nil {
		return nil, err
	}

	param, err := json.Marshal(struct {
		BlockList []string `json:"block_list"`
	}{blockList})
	if err != nil {
		return nil, err
	}
	r := &request{
		method: http.MethodPost,
		site:   c.site,
		path:   basePath + "/file",
		query:  query,
		form:   params{"param": string(param)},
	}

	var f File
	if err = c.call(ctx, r, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// RapidUpload 秒传文件：服务端已有相同内容的文件时按校验信息直接生成文件，不传输内容。
//
// sliceMD5 为文件前 256KiB 的 MD5。
func (c *uploadImpl) RapidUpload(ctx context.Context, path string, size int64, contentMD5, sliceMD5,
	contentCRC32 string, overwrite bool) (*File, error) {

	if size < 0 {
		return nil, invalidArgument("content length must not be negative, got %d", size)
	}
	if isBlank(contentMD5) || isBlank(sliceMD5) || isBlank(contentCRC32) {
		return nil, invalidArgument("content md5, slice md5 and content crc32 must not be blank")
	}
	query, err := c.uploadQuery("rapidupload", path, overwrite)
	if err != nil {
		return nil, err
	}
	query["content-length"] = size
	query["content-md5"] = contentMD5
	query["slice-md5"] = sliceMD5
	query["content-crc32"] = contentCRC32

	var f File
	err = c.call(ctx, &request{
		method: http.MethodPost,
		site:   c.site,
		path:   basePath + "/file",
		query:  query,
	}, &f)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// 生成上传请求参数。
func (c *uploadImpl) uploadQuery(method, path string, overwrite bool) (params, error) {
	p, err := joinPath(c.root, path, true)
	if err != nil {
		return nil, err
	}
	query := c.baseQuery(method)
	query["path"] = p
	query["ondup"] = "newcopy"
	if overwrite {
		query["ondup"] = "overwrite"
	}
	return query, nil
}
