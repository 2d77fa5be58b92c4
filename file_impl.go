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
	"encoding/json"
	"net/http"
)

type fileImpl struct {
	*baseImpl
}

type metaList struct {
	List []*FileMeta `json:"list"`
}

type moveList struct {
	Extra struct {
		List []*MoveResult `json:"list"`
	} `json:"extra"`
}

// Quota 获取空间配额。
func (c *fileImpl) Quota(ctx context.Context) (*Quota, error) {
	var q Quota
	err := c.call(ctx, &request{
		method: http.MethodGet,
		site:   c.site,
		path:   basePath + "/quota",
		query:  c.baseQuery("info"),
	}, &q)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Mkdir 创建目录。
func (c *fileImpl) Mkdir(ctx context.Context, path string) (*File, error) {
	p, err := joinPath(c.root, path, true)
	if err != nil {
		return nil, err
	}
	query := c.baseQuery("mkdir")
	query["path"] = p

	var f File
	if err = c.call(ctx, c.fileReq(http.MethodPost, query, nil), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Meta 获取文件或目录的元信息。
func (c *fileImpl) Meta(ctx context.Context, path string) (*FileMeta, error) {
	list, err := c.MetaBatch(ctx, []string{path})
	if err != nil {
		return nil, err
	}
	if len(list) <= 0 {
		return nil, &Error{Kind: KindGeneric, Msg: "file meta not found"}
	}
	return list[0], nil
}

// MetaBatch 批量获取元信息。
func (c *fileImpl) MetaBatch(ctx context.Context, paths []string) ([]*FileMeta, error) {
	query, err := c.pathsQuery("meta", paths)
	if err != nil {
		return nil, err
	}
	var res metaList
	if err = c.call(ctx, c.fileReq(http.MethodGet, query, nil), &res); err != nil {
		return nil, err
	}
	return res.List, nil
}

// List 列出目录下的文件。
func (c *fileImpl) List(ctx context.Context, path string, opts *ListOptions) ([]*FileMeta, error) {
	p, err := joinPath(c.root, path, false)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &ListOptions{}
	}
	query := c.baseQuery("list")
	query["path"] = p
	query["by"] = "name"
	query["order"] = "desc"
	if len(opts.By) > 0 {
		query["by"] = opts.By
	}
	if len(opts.Order) > 0 {
		query["order"] = opts.Order
	}
	if len(opts.Limit) > 0 {
		query["limit"] = opts.Limit
	}

	var res metaList
	if err = c.call(ctx, c.fileReq(http.MethodGet, query, nil), &res); err != nil {
		return nil, err
	}
	return res.List, nil
}

// Search 按关键字搜索文件。
func (c *fileImpl) Search(ctx context.Context, path, keyword string, recursive bool) ([]*FileMeta, error) {
	p, err := joinPath(c.root, path, false)
	if err != nil {
		return nil, err
	}
	if isBlank(keyword) {
		return nil, invalidArgument("keyword must not be blank")
	}
	query := c.baseQuery("search")
	query["path"] = p
	query["wd"] = keyword
	query["re"] = 0
	if recursive {
		query["re"] = 1
	}

	var res metaList
	if err = c.call(ctx, c.fileReq(http.MethodGet, query, nil), &res); err != nil {
		return nil, err
	}
	return res.List, nil
}

// Move 移动文件。
func (c *fileImpl) Move(ctx context.Context, from, to string) ([]*MoveResult, error) {
	return c.moveOrCopy(ctx, "move", []string{from}, []string{to})
}

// MoveBatch 批量移动文件。
func (c *fileImpl) MoveBatch(ctx context.Context, from, to []string) ([]*MoveResult, error) {
	return c.moveOrCopy(ctx, "move", from, to)
}

// Copy 复制文件。
func (c *fileImpl) Copy(ctx context.Context, from, to string) ([]*MoveResult, error) {
	return c.moveOrCopy(ctx, "copy", []string{from}, []string{to})
}

// CopyBatch 批量复制文件。
func (c *fileImpl) CopyBatch(ctx context.Context, from, to []string) ([]*MoveResult, error) {
	return c.moveOrCopy(ctx, "copy", from, to)
}

// Delete 删除文件或目录。
func (c *fileImpl) Delete(ctx context.Context, path string) error {
	return c.DeleteBatch(ctx, []string{path})
}

// DeleteBatch 批量删除。
func (c *fileImpl) DeleteBatch(ctx context.Context, paths []string) error {
	query, err := c.pathsQuery("delete", paths)
	if err != nil {
		return err
	}
	return c.call(ctx, c.fileReq(http.MethodGet, query, nil), nil)
}

func (c *fileImpl) fileReq(method string, query, form params) *request {
	return &request{
		method: method,
		site:   c.site,
		path:   basePath + "/file",
		query:  query,
		form:   form,
	}
}

// 一个路径时使用 path 参数，多个路径时使用 JSON 格式的 param 参数。
func (c *fileImpl) pathsQuery(method string, paths []string) (params, error) {
	if len(paths) <= 0 {
		return nil, invalidArgument("paths must not be empty")
	}
	query := c.baseQuery(method)
	if len(paths) == 1 {
		p, err := joinPath(c.root, paths[0], false)
		if err != nil {
			return nil, err
		}
		query["path"] = p
		return query, nil
	}

	type item struct {
		Path string `json:"path"`
	}
	list := make([]item, len(paths))
	for i, v := range paths {
		p, err := joinPath(c.root, v, false)
		if err != nil {
			return nil, err
		}
		list[i] = item{p}
	}
	param, err := json.Marshal(struct {
		List []item `json:"list"`
	}{list})
	if err != nil {
		return nil, err
	}
	query["param"] = string(param)
	return query, nil
}

// 移动或复制文件。源路径不纠正，目标路径纠正。
func (c *fileImpl) moveOrCopy(ctx context.Context, method string, from, to []string) ([]*MoveResult, error) {
	if len(from) <= 0 || len(to) <= 0 {
		return nil, invalidArgument("from or to must not be empty")
	}
	if len(from) != len(to) {
		return nil, invalidArgument("from and to must have the same size, got %d and %d", len(from), len(to))
	}

	list := make([]*MoveResult, len(from))
	for i := range from {
		f, err := joinPath(c.root, from[i], false)
		if err != nil {
			return nil, err
		}
		t, err := joinPath(c.root, to[i], true)
		if err != nil {
			return nil, err
		}
		list[i] = &MoveResult{From: f, To: t}
	}

	var form params
	if len(list) == 1 {
		form = params{"from": list[0].From, "to": list[0].To}
	} else {
		param, err := json.Marshal(struct {
			List []*MoveResult `json:"list"`
		}{list})
		if err != nil {
			return nil, err
		}
		form = params{"param": string(param)}
	}

	var res moveList
	if err := c.call(ctx, c.fileReq(http.MethodPost, c.baseQuery(method), form), &res); err != nil {
		return nil, err
	}
	return res.Extra.List, nil
}
