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
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/docker/go-units"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// 文件 API 路径。
	basePath = "/rest/2.0/pcs"
	// 最多重定向次数。
	maxRedirects = 10
	// 流式读取时每段的大小。
	segmentSize = 32 * units.KiB
)

type baseImpl struct {
	root  string
	token credential
	options
}

// 请求参数。值为 nil 的参数不会被发送。
type params map[string]any

// 一次逻辑请求。
type request struct {
	method string
	site   string
	path   string
	query  params
	// 请求体，有 io.Reader 类型的值时使用 multipart 编码，否则使用表单编码。
	form   params
	header http.Header
}

// 有大小信息的读取流，如 *bytes.Reader、*io.SectionReader。
type sizedReader interface {
	io.Reader
	Size() int64
}

func (p params) encode() string {
	values := url.Values{}
	for k, v := range p {
		if v == nil {
			continue
		}
		values.Set(k, fmt.Sprint(v))
	}
	return values.Encode()
}

// 所有请求都要带上的参数。
func (c *baseImpl) baseQuery(method string) params {
	return params{
		"method":       method,
		"access_token": string(c.token),
	}
}

// 生成请求地址。
func (c *baseImpl) buildURL(site, path string, query params) (*url.URL, error) {
	u, err := url.Parse(site)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid site %q", site)
	}
	u.Path = path
	u.RawQuery = query.encode()
	return u, nil
}

// 生成 HTTP 请求体。
func (c *baseImpl) genReq(r *request) (*http.Request, error) {
	u, err := c.buildURL(r.site, r.path, r.query)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	for k, v := range r.header {
		header[k] = v
	}
	header.Set("User-Agent", c.userAgent)

	// 生成请求体。
	var (
		body   io.Reader
		length int64
	)
	if len(r.form) > 0 {
		var contentType string
		body, length, contentType, err = encodeForm(r.form)
		if err != nil {
			return nil, err
		}
		header.Set("Content-Type", contentType)
	}

	req := getRequest()
	req.Method = r.method
	req.URL = u
	req.Header = header
	req.Host = u.Host
	if body != nil {
		req.Body = io.NopCloser(body)
		req.ContentLength = length
	}

	return req, nil
}

// 生成重定向请求。
func (c *baseImpl) genRedirectReq(from *url.URL, location string, header http.Header) (*http.Request, error) {
	if len(location) <= 0 {
		return nil, &Error{Kind: KindGeneric, Msg: "redirect without location"}
	}
	loc, err := url.Parse(location)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid redirect location %q", location)
	}
	u := from.ResolveReference(loc)

	h := http.Header{}
	h.Set("User-Agent", c.userAgent)
	if rng := header.Get("Range"); len(rng) > 0 {
		h.Set("Range", rng)
	}

	req := getRequest()
	req.Method = http.MethodGet
	req.URL = u
	req.Header = h
	req.Host = u.Host
	return req, nil
}

// 发送 HTTP 请求。
func (c *baseImpl) sendHttp(ctx context.Context, req *http.Request) (rsp *http.Response, err error) {
	defer rollbackRequest(req) // 回收请求体。
	req = req.WithContext(ctx)
	rsp, err = c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if rsp == nil {
		return nil, errors.New("http response object is nil")
	}
	return rsp, nil
}

// 发送请求并处理重定向。成功时返回未读取的响应，调用方负责关闭。
func (c *baseImpl) do(ctx context.Context, r *request) (*http.Response, error) {
	req, err := c.genReq(r)
	if err != nil {
		return nil, err
	}

	for redirects := 0; ; {
		u := req.URL
		method := req.Method
		rsp, err := c.sendHttp(ctx, req)
		if err != nil {
			return nil, err
		}
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"host":   u.Host,
			"path":   u.Path,
			"status": rsp.StatusCode,
		}).Debug("pcs request")

		switch {
		case rsp.StatusCode >= 200 && rsp.StatusCode < 300:
			return rsp, nil

		case rsp.StatusCode >= 300 && rsp.StatusCode < 400:
			location := rsp.Header.Get("Location")
			c.readAndClose(rsp)
			if redirects++; redirects > maxRedirects {
				return nil, &Error{
					Kind:       KindGeneric,
					Msg:        "too many redirects",
					StatusCode: rsp.StatusCode,
					Response:   rsp,
				}
			}
			if req, err = c.genRedirectReq(u, location, r.header); err != nil {
				return nil, err
			}

		default:
			return nil, classifyStatus(rsp, c.readAndClose(rsp))
		}
	}
}

// 发送请求，并把响应体解析到 v。
//
// 响应体无法解析时当作空结果处理。响应体带有非 0 的业务错误码时返回错误。
func (c *baseImpl) call(ctx context.Context, r *request, v any) error {
	rsp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(rsp.Body)
	c.closeRsp(rsp)
	if err != nil {
		return err
	}

	if e := classifyBody(rsp, body); e != nil {
		return e
	}

	if v != nil && len(body) > 0 {
		if err = json.Unmarshal(body, v); err != nil {
			c.logger.WithError(err).WithField("path", r.path).Debug("pcs: unparsable response body ignored")
		}
	}

	return nil
}

// 发送请求，返回原始响应体。
func (c *baseImpl) raw(ctx context.Context, r *request) ([]byte, error) {
	rsp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	defer c.closeRsp(rsp)
	return io.ReadAll(rsp.Body)
}

// 发送请求，分段读出响应体。fn 返回后 segment 会被复用。
func (c *baseImpl) stream(ctx context.Context, r *request, fn func(segment []byte) error) error {
	rsp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	defer c.closeRsp(rsp)

	buf := make([]byte, segmentSize)
	for {
		n, err := rsp.Body.Read(buf)
		if n > 0 {
			if err := fn(buf[:n]); err != nil {
				return err
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// 编码请求体。
func encodeForm(form params) (body io.Reader, length int64, contentType string, err error) {
	for _, v := range form {
		if _, ok := v.(io.Reader); ok {
			return encodeMultipart(form)
		}
	}
	s := form.encode()
	return strings.NewReader(s), int64(len(s)), "application/x-www-form-urlencoded", nil
}

// 编码 multipart 请求体。文件内容不会被读入内存。
//
// 读取流实现了 Size() 时可得到请求体长度，否则长度为 -1。
func encodeMultipart(form params) (io.Reader, int64, string, error) {
	keys := make([]string, 0, len(form))
	for k, v := range form {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	readers := make([]io.Reader, 0, len(keys)*2+1)
	length := int64(0)
	known := true
	for _, k := range keys {
		r, ok := form[k].(io.Reader)
		if !ok {
			if err := w.WriteField(k, fmt.Sprint(form[k])); err != nil {
				return nil, 0, "", err
			}
			continue
		}
		if _, err := w.CreateFormFile(k, k); err != nil {
			return nil, 0, "", err
		}
		length += int64(buf.Len())
		readers = append(readers, bytes.NewReader(bytes.Clone(buf.Bytes())), r)
		buf.Reset()
		if sr, ok := r.(sizedReader); ok {
			length += sr.Size()
		} else {
			known = false
		}
	}
	if err := w.Close(); err != nil {
		return nil, 0, "", err
	}
	length += int64(buf.Len())
	readers = append(readers, bytes.NewReader(buf.Bytes()))

	if !known {
		length = -1
	}
	return io.MultiReader(readers...), length, w.FormDataContentType(), nil
}
