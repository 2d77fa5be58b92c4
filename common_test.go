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

package pcs_test

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sync/atomic"
	"time"

	gu "gitee.com/ivfzhou/goroutine-util"

	pcs "gitee.com/ivfzhou/baidu-pcs-api"
)

const (
	appName     = "ivfzhou_test"
	accessToken = "access_token"
	appRoot     = "/apps/" + appName
)

var CloseCount int32

type mockTransport struct {
	fn func(*http.Request) (*http.Response, error)
}

type ctxCancelWithError struct {
	context.Context
	err gu.AtomicError
}

type writerAt struct {
	f func([]byte, int64) (int, error)
}

type readCloser struct {
	closeErr  error
	readErr   error
	closeFlag int32
	data      []byte
}

// 全是零的读取流，用于模拟大文件。
type zeroReaderAt struct{}

func NewReader(data []byte, closeErr, readErr error) io.ReadCloser {
	atomic.AddInt32(&CloseCount, 1)
	return &readCloser{
		closeErr: closeErr,
		readErr:  readErr,
		data:     data,
	}
}

func NewWriterAt(f func([]byte, int64) (int, error)) io.WriterAt {
	return &writerAt{f: f}
}

func NewCtxCancelWithError() (context.Context, context.CancelCauseFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &ctxCancelWithError{Context: ctx}
	return c, func(cause error) {
		c.err.Set(cause)
		cancel()
	}
}

func MakeBytesWithSize(n int) []byte {
	data := make([]byte, n)
	n, err := crand.Read(data)
	if err != nil || n != len(data) {
		panic("rand.Read fail")
	}
	return data
}

func MockHttpClient(fn func(*http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{
		Transport: &mockTransport{
			fn: fn,
		},
	}
}

func NewClient(fn func(*http.Request) (*http.Response, error)) pcs.Api {
	client, err := pcs.NewClient(appName, accessToken, pcs.WithHttpClient(MockHttpClient(fn)))
	if err != nil {
		panic(err)
	}
	return client
}

// JSON 响应。
func JsonResponse(status int, v any) *http.Response {
	var body []byte
	switch t := v.(type) {
	case string:
		body = []byte(t)
	case []byte:
		body = t
	default:
		body, _ = json.Marshal(v)
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       NewReader(body, nil, nil),
	}
}

// 重定向响应。
func RedirectResponse(location string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusFound,
		Header:     http.Header{"Location": []string{location}},
		Body:       NewReader(nil, nil, nil),
	}
}

// 读出 multipart 请求中的文件内容。
func ReadFilePart(req *http.Request) ([]byte, error) {
	_, ps, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	mr := multipart.NewReader(req.Body, ps["boundary"])
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return io.ReadAll(part)
		}
	}
}

// 读出 multipart 请求中文件内容的长度，不保存内容。
func CountFilePart(req *http.Request) (int64, error) {
	_, ps, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil {
		return 0, err
	}
	mr := multipart.NewReader(req.Body, ps["boundary"])
	for {
		part, err := mr.NextPart()
		if err != nil {
			return 0, err
		}
		if part.FormName() == "file" {
			return io.Copy(io.Discard, part)
		}
	}
}

func Md5Of(data []byte) string {
	return fmt.Sprintf("md5_%x", data[:16])
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.fn(req)
}

func (w *writerAt) WriteAt(p []byte, of int64) (int, error) {
	return w.f(p, of)
}

func (rc *readCloser) Read(p []byte) (int, error) {
	if len(rc.data) <= 0 {
		if rc.readErr != nil {
			return 0, rc.readErr
		}
		return 0, io.EOF
	}
	n := copy(p, rc.data)
	rc.data = rc.data[n:]
	return n, nil
}

func (rc *readCloser) Close() error {
	if atomic.CompareAndSwapInt32(&rc.closeFlag, 0, 1) {
		atomic.AddInt32(&CloseCount, -1)
		return rc.closeErr
	}
	return fmt.Errorf("reader already closed")
}

func (zeroReaderAt) ReadAt(p []byte, _ int64) (int, error) {
	clear(p)
	return len(p), nil
}

func (c *ctxCancelWithError) Deadline() (deadline time.Time, ok bool) {
	return c.Context.Deadline()
}

func (c *ctxCancelWithError) Done() <-chan struct{} {
	return c.Context.Done()
}

func (c *ctxCancelWithError) Err() error {
	return c.err.Get()
}

func (c *ctxCancelWithError) Value(key any) any {
	return c.Context.Value(key)
}
