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
	"io"
	"net/http"
	"sync"
)

var (
	requestPool = sync.Pool{New: func() any {
		return &http.Request{
			ProtoMajor: 1,
			ProtoMinor: 1,
		}
	}}
	bytesPool = sync.Pool{New: func() any { return make([]byte, MinBlockSize) }}
)

// 获取请求体。
func getRequest() *http.Request {
	return requestPool.Get().(*http.Request)
}

// 回收请求体。
func rollbackRequest(req *http.Request) {
	if req != nil {
		req.Method = ""
		req.URL = nil
		req.Proto = ""
		req.Header = nil
		req.Body = nil
		req.GetBody = nil
		req.ContentLength = 0
		req.TransferEncoding = nil
		req.Close = false
		req.Host = ""
		req.Form = nil
		req.PostForm = nil
		req.MultipartForm = nil
		req.Trailer = nil
		req.RemoteAddr = ""
		req.RequestURI = ""
		req.TLS = nil
		req.Cancel = nil
		req.Response = nil
		req.Pattern = ""
		requestPool.Put(req)
	}
}

// 获取字节数组。只有最小分片大小的数组会被复用。
func makeBytes(size int64) []byte {
	if size == MinBlockSize {
		return bytesPool.Get().([]byte)
	}
	return make([]byte, size)
}

// 回收字节数组。
func rollbackBytes(data []byte) {
	if int64(cap(data)) != MinBlockSize {
		return
	}
	bytesPool.Put(data[:cap(data)])
}

// 读取响应体并关闭。
func (c *baseImpl) readAndClose(rsp *http.Response) []byte {
	if rsp != nil && rsp.Body != nil {
		bs, err := io.ReadAll(rsp.Body)
		c.printError(err)
		c.closeRsp(rsp)
		return bs
	}
	return nil
}

// 关闭流。
func (c *baseImpl) closeIO(closer io.Closer) {
	if closer != nil {
		c.printError(closer.Close())
	}
}

// 关闭 HTTP 响应对象的响应体。
func (c *baseImpl) closeRsp(r *http.Response) {
	if r != nil && r.Body != nil {
		c.printError(r.Body.Close())
	}
}

// 打印错误信息。
func (c *baseImpl) printError(err error) {
	if err != nil {
		c.logger.WithError(err).Error("baidu-pcs-api")
	}
}
