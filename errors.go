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
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument 参数校验失败，在发送任何请求前返回。
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPayloadTooLarge 单次上传的文件超过服务端限制（2GiB）。
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrRemote 匹配所有服务端返回的错误。
	ErrRemote = &Error{Kind: KindGeneric}
	// ErrAuth 凭证无效、过期或权限不足。
	ErrAuth = &Error{Kind: KindAuth}
	// ErrClient 请求有误（401 以外的 4xx）。
	ErrClient = &Error{Kind: KindClient}
	// ErrServer 服务端错误（5xx）。
	ErrServer = &Error{Kind: KindServer}
)

// 表示凭证问题的业务错误码。
var authErrorCodes = map[string]struct{}{
	"102": {},
	"110": {},
	"111": {},
	"112": {},
}

// Kind 错误类别。
type Kind int

const (
	// KindGeneric 其它错误，包括重定向次数过多。
	KindGeneric Kind = iota
	// KindAuth 凭证错误。
	KindAuth
	// KindClient 客户端错误。
	KindClient
	// KindServer 服务端错误。
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth error"
	case KindClient:
		return "client error"
	case KindServer:
		return "server error"
	default:
		return "error"
	}
}

// Error 服务端错误。创建后不再修改。
type Error struct {
	// Kind 错误类别。
	Kind Kind
	// Code 业务错误码或 HTTP 状态码，可能为空。
	Code string
	// Msg 错误描述。
	Msg string
	// StatusCode HTTP 状态码，本地产生的错误为 0。
	StatusCode int
	// Response 原始响应，响应体已关闭，仅用于排查问题。
	Response *http.Response
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("pcs: ")
	b.WriteString(e.Kind.String())
	if len(e.Code) > 0 {
		b.WriteString(", code: ")
		b.WriteString(e.Code)
	}
	if len(e.Msg) > 0 {
		b.WriteString(", msg: ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

// Is 按类别匹配。ErrRemote 匹配任意 *Error。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == ErrRemote {
		return true
	}
	return t.Kind == e.Kind && len(t.Code) <= 0 && len(t.Msg) <= 0
}

// 错误响应体。
type errorBody struct {
	ErrorCode        json.RawMessage `json:"error_code"`
	Error            json.RawMessage `json:"error"`
	ErrorMsg         string          `json:"error_msg"`
	ErrorDescription string          `json:"error_description"`
}

// 根据 HTTP 状态码生成错误。
func classifyStatus(rsp *http.Response, body []byte) *Error {
	kind := KindGeneric
	switch {
	case rsp.StatusCode == http.StatusUnauthorized:
		kind = KindAuth
	case rsp.StatusCode >= 400 && rsp.StatusCode < 500:
		kind = KindClient
	case rsp.StatusCode >= 500 && rsp.StatusCode < 600:
		kind = KindServer
	}

	e := &Error{
		Kind:       kind,
		Code:       fmt.Sprintf("%d", rsp.StatusCode),
		Msg:        http.StatusText(rsp.StatusCode),
		StatusCode: rsp.StatusCode,
		Response:   rsp,
	}

	// 响应体中有错误信息就优先使用。
	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		if code := rawCode(eb.ErrorCode); len(code) > 0 {
			e.Code = code
		} else if code = rawCode(eb.Error); len(code) > 0 {
			e.Code = code
		}
		if len(eb.ErrorMsg) > 0 {
			e.Msg = eb.ErrorMsg
		} else if len(eb.ErrorDescription) > 0 {
			e.Msg = eb.ErrorDescription
		}
	}

	return e
}

// 检查成功响应体中的业务错误码。没有错误码或错误码为 0 时返回 nil。
func classifyBody(rsp *http.Response, body []byte) *Error {
	if len(body) <= 0 || !bytes.Contains(body, []byte(`"error_code"`)) {
		return nil
	}
	var eb errorBody
	if json.Unmarshal(body, &eb) != nil {
		return nil
	}
	code := rawCode(eb.ErrorCode)
	if len(code) <= 0 || code == "0" {
		return nil
	}

	kind := KindGeneric
	if _, ok := authErrorCodes[code]; ok {
		kind = KindAuth
	}
	e := &Error{
		Kind:     kind,
		Code:     code,
		Msg:      eb.ErrorMsg,
		Response: rsp,
	}
	if rsp != nil {
		e.StatusCode = rsp.StatusCode
		if len(e.Msg) <= 0 {
			e.Msg = http.StatusText(rsp.StatusCode)
		}
	}
	return e
}

// 错误码可能是字符串也可能是数字。
func rawCode(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if len(s) <= 0 || s == "null" {
		return ""
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if json.Unmarshal(raw, &str) == nil {
			return strings.TrimSpace(str)
		}
	}
	return s
}

// 生成参数错误。
func invalidArgument(format string, args ...any) error {
	return errors.WithMessagef(ErrInvalidArgument, format, args...)
}
