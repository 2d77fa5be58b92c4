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

// Session 授权完成后获得的会话信息。
type Session struct {
	// AccessToken 用户身份验证和授权的凭证。
	AccessToken string `json:"access_token"`
	// RefreshToken 用于刷新 AccessToken，不是所有应用都会返回。
	RefreshToken string `json:"refresh_token"`
	// Scope AccessToken 最终的访问范围。
	Scope string `json:"scope"`
	// SessionKey 基于 http 调用 Open API 时所需要的 Session Key。
	SessionKey string `json:"session_key"`
	// SessionSecret 计算参数签名用的签名密钥。
	SessionSecret string `json:"session_secret"`
}

// 请求凭证。
type credential string

func credentialFromSession(s *Session) credential {
	if s == nil {
		return ""
	}
	return credential(s.AccessToken)
}
