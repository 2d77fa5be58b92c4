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

type Api interface {
	Baser
	Uploader
	Downloader
	Filer
}

type impl struct {
	*baseImpl
	*uploadImpl
	*downloadImpl
	*fileImpl
}

// NewClient 创建文件 API 客户端。
//
// appName 为开通 PCS API 权限时填写的文件目录，所有路径都位于 /apps/<appName> 下。
func NewClient(appName, accessToken string, opts ...option) (Api, error) {
	return newClient(appName, credential(accessToken), opts)
}

// NewClientWithSession 使用授权得到的会话创建文件 API 客户端。
func NewClientWithSession(appName string, session *Session, opts ...option) (Api, error) {
	return newClient(appName, credentialFromSession(session), opts)
}

func newClient(appName string, token credential, opts []option) (Api, error) {
	root, err := appRoot(appName)
	if err != nil {
		return nil, err
	}
	if isBlank(string(token)) {
		return nil, invalidArgument("access token must not be blank")
	}

	c := &baseImpl{
		root:  root,
		token: token,
	}

	// 设置参数。
	for _, v := range opts {
		if v == nil {
			continue
		}
		v(&c.options)
	}
	c.complete()

	filer := &fileImpl{c}
	uploader := &uploadImpl{c}
	downloader := &downloadImpl{c, filer}

	return &impl{c, uploader, downloader, filer}, nil
}
