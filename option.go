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
	"net/http"

	"github.com/sirupsen/logrus"
)

const (
	// Site 文件 API 默认站点。
	Site = "https://pcs.baidu.com"
	// UploadSite 上传文件默认站点。
	UploadSite = "https://c.pcs.baidu.com"
	// DownloadSite 下载文件默认站点。
	DownloadSite = "https://d.pcs.baidu.com"

	defaultUserAgent = "baidu-pcs-api/go"
	// 默认并发下载的协程数。
	defaultConcurrency = 5
)

type options struct {
	client       *http.Client
	logger       logrus.FieldLogger
	site         string
	uploadSite   string
	downloadSite string
	userAgent    string
	concurrency  int
}

type option func(*options)

// WithHttpClient 使用自定义 HTTP 客户端实现。默认使用 http.DefaultClient 的配置。
//
// 客户端的重定向策略会被替换，重定向由本库处理。
func WithHttpClient(client *http.Client) option {
	return func(o *options) {
		o.client = client
	}
}

// WithLogger 使用自定义日志。默认输出 Warn 及以上级别的日志到标准错误输出流。
func WithLogger(logger logrus.FieldLogger) option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSite 修改文件 API 站点。
func WithSite(site string) option {
	return func(o *options) {
		o.site = site
	}
}

// WithUploadSite 修改上传站点。
func WithUploadSite(site string) option {
	return func(o *options) {
		o.uploadSite = site
	}
}

// WithDownloadSite 修改下载站点。
func WithDownloadSite(site string) option {
	return func(o *options) {
		o.downloadSite = site
	}
}

// WithUserAgent 修改请求头 User-Agent。
func WithUserAgent(ua string) option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithConcurrency 按范围并发下载大文件时的协程数，默认 5。
func WithConcurrency(n int) option {
	return func(o *options) {
		o.concurrency = n
	}
}

// 填充默认值。
func (o *options) complete() {
	if o.client == nil {
		o.client = &http.Client{}
	} else {
		c := *o.client
		o.client = &c
	}
	o.client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	if o.logger == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		o.logger = logger
	}
	if len(o.site) <= 0 {
		o.site = Site
	}
	if len(o.uploadSite) <= 0 {
		o.uploadSite = UploadSite
	}
	if len(o.downloadSite) <= 0 {
		o.downloadSite = DownloadSite
	}
	if len(o.userAgent) <= 0 {
		o.userAgent = defaultUserAgent
	}
	if o.concurrency <= 0 {
		o.concurrency = defaultConcurrency
	}
}
