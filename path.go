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
	"regexp"
	"strings"
)

const (
	// 应用目录前缀。
	appsPathPrefix = "/apps"
	// 路径最大字节数。
	maxPathLength = 1000
)

var slashRun = regexp.MustCompile(`/+`)

// 纠正路径，使其满足服务端的命名规则。
//
// 合并连续的 /，去掉首尾的空白和 .，把 \ ? | " > < : * 替换成 _。
func editPath(p string) string {
	p = slashRun.ReplaceAllString(p, "/")
	p = strings.TrimLeftFunc(p, isBlankOrDot)
	p = strings.TrimRightFunc(p, isBlankOrDot)
	return strings.Map(func(r rune) rune {
		switch r {
		case '\\', '?', '|', '"', '>', '<', ':', '*':
			return '_'
		}
		return r
	}, p)
}

// 只去掉 ASCII 空白，全角空格等属于文件名。
func isBlankOrDot(r rune) bool {
	return strings.ContainsRune(". \t\n\v\f\r", r)
}

// 生成应用根目录。
func appRoot(appName string) (string, error) {
	if isBlank(appName) {
		return "", invalidArgument("app name must not be blank")
	}
	return appsPathPrefix + "/" + strings.Trim(appName, "/"), nil
}

// 生成服务端路径。edit 为 true 时先纠正路径，用于上传、创建、移动的目标路径。
func joinPath(root, p string, edit bool) (string, error) {
	if isBlank(p) {
		return "", invalidArgument("path must not be blank")
	}
	if edit {
		p = editPath(p)
		if isBlank(strings.Trim(p, "/")) {
			return "", invalidArgument("path must not resolve to the app root")
		}
	}
	full := root + "/" + strings.TrimLeft(p, "/")
	if len(full) > maxPathLength {
		return "", invalidArgument("path length must not be greater than %d, got %d", maxPathLength, len(full))
	}
	return full, nil
}

func isBlank(s string) bool {
	return len(strings.TrimSpace(s)) <= 0
}
