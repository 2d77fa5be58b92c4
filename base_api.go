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
	"net/http"
)

type Baser interface {
	// Ping 测试连接和凭证是否可用。
	Ping(ctx context.Context) error
}

// Ping 测试连接和凭证是否可用。
func (c *baseImpl) Ping(ctx context.Context) error {
	return c.call(ctx, &request{
		method: http.MethodGet,
		site:   c.site,
		path:   basePath + "/quota",
		query:  c.baseQuery("info"),
	}, nil)
}
