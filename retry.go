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
	"time"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultRetryTimes 分片上传失败后默认的重试次数。
	DefaultRetryTimes = 5
	// DefaultRetryWait 默认的重试间隔。
	DefaultRetryWait = 30 * time.Second
)

// RetryPolicy 重试策略。
type RetryPolicy struct {
	// MaxRetries 失败后最多再尝试的次数，总尝试次数为 MaxRetries+1。
	MaxRetries uint64
	// Delay 两次尝试之间的等待时间，等待期间可被上下文取消。
	Delay time.Duration
	// Retryable 判断错误是否可以重试。为 nil 时使用 IsRetryable。
	Retryable func(error) bool
}

// DefaultRetryPolicy 默认重试策略：重试 5 次，间隔 30 秒。
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries: DefaultRetryTimes,
		Delay:      DefaultRetryWait,
	}
}

// IsRetryable 默认的可重试判断。
//
// 参数错误、凭证错误、上下文取消和 408、429 以外的客户端错误不重试。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrPayloadTooLarge) || errors.Is(err, ErrAuth) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var e *Error
	if errors.As(err, &e) && e.Kind == KindClient {
		return e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func (p *RetryPolicy) backoff() retry.Backoff {
	delay := p.Delay
	if delay < 0 {
		delay = 0
	}
	return retry.WithMaxRetries(p.MaxRetries, retry.BackoffFunc(func() (time.Duration, bool) {
		return delay, false
	}))
}

// 按策略执行 fn，耗尽重试次数后返回最后一次的错误。
func withRetries[T any](ctx context.Context, p *RetryPolicy, logger logrus.FieldLogger, what string,
	fn func(ctx context.Context) (T, error)) (T, error) {

	if p == nil {
		p = DefaultRetryPolicy()
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	attempt := 0
	return retry.DoValue(ctx, p.backoff(), func(ctx context.Context) (T, error) {
		attempt++
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !retryable(err) || uint64(attempt) > p.MaxRetries {
			return v, err
		}
		logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"wait":    p.Delay,
		}).Warnf("%s failed, will retry", what)
		return v, retry.RetryableError(err)
	})
}
