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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	pcs "gitee.com/ivfzhou/baidu-pcs-api"
)

// 模拟下载服务，支持 Range 请求头。
func downloadHandler(t *testing.T, data []byte, isDir bool) func(*http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		query := req.URL.Query()
		switch query.Get("method") {
		case "meta":
			dir := 0
			if isDir {
				dir = 1
			}
			return JsonResponse(http.StatusOK, map[string]any{
				"list": []map[string]any{{
					"fs_id": 1,
					"path":  query.Get("path"),
					"size":  len(data),
					"isdir": dir,
				}},
			}), nil
		case "download":
			if req.URL.Host != "d.pcs.baidu.com" {
				t.Errorf("unexpected host: want d.pcs.baidu.com, got %v", req.URL.Host)
			}
			rng := req.Header.Get("Range")
			if len(rng) <= 0 {
				return &http.Response{StatusCode: http.StatusOK, Body: NewReader(data, nil, nil)}, nil
			}
			var begin, end int64
			if n, _ := fmt.Sscanf(rng, "bytes=%d-%d", &begin, &end); n < 2 {
				end = int64(len(data)) - 1
			}
			return &http.Response{StatusCode: http.StatusPartialContent, Body: NewReader(data[begin:end+1], nil, nil)}, nil
		}
		t.Errorf("unexpected method: %v", query.Get("method"))
		return JsonResponse(http.StatusBadRequest, `{"error_code":3}`), nil
	}
}

func TestDownload(t *testing.T) {
	t.Run("正常运行", func(t *testing.T) {
		atomic.StoreInt32(&CloseCount, 0)
		expectedData := MakeBytesWithSize(1024 * 1024)
		fn := func(req *http.Request) (*http.Response, error) {
			if path := req.URL.Query().Get("path"); path != appRoot+"/dir/a?.bin" {
				t.Errorf("unexpected path: want %v, got %v", appRoot+"/dir/a?.bin", path)
			}
			return downloadHandler(t, expectedData, false)(req)
		}
		data, err := NewClient(fn).Download(context.Background(), "/dir/a?.bin", nil)
		if err != nil {
			t.Fatalf("unexpected error: want nil, got %v", err)
		}
		if !bytes.Equal(data, expectedData) {
			t.Errorf("unexpected data: want %v, got %v", len(expectedData), len(data))
		}
		if closeCount := atomic.LoadInt32(&CloseCount); closeCount != 0 {
			t.Errorf("expected close count: want 0, got %v", closeCount)
		}
	})

	t.Run("范围下载", func(t *testing.T) {
		expectedData := MakeBytesWithSize(1024)
		client := NewClient(downloadHandler(t, expectedData, false))
		data, err := client.Download(context.Background(), "a.bin", pcs.ByteRange(10, 19))
		if err != nil || !bytes.Equal(data, expectedData[10:20]) {
			t.Errorf("unexpected data: want %v, got %v %v", expectedData[10:20], data, err)
		}
		data, err = client.Download(context.Background(), "a.bin", pcs.RangeFrom(1000))
		if err != nil || !bytes.Equal(data, expectedData[1000:]) {
			t.Errorf("unexpected data: want %v, got %v %v", expectedData[1000:], data, err)
		}
		_, err = client.Download(context.Background(), "a.bin", pcs.ByteRange(10, 9))
		if !errors.Is(err, pcs.ErrInvalidArgument) {
			t.Errorf("unexpected error: want %v, got %v", pcs.ErrInvalidArgument, err)
		}
	})

	t.Run("文件不存在", func(t *testing.T) {
		atomic.StoreInt32(&CloseCount, 0)
		fn := func(req *http.Request) (*http.Response, error) {
			return JsonResponse(http.StatusNotFound, `{"error_code":31066,"error_msg":"file does not exist"}`), nil
		}
		_, err := NewClient(fn).Download(context.Background(), "a.bin", nil)
		if !errors.Is(err, pcs.ErrClient) {
			t.Errorf("unexpected error: want %v, got %v", pcs.ErrClient, err)
		}
		if closeCount := atomic.LoadInt32(&CloseCount); closeCount != 0 {
			t.Errorf("expected close count: want 0, got %v", closeCount)
		}
	})
}

func TestDownloadStream(t *testing.T) {
	t.Run("正常运行", func(t *testing.T) {
		atomic.StoreInt32(&CloseCount, 0)
		expectedData := MakeBytesWithSize(100*1024 + 7)
		buf := &bytes.Buffer{}
		segments := 0
		err := NewClient(downloadHandler(t, expectedData, false)).DownloadStream(context.Background(), "a.bin", nil,
			func(segment []byte) error {
				if len(segment) > 32*1024 {
					t.Errorf("unexpected segment size: want <= 32KiB, got %v", len(segment))
				}
				segments++
				buf.Write(segment)
				return nil
			})
		if err != nil {
			t.Errorf("unexpected error: want nil, got %v", err)
		}
		if !bytes.Equal(buf.Bytes(), expectedData) {
			t.Errorf("unexpected data: want %v, got %v", len(expectedData), buf.Len())
		}
		if segments < 4 {
			t.Errorf("unexpected segments: want >= 4, got %v", segments)
		}
		if closeCount := atomic.LoadInt32(&CloseCount); closeCount != 0 {
			t.Errorf("expected close count: want 0, got %v", closeCount)
		}
	})

	t.Run("处理失败", func(t *testing.T) {
		atomic.StoreInt32(&CloseCount, 0)
		expectedErr := errors.New("expected error")
		err := NewClient(downloadHandler(t, MakeBytesWithSize(1024), false)).DownloadStream(context.Background(),
			"a.bin", nil, func([]byte) error { return expectedErr })
		if !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: want %v, got %v", expectedErr, err)
		}
		if closeCount := atomic.LoadInt32(&CloseCount); closeCount != 0 {
			t.Errorf("expected close count: want 0, got %v", closeCount)
		}
	})

	t.Run("读取失败", func(t *testing.T) {
		atomic.StoreInt32(&CloseCount, 0)
		expectedErr := errors.New("expected error")
		fn := func(req *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: NewReader([]byte("abc"), nil, expectedErr)}, nil
		}
		buf := &bytes.Buffer{}
		err := NewClient(fn).DownloadToWriter(context.Background(), "a.bin", nil, buf)
		if !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: want %v, got %v", expectedErr, err)
		}
		if buf.String() != "abc" {
			t.Errorf("unexpected data: want abc, got %v", buf.String())
		}
		if closeCount := atomic.LoadInt32(&CloseCount); closeCount != 0 {
			t.Errorf("expected close count: want 0, got %v", closeCount)
		}
	})
}

func TestDownloadToWriterAt(t *testing.T) {
	newWriterAt := func(size int) (*sync.Mutex, []byte, func([]byte, int64) (int, error)) {
		mu := &sync.Mutex{}
		buf := make([]byte, size)
		return mu, buf, func(p []byte, offset int64) (int, error) {
			mu.Lock()
			defer mu.Unlock()
			return copy(buf[offset:], p), nil
		}
	}

	t.Run("正常运行", func(t *testing.T) {
		atomic.StoreInt32(&CloseCount, 0)
		expectedData := MakeBytesWithSize(3*1024*1024 + 11)
		_, buf, fn := newWriterAt(len(expectedData))
		err := NewClient(downloadHandler(t, expectedData, false)).DownloadToWriterAt(context.Background(), "a.bin",
			NewWriterAt(fn))
		if err != nil {
			t.Errorf("unexpected error: want nil, got %v", err)
		}
		if !bytes.Equal(buf, expectedData) {
			t.Errorf("unexpected data")
		}
		if closeCount := atomic.LoadInt32(&CloseCount); closeCount != 0 {
			t.Errorf("expected close count: want 0, got %v", closeCount)
		}
	})

	t.Run("大文件并发下载", func(t *testing.T) {
		atomic.StoreInt32(&CloseCount, 0)
		expectedData := MakeBytesWithSize(130*1024*1024 + 3)
		ranges := int32(0)
		handler := downloadHandler(t, expectedData, false)
		fetch := func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("method") == "download" {
				if len(req.Header.Get("Range")) <= 0 {
					t.Errorf("unexpected range: want range header, got empty")
				}
				atomic.AddInt32(&ranges, 1)
			}
			return handler(req)
		}
		_, buf, fn := newWriterAt(len(expectedData))
		err := NewClient(fetch).DownloadToWriterAt(context.Background(), "a.bin", NewWriterAt(fn))
		if err != nil {
			t.Errorf("unexpected error: want nil, got %v", err)
		}
		if !bytes.Equal(buf, expectedData) {
			t.Errorf("unexpected data")
		}
		if ranges != 33 {
			t.Errorf("unexpected range requests: want 33, got %v", ranges)
		}
		if closeCount := atomic.LoadInt32(&CloseCount); closeCount != 0 {
			t.Errorf("expected close count: want 0, got %v", closeCount)
		}
	})

	t.Run("分片下载失败", func(t *testing.T) {
		atomic.StoreInt32(&CloseCount, 0)
		size := 130 * 1024 * 1024
		fn := func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("method") == "meta" {
				return JsonResponse(http.StatusOK, map[string]any{"list": []map[string]any{{"size": size}}}), nil
			}
			return JsonResponse(http.StatusInternalServerError, `{"error_code":31021,"error_msg":"network error"}`), nil
		}
		wa := NewWriterAt(func(p []byte, _ int64) (int, error) { return len(p), nil })
		err := NewClient(fn).DownloadToWriterAt(context.Background(), "a.bin", wa)
		if !errors.Is(err, pcs.ErrServer) {
			t.Errorf("unexpected error: want %v, got %v", pcs.ErrServer, err)
		}
		if closeCount := atomic.LoadInt32(&CloseCount); closeCount != 0 {
			t.Errorf("expected close count: want 0, got %v", closeCount)
		}
	})

	t.Run("目录", func(t *testing.T) {
		_, _, fn := newWriterAt(0)
		err := NewClient(downloadHandler(t, nil, true)).DownloadToWriterAt(context.Background(), "dir",
			NewWriterAt(fn))
		if !errors.Is(err, pcs.ErrInvalidArgument) {
			t.Errorf("unexpected error: want %v, got %v", pcs.ErrInvalidArgument, err)
		}
	})
}

func TestDownloadToDisk(t *testing.T) {
	t.Run("正常运行", func(t *testing.T) {
		atomic.StoreInt32(&CloseCount, 0)
		expectedData := MakeBytesWithSize(64 * 1024)
		filePath := filepath.Join(t.TempDir(), "sub", "a.bin")
		err := NewClient(downloadHandler(t, expectedData, false)).DownloadToDisk(context.Background(), "a.bin", filePath)
		if err != nil {
			t.Fatalf("unexpected error: want nil, got %v", err)
		}
		data, err := os.ReadFile(filePath)
		if err != nil || !bytes.Equal(data, expectedData) {
			t.Errorf("unexpected data: want %v, got %v %v", len(expectedData), len(data), err)
		}
		if closeCount := atomic.LoadInt32(&CloseCount); closeCount != 0 {
			t.Errorf("expected close count: want 0, got %v", closeCount)
		}
	})

	t.Run("响应失败", func(t *testing.T) {
		fn := func(req *http.Request) (*http.Response, error) {
			return JsonResponse(http.StatusForbidden, `{"error_code":31045,"error_msg":"no permission"}`), nil
		}
		filePath := filepath.Join(t.TempDir(), "a.bin")
		err := NewClient(fn).DownloadToDisk(context.Background(), "a.bin", filePath)
		if !errors.Is(err, pcs.ErrClient) {
			t.Errorf("unexpected error: want %v, got %v", pcs.ErrClient, err)
		}
		if _, err = os.Stat(filePath); !os.IsNotExist(err) {
			t.Errorf("unexpected file: want removed, got %v", err)
		}
	})
}

func TestThumbnail(t *testing.T) {
	t.Run("正常运行", func(t *testing.T) {
		fn := func(req *http.Request) (*http.Response, error) {
			if req.URL.Path != "/rest/2.0/pcs/thumbnail" {
				t.Errorf("unexpected path: want /rest/2.0/pcs/thumbnail, got %v", req.URL.Path)
			}
			query := req.URL.Query()
			if query.Get("method") != "generate" || query.Get("width") != "120" || query.Get("height") != "80" ||
				query.Get("quality") != "100" {
				t.Errorf("unexpected query: got %v", req.URL.RawQuery)
			}
			return &http.Response{StatusCode: http.StatusOK, Body: NewReader([]byte("jpeg"), nil, nil)}, nil
		}
		data, err := NewClient(fn).Thumbnail(context.Background(), "a.jpg", 120, 80, 0)
		if err != nil || string(data) != "jpeg" {
			t.Errorf("unexpected data: want jpeg, got %s %v", data, err)
		}
		_, err = NewClient(fn).Thumbnail(context.Background(), "a.jpg", 0, 80, 0)
		if !errors.Is(err, pcs.ErrInvalidArgument) {
			t.Errorf("unexpected error: want %v, got %v", pcs.ErrInvalidArgument, err)
		}
	})
}

func TestDownloadToReader(t *testing.T) {
	t.Run("正常运行", func(t *testing.T) {
		atomic.StoreInt32(&CloseCount, 0)
		expectedData := MakeBytesWithSize(1024*1024 + 5)
		rc, err := NewClient(downloadHandler(t, expectedData, false)).DownloadToReader(context.Background(), "a.bin")
		if err != nil {
			t.Fatalf("unexpected error: want nil, got %v", err)
		}
		data, err := io.ReadAll(rc)
		if err != nil || !bytes.Equal(data, expectedData) {
			t.Errorf("unexpected data: want %v, got %v %v", len(expectedData), len(data), err)
		}
		if err = rc.Close(); err != nil {
			t.Errorf("unexpected error: want nil, got %v", err)
		}
		if closeCount := atomic.LoadInt32(&CloseCount); closeCount != 0 {
			t.Errorf("expected close count: want 0, got %v", closeCount)
		}
	})

	t.Run("大文件并发下载", func(t *testing.T) {
		atomic.StoreInt32(&CloseCount, 0)
		expectedData := MakeBytesWithSize(129*1024*1024 + 17)
		rc, err := NewClient(downloadHandler(t, expectedData, false)).DownloadToReader(context.Background(), "a.bin")
		if err != nil {
			t.Fatalf("unexpected error: want nil, got %v", err)
		}
		data, err := io.ReadAll(rc)
		if err != nil || !bytes.Equal(data, expectedData) {
			t.Errorf("unexpected data: want %v, got %v %v", len(expectedData), len(data), err)
		}
		_ = rc.Close()
		if closeCount := atomic.LoadInt32(&CloseCount); closeCount != 0 {
			t.Errorf("expected close count: want 0, got %v", closeCount)
		}
	})

	t.Run("目录", func(t *testing.T) {
		_, err := NewClient(downloadHandler(t, nil, true)).DownloadToReader(context.Background(), "dir")
		if !errors.Is(err, pcs.ErrInvalidArgument) {
			t.Errorf("unexpected error: want %v, got %v", pcs.ErrInvalidArgument, err)
		}
	})
}
