package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"KnowLink/internal/modules/knowledge/domain/knowledge"
)

// URLLoader 按来源地址拉取原始文档内容。
// 内部持有长生命周期的 http.Client，连接池在并发摄取间共享。
type URLLoader struct {
	client *http.Client
}

func NewURLLoader(timeout time.Duration) *URLLoader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &URLLoader{client: &http.Client{Timeout: timeout}}
}

// Load 拉取文档字节。来源不可达、非 2xx 响应或空内容均视为加载失败。
func (l *URLLoader) Load(ctx context.Context, location string) ([]byte, error) {
	loc := strings.TrimSpace(location)
	if loc == "" {
		return nil, knowledge.NewLoadError(errors.New("empty source location"))
	}
	// 上传侧保存的文件地址可能不带协议前缀
	if !strings.Contains(loc, "://") {
		loc = "http://" + loc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, knowledge.NewLoadError(err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, knowledge.NewLoadError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, knowledge.NewLoadError(fmt.Errorf("unexpected status %d from %s", resp.StatusCode, loc))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, knowledge.NewLoadError(err)
	}
	if len(data) == 0 {
		return nil, knowledge.NewLoadError(fmt.Errorf("empty content from %s", loc))
	}
	return data, nil
}
