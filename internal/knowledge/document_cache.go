package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DocumentKey 由URL字符串派生文档标识。
// 标识只看URL不看内容：同一URL背后内容变化会一直命中旧缓存，
// 两个URL指向同一份PDF会被当作两个文档。
func DocumentKey(documentURL string) string {
	sum := sha256.Sum256([]byte(documentURL))
	return hex.EncodeToString(sum[:])
}

// DocumentEntry 单个文档的处理结果，写入缓存后不再修改
type DocumentEntry struct {
	Chunks  []Chunk
	Index   *VectorIndex
	RawText string
}

// IngestFunc 缓存未命中时执行的文档摄取函数
type IngestFunc func(ctx context.Context) (*DocumentEntry, error)

// DocumentCache 进程级文档缓存，key为文档标识。
// 同一key并发首次请求经singleflight合并，只执行一次摄取，
// 其余调用方等待并共享结果；失败不留存，后续请求可以重试。
// 没有TTL也没有LRU，只能整体清空——无界增长是设计取舍，
// 长期运行下属于资源耗尽风险。
type DocumentCache struct {
	mu      sync.RWMutex
	entries map[string]*DocumentEntry
	flight  singleflight.Group
}

// NewDocumentCache 创建空缓存
func NewDocumentCache() *DocumentCache {
	return &DocumentCache{
		entries: make(map[string]*DocumentEntry),
	}
}

// GetOrCreate 命中时直接返回已有条目；未命中时执行ingest并存储结果。
// 返回值hit标识本次是否命中既有条目（含等到他人摄取结果的情况）。
func (c *DocumentCache) GetOrCreate(ctx context.Context, key string, ingest IngestFunc) (*DocumentEntry, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return entry, true, nil
	}

	// performed只在本调用真正执行摄取时置位；
	// singleflight完成后会遗忘key，失败自然不被缓存
	performed := false
	ch := c.flight.DoChan(key, func() (interface{}, error) {
		performed = true

		// 拿到执行权之前条目可能已由上一轮写入
		c.mu.RLock()
		existing, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return existing, nil
		}

		created, err := ingest(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = created
		c.mu.Unlock()
		return created, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*DocumentEntry), !performed, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Stats 返回已缓存文档数与向量索引数
func (c *DocumentCache) Stats() (documents int, indexes int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, entry := range c.entries {
		documents++
		if entry.Index != nil {
			indexes++
		}
	}
	return documents, indexes
}

// Clear 原子地清空全部条目
func (c *DocumentCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*DocumentEntry)
}
