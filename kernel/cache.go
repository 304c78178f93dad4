package kernel

import (
	"crypto/sha256"
	"errors"
	"log/slog"

	"github.com/gogpu/filterplay/internal/cache"
)

type buildKey struct {
	typ Type
	sum [sha256.Size]byte
}

type buildResult struct {
	program    *Program
	transcript Transcript
	err        error
}

// cachedToolchain memoizes builds by kernel type and source. Rejected
// sources are cached too; toolchain failures are not.
type cachedToolchain struct {
	next   Toolchain
	builds *cache.LRU[buildKey, buildResult]
	logger *slog.Logger
}

func (c *cachedToolchain) Build(t Type, source string) (*Program, Transcript, error) {
	key := buildKey{typ: t, sum: sha256.Sum256([]byte(source))}
	if r, ok := c.builds.Get(key); ok {
		c.logger.Debug("kernel: build cache hit", "type", t)
		return r.program, r.transcript, r.err
	}

	prog, transcript, err := c.next.Build(t, source)
	if err == nil || errors.Is(err, ErrCompile) {
		c.builds.Set(key, buildResult{program: prog, transcript: transcript, err: err})
	}
	return prog, transcript, err
}

// WithCache memoizes the last capacity builds of identical sources, which
// makes undo and auto-compile of unchanged files free. Programs are shared
// between kernels and must not be modified.
func WithCache(capacity int) Option {
	return func(o *options) { o.cache = capacity }
}

// CacheStats counts build cache traffic.
type CacheStats = cache.Stats

// BuildCacheStats returns the build cache counters of k. Kernels compiled
// from k share its cache. It reports false when k was made without WithCache.
func BuildCacheStats(k Kernel) (CacheStats, bool) {
	h, ok := k.(interface{ buildCache() *cachedToolchain })
	if !ok {
		return CacheStats{}, false
	}
	c := h.buildCache()
	if c == nil {
		return CacheStats{}, false
	}
	return c.builds.Stats(), true
}

func (b base) buildCache() *cachedToolchain {
	c, _ := b.opts.toolchain.(*cachedToolchain)
	return c
}
