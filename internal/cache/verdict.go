package cache

import (
	"encoding/json"
	"fmt"

	"github.com/ppiankov/verifier/internal/model"
)

// VerdictCache stores liveness verdicts keyed by URL. A nil *VerdictCache
// is valid and caches nothing.
type VerdictCache struct {
	cache Cache
}

// NewVerdictCache wraps c; a nil c yields a nil *VerdictCache
func NewVerdictCache(c Cache) *VerdictCache {
	if c == nil {
		return nil
	}
	return &VerdictCache{cache: c}
}

// Get returns a cached verdict for rawURL, marked as cached
func (v *VerdictCache) Get(rawURL string) (model.Verdict, bool) {
	if v == nil {
		return model.Verdict{}, false
	}
	data, ok := v.cache.Get(CacheKey(rawURL))
	if !ok {
		return model.Verdict{}, false
	}
	var verdict model.Verdict
	if err := json.Unmarshal(data, &verdict); err != nil {
		return model.Verdict{}, false
	}
	verdict.Cached = true
	return verdict, true
}

// Put stores verdict when it is stable; transient outcomes are skipped
func (v *VerdictCache) Put(verdict model.Verdict) error {
	if v == nil || !verdict.Cacheable() {
		return nil
	}
	verdict.Cached = false
	data, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}
	return v.cache.Set(CacheKey(verdict.URL), data, 0)
}
