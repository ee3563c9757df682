package geminiservice

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultTranslationCacheSize = 512

// translationCache remembers translated documents keyed by language and source digest,
// so switching a result view back and forth between languages costs one model call.
type translationCache struct {
	entries *lru.Cache[string, []byte]
}

func newTranslationCache(size int) (*translationCache, error) {
	if size <= 0 {
		size = DefaultTranslationCacheSize
	}
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &translationCache{entries: entries}, nil
}

func cacheKey(lang string, source []byte) string {
	sum := sha256.Sum256(source)
	return lang + ":" + hex.EncodeToString(sum[:])
}

func (c *translationCache) get(lang string, source []byte) ([]byte, bool) {
	return c.entries.Get(cacheKey(lang, source))
}

func (c *translationCache) add(lang string, source, translated []byte) {
	c.entries.Add(cacheKey(lang, source), translated)
}

func (c *translationCache) len() int {
	return c.entries.Len()
}
