package classifier

import (
	"Pantry-Ledger/domain"
	"Pantry-Ledger/internal/utils/testdb"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	mu    sync.Mutex
	calls map[string]int
	info  domain.ProductInfo
	err   error
	delay time.Duration
}

func (f *fakeLookup) Lookup(ctx context.Context, name string) (domain.ProductInfo, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return domain.ProductInfo{}, ctx.Err()
		}
	}
	return f.info, f.err
}

func (f *fakeLookup) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func TestClassifier_KeywordStage(t *testing.T) {
	lookup := &fakeLookup{}
	c := NewClassifier(nil, NewCacheRepository(testdb.Open(t)), lookup, time.Second, nil)

	out := c.Classify(context.Background(), "明治おいしい牛乳")

	assert.Equal(t, StageKeyword, out.Stage)
	assert.Equal(t, "明治おいしい牛乳", out.Name)
	assert.Equal(t, "dairy", out.Info.Category)
	assert.Equal(t, "牛乳", out.Keyword)
	assert.Zero(t, lookup.count(out.Name))
}

func TestClassifier_ExternalCalledOncePerName(t *testing.T) {
	amount := 500.0
	lookup := &fakeLookup{info: domain.ProductInfo{
		Category:      "cereal",
		ContentAmount: &amount,
		ContentUnit:   "g",
		StorageType:   domain.StorageAmbient,
		IsFood:        true,
	}}
	cache := NewCacheRepository(testdb.Open(t))
	c := NewClassifier(nil, cache, lookup, time.Second, nil)
	ctx := context.Background()

	first := c.Classify(ctx, "ｵｰｶﾞﾆｯｸ ｸﾞﾗﾉｰﾗ")
	second := c.Classify(ctx, "オーガニック　グラノーラ")

	assert.Equal(t, StageExternal, first.Stage)
	assert.Equal(t, SourceExternal, first.Source)
	assert.Equal(t, StageCache, second.Stage)
	assert.Equal(t, SourceExternal, second.Source)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.Info, second.Info)
	assert.Equal(t, 1, lookup.count(first.Name))

	n, err := cache.CountCachedInfo(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestClassifier_LookupFailureCachesDefault(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("boom")}
	c := NewClassifier(nil, NewCacheRepository(testdb.Open(t)), lookup, time.Second, nil)
	ctx := context.Background()

	first := c.Classify(ctx, "謎の商品X")
	second := c.Classify(ctx, "謎の商品X")

	assert.Equal(t, StageFallback, first.Stage)
	assert.Equal(t, domain.DefaultProductInfo(), first.Info)
	assert.Equal(t, StageCache, second.Stage)
	assert.Equal(t, SourceFallback, second.Source)
	assert.Equal(t, domain.DefaultProductInfo(), second.Info)
	assert.Equal(t, 1, lookup.count("謎の商品x"))
}

func TestClassifier_LookupTimeout(t *testing.T) {
	lookup := &fakeLookup{delay: time.Second}
	c := NewClassifier(nil, NewCacheRepository(testdb.Open(t)), lookup, 20*time.Millisecond, nil)

	start := time.Now()
	out := c.Classify(context.Background(), "謎の商品Y")

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, StageFallback, out.Stage)
	assert.True(t, out.Info.IsUnknown())
}

func TestClassifier_IncompleteLookupResultFilled(t *testing.T) {
	lookup := &fakeLookup{info: domain.ProductInfo{Manufacturer: "ACME"}}
	c := NewClassifier(nil, NewCacheRepository(testdb.Open(t)), lookup, time.Second, nil)

	out := c.Classify(context.Background(), "謎の商品Z")

	assert.Equal(t, StageExternal, out.Stage)
	assert.Equal(t, domain.UnknownCategory, out.Info.Category)
	assert.Equal(t, domain.StorageAmbient, out.Info.StorageType)
	assert.Equal(t, "ACME", out.Info.Manufacturer)
}

func TestClassifier_NoBackendUsesDefault(t *testing.T) {
	c := NewClassifier(nil, nil, nil, 0, nil)

	out := c.Classify(context.Background(), "謎の商品X")

	assert.Equal(t, StageDefault, out.Stage)
	assert.Equal(t, domain.DefaultProductInfo(), out.Info)
}

func TestClassifier_Deterministic(t *testing.T) {
	c := NewClassifier(nil, nil, nil, 0, nil)
	ctx := context.Background()

	for _, name := range []string{"ﾄｯﾌﾟﾊﾞﾘｭ ﾐﾈﾗﾙｳｫｰﾀｰ", "ﾃｨｯｼｭ", "謎の商品X"} {
		first := c.Classify(ctx, name)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, c.Classify(ctx, name), name)
		}
	}
}
