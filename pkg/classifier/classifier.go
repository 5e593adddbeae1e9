package classifier

import (
	"Pantry-Ledger/domain"
	"Pantry-Ledger/internal/utils"
	"Pantry-Ledger/pkg/metrics"
	"context"
	"time"

	"go.uber.org/zap"
)

// Stage names the step of the chain that resolved a product.
type Stage string

const (
	StageKeyword  Stage = "keyword"
	StageCache    Stage = "cache"
	StageExternal Stage = "external"
	StageFallback Stage = "fallback"
	StageDefault  Stage = "default"
)

// Cache sources.
const (
	SourceExternal = "external"
	SourceFallback = "fallback"
)

const DefaultLookupTimeout = 10 * time.Second

// resolution is what a stage reports back to the chain.
type resolution int

const (
	resolved resolution = iota
	tryNext
	terminal
)

type (
	// Lookup resolves a product name against an external catalogue.
	Lookup interface {
		Lookup(ctx context.Context, name string) (domain.ProductInfo, error)
	}

	// Outcome is the result of classifying one product name. Name is the
	// normalized identity; Source records where Info originally came from,
	// which differs from Stage on a cache hit.
	Outcome struct {
		Name    string             `json:"name"`
		Info    domain.ProductInfo `json:"info"`
		Stage   Stage              `json:"stage"`
		Source  string             `json:"source"`
		Keyword string             `json:"keyword,omitempty"`
	}

	Classifier interface {
		Classify(ctx context.Context, name string) Outcome
	}

	stageFunc func(ctx context.Context, name string) (Outcome, resolution)

	classifier struct {
		rules   *RuleSet
		cache   CacheRepository
		lookup  Lookup
		timeout time.Duration
		logger  *zap.Logger
		chain   []stageFunc
	}
)

// NewClassifier builds the keyword, external and default chain. The
// external stage is skipped entirely when lookup is nil; cache may only be
// nil in that case.
func NewClassifier(rules *RuleSet, cache CacheRepository, lookup Lookup, timeout time.Duration, logger *zap.Logger) Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &classifier{
		rules:   rules,
		cache:   cache,
		lookup:  lookup,
		timeout: timeout,
		logger:  logger,
	}
	c.chain = []stageFunc{c.keywordStage}
	if lookup != nil && cache != nil {
		c.chain = append(c.chain, c.externalStage)
	}
	c.chain = append(c.chain, c.defaultStage)
	return c
}

// Classify never fails: every path ends in the default stage.
func (c *classifier) Classify(ctx context.Context, name string) Outcome {
	normalized := utils.NormalizeName(name)

	for _, stage := range c.chain {
		out, res := stage(ctx, normalized)
		if res == tryNext {
			continue
		}
		out.Name = normalized
		metrics.Classifications.WithLabelValues(string(out.Stage)).Inc()
		return out
	}

	// unreachable while defaultStage terminates the chain
	return Outcome{Name: normalized, Info: domain.DefaultProductInfo(), Stage: StageDefault, Source: string(StageDefault)}
}

func (c *classifier) keywordStage(_ context.Context, name string) (Outcome, resolution) {
	info, kw, ok := c.rules.Match(name)
	if !ok {
		return Outcome{}, tryNext
	}
	return Outcome{Info: info, Stage: StageKeyword, Source: string(StageKeyword), Keyword: kw}, resolved
}

func (c *classifier) externalStage(ctx context.Context, name string) (Outcome, resolution) {
	cached, err := c.cache.GetCachedInfo(ctx, name)
	if err != nil {
		c.logger.Warn("search cache read failed", zap.String("name", name), zap.Error(err))
	}
	if cached != nil {
		return Outcome{Info: cached.Result.Data(), Stage: StageCache, Source: cached.Source}, resolved
	}

	info, err := c.callLookup(ctx, name)
	out := Outcome{Info: info, Stage: StageExternal, Source: SourceExternal}
	if err != nil {
		c.logger.Info("external lookup failed, using default",
			zap.String("name", name),
			zap.Error(err))
		out = Outcome{Info: domain.DefaultProductInfo(), Stage: StageFallback, Source: SourceFallback}
	}

	if err := c.cache.SaveCachedInfo(ctx, name, out.Info, out.Source); err != nil {
		c.logger.Warn("search cache write failed", zap.String("name", name), zap.Error(err))
	}
	return out, resolved
}

func (c *classifier) callLookup(ctx context.Context, name string) (domain.ProductInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	info, err := c.lookup.Lookup(ctx, name)
	metrics.ExternalLookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalLookups.WithLabelValues("error").Inc()
		return domain.ProductInfo{}, err
	}
	metrics.ExternalLookups.WithLabelValues("success").Inc()

	if !info.StorageType.Valid() {
		info.StorageType = domain.StorageAmbient
	}
	if info.Category == "" {
		info.Category = domain.UnknownCategory
	}
	return info, nil
}

func (c *classifier) defaultStage(_ context.Context, _ string) (Outcome, resolution) {
	return Outcome{Info: domain.DefaultProductInfo(), Stage: StageDefault, Source: string(StageDefault)}, terminal
}
