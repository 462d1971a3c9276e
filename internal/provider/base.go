package provider

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/seenimoa/yieldwatch/internal/infra"
	"github.com/seenimoa/yieldwatch/pkg/models"
)

// Default per-fetcher cache TTL and request rate.
const (
	DefaultCacheTTL   = 15 * time.Minute
	DefaultRateLimit  = 5
	DefaultRateWindow = time.Second
)

// BaseFetcher gives concrete fetchers caching and rate limiting.
type BaseFetcher struct {
	model       ModelType
	description string
	required    []string
	optional    []string
	cache       *infra.Cache
	limiter     *infra.RateLimiter
}

// NewBaseFetcher creates a base fetcher with the default cache and rate.
func NewBaseFetcher(model ModelType, desc string, required, optional []string) BaseFetcher {
	return NewBaseFetcherWithOpts(model, desc, required, optional, DefaultCacheTTL, DefaultRateLimit, DefaultRateWindow)
}

// NewBaseFetcherWithOpts creates a base fetcher with a custom cache TTL and rate.
func NewBaseFetcherWithOpts(model ModelType, desc string, required, optional []string, cacheTTL time.Duration, rateLimit int, rateWindow time.Duration) BaseFetcher {
	return BaseFetcher{
		model:       model,
		description: desc,
		required:    required,
		optional:    optional,
		cache:       infra.NewCache(cacheTTL),
		limiter:     infra.NewRateLimiter(rateLimit, rateWindow),
	}
}

func (b *BaseFetcher) ModelType() ModelType     { return b.model }
func (b *BaseFetcher) Description() string      { return b.description }
func (b *BaseFetcher) RequiredParams() []string { return b.required }
func (b *BaseFetcher) OptionalParams() []string { return b.optional }

// Cached returns a cached series for the query, if any.
func (b *BaseFetcher) Cached(params QueryParams) (models.RateSeries, bool) {
	v, ok := b.cache.Get(CacheKey(b.model, params))
	if !ok {
		return models.RateSeries{}, false
	}
	s, ok := v.(models.RateSeries)
	return s, ok
}

// Store caches a series for the query.
func (b *BaseFetcher) Store(params QueryParams, s models.RateSeries) {
	b.cache.Set(CacheKey(b.model, params), s)
}

// RateLimit waits until a request slot is available.
func (b *BaseFetcher) RateLimit(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}

// Result wraps a series in a FetchResult stamped now.
func (b *BaseFetcher) Result(s models.RateSeries, cached bool) *FetchResult {
	return &FetchResult{
		Model:     b.model,
		Data:      s,
		FetchedAt: time.Now(),
		Cached:    cached,
	}
}

// CacheKey builds a deterministic key from the model type and parameters.
// The provider override is ignored.
func CacheKey(model ModelType, params QueryParams) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == ParamProvider {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(string(model))
	for _, k := range keys {
		sb.WriteString(":" + k + "=" + params[k])
	}
	return sb.String()
}

// BaseProvider is embedded by concrete providers.
type BaseProvider struct {
	info        ProviderInfo
	fetchers    map[ModelType]Fetcher
	credentials map[string]string
}

// NewBaseProvider creates a base provider.
func NewBaseProvider(name, description, website string, creds []ProviderCredential) BaseProvider {
	return BaseProvider{
		info: ProviderInfo{
			Name:        name,
			Description: description,
			Website:     website,
			Credentials: creds,
		},
		fetchers:    make(map[ModelType]Fetcher),
		credentials: make(map[string]string),
	}
}

func (bp *BaseProvider) Info() ProviderInfo { return bp.info }

// Init checks required credentials and stores them.
func (bp *BaseProvider) Init(credentials map[string]string) error {
	for _, cred := range bp.info.Credentials {
		if !cred.Required {
			continue
		}
		if v := credentials[cred.Name]; v == "" {
			return &ErrInvalidCredentials{
				Provider: bp.info.Name,
				Detail:   "missing required credential: " + cred.Name,
			}
		}
	}
	bp.credentials = credentials
	return nil
}

func (bp *BaseProvider) Fetcher(model ModelType) Fetcher {
	return bp.fetchers[model]
}

// SupportedModels returns the registered model types in AllModels order.
func (bp *BaseProvider) SupportedModels() []ModelType {
	out := make([]ModelType, 0, len(bp.fetchers))
	for _, m := range AllModels() {
		if _, ok := bp.fetchers[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

func (bp *BaseProvider) Ping(ctx context.Context) error {
	return nil
}

// RegisterFetcher adds a fetcher to this provider.
func (bp *BaseProvider) RegisterFetcher(f Fetcher) {
	bp.fetchers[f.ModelType()] = f
	bp.info.Models = bp.SupportedModels()
}

// SetMaturities records the treasury labels this provider serves.
func (bp *BaseProvider) SetMaturities(labels []string) {
	bp.info.Maturities = append([]string(nil), labels...)
}

// Credential returns a stored credential value.
func (bp *BaseProvider) Credential(name string) string {
	return bp.credentials[name]
}
