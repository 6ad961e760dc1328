package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"vks.la/patrol/model"
	"vks.la/patrol/store"
)

const (
	sitesKey      = "patrol:directory:sites"
	siteConfigKey = "patrol:directory:siteconfig"

	// DefaultTTL keeps directory reads fresh within a couple of minutes,
	// which is tolerable staleness for resolution and config merging.
	DefaultTTL = 2 * time.Minute
)

// Directory serves the site and site-config tables through the KV cache.
// Cache failures fall through to the store; store failures are the only
// errors callers see.
type Directory struct {
	store  store.TabularStore
	kv     KVStore
	ttl    time.Duration
	logger *zap.Logger
}

func NewDirectory(st store.TabularStore, kv KVStore, ttl time.Duration, logger *zap.Logger) *Directory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Directory{store: st, kv: kv, ttl: ttl, logger: logger}
}

// Sites returns the decoded site directory, cached.
func (d *Directory) Sites(ctx context.Context) ([]model.Site, error) {
	var sites []model.Site
	if d.cachedInto(ctx, sitesKey, &sites) {
		return sites, nil
	}

	rows, err := d.store.ReadAll(ctx, model.TableSites)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if s, ok := model.SiteFromRecord(row); ok {
			sites = append(sites, s)
		}
	}
	d.put(ctx, sitesKey, sites)
	return sites, nil
}

// SiteConfigs returns the decoded override rows, cached.
func (d *Directory) SiteConfigs(ctx context.Context) ([]model.SiteConfig, error) {
	var configs []model.SiteConfig
	if d.cachedInto(ctx, siteConfigKey, &configs) {
		return configs, nil
	}

	rows, err := d.store.ReadAll(ctx, model.TableSiteConfig)
	if err != nil {
		// The override table is optional; its absence is an empty layer.
		d.logger.Warn("site config table unavailable", zap.Error(err))
		return nil, nil
	}
	for _, row := range rows {
		if c, ok := model.SiteConfigFromRecord(row); ok {
			configs = append(configs, c)
		}
	}
	d.put(ctx, siteConfigKey, configs)
	return configs, nil
}

func (d *Directory) cachedInto(ctx context.Context, key string, v interface{}) bool {
	if d.kv == nil {
		return false
	}
	raw, err := d.kv.Get(ctx, key)
	if err != nil {
		if err != ErrCacheMiss {
			d.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		d.logger.Warn("cache entry unreadable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (d *Directory) put(ctx context.Context, key string, v interface{}) {
	if d.kv == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := d.kv.Set(ctx, key, string(raw), d.ttl); err != nil {
		d.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
