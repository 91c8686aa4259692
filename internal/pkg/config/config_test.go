package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != "8787" || cfg.Env != "development" {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.API.BaseURL != "http://127.0.0.1:8000" || cfg.API.Timeout != 10*time.Second {
		t.Fatalf("unexpected API defaults: %+v", cfg.API)
	}
	if cfg.Session.Backend != BackendFile || cfg.Session.File != ".petcare/session.json" || cfg.Session.Namespace != "petcare" {
		t.Fatalf("unexpected session defaults: %+v", cfg.Session)
	}
	if cfg.IsProduction() {
		t.Fatalf("development must not be production")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"SESSION_BACKEND": "redis",
		"SESSION_TTL":     "24h",
		"REDIS_ADDR":      "cache:6379",
		"REDIS_DB":        "2",
		"API_TIMEOUT":     "3s",
		"ENV":             "production",
	}))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Session.Backend != BackendRedis || cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Redis.Addr != "cache:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("unexpected redis config: %+v", cfg.Redis)
	}
	if cfg.API.Timeout != 3*time.Second || !cfg.IsProduction() {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown backend":  {"SESSION_BACKEND": "sqlite"},
		"bad base url":     {"API_BASE_URL": "not a url"},
		"zero timeout":     {"API_TIMEOUT": "0s"},
		"non numeric port": {"PORT": "http"},
		"namespace colon":  {"SESSION_NAMESPACE": "a:b"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := load(context.Background(), envconfig.MapLookuper(env)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestValidate_BackendRequirements(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	redisCfg := *cfg
	redisCfg.Session.Backend = BackendRedis
	redisCfg.Redis.Addr = ""
	if err := redisCfg.Validate(); err == nil {
		t.Fatalf("expected redis backend without address to be rejected")
	}

	mongoCfg := *cfg
	mongoCfg.Session.Backend = BackendMongo
	mongoCfg.Mongo.Database = ""
	if err := mongoCfg.Validate(); err == nil {
		t.Fatalf("expected mongo backend without database to be rejected")
	}

	memCfg := *cfg
	memCfg.Session.Backend = BackendMemory
	memCfg.Session.File = ""
	if err := memCfg.Validate(); err != nil {
		t.Fatalf("memory backend needs no file: %v", err)
	}
}
