package config

import (
	"testing"
	"time"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/pricing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "API_TIMEOUT", "DISCOUNT_POLICY", "CANCELLATION_FEE", "STRIPE_SECRET_KEY", "DB_HOST", "SMTP_HOST", "EMAIL_SERVICE_ID", "PAYMENT_GATEWAY", "SANDBOX_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Server.Port != "8080" || cfg.API.Timeout != 30*time.Second {
		t.Fatalf("unexpected server defaults %+v %+v", cfg.Server, cfg.API)
	}
	if cfg.Pricing.Policy != pricing.PolicyGreaterOf || cfg.Pricing.CancellationFee != 2 {
		t.Fatalf("unexpected pricing defaults %+v", cfg.Pricing)
	}
	if cfg.StripeEnabled() || cfg.PostgresEnabled() || cfg.SMTPEnabled() || cfg.TemplateEnabled() {
		t.Fatalf("optional integrations should be off by default")
	}
	if cfg.Sandbox.Enabled || cfg.Server.DefaultGateway != "stripe" {
		t.Fatalf("sandbox gateway must be opt-in, got %+v default=%q", cfg.Sandbox, cfg.Server.DefaultGateway)
	}
}

func TestSandboxOptIn(t *testing.T) {
	tests := []struct {
		name    string
		gateway string
		enabled string
		want    bool
	}{
		{"stripe default", "", "", false},
		{"explicit flag", "", "true", true},
		{"sandbox default gateway", "sandbox", "", true},
		{"flag off", "stripe", "false", false},
		{"unparsable flag", "stripe", "yes please", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PAYMENT_GATEWAY", tt.gateway)
			t.Setenv("SANDBOX_ENABLED", tt.enabled)
			if got := Load().Sandbox.Enabled; got != tt.want {
				t.Fatalf("Sandbox.Enabled = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("API_TIMEOUT", "45")
	t.Setenv("CATALOG_CACHE_TTL", "2m")
	t.Setenv("DISCOUNT_POLICY", "promo_overrides")
	t.Setenv("CANCELLATION_FEE", "3.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("SANDBOX_DEFERRED", "true")

	cfg := Load()
	if cfg.Server.Port != "9090" || cfg.API.Timeout != 45*time.Second || cfg.API.CatalogCacheTTL != 2*time.Minute {
		t.Fatalf("unexpected config %+v %+v", cfg.Server, cfg.API)
	}
	if cfg.Pricing.Policy != pricing.PolicyPromoOverrides || cfg.Pricing.CancellationFee != 3.5 {
		t.Fatalf("unexpected pricing %+v", cfg.Pricing)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Redis.DB != 0 || !cfg.Sandbox.Deferred {
		t.Fatalf("unexpected redis/sandbox config %+v %+v", cfg.Redis, cfg.Sandbox)
	}
}
