package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration, read from the environment (with an
// optional .env file) plus an optional YAML policy file.
type Config struct {
	Port         string
	DBPath       string
	PriceAPIURL  string
	TonCenterURL string
	PolicyPath   string
	SeedPath     string
}

// Load reads the environment, honoring a .env file when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:         getEnv("PORT", "8080"),
		DBPath:       getEnv("DB_PATH", "taxreporter.db"),
		PriceAPIURL:  getEnv("PRICE_API_URL", ""),
		TonCenterURL: getEnv("TONCENTER_API_URL", ""),
		PolicyPath:   getEnv("POLICY_PATH", ""),
		SeedPath:     getEnv("SEED_PATH", "testdata/transfers.json"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// DemoWindow configures the optional synthetic buy/sell pair appended to
// one month's report for demonstration. Off unless configured.
type DemoWindow struct {
	Year          int     `yaml:"year"`
	Month         int     `yaml:"month"`
	AmountTON     float64 `yaml:"amount_ton"`
	MarkupPercent float64 `yaml:"markup_percent"`
}

// PolicyFile is the YAML tax-policy document.
type PolicyFile struct {
	TaxRate                   float64     `yaml:"tax_rate"`
	FallbackPriceUSD          float64     `yaml:"fallback_price_usd"`
	UnmatchedDisposalIsProfit *bool       `yaml:"unmatched_disposal_is_profit"`
	MonthMultipliers          []float64   `yaml:"month_multipliers"`
	Demo                      *DemoWindow `yaml:"demo"`
}

// DefaultPolicyFile mirrors the historical reporting defaults: 5% of
// profit, 5 USD fallback price, shortfall taxed in full.
func DefaultPolicyFile() *PolicyFile {
	return &PolicyFile{
		TaxRate:          0.05,
		FallbackPriceUSD: 5.0,
	}
}

// LoadPolicy reads the YAML policy file; an empty path yields defaults.
func LoadPolicy(path string) (*PolicyFile, error) {
	p := DefaultPolicyFile()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}

	if p.TaxRate < 0 || p.TaxRate > 1 {
		return nil, fmt.Errorf("tax_rate %v out of range [0,1]", p.TaxRate)
	}
	if p.FallbackPriceUSD <= 0 {
		return nil, fmt.Errorf("fallback_price_usd must be positive, got %v", p.FallbackPriceUSD)
	}
	if n := len(p.MonthMultipliers); n != 0 && n != 12 {
		return nil, fmt.Errorf("month_multipliers needs 12 values, got %d", n)
	}
	if p.Demo != nil && (p.Demo.Month < 1 || p.Demo.Month > 12) {
		return nil, fmt.Errorf("demo month %d out of range", p.Demo.Month)
	}
	return p, nil
}
