package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/layer-3/nftgate/core"
)

const (
	TokenFormatOpaque = "opaque"
	TokenFormatJWT    = "jwt"

	DefaultUSDC     = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	DefaultReceiver = "0x03173186D626031276F7bfa1f3af0E19f54DdCE6"
	DefaultAmount   = "0.30"
)

// LookupFunc reads one setting, os.LookupEnv in production
type LookupFunc func(key string) (string, bool)

type PaymentConfig struct {
	TokenContract    common.Address
	Receiver         common.Address
	Amount           *big.Int // Smallest token unit
	Decimals         int32
	ReplayProtection bool
}

type RateLimitConfig struct {
	Window        time.Duration
	NFTMax        int
	RegularMax    int
	SweepInterval time.Duration
}

type Config struct {
	HTTPAddr string

	// Secrets. Missing values fail the affected requests, not startup.
	SessionSecret string
	APIToken      string
	APIURL        string
	ReceiptRPCURL string

	Payment          PaymentConfig
	Chains           []core.ChainBalanceQuery
	RPCTimeout       time.Duration
	UpstreamTimeout  time.Duration
	ChainConcurrency int
	RateLimit        RateLimitConfig
	TokenFormat      string
	EventsRedisURL   string
	LogLevel         string
	LogFormat        string
}

// NFTProfile is the quota for verified holders
func (c Config) NFTProfile() core.RateLimitProfile {
	return core.RateLimitProfile{Name: "nft", Ceiling: c.RateLimit.NFTMax, Window: c.RateLimit.Window}
}

// RegularProfile is the quota for other authenticated sessions
func (c Config) RegularProfile() core.RateLimitProfile {
	return core.RateLimitProfile{Name: "regular", Ceiling: c.RateLimit.RegularMax, Window: c.RateLimit.Window}
}

// PaymentExpectation is the transfer a paid call must carry
func (c Config) PaymentExpectation() core.PaymentExpectation {
	return core.PaymentExpectation{
		TokenContract: c.Payment.TokenContract,
		Receiver:      c.Payment.Receiver,
		Amount:        c.Payment.Amount,
		Decimals:      c.Payment.Decimals,
	}
}

// LoadFromEnv reads the configuration from the process environment
func LoadFromEnv() (Config, error) {
	return Load(os.LookupEnv)
}

// Load builds the configuration from lookup, applying defaults. Malformed values are errors.
func Load(lookup LookupFunc) (Config, error) {
	r := reader{lookup: lookup}

	cfg := Config{
		HTTPAddr:         r.str("HTTP_ADDR", ":9000"),
		SessionSecret:    r.str("OSINT_SESSION_SECRET", ""),
		APIToken:         r.str("OSINT_API_TOKEN", ""),
		APIURL:           r.str("OSINT_API_URL", "https://leakosintapi.com/"),
		ReceiptRPCURL:    r.str("BASE_RPC_URL", ""),
		RPCTimeout:       r.duration("RPC_TIMEOUT", 10*time.Second),
		UpstreamTimeout:  r.duration("UPSTREAM_TIMEOUT", 10*time.Second),
		ChainConcurrency: r.integer("CHAIN_CONCURRENCY", 0),
		RateLimit: RateLimitConfig{
			Window:        r.duration("RATE_LIMIT_WINDOW", time.Hour),
			NFTMax:        r.integer("RATE_LIMIT_NFT_MAX", 30),
			RegularMax:    r.integer("RATE_LIMIT_REGULAR_MAX", 10),
			SweepInterval: r.duration("RATE_LIMIT_SWEEP_INTERVAL", 10*time.Minute),
		},
		TokenFormat:    strings.ToLower(r.str("TOKEN_FORMAT", TokenFormatOpaque)),
		EventsRedisURL: r.str("EVENTS_REDIS_URL", ""),
		LogLevel:       r.str("LOG_LEVEL", "info"),
		LogFormat:      strings.ToLower(r.str("LOG_FORMAT", "json")),
	}

	decimals := r.integer("PAYMENT_TOKEN_DECIMALS", 6)
	cfg.Payment = PaymentConfig{
		TokenContract:    r.address("BASE_USDC_ADDRESS", DefaultUSDC),
		Receiver:         r.address("BASE_PAYMENT_RECEIVER", DefaultReceiver),
		Decimals:         int32(decimals),
		ReplayProtection: r.boolean("PAYMENT_REPLAY_PROTECTION", true),
	}
	if decimals < 0 || decimals > 36 {
		r.fail("PAYMENT_TOKEN_DECIMALS", fmt.Errorf("out of range: %d", decimals))
	} else {
		amount, err := core.ParseUnits(r.str("PAYMENT_AMOUNT_USDC", DefaultAmount), cfg.Payment.Decimals)
		if err != nil {
			r.fail("PAYMENT_AMOUNT_USDC", err)
		}
		cfg.Payment.Amount = amount
	}

	cfg.Chains = DefaultChains()
	if path := r.str("CHAINS_FILE", ""); path != "" {
		chains, err := LoadChains(path)
		if err != nil {
			r.fail("CHAINS_FILE", err)
		}
		cfg.Chains = chains
	}

	if err := errors.Join(r.errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c Config) Validate() error {
	var errs []error
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.RateLimit.NFTMax < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_NFT_MAX must be at least 1"))
	}
	if c.RateLimit.RegularMax < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_REGULAR_MAX must be at least 1"))
	}
	if c.RPCTimeout <= 0 || c.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("RPC_TIMEOUT and UPSTREAM_TIMEOUT must be positive"))
	}
	if c.TokenFormat != TokenFormatOpaque && c.TokenFormat != TokenFormatJWT {
		errs = append(errs, fmt.Errorf("TOKEN_FORMAT must be %q or %q, got %q", TokenFormatOpaque, TokenFormatJWT, c.TokenFormat))
	}
	if c.Payment.Amount != nil && c.Payment.Amount.Sign() == 0 {
		errs = append(errs, errors.New("PAYMENT_AMOUNT_USDC must be greater than zero"))
	}
	if len(c.Chains) == 0 {
		errs = append(errs, errors.New("at least one chain is required"))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func NewLogger(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	logger.SetLevel(lvl)
	switch format {
	case "", "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", format)
	}
	return logger, nil
}

// reader collects parse errors so all malformed settings are reported at once
type reader struct {
	lookup LookupFunc
	errs   []error
}

func (r *reader) fail(key string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return d
}

func (r *reader) integer(key string, def int) int {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return b
}

func (r *reader) address(key, def string) common.Address {
	raw := r.str(key, def)
	if !common.IsHexAddress(raw) {
		r.fail(key, fmt.Errorf("invalid address %q", raw))
		return common.Address{}
	}
	return common.HexToAddress(raw)
}

// ChainConfig is one entry of the chains file
type ChainConfig struct {
	Name      string   `yaml:"name"`
	Contract  string   `yaml:"contract"`
	Selector  string   `yaml:"selector"`
	Endpoints []string `yaml:"endpoints"`
}

type chainsFile struct {
	Chains []ChainConfig `yaml:"chains"`
}

// DefaultChains is the Monad testnet and Base mainnet collection deployment
func DefaultChains() []core.ChainBalanceQuery {
	selector := mustSelector(core.BalanceOfSelector)
	return []core.ChainBalanceQuery{
		{
			Name:      "Monad Testnet",
			Endpoints: []string{"https://testnet-rpc.monad.xyz"},
			Contract:  common.HexToAddress("0xC1C4d4A5A384DE53BcFadB43D0e8b08966195757"),
			Selector:  selector,
		},
		{
			Name: "Base Mainnet",
			Endpoints: []string{
				"https://mainnet.base.org",
				"https://base-mainnet.public.blastapi.io",
				"https://base.gateway.tenderly.co",
				"https://base-rpc.publicnode.com",
			},
			Contract: common.HexToAddress("0x8cf392D33050F96cF6D0748486490d3dEae52564"),
			Selector: selector,
		},
	}
}

// LoadChains reads a YAML chain list
func LoadChains(path string) ([]core.ChainBalanceQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chains file: %w", err)
	}
	return ParseChains(data)
}

// ParseChains decodes and validates a YAML chain list. The selector defaults to balanceOf(address).
func ParseChains(data []byte) ([]core.ChainBalanceQuery, error) {
	var file chainsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode chains file: %w", err)
	}
	if len(file.Chains) == 0 {
		return nil, errors.New("chains file lists no chains")
	}

	seen := make(map[string]bool, len(file.Chains))
	chains := make([]core.ChainBalanceQuery, 0, len(file.Chains))
	for i, c := range file.Chains {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("chain %d: name is required", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("chain %q: duplicate name", name)
		}
		seen[name] = true
		if !common.IsHexAddress(c.Contract) {
			return nil, fmt.Errorf("chain %q: invalid contract %q", name, c.Contract)
		}
		if len(c.Endpoints) == 0 {
			return nil, fmt.Errorf("chain %q: at least one endpoint is required", name)
		}
		selectorHex := c.Selector
		if selectorHex == "" {
			selectorHex = core.BalanceOfSelector
		}
		selector, err := parseSelector(selectorHex)
		if err != nil {
			return nil, fmt.Errorf("chain %q: %w", name, err)
		}
		chains = append(chains, core.ChainBalanceQuery{
			Name:      name,
			Endpoints: c.Endpoints,
			Contract:  common.HexToAddress(c.Contract),
			Selector:  selector,
		})
	}
	return chains, nil
}

func parseSelector(s string) ([4]byte, error) {
	var selector [4]byte
	raw, err := hexutil.Decode(s)
	if err != nil || len(raw) != 4 {
		return selector, fmt.Errorf("invalid selector %q", s)
	}
	copy(selector[:], raw)
	return selector, nil
}

func mustSelector(s string) [4]byte {
	selector, err := parseSelector(s)
	if err != nil {
		panic(err)
	}
	return selector
}
