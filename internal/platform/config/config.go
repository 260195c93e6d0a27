package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 20 * time.Second
	defaultReturnWindow    = 7 * 24 * time.Hour
)

// HTTPConfig controls the API server listener.
type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// FirestoreConfig selects the Firestore project and optional emulator.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// FirebaseConfig configures ID token verification.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// PubSubConfig configures the order confirmation topic. An empty topic
// disables notifications.
type PubSubConfig struct {
	ProjectID  string
	OrderTopic string
}

// StorageConfig names the bucket for return-request media. An empty bucket
// disables uploads.
type StorageConfig struct {
	Bucket string
}

// PricingConfig carries the voucher table as code to discount rate.
type PricingConfig struct {
	VoucherRates map[string]float64
}

// ReturnsConfig bounds the post-completion return window.
type ReturnsConfig struct {
	Window time.Duration
}

// Config aggregates all runtime configuration, loaded from the environment.
type Config struct {
	HTTP      HTTPConfig
	Firestore FirestoreConfig
	Firebase  FirebaseConfig
	PubSub    PubSubConfig
	Storage   StorageConfig
	Pricing   PricingConfig
	Returns   ReturnsConfig
}

// Load builds the configuration from environment variables, applying defaults
// where values are unset.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            defaultHTTPAddr,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Returns: ReturnsConfig{Window: defaultReturnWindow},
	}

	if port := lookup("PORT"); port != "" {
		cfg.HTTP.Addr = ":" + port
	}
	if addr := lookup("HTTP_ADDR"); addr != "" {
		cfg.HTTP.Addr = addr
	}

	var err error
	if cfg.HTTP.ReadTimeout, err = lookupDuration("HTTP_READ_TIMEOUT", cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.WriteTimeout, err = lookupDuration("HTTP_WRITE_TIMEOUT", cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.IdleTimeout, err = lookupDuration("HTTP_IDLE_TIMEOUT", cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.ShutdownTimeout, err = lookupDuration("HTTP_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Returns.Window, err = lookupDuration("RETURN_WINDOW", cfg.Returns.Window); err != nil {
		return Config{}, err
	}

	project := lookup("GOOGLE_CLOUD_PROJECT")
	cfg.Firestore.ProjectID = firstNonEmpty(lookup("FIRESTORE_PROJECT_ID"), project)
	cfg.Firestore.EmulatorHost = lookup("FIRESTORE_EMULATOR_HOST")
	cfg.Firebase.ProjectID = firstNonEmpty(lookup("FIREBASE_PROJECT_ID"), project)
	cfg.Firebase.CredentialsFile = lookup("FIREBASE_CREDENTIALS_FILE")
	cfg.PubSub.ProjectID = firstNonEmpty(lookup("PUBSUB_PROJECT_ID"), project)
	cfg.PubSub.OrderTopic = lookup("PUBSUB_ORDER_TOPIC")
	cfg.Storage.Bucket = lookup("RETURN_MEDIA_BUCKET")

	rates, err := parseVoucherRates(lookup("SHOP_VOUCHER_RULES"))
	if err != nil {
		return Config{}, err
	}
	cfg.Pricing.VoucherRates = rates

	return cfg, nil
}

// DefaultVoucherRates mirrors the built-in voucher table: SALE10 grants a 10%
// proportional discount, FREESHIP records the code with no monetary effect.
func DefaultVoucherRates() map[string]float64 {
	return map[string]float64{
		"SALE10":   0.10,
		"FREESHIP": 0,
	}
}

// parseVoucherRates reads "CODE=RATE" pairs separated by commas, e.g.
// "SALE10=0.10,FREESHIP=0". An empty value yields the default table.
func parseVoucherRates(raw string) (map[string]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultVoucherRates(), nil
	}

	rates := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("config: invalid voucher rule %q", pair)
		}
		code := strings.ToUpper(strings.TrimSpace(parts[0]))
		if code == "" {
			return nil, fmt.Errorf("config: voucher rule %q has empty code", pair)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("config: voucher rule %q has invalid rate: %w", pair, err)
		}
		if rate < 0 || rate > 1 {
			return nil, fmt.Errorf("config: voucher rule %q rate must be within [0,1]", pair)
		}
		rates[code] = rate
	}
	if len(rates) == 0 {
		return DefaultVoucherRates(), nil
	}
	return rates, nil
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func lookupDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := lookup(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
