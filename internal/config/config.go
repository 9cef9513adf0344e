// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Order routing targets for strategy-driven orders. The original deployment
// sends them over the market data connection; routing over the order entry
// connection is available as an explicit choice.
const (
	RouteMarketData = "market-data"
	RouteOrderEntry = "order-entry"
)

// defaultFIXPort is used when FIX_PORT is 0 or unset.
const defaultFIXPort = 9000

// Config holds configuration for the FIX trading bot.
type Config struct {
	// Service name used in log fields.
	ServiceName string

	// Venue-assigned TargetCompID, shared by both sessions.
	TargetCompID string

	// API credential sent as Username(553) on logon.
	APIKey string

	// Base64-encoded Ed25519 private key signing the logon credentials.
	PrivateKeyBase64 string

	// Market data and order entry endpoints. Both sessions share the port.
	MarketDataHost string
	OrderEntryHost string
	Port           int

	// Traded symbol and the strategy's fixed reference price.
	Symbol         string
	ReferencePrice float64

	// Quantity used for strategy and demo orders.
	OrderQty float64

	// OrderRoute selects the connection strategy orders travel on:
	// RouteMarketData (default) or RouteOrderEntry.
	OrderRoute string

	// Delay between the order entry session's demo order and its cancel.
	DemoCancelDelay time.Duration

	// Log level: debug, info, warn, error.
	LogLevel string

	// Directory for the order journal database.
	DataDir string

	// Kafka brokers (comma-separated). Empty disables publishing.
	KafkaBrokers string

	// Ops ports.
	GRPCPort int
	HTTPPort int
}

// LoadConfig loads configuration from environment variables with defaults
// and validates the required venue settings. Missing credentials fail here,
// before any connection is attempted.
func LoadConfig(serviceName string) (*Config, error) {
	cfg := &Config{
		ServiceName:      serviceName,
		TargetCompID:     getEnvAsString("FIX_TARGET_COMP_ID", ""),
		APIKey:           getEnvAsString("FIX_API_KEY", ""),
		PrivateKeyBase64: getEnvAsString("FIX_PRIVATE_KEY_BASE64", ""),
		MarketDataHost:   getEnvAsString("FIX_MD_HOSTNAME", ""),
		OrderEntryHost:   getEnvAsString("FIX_OE_HOSTNAME", ""),
		Port:             getEnvAsInt("FIX_PORT", 0),
		Symbol:           getEnvAsString("FIX_SYMBOL", "BTCUSDT"),
		ReferencePrice:   getEnvAsFloat("REFERENCE_PRICE", 100000.0),
		OrderQty:         getEnvAsFloat("ORDER_QTY", 0.0001),
		OrderRoute:       getEnvAsString("ORDER_ROUTE", RouteMarketData),
		DemoCancelDelay:  getEnvAsMillis("DEMO_CANCEL_DELAY_MS", time.Second),
		LogLevel:         getEnvAsString("LOG_LEVEL", "info"),
		DataDir:          getEnvAsString("DATA_DIR", "data"),
		KafkaBrokers:     getEnvAsString("KAFKA_BROKERS", ""),
		GRPCPort:         getEnvAsInt("PORT_GRPC", 50051),
		HTTPPort:         getEnvAsInt("PORT_HTTP", 8080),
	}

	for _, req := range []struct{ key, value string }{
		{"FIX_TARGET_COMP_ID", cfg.TargetCompID},
		{"FIX_API_KEY", cfg.APIKey},
		{"FIX_PRIVATE_KEY_BASE64", cfg.PrivateKeyBase64},
		{"FIX_MD_HOSTNAME", cfg.MarketDataHost},
		{"FIX_OE_HOSTNAME", cfg.OrderEntryHost},
	} {
		if req.value == "" {
			return nil, fmt.Errorf("%s is required", req.key)
		}
	}

	if cfg.OrderRoute != RouteMarketData && cfg.OrderRoute != RouteOrderEntry {
		return nil, fmt.Errorf("ORDER_ROUTE must be %q or %q, got %q",
			RouteMarketData, RouteOrderEntry, cfg.OrderRoute)
	}
	if cfg.ReferencePrice <= 0 {
		return nil, fmt.Errorf("REFERENCE_PRICE must be greater than 0")
	}
	if cfg.OrderQty <= 0 {
		return nil, fmt.Errorf("ORDER_QTY must be greater than 0")
	}

	return cfg, nil
}

// EndpointPort returns the effective FIX port, defaulting when the
// configured port is 0.
func (c *Config) EndpointPort() int {
	if c.Port == 0 {
		return defaultFIXPort
	}
	return c.Port
}

// GRPCAddr returns the ops gRPC listen address.
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

// HTTPAddr returns the HTTP health listen address.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsMillis(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
