package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ZilDuck/nft-marketplace-engine/internal/log"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Env        string
	Network    string
	Index      string
	Debug      bool
	LogPath    string
	SentryDsn  string
	HealthPort string
	ApiPort    string

	// EngineOperator is the account the registry must approve for the
	// engine to move tokens.
	EngineOperator string
	Admin          string

	MarketplaceFeeBps      uint64
	ListingFee             uint64
	PlatformFeeBps         uint64
	MaxTotalRoyaltyBps     uint64
	DefaultAuctionDuration int64
	DefaultOfferDuration   int64
	FeeRecipient           string
	PlatformRecipient      string

	Registry      RegistryConfig
	ElasticSearch ElasticSearchConfig
	Amqp          AmqpConfig
}

type RegistryConfig struct {
	Url     string
	Debug   bool
	Timeout int
}

type ElasticSearchConfig struct {
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Username         string
	Password         string
	MappingDir       string
	BulkPersistCount int
	Refresh          string
}

type AmqpConfig struct {
	Uri string
}

func Init(component string) {
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().With(zap.Error(err)).Warn("Unable to load .env")
	}

	initLogger(component)
}

func initLogger(component string) {
	log.NewLogger(fmt.Sprintf("%s/%s.log", Get().LogPath, component), Get().Debug, Get().SentryDsn)
}

func Get() *Config {
	return &Config{
		Env:        getString("ENV", ""),
		Network:    getString("NETWORK", "zilliqa"),
		Index:      getString("INDEX_NAME", "marketplace"),
		Debug:      getBool("DEBUG", false),
		LogPath:    getString("LOG_PATH", "./var/logs"),
		SentryDsn:  getString("SENTRY_DSN", ""),
		HealthPort: getString("HEALTH_PORT", "8081"),
		ApiPort:    getString("API_PORT", "8080"),

		EngineOperator: getString("ENGINE_OPERATOR", ""),
		Admin:          getString("ADMIN_ADDRESS", ""),

		MarketplaceFeeBps:      getUint64("MARKETPLACE_FEE_BPS", 250),
		ListingFee:             getUint64("LISTING_FEE", 0),
		PlatformFeeBps:         getUint64("PLATFORM_FEE_BPS", 25),
		MaxTotalRoyaltyBps:     getUint64("MAX_TOTAL_ROYALTY_BPS", 1000),
		DefaultAuctionDuration: getInt64("DEFAULT_AUCTION_DURATION", 86400),
		DefaultOfferDuration:   getInt64("DEFAULT_OFFER_DURATION", 604800),
		FeeRecipient:           getString("FEE_RECIPIENT", ""),
		PlatformRecipient:      getString("PLATFORM_RECIPIENT", ""),

		Registry: RegistryConfig{
			Url:     getString("REGISTRY_URL", ""),
			Timeout: getInt("REGISTRY_TIMEOUT", 30),
			Debug:   getBool("REGISTRY_DEBUG", false),
		},
		ElasticSearch: ElasticSearchConfig{
			Hosts:            getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:            getBool("ELASTIC_SEARCH_SNIFF", true),
			HealthCheck:      getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:            getBool("ELASTIC_SEARCH_DEBUG", false),
			Username:         getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:         getString("ELASTIC_SEARCH_PASSWORD", ""),
			MappingDir:       getString("ELASTIC_SEARCH_MAPPING_DIR", "/data/mappings"),
			BulkPersistCount: getInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT", 250),
			Refresh:          getString("ELASTIC_SEARCH_REFRESH", "wait_for"),
		},
		Amqp: AmqpConfig{
			Uri: getString("AMQP_URI", ""),
		},
	}
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	valStr := getString(key, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultValue
}

func getUint64(key string, defaultValue uint64) uint64 {
	valStr := getString(key, "")
	if val, err := strconv.ParseUint(valStr, 10, 64); err == nil {
		return val
	}

	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}
