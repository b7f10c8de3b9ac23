package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DataFile    string
	StoreQuota  int
	SQLitePath  string
	DatabaseURL string

	PokeAPIBaseURL    string
	RandomUserBaseURL string
	NominatimBaseURL  string
	IPGeoBaseURL      string

	Latitude    *float64
	Longitude   *float64
	DisableGeo  bool
	CameraImage string

	RefreshInterval time.Duration
	BatchSize       int

	GeminiAPIKey     string
	TelegramBotToken string
	TelegramChatID   string

	Verbose bool
}

// Load reads .env files (if present) and then the environment.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		DataFile:    getEnv("POKEGRAM_DATA_FILE", "data/storage.json"),
		StoreQuota:  getInt("POKEGRAM_STORE_QUOTA", 5*1024*1024),
		SQLitePath:  getEnv("SQLITE_PATH", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		PokeAPIBaseURL:    getEnv("POKEAPI_BASE_URL", "https://pokeapi.co/api/v2"),
		RandomUserBaseURL: getEnv("RANDOMUSER_BASE_URL", "https://randomuser.me/api"),
		NominatimBaseURL:  getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		IPGeoBaseURL:      getEnv("IPGEO_BASE_URL", "http://ip-api.com"),

		Latitude:    getFloat("POKEGRAM_LATITUDE"),
		Longitude:   getFloat("POKEGRAM_LONGITUDE"),
		DisableGeo:  getBool("POKEGRAM_DISABLE_GEO", false),
		CameraImage: getEnv("POKEGRAM_CAMERA_IMAGE", ""),

		RefreshInterval: getDuration("POKEGRAM_REFRESH_INTERVAL", 5*time.Minute),
		BatchSize:       getInt("POKEGRAM_BATCH_SIZE", 10),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		Verbose: getBool("POKEGRAM_VERBOSE", false),
	}
}

// HasStaticPosition reports whether both coordinates were configured.
func (c *Config) HasStaticPosition() bool {
	return c.Latitude != nil && c.Longitude != nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getFloat(key string) *float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return nil
	}
	return &v
}
