package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/deanDev5200/web-aspirasi/internal/logger"
)

const (
	StoreOxiDB  = "oxidb"
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

type Config struct {
	HTTPAddr        string        `env:"ASPIRASI_ADDR,default=:5000"`
	Store           string        `env:"ASPIRASI_STORE,default=oxidb"`
	OxiDBHost       string        `env:"OXIDB_HOST,default=127.0.0.1"`
	OxiDBPort       int           `env:"OXIDB_PORT,default=4444"`
	PoolSize        int           `env:"OXIDB_POOL_SIZE,default=3"`
	MongoURI        string        `env:"MONGODB_URI,default=mongodb://localhost:27017"`
	MongoDatabase   string        `env:"MONGODB_DATABASE,default=aspirasi_db"`
	SQLitePath      string        `env:"SQLITE_PATH,default=data/aspirasi.db"`
	CredentialsFile string        `env:"CREDENTIALS_FILE,default=data/admin-credentials.json"`
	BcryptCost      int           `env:"BCRYPT_COST,default=10"`
	CORSOrigins     string        `env:"CORS_ORIGINS,default=http://localhost:5173;http://localhost:3000;http://localhost:8080"`
	DisplayTZ       string        `env:"DISPLAY_TZ,default=Asia/Jakarta"`
	RequestTimeout  time.Duration `env:"ASPIRASI_REQUEST_TIMEOUT,default=15s"`
	GelfAddr        string        `env:"GELF_ADDR"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
}

// Load reads an optional .env file, then decodes the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreOxiDB, StoreMongo, StoreSQLite:
	default:
		return fmt.Errorf("config: unknown ASPIRASI_STORE %q (want oxidb, mongo or sqlite)", c.Store)
	}
	if c.CredentialsFile == "" {
		return errors.New("config: CREDENTIALS_FILE must not be empty")
	}
	return nil
}

// Origins splits CORSOrigins on commas or semicolons.
func (c *Config) Origins() []string {
	return strings.FieldsFunc(c.CORSOrigins, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})
}

// Location resolves DisplayTZ against the embedded zone database, falling
// back to UTC for unknown names.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTZ)
	if err != nil {
		logger.Warnf("config: DISPLAY_TZ %q: %v, formatting dates in UTC", c.DisplayTZ, err)
		return time.UTC
	}
	return loc
}

// ClientConfig drives the admin command line.
type ClientConfig struct {
	APIURL   string `env:"ASPIRASI_API_URL,default=http://localhost:5000/api"`
	AuthFile string `env:"ASPIRASI_AUTH_FILE"`
}

func LoadClient(envFile string) (*ClientConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	cfg := &ClientConfig{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.AuthFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		cfg.AuthFile = dir + "/aspirasi/auth.json"
	}
	return cfg, nil
}
