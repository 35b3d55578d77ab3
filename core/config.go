package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address            string
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		DisableReqLogs     bool
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
		PoolSize int
	}

	StorageConfig struct {
		Driver string // memory (default), sqlite, postgres, redis
		DSN    string
		Redis  RedisConfig
	}

	EmailConfig struct {
		DefaultFromEmail string
		SendgridAPIKey   string
	}

	// MockConfig drives the simulated API: random seed and fake network latencies.
	MockConfig struct {
		Seed             int64 // 0: unseeded
		LoginDelay       time.Duration
		DashboardDelay   time.Duration
		LeaderboardDelay time.Duration
		FilterDelay      time.Duration
		RewardsDelay     time.Duration
	}

	Config struct {
		AppName      string
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		Server       ServerConfig
		Storage      StorageConfig
		Email        EmailConfig
		Mock         MockConfig
	}
)

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "EduPoints")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "k3u5-pq)zmx$+90=fa&wpe2(y!v)#*t7(#bn4h^$aezq1ptv")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverDebugHost", "localhost:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("disableReqLogs", false)

	v.SetDefault("storageDriver", "memory")
	v.SetDefault("storageDSN", "")
	v.SetDefault("redisAddress", "localhost:6379")
	v.SetDefault("redisPassword", "")
	v.SetDefault("redisDB", 0)
	v.SetDefault("redisPoolSize", 10)

	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")

	v.SetDefault("mockSeed", int64(0))
	v.SetDefault("loginDelay", 1000*time.Millisecond)
	v.SetDefault("dashboardDelay", 1000*time.Millisecond)
	v.SetDefault("leaderboardDelay", 800*time.Millisecond)
	v.SetDefault("filterDelay", 500*time.Millisecond)
	v.SetDefault("rewardsDelay", 800*time.Millisecond)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:            v.GetString("serverAddress"),
			Host:               v.GetString("serverHost"),
			DebugHost:          v.GetString("serverDebugHost"),
			ShutdownTimeout:    v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
			DisableReqLogs:     v.GetBool("disableReqLogs"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("storageDriver")),
			DSN:    v.GetString("storageDSN"),
			Redis: RedisConfig{
				Address:  v.GetString("redisAddress"),
				Password: v.GetString("redisPassword"),
				DB:       v.GetInt("redisDB"),
				PoolSize: v.GetInt("redisPoolSize"),
			},
		},
		Email: EmailConfig{
			DefaultFromEmail: v.GetString("defaultFromEmail"),
			SendgridAPIKey:   v.GetString("sendgridApiKey"),
		},
		Mock: MockConfig{
			Seed:             v.GetInt64("mockSeed"),
			LoginDelay:       v.GetDuration("loginDelay"),
			DashboardDelay:   v.GetDuration("dashboardDelay"),
			LeaderboardDelay: v.GetDuration("leaderboardDelay"),
			FilterDelay:      v.GetDuration("filterDelay"),
			RewardsDelay:     v.GetDuration("rewardsDelay"),
		},
	}
}

// NewTestConfig returns a config suitable for tests: no simulated latency, in-memory storage.
func NewTestConfig() *Config {
	conf := NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.SecretKey = "secret"
	conf.Storage.Driver = "memory"
	conf.Server.DisableReqLogs = true
	conf.Mock = MockConfig{Seed: 42}
	return conf
}
