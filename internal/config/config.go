package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Game    GameConfig
	Problem ProblemConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Host string
	Env  string // "development" or "production"
}

// GameConfig holds lobby and phase-timing configuration
type GameConfig struct {
	MinPlayers        int
	MaxPlayers        int
	DefaultMaxPlayers int
	RoomCodeLength    int
	ReadingDuration   time.Duration
	CodingDuration    time.Duration
	VotingDuration    time.Duration
	ResultsDuration   time.Duration
	LobbyMaxAge       time.Duration
}

// ProblemConfig holds configuration for the problem-generation API
type ProblemConfig struct {
	APIURL      string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	GraceWindow time.Duration
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Game: GameConfig{
			MinPlayers:        getEnvInt("MIN_PLAYERS", 3),
			MaxPlayers:        getEnvInt("MAX_PLAYERS", 12),
			DefaultMaxPlayers: getEnvInt("DEFAULT_MAX_PLAYERS", 8),
			RoomCodeLength:    getEnvInt("ROOM_CODE_LENGTH", 6),
			ReadingDuration:   getEnvSeconds("READING_PHASE_SECONDS", 20),
			CodingDuration:    getEnvSeconds("CODING_PHASE_SECONDS", 120),
			VotingDuration:    getEnvSeconds("VOTING_PHASE_SECONDS", 60),
			ResultsDuration:   getEnvSeconds("RESULTS_PHASE_SECONDS", 15),
			LobbyMaxAge:       getEnvSeconds("LOBBY_MAX_AGE_SECONDS", 3600),
		},
		Problem: ProblemConfig{
			APIURL:      getEnv("PROBLEM_API_URL", "https://api.cerebras.ai/v1/chat/completions"),
			APIKey:      getEnv("CEREBRAS_API_KEY", ""),
			Model:       getEnv("PROBLEM_MODEL", "gpt-oss-120b"),
			Temperature: getEnvFloat("PROBLEM_TEMPERATURE", 0.8),
			Timeout:     getEnvSeconds("PROBLEM_TIMEOUT_SECONDS", 15),
			GraceWindow: getEnvSeconds("PROBLEM_GRACE_SECONDS", 3),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as an integer or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat returns an environment variable as a float or a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvSeconds returns an environment variable whose value is a number of seconds
func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}
