package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config agrupa todas as configurações da aplicação
type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Auth     AuthConfig
	LLM      LLMConfig
	Command  CommandConfig
	Redis    RedisConfig
	Log      LogConfig
}

// HTTPConfig contém as configurações do servidor HTTP
type HTTPConfig struct {
	Addr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	BasePath       string        `env:"HTTP_BASE_PATH" envDefault:"/api/v1"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	ReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	GinMode        string        `env:"GIN_MODE" envDefault:"release"`
}

// DatabaseConfig contém as configurações do PostgreSQL
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD" envDefault:"postgres"`
	Name            string        `env:"DB_NAME" envDefault:"kommand"`
	SSLMode         string        `env:"DB_SSL_MODE" envDefault:"disable"`
	MaxConnections  int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	MinConnections  int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_LIFETIME" envDefault:"1h"`
	MigrationsPath  string        `env:"DB_MIGRATIONS_PATH" envDefault:"migrations"`
}

// ConnectionString retorna a string de conexão para o PostgreSQL
func (c DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// AuthConfig contém as configurações de autenticação JWT
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET_KEY"`
	Issuer    string        `env:"JWT_ISSUER" envDefault:"kommand-api"`
	TokenTTL  time.Duration `env:"JWT_TOKEN_TTL" envDefault:"24h"`
}

// LLMConfig contém as configurações do colaborador de inferência
type LLMConfig struct {
	Backend       string        `env:"LLM_BACKEND" envDefault:"gemini"`
	Model         string        `env:"LLM_MODEL"`
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	OllamaHost    string        `env:"OLLAMA_HOST"`
	Timeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"4s"`
	Workers       int           `env:"LLM_WORKERS" envDefault:"4"`
	QueueSize     int           `env:"LLM_QUEUE_SIZE" envDefault:"32"`
	MinConfidence float64       `env:"LLM_MIN_CONFIDENCE" envDefault:"0.6"`
	Disabled      bool          `env:"LLM_DISABLED" envDefault:"false"`
}

// CommandConfig contém as configurações do pipeline de comandos
type CommandConfig struct {
	ConfirmationTTL time.Duration `env:"CONFIRMATION_TTL" envDefault:"5m"`
	SweepInterval   time.Duration `env:"CONFIRMATION_SWEEP_INTERVAL" envDefault:"1m"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	SessionMaxRefs  int           `env:"SESSION_MAX_REFS" envDefault:"20"`
	RateLimitPerSec float64       `env:"COMMAND_RATE_LIMIT" envDefault:"5"`
	RateLimitBurst  int           `env:"COMMAND_RATE_BURST" envDefault:"10"`
	LoginRatePerMin int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	SuggestionLimit int           `env:"SUGGESTION_LIMIT" envDefault:"5"`
}

// RedisConfig contém as configurações do Redis (memória de sessão)
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LogConfig contém as configurações de log
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load carrega o arquivo .env (se existir) e faz o parse das variáveis de ambiente
func Load(files ...string) (*Config, error) {
	// .env é opcional; ausência não é erro
	_ = godotenv.Load(files...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
