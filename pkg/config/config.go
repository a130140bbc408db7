// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config - главная структура конфигурации
type Config struct {
	App          AppConfig          `koanf:"app"`
	HTTP         HTTPConfig         `koanf:"http"`
	Log          LogConfig          `koanf:"log"`
	Metrics      MetricsConfig      `koanf:"metrics"`
	Tracing      TracingConfig      `koanf:"tracing"`
	Cache        CacheConfig        `koanf:"cache"`
	Capacity     CapacityConfig     `koanf:"capacity"`
	GRASP        GRASPConfig        `koanf:"grasp"`
	ILP          ILPConfig          `koanf:"ilp"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// HTTPConfig - настройки вспомогательного HTTP сервера (metrics + healthz)
type HTTPConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, text
	Output string `koanf:"output"` // stdout, stderr
}

// MetricsConfig - настройки Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig - настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// CacheConfig - настройки кэширования результатов solve
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // для in-memory
}

// Address возвращает адрес кэша
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CapacityConfig - дефолтные лимиты контейнера, в которые должен уложиться
// каждый построенный подграф
type CapacityConfig struct {
	MemoryMB    int64 `koanf:"memory_mb"`
	CPUMillis   int64 `koanf:"cpu_millis"`
	Concurrency int64 `koanf:"concurrency"`
}

// GRASPConfig - настройки GRASP-рандомизации при построении пула кандидатов
// на корень подграфа
type GRASPConfig struct {
	RCLSize       int `koanf:"rcl_size"`
	NumCandidates int `koanf:"num_candidates"`
	Seed          int64 `koanf:"seed"`
}

// ILPConfig - настройки решения задачи целочисленного линейного
// программирования для одного набора корней R
type ILPConfig struct {
	TimeLimit  time.Duration `koanf:"time_limit"`
	MIPGap     float64       `koanf:"mip_gap"`
	MIPFocus   int           `koanf:"mip_focus"`
	NumThreads int           `koanf:"num_threads"`
}

// OrchestratorConfig - настройки цикла перебора наборов корней R
type OrchestratorConfig struct {
	Strategy                 string `koanf:"strategy"` // optimal, downstream_impact, weighted_in_degree
	Mode                     string `koanf:"mode"`      // combinatorial, greedy_refine
	MaxK                     int    `koanf:"max_k"`
	MaxCombinationsThreshold int64  `koanf:"max_combinations_threshold"`
	NumWorkers               int    `koanf:"num_workers"`
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Capacity.MemoryMB <= 0 {
		errs = append(errs, "capacity.memory_mb must be positive")
	}
	if c.Capacity.CPUMillis <= 0 {
		errs = append(errs, "capacity.cpu_millis must be positive")
	}
	if c.Capacity.Concurrency <= 0 {
		errs = append(errs, "capacity.concurrency must be positive")
	}

	validStrategies := map[string]bool{"optimal": true, "downstream_impact": true, "weighted_in_degree": true}
	if c.Orchestrator.Strategy != "" && !validStrategies[c.Orchestrator.Strategy] {
		errs = append(errs, fmt.Sprintf("orchestrator.strategy must be one of: optimal, downstream_impact, weighted_in_degree, got %s", c.Orchestrator.Strategy))
	}

	validModes := map[string]bool{"combinatorial": true, "greedy_refine": true}
	if c.Orchestrator.Mode != "" && !validModes[c.Orchestrator.Mode] {
		errs = append(errs, fmt.Sprintf("orchestrator.mode must be one of: combinatorial, greedy_refine, got %s", c.Orchestrator.Mode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment проверяет режим разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction проверяет продакшн режим
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
