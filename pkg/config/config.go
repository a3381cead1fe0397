package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// MaxPositions is the number of panes on the wall.
const MaxPositions = 4

type CameraConfig struct {
	Position  int    `yaml:"position"`
	Name      string `yaml:"name"`
	Host      string `yaml:"host"`
	RTSPPort  int    `yaml:"rtsp_port"`
	ONVIFPort int    `yaml:"onvif_port"`
	Audio     bool   `yaml:"audio"`
	Quality   string `yaml:"quality"` // "main" or "sub"
}

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Cameras []CameraConfig `yaml:"cameras"`

	Credentials struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"credentials"`

	Feed struct {
		ConnectTimeout  time.Duration `yaml:"connect_timeout"`
		PlayTimeout     time.Duration `yaml:"play_timeout"`
		ConnectAttempts int           `yaml:"connect_attempts"`
		ConnectBackoff  time.Duration `yaml:"connect_backoff"`
		StallInterval   time.Duration `yaml:"stall_interval"`
		DropWindow      time.Duration `yaml:"drop_window"`
		DropThreshold   int           `yaml:"drop_threshold"`
		SwitchCooldown  time.Duration `yaml:"switch_cooldown"`
		PauseInitial    time.Duration `yaml:"pause_initial"`
		PauseMax        time.Duration `yaml:"pause_max"`
		MaxFailures     int           `yaml:"max_failures"`
	} `yaml:"feed"`

	PTZ struct {
		Velocity          float64       `yaml:"velocity"`
		NudgeVelocity     float64       `yaml:"nudge_velocity"`
		NudgeDuration     time.Duration `yaml:"nudge_duration"`
		MoveTimeout       time.Duration `yaml:"move_timeout"`
		CommandsPerSecond float64       `yaml:"commands_per_second"`
		Burst             int           `yaml:"burst"`
	} `yaml:"ptz"`

	Auth struct {
		JWTSecret       string        `yaml:"jwt_secret"`
		AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
		RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
		APIUser         string        `yaml:"api_user"`
		APIPassword     string        `yaml:"api_password"`
	} `yaml:"auth"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled    bool    `yaml:"enabled"`
		JaegerURL  string  `yaml:"jaeger_url"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Events struct {
		PingInterval time.Duration `yaml:"ping_interval"`
		PongTimeout  time.Duration `yaml:"pong_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		SendBuffer   int           `yaml:"send_buffer"`
	} `yaml:"events"`

	RateLimiting struct {
		Enabled           bool    `yaml:"enabled"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		MaxConcurrent     int     `yaml:"max_concurrent"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Cameras
	if len(c.Cameras) > MaxPositions {
		return fmt.Errorf("cameras: at most %d cameras are supported, got %d", MaxPositions, len(c.Cameras))
	}
	seen := make(map[int]bool)
	for _, cam := range c.Cameras {
		if cam.Position < 0 || cam.Position >= MaxPositions {
			return fmt.Errorf("cameras: position %d out of range [0, %d)", cam.Position, MaxPositions)
		}
		if seen[cam.Position] {
			return fmt.Errorf("cameras: duplicate position %d", cam.Position)
		}
		seen[cam.Position] = true
		if cam.Quality != "" && cam.Quality != "main" && cam.Quality != "sub" {
			return fmt.Errorf("cameras: position %d quality must be \"main\" or \"sub\", got %q", cam.Position, cam.Quality)
		}
		if cam.RTSPPort < 0 || cam.RTSPPort > 65535 {
			return fmt.Errorf("cameras: position %d rtsp_port out of range", cam.Position)
		}
		if cam.ONVIFPort < 0 || cam.ONVIFPort > 65535 {
			return fmt.Errorf("cameras: position %d onvif_port out of range", cam.Position)
		}
	}

	// Feed supervision
	if c.Feed.ConnectTimeout <= 0 {
		return fmt.Errorf("feed.connect_timeout must be > 0")
	}
	if c.Feed.PlayTimeout <= 0 {
		return fmt.Errorf("feed.play_timeout must be > 0")
	}
	if c.Feed.ConnectAttempts <= 0 {
		return fmt.Errorf("feed.connect_attempts must be > 0")
	}
	if c.Feed.ConnectBackoff <= 0 {
		return fmt.Errorf("feed.connect_backoff must be > 0")
	}
	if c.Feed.StallInterval <= 0 {
		return fmt.Errorf("feed.stall_interval must be > 0")
	}
	if c.Feed.DropWindow <= 0 {
		return fmt.Errorf("feed.drop_window must be > 0")
	}
	if c.Feed.DropThreshold <= 0 {
		return fmt.Errorf("feed.drop_threshold must be > 0")
	}
	if c.Feed.SwitchCooldown < 0 {
		return fmt.Errorf("feed.switch_cooldown must be >= 0")
	}
	if c.Feed.PauseInitial <= 0 {
		return fmt.Errorf("feed.pause_initial must be > 0")
	}
	if c.Feed.PauseMax < c.Feed.PauseInitial {
		return fmt.Errorf("feed.pause_max must be >= feed.pause_initial")
	}
	if c.Feed.MaxFailures <= 0 {
		return fmt.Errorf("feed.max_failures must be > 0")
	}

	// PTZ
	if c.PTZ.Velocity <= 0 || c.PTZ.Velocity > 1.0 {
		return fmt.Errorf("ptz.velocity must be in (0, 1]")
	}
	if c.PTZ.NudgeVelocity <= 0 || c.PTZ.NudgeVelocity > 1.0 {
		return fmt.Errorf("ptz.nudge_velocity must be in (0, 1]")
	}
	if c.PTZ.NudgeDuration <= 0 {
		return fmt.Errorf("ptz.nudge_duration must be > 0")
	}
	if c.PTZ.MoveTimeout <= 0 {
		return fmt.Errorf("ptz.move_timeout must be > 0")
	}
	if c.PTZ.CommandsPerSecond <= 0 {
		return fmt.Errorf("ptz.commands_per_second must be > 0")
	}
	if c.PTZ.Burst <= 0 {
		return fmt.Errorf("ptz.burst must be > 0")
	}

	// Auth
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be > 0")
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("auth.refresh_token_ttl must be > 0")
	}
	if c.Auth.APIUser == "" {
		return fmt.Errorf("auth.api_user must not be empty")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be in [0, 1]")
		}
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Events
	if c.Events.PingInterval <= 0 {
		return fmt.Errorf("events.ping_interval must be > 0")
	}
	if c.Events.PongTimeout <= c.Events.PingInterval {
		return fmt.Errorf("events.pong_timeout must be > events.ping_interval")
	}
	if c.Events.WriteTimeout <= 0 {
		return fmt.Errorf("events.write_timeout must be > 0")
	}
	if c.Events.SendBuffer <= 0 {
		return fmt.Errorf("events.send_buffer must be > 0")
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.Burst <= 0 {
			return fmt.Errorf("rate_limiting.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.max_concurrent must be >= 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	for i := range cfg.Cameras {
		cfg.Cameras[i].ApplyDefaults()
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Feed.ConnectTimeout = 1 * time.Second
	cfg.Feed.PlayTimeout = 7 * time.Second
	cfg.Feed.ConnectAttempts = 3
	cfg.Feed.ConnectBackoff = 1 * time.Second
	cfg.Feed.StallInterval = 4 * time.Second
	cfg.Feed.DropWindow = 5 * time.Second
	cfg.Feed.DropThreshold = 10
	cfg.Feed.SwitchCooldown = 60 * time.Second
	cfg.Feed.PauseInitial = 15 * time.Second
	cfg.Feed.PauseMax = 2 * time.Minute
	cfg.Feed.MaxFailures = 3

	cfg.PTZ.Velocity = 0.1
	cfg.PTZ.NudgeVelocity = 0.001
	cfg.PTZ.NudgeDuration = 100 * time.Millisecond
	cfg.PTZ.MoveTimeout = 1 * time.Second
	cfg.PTZ.CommandsPerSecond = 5
	cfg.PTZ.Burst = 10

	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.AccessTokenTTL = 15 * time.Minute
	cfg.Auth.RefreshTokenTTL = 7 * 24 * time.Hour // 7 days
	cfg.Auth.APIUser = "admin"
	cfg.Auth.APIPassword = "admin"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Events.PingInterval = 30 * time.Second
	cfg.Events.PongTimeout = 60 * time.Second
	cfg.Events.WriteTimeout = 10 * time.Second
	cfg.Events.SendBuffer = 16

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.RequestsPerSecond = 50
	cfg.RateLimiting.Burst = 100
	cfg.RateLimiting.MaxConcurrent = 0

	return cfg
}

// ApplyDefaults fills in zero-valued per-camera fields. RTSP on 554 and ONVIF
// on 2020 match the camera firmware this was built against.
func (c *CameraConfig) ApplyDefaults() {
	if c.RTSPPort == 0 {
		c.RTSPPort = 554
	}
	if c.ONVIFPort == 0 {
		c.ONVIFPort = 2020
	}
	if c.Quality == "" {
		c.Quality = "main"
	}
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("CAMWALL_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("CAMWALL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("CAMWALL_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if user := os.Getenv("CAMWALL_CAMERA_USER"); user != "" {
		c.Credentials.Username = user
	}
	if pass := os.Getenv("CAMWALL_CAMERA_PASSWORD"); pass != "" {
		c.Credentials.Password = pass
	}
}
