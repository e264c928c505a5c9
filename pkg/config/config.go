package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Request   RequestConfig   `yaml:"request"`
	Log       LogConfig       `yaml:"log"`
	DB        DBConfig        `yaml:"db"`
	Server    ServerConfig    `yaml:"server"`
	Ticker    TickerConfig    `yaml:"ticker"`
	Feed      FeedConfig      `yaml:"feed"`
	Templates TemplatesConfig `yaml:"templates"`
	AI        AIConfig        `yaml:"ai"`
	TTS       TTSConfig       `yaml:"tts"`
	Audio     AudioConfig     `yaml:"audio"`
	Engine    EngineConfig    `yaml:"engine"`
	Cancelled CancelledConfig `yaml:"cancelled"`
	Safety    SafetyConfig    `yaml:"safety"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries int           `yaml:"retries"`
	Timeout Duration      `yaml:"timeout"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// TickerConfig holds scheduler heartbeat settings.
type TickerConfig struct {
	SchedulerLoop Duration `yaml:"scheduler_loop"`
}

// FeedConfig holds flight feed settings.
type FeedConfig struct {
	URL          string   `yaml:"url"`
	PollInterval Duration `yaml:"poll_interval"`
}

// TemplatesConfig holds template store settings.
type TemplatesConfig struct {
	URL      string   `yaml:"url"`
	Language string   `yaml:"language"`
	CacheTTL Duration `yaml:"cache_ttl"`
}

// AIConfig holds settings for the AI text providers.
type AIConfig struct {
	Providers         []string     `yaml:"providers"` // ordered failover chain: "http", "gemini"
	HTTP              HTTPAIConfig `yaml:"http"`
	Gemini            GeminiConfig `yaml:"gemini"`
	Cooldown          Duration     `yaml:"cooldown"`           // per (flight, kind)
	CacheTTL          Duration     `yaml:"cache_ttl"`          // response cache window
	SentimentSuppress float64      `yaml:"sentiment_suppress"` // suppress AI below this score
	PeakHours         []int        `yaml:"peak_hours"`         // hours-of-day counted as peak
}

// HTTPAIConfig holds settings for the plain HTTP AI provider.
type HTTPAIConfig struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

// GeminiConfig holds settings for the Gemini provider.
type GeminiConfig struct {
	Model string `yaml:"model"`
	Key   string `yaml:"key"`
}

// EdgeTTSConfig holds settings for Edge TTS.
type EdgeTTSConfig struct {
	VoiceID string `yaml:"voice"` // e.g. "en-US-AvaMultilingualNeural"
}

// TTSConfig holds Text-To-Speech settings.
type TTSConfig struct {
	Engine  string        `yaml:"engine"`
	EdgeTTS EdgeTTSConfig `yaml:"edge_tts"`
	WorkDir string        `yaml:"work_dir"` // where synthesized files land before playback
}

// AudioConfig holds playback pipeline settings.
type AudioConfig struct {
	AssetBaseURL   string   `yaml:"asset_base_url"` // pre-recorded announcement assets
	GongPath       string   `yaml:"gong_path"`
	MusicPath      string   `yaml:"music_path"` // background music loop, empty disables
	GongTimeout    Duration `yaml:"gong_timeout"`
	ContentTimeout Duration `yaml:"content_timeout"`
	InterItemDelay Duration `yaml:"inter_item_delay"`
	FadeStep       Duration `yaml:"fade_step"` // duck fade tick
}

// KindPolicy holds repeat settings for a transition-driven announcement kind.
type KindPolicy struct {
	Interval   Duration `yaml:"interval"`
	MaxRepeats int      `yaml:"max_repeats"`
}

// EngineConfig holds eligibility engine rule tables.
type EngineConfig struct {
	CheckInOffsets  []int `yaml:"checkin_offsets"`
	BoardingOffsets []int `yaml:"boarding_offsets"`
	CloseOffsets    []int `yaml:"close_offsets"`
	DivertedOffsets []int `yaml:"diverted_offsets"`

	Earlier KindPolicy `yaml:"earlier"`
	Delay   KindPolicy `yaml:"delay"`
	OnTime  KindPolicy `yaml:"on_time"`

	ArrivedWindow   Duration `yaml:"arrived_window"`
	ArrivedInterval Duration `yaml:"arrived_interval"`
	ArrivedMax      int      `yaml:"arrived_max"`

	AutoOnTimeInterval Duration `yaml:"auto_on_time_interval"`
	AutoOnTimeStale    Duration `yaml:"auto_on_time_stale"`

	CleanupInterval Duration `yaml:"cleanup_interval"`
	TrackingMaxAge  Duration `yaml:"tracking_max_age"`
}

// CancelledConfig holds cancelled-flight registry settings.
type CancelledConfig struct {
	SweepInterval Duration `yaml:"sweep_interval"`
	EndOfDay      string   `yaml:"end_of_day"` // HH:MM local
	MaxInactivity Duration `yaml:"max_inactivity"`
}

// SafetyConfig holds the periodic safety announcement settings.
type SafetyConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
	Text     string   `yaml:"text"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(15 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(1 * time.Second),
				MaxDelay:  Duration(60 * time.Second),
			},
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/razglas.db",
		},
		Server: ServerConfig{
			Address: "localhost:1921",
		},
		Ticker: TickerConfig{
			SchedulerLoop: Duration(1 * time.Second),
		},
		Feed: FeedConfig{
			URL:          "http://localhost:3000/api/flights",
			PollInterval: Duration(60 * time.Second),
		},
		Templates: TemplatesConfig{
			URL:      "http://localhost:3000/api/templates",
			Language: "en",
			CacheTTL: Duration(10 * time.Minute),
		},
		AI: AIConfig{
			Providers: []string{"http", "gemini"},
			HTTP: HTTPAIConfig{
				URL:     "http://localhost:3000/api/generate-announcement",
				Timeout: Duration(10 * time.Second),
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.5-flash-lite",
			},
			Cooldown:          Duration(15 * time.Minute),
			CacheTTL:          Duration(30 * time.Minute),
			SentimentSuppress: -0.7,
			PeakHours:         []int{6, 7, 8, 16, 17, 18},
		},
		TTS: TTSConfig{
			Engine: "edge-tts",
			EdgeTTS: EdgeTTSConfig{
				VoiceID: "en-US-AvaMultilingualNeural",
			},
			WorkDir: "./data/tts",
		},
		Audio: AudioConfig{
			AssetBaseURL:   "http://localhost:3000/audio",
			GongPath:       "./assets/gong.mp3",
			MusicPath:      "",
			GongTimeout:    Duration(5 * time.Second),
			ContentTimeout: Duration(30 * time.Second),
			InterItemDelay: Duration(500 * time.Millisecond),
			FadeStep:       Duration(50 * time.Millisecond),
		},
		Engine: EngineConfig{
			CheckInOffsets:  []int{90, 75, 70, 60, 50, 40},
			BoardingOffsets: []int{30, 25, 20, 15},
			CloseOffsets:    []int{10, 7, 5},
			DivertedOffsets: []int{90, 80, 70, 60, 50, 40, 30, 20, 10},
			Earlier: KindPolicy{
				Interval:   Duration(10 * time.Minute),
				MaxRepeats: 6,
			},
			Delay: KindPolicy{
				Interval:   Duration(30 * time.Minute),
				MaxRepeats: 6,
			},
			OnTime: KindPolicy{
				Interval:   Duration(60 * time.Minute),
				MaxRepeats: 2,
			},
			ArrivedWindow:      Duration(15 * time.Minute),
			ArrivedInterval:    Duration(5 * time.Minute),
			ArrivedMax:         3,
			AutoOnTimeInterval: Duration(30 * time.Minute),
			AutoOnTimeStale:    Duration(6 * time.Hour),
			CleanupInterval:    Duration(1 * time.Hour),
			TrackingMaxAge:     Duration(12 * time.Hour),
		},
		Cancelled: CancelledConfig{
			SweepInterval: Duration(30 * time.Minute),
			EndOfDay:      "21:00",
			MaxInactivity: Duration(12 * time.Hour),
		},
		Safety: SafetyConfig{
			Enabled:  true,
			Interval: Duration(45 * time.Minute),
			Text:     "Attention please. For your safety, do not leave luggage unattended at any time. Unattended items may be removed and destroyed.",
		},
	}
}

// Validate checks the rule tables the engine depends on. A misconfigured table
// is a programming/deployment error and must fail at startup, not per flight.
func (c *Config) Validate() error {
	offsetTables := map[string][]int{
		"checkin_offsets":  c.Engine.CheckInOffsets,
		"boarding_offsets": c.Engine.BoardingOffsets,
		"close_offsets":    c.Engine.CloseOffsets,
		"diverted_offsets": c.Engine.DivertedOffsets,
	}
	for name, offsets := range offsetTables {
		if len(offsets) == 0 {
			return fmt.Errorf("engine.%s: offset set must not be empty", name)
		}
	}

	policies := map[string]KindPolicy{
		"earlier": c.Engine.Earlier,
		"delay":   c.Engine.Delay,
		"on_time": c.Engine.OnTime,
	}
	for name, p := range policies {
		if p.Interval <= 0 || p.MaxRepeats <= 0 {
			return fmt.Errorf("engine.%s: interval and max_repeats must be positive", name)
		}
	}

	if c.Engine.ArrivedWindow <= 0 || c.Engine.ArrivedInterval <= 0 || c.Engine.ArrivedMax <= 0 {
		return fmt.Errorf("engine: arrived window/interval/max must be positive")
	}

	if _, err := time.Parse("15:04", c.Cancelled.EndOfDay); err != nil {
		return fmt.Errorf("cancelled.end_of_day: %w", err)
	}

	if c.Feed.PollInterval <= 0 {
		return fmt.Errorf("feed.poll_interval must be positive")
	}

	return nil
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, defaults are merged with existing values but NOT saved
// back to disk, to preserve user formatting and comments.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	// Env fallback for secrets, never saved back to disk.
	if cfg.AI.Gemini.Key == "" {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			cfg.AI.Gemini.Key = key
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Razglas Configuration
# ---------------------
# Duration units: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
