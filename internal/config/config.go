package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type SourceType string

const (
	SourceLocal  SourceType = "Local"
	SourceWebcam SourceType = "Web-Camera"

	DefaultConfigPath   string = "config.json"
	DefaultDetectorHost string = "localhost:8080"
	DefaultTopic        string = "image"
	DefaultRedisPrefix  string = "emili"
)

type LocalConfig struct {
	Path string `json:"path"`
}

type WebcamConfig struct {
	DeviceID string `json:"device_id"`
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Config struct {
	mu sync.RWMutex

	ActiveSource SourceType   `json:"active_source"`
	Local        LocalConfig  `json:"local"`
	Webcam       WebcamConfig `json:"webcam"`

	CameraFPS  uint `json:"camera_fps"`
	CameraSize Size `json:"camera_size"`
	ImageSize  Size `json:"image_size"`
	WindowSize Size `json:"window_size"`

	UserChatName      string `json:"user_chat_name"`
	AssistantChatName string `json:"assistant_chat_name"`

	Topic             string `json:"topic"`
	DetectorHost      string `json:"detector_host"`
	DetectorTimeoutMS int    `json:"detector_timeout_ms"`

	DBPath      string `json:"db_path"`
	RedisAddr   string `json:"redis_addr"`
	RedisPrefix string `json:"redis_prefix"`
	MetricsAddr string `json:"metrics_addr"`
}

func (c *Config) GetFPS() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.CameraFPS
}

func (c *Config) GetImageSize() Size {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ImageSize
}

func (c *Config) GetDetectorTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.DetectorTimeoutMS) * time.Millisecond
}

func (c *Config) GetCameraSize() Size {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.CameraSize
}

func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return nil
}

// LoadConfigFile reads path over the defaults. A missing file is not an error.
func LoadConfigFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	return cfg, nil
}

// Load reads the config file, then applies .env and EMILI_* overrides and validates.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) ApplyEnv() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ActiveSource = SourceType(getEnv("EMILI_SOURCE", string(c.ActiveSource)))
	c.Local.Path = getEnv("EMILI_VIDEO_PATH", c.Local.Path)
	c.Webcam.DeviceID = getEnv("EMILI_CAMERA_DEVICE", c.Webcam.DeviceID)
	c.CameraFPS = uint(getEnvInt("EMILI_CAMERA_FPS", int(c.CameraFPS)))
	c.UserChatName = getEnv("EMILI_USER_NAME", c.UserChatName)
	c.AssistantChatName = getEnv("EMILI_ASSISTANT_NAME", c.AssistantChatName)
	c.DetectorHost = getEnv("EMILI_DETECTOR_HOST", c.DetectorHost)
	c.DetectorTimeoutMS = getEnvInt("EMILI_DETECTOR_TIMEOUT_MS", c.DetectorTimeoutMS)
	c.DBPath = getEnv("EMILI_DB_PATH", c.DBPath)
	c.RedisAddr = getEnv("EMILI_REDIS_ADDR", c.RedisAddr)
	c.MetricsAddr = getEnv("EMILI_METRICS_ADDR", c.MetricsAddr)
}

func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.ActiveSource {
	case SourceLocal, SourceWebcam:
	default:
		return fmt.Errorf("unknown source %q", c.ActiveSource)
	}
	if c.CameraFPS == 0 {
		return errors.New("camera_fps must be > 0")
	}
	if c.CameraSize.Width <= 0 || c.CameraSize.Height <= 0 {
		return errors.New("camera_size must be positive")
	}
	if c.ImageSize.Width <= 0 || c.ImageSize.Height <= 0 {
		return errors.New("image_size must be positive")
	}
	if c.WindowSize.Width <= 0 || c.WindowSize.Height <= 0 {
		return errors.New("window_size must be positive")
	}
	if c.Topic == "" {
		return errors.New("topic cannot be empty")
	}
	if c.DetectorHost == "" {
		return errors.New("detector_host cannot be empty")
	}
	if c.DetectorTimeoutMS <= 0 {
		return errors.New("detector_timeout_ms must be > 0")
	}

	return nil
}

func NewDefaultConfig() *Config {
	return &Config{
		ActiveSource:      SourceWebcam,
		Local:             LocalConfig{Path: "..."},
		Webcam:            WebcamConfig{DeviceID: "/dev/video0"},
		CameraFPS:         24,
		CameraSize:        Size{Width: 640, Height: 480},
		ImageSize:         Size{Width: 640, Height: 480},
		WindowSize:        Size{Width: 1200, Height: 800},
		UserChatName:      "You",
		AssistantChatName: "EMILI",
		Topic:             DefaultTopic,
		DetectorHost:      DefaultDetectorHost,
		DetectorTimeoutMS: 2000,
		DBPath:            "emili.db",
		RedisPrefix:       DefaultRedisPrefix,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
