package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	NATS      NATSConfig      `yaml:"nats"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Vision    VisionConfig    `yaml:"vision"`
	Matching  MatchingConfig  `yaml:"matching"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	APIKey      string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
	// URL overrides the individual fields when set.
	URL string `yaml:"url"`
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL            string `yaml:"url"`
	ControlSubject string `yaml:"control_subject"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type VisionConfig struct {
	ModelsDir         string  `yaml:"models_dir"`
	PedestrianModel   string  `yaml:"pedestrian_model"`
	FaceTolerance     float64 `yaml:"face_tolerance"`
	MinFaceConfidence float64 `yaml:"min_face_confidence"`
	BodyThreshold     float64 `yaml:"body_threshold"`
	ClothingClusters  int     `yaml:"clothing_clusters"`
	DisableCNN        bool    `yaml:"disable_cnn"`
	CropMargin        int     `yaml:"crop_margin"`
	CropQuality       int     `yaml:"crop_quality"`
	MaxScanSeconds    float64 `yaml:"max_scan_seconds"`
	TempDir           string  `yaml:"temp_dir"`
}

type MatchingConfig struct {
	MinScore float64 `yaml:"min_score"`
}

type SchedulerConfig struct {
	Enabled      *bool         `yaml:"enabled"`
	BatchSize    int           `yaml:"batch_size"`
	Interval     time.Duration `yaml:"interval"`
	ErrorBackoff time.Duration `yaml:"error_backoff"`
}

// IsEnabled defaults to true when the key is absent.
func (s SchedulerConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from a YAML file, then a .env file next to the working
// directory if one exists, and finally applies FW_* environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 8082
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.NATS.ControlSubject == "" {
		cfg.NATS.ControlSubject = "matching.control"
	}
	if cfg.Vision.PedestrianModel == "" {
		cfg.Vision.PedestrianModel = "yolov8n.onnx"
	}
	if cfg.Vision.FaceTolerance == 0 {
		cfg.Vision.FaceTolerance = 0.6
	}
	if cfg.Vision.MinFaceConfidence == 0 {
		cfg.Vision.MinFaceConfidence = 0.35
	}
	if cfg.Vision.BodyThreshold == 0 {
		cfg.Vision.BodyThreshold = 0.5
	}
	if cfg.Vision.ClothingClusters == 0 {
		cfg.Vision.ClothingClusters = 3
	}
	if cfg.Vision.CropMargin == 0 {
		cfg.Vision.CropMargin = 20
	}
	if cfg.Vision.CropQuality == 0 {
		cfg.Vision.CropQuality = 90
	}
	if cfg.Vision.MaxScanSeconds == 0 {
		cfg.Vision.MaxScanSeconds = 1800
	}
	if cfg.Matching.MinScore == 0 {
		cfg.Matching.MinScore = 0.3
	}
	if cfg.Scheduler.BatchSize == 0 {
		cfg.Scheduler.BatchSize = 5
	}
	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = 30 * time.Second
	}
	if cfg.Scheduler.ErrorBackoff == 0 {
		cfg.Scheduler.ErrorBackoff = 60 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FW_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FW_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = port
		}
	}
	if v := os.Getenv("FW_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("FW_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("FW_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FW_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FW_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FW_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FW_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FW_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("FW_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("FW_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("FW_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("FW_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("FW_MODELS_DIR"); v != "" {
		cfg.Vision.ModelsDir = v
	}
	if v := os.Getenv("FW_SCHEDULER_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scheduler.BatchSize = n
		}
	}
	if v := os.Getenv("FW_SCHEDULER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Scheduler.Enabled = &b
		}
	}
	if v := os.Getenv("FW_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
