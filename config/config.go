package config

import (
	"database/sql"
	"errors"
	"fmt"
	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
	"path/filepath"
	"scene-worker/constant"
	"scene-worker/pkg/ffmpeg"
	"scene-worker/pkg/scheduler"
	"strings"
	"time"
)

type Config struct {
	MinIOBucket string        `yaml:"minio_bucket"`
	App         App           `yaml:"app"`
	Paths       Paths         `yaml:"paths"`
	Folders     []string      `yaml:"folders"`
	Schedule    Schedule      `yaml:"schedule"`
	Detect      Detect        `yaml:"detect"`
	Split       Split         `yaml:"split"`
	Archive     Archive       `yaml:"archive"`
	Log         Log           `yaml:"log"`
	Subtitle    Subtitle      `yaml:"subtitle"`
	DB          *sql.DB       `yaml:"db"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
	Storage     *minio.Client `yaml:"storage"`
	Server      Server        `yaml:"server"`
}

type App struct {
	Environment string `yaml:"environment"`
}

type Paths struct {
	ContainerRoot  string `yaml:"container_root"`
	QuarantineRoot string `yaml:"quarantine_root"`
	LogDir         string `yaml:"log_dir"`
}

type Schedule struct {
	Interval      time.Duration    `yaml:"interval"`
	EnqueuePolicy scheduler.Policy `yaml:"enqueue_policy"`
	Subtitles     bool             `yaml:"subtitles"`
}

type Profile struct {
	Threshold float64 `yaml:"threshold"`
	Method    string  `yaml:"method"`
}

type Detect struct {
	Binary          string        `yaml:"binary"`
	VideoExt        string        `yaml:"video_ext"`
	MinSceneSeconds float64       `yaml:"min_scene_seconds"`
	MaxSceneSeconds float64       `yaml:"max_scene_seconds"`
	Default         Profile       `yaml:"default"`
	Coarse          Profile       `yaml:"coarse"`
	Timeout         time.Duration `yaml:"timeout"`
}

type Split struct {
	FFmpegPath   string        `yaml:"ffmpeg_path"`
	NameTemplate string        `yaml:"name_template"`
	EncoderArgs  []string      `yaml:"encoder_args"`
	MaxOrdinal   int           `yaml:"max_ordinal"`
	Timeout      time.Duration `yaml:"timeout"`
}

type Archive struct {
	Policy        constant.ArchivePolicy `yaml:"policy"`
	MinSplitBytes int64                  `yaml:"min_split_bytes"`
}

type Log struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Console    bool   `yaml:"console"`
	Level      string `yaml:"level"`
}

type Subtitle struct {
	WhisperPath string        `yaml:"whisper_path"`
	Model       string        `yaml:"model"`
	Language    string        `yaml:"language"`
	Task        string        `yaml:"task"`
	Device      string        `yaml:"device"`
	Timeout     time.Duration `yaml:"timeout"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", constant.EnvironmentProduction.String())
	v.SetDefault("paths.container_root", "/videos")
	v.SetDefault("folders.env_prefix", "FOLDER")

	v.SetDefault("schedule.interval", 30*time.Minute)
	v.SetDefault("schedule.enqueue_policy", string(scheduler.PolicyBlock))
	v.SetDefault("schedule.subtitles", false)

	v.SetDefault("detect.binary", "scene-detect")
	v.SetDefault("detect.video_ext", ".mp4")
	v.SetDefault("detect.min_scene_seconds", 120)
	v.SetDefault("detect.max_scene_seconds", 3600)
	v.SetDefault("detect.default.threshold", 12)
	v.SetDefault("detect.default.method", "floor")
	v.SetDefault("detect.coarse.threshold", 225)
	v.SetDefault("detect.coarse.method", "ceiling")
	v.SetDefault("detect.timeout", time.Duration(0))

	v.SetDefault("split.ffmpeg_path", "ffmpeg")
	v.SetDefault("split.name_template", ffmpeg.DefaultNameTemplate)
	v.SetDefault("split.encoder_args", ffmpeg.DefaultEncoderArgs)
	v.SetDefault("split.max_ordinal", 10)
	v.SetDefault("split.timeout", time.Duration(0))

	v.SetDefault("archive.policy", string(constant.ArchivePolicyQuarantine))
	v.SetDefault("archive.min_split_bytes", 1<<20)

	v.SetDefault("log.max_size_mb", 1)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.console", true)

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.workers", 2)

	v.SetDefault("rabbitmq_port", 5672)
	v.SetDefault("rabbitmq_kind", "direct")

	v.SetDefault("subtitle.whisper_path", "whisper")
	v.SetDefault("subtitle.model", "large")
	v.SetDefault("subtitle.language", "ja")
	v.SetDefault("subtitle.task", "translate")
	v.SetDefault("subtitle.device", "cuda")
	v.SetDefault("subtitle.timeout", time.Duration(0))
}

// Load reads config.yaml from path, if present, with every key overridable
// from the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	root := v.GetString("paths.container_root")
	paths := Paths{
		ContainerRoot:  root,
		QuarantineRoot: v.GetString("paths.quarantine_root"),
		LogDir:         v.GetString("paths.log_dir"),
	}
	if paths.QuarantineRoot == "" {
		paths.QuarantineRoot = filepath.Join(root, ".Recycle.Bin")
	}
	if paths.LogDir == "" {
		paths.LogDir = filepath.Join(root, "logs")
	}

	environment := v.GetString("app.environment")
	logCfg := Log{
		File:       v.GetString("log.file"),
		MaxSizeMB:  v.GetInt("log.max_size_mb"),
		MaxBackups: v.GetInt("log.max_backups"),
		Console:    v.GetBool("log.console"),
		Level:      v.GetString("log.level"),
	}
	if logCfg.File == "" {
		logCfg.File = filepath.Join(paths.LogDir, "app.log")
	}
	if logCfg.Level == "" {
		logCfg.Level = "info"
		if environment == constant.EnvironmentDevelop.String() {
			logCfg.Level = "debug"
		}
	}

	cfg := &Config{
		MinIOBucket: v.GetString("minio.bucket"),
		App:         App{Environment: environment},
		Paths:       paths,
		Folders:     LoadFolders(v.GetString, v.GetString("folders.env_prefix"), v.GetStringSlice("folders.list")),
		Schedule: Schedule{
			Interval:      v.GetDuration("schedule.interval"),
			EnqueuePolicy: scheduler.Policy(v.GetString("schedule.enqueue_policy")),
			Subtitles:     v.GetBool("schedule.subtitles"),
		},
		Detect: Detect{
			Binary:          v.GetString("detect.binary"),
			VideoExt:        v.GetString("detect.video_ext"),
			MinSceneSeconds: v.GetFloat64("detect.min_scene_seconds"),
			MaxSceneSeconds: v.GetFloat64("detect.max_scene_seconds"),
			Default: Profile{
				Threshold: v.GetFloat64("detect.default.threshold"),
				Method:    v.GetString("detect.default.method"),
			},
			Coarse: Profile{
				Threshold: v.GetFloat64("detect.coarse.threshold"),
				Method:    v.GetString("detect.coarse.method"),
			},
			Timeout: v.GetDuration("detect.timeout"),
		},
		Split: Split{
			FFmpegPath:   v.GetString("split.ffmpeg_path"),
			NameTemplate: v.GetString("split.name_template"),
			EncoderArgs:  v.GetStringSlice("split.encoder_args"),
			MaxOrdinal:   v.GetInt("split.max_ordinal"),
			Timeout:      v.GetDuration("split.timeout"),
		},
		Archive: Archive{
			Policy:        constant.ArchivePolicy(v.GetString("archive.policy")),
			MinSplitBytes: v.GetInt64("archive.min_split_bytes"),
		},
		Log: logCfg,
		Subtitle: Subtitle{
			WhisperPath: v.GetString("subtitle.whisper_path"),
			Model:       v.GetString("subtitle.model"),
			Language:    v.GetString("subtitle.language"),
			Task:        v.GetString("subtitle.task"),
			Device:      v.GetString("subtitle.device"),
			Timeout:     v.GetDuration("subtitle.timeout"),
		},
		Server: Server{
			HttpPort: v.GetString("server.port"),
			Workers:  v.GetInt("server.workers"),
		},
	}

	if host := v.GetString("rabbitmq_host"); host != "" {
		cfg.Queue = &RabbitMQ{
			Host: host,
			Port: v.GetInt("rabbitmq_port"),
			User: v.GetString("rabbitmq_user"),
			Pass: v.GetString("rabbitmq_pass"),
			Kind: v.GetString("rabbitmq_kind"),
		}
	}

	if dsn := v.GetString("postgresql_host"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		cfg.DB = db
	}

	if url := v.GetString("minio.url"); url != "" {
		minioClient, err := minio.New(url, &minio.Options{
			Creds:  credentials.NewStaticV4(v.GetString("minio.access_id"), v.GetString("minio.secret_access_key"), ""),
			Secure: v.GetBool("minio.secure"),
		})
		if err != nil {
			return nil, err
		}
		cfg.Storage = minioClient
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Schedule.Interval <= 0 {
		errs = append(errs, fmt.Errorf("schedule.interval must be positive, got %s", c.Schedule.Interval))
	}
	switch c.Schedule.EnqueuePolicy {
	case scheduler.PolicyBlock, scheduler.PolicySkip:
	default:
		errs = append(errs, fmt.Errorf("schedule.enqueue_policy %q is not one of block, skip", c.Schedule.EnqueuePolicy))
	}
	if !c.Archive.Policy.Valid() {
		errs = append(errs, fmt.Errorf("archive.policy %q is not one of quarantine, delete, bucket", c.Archive.Policy))
	}
	if c.Archive.Policy == constant.ArchivePolicyBucket && (c.Storage == nil || c.MinIOBucket == "") {
		errs = append(errs, errors.New("archive.policy bucket requires minio.url and minio.bucket"))
	}
	if c.Split.MaxOrdinal < 1 || c.Split.MaxOrdinal > 999 {
		errs = append(errs, fmt.Errorf("split.max_ordinal must be within 1..999, got %d", c.Split.MaxOrdinal))
	}
	if !strings.HasPrefix(c.Detect.VideoExt, ".") {
		errs = append(errs, fmt.Errorf("detect.video_ext %q must start with a dot", c.Detect.VideoExt))
	}
	return errors.Join(errs...)
}

// LoadFolders reads <prefix>_1, <prefix>_2, ... through lookup and stops at the
// first unset index. fallback is used when no indexed entry is set.
func LoadFolders(lookup func(string) string, prefix string, fallback []string) []string {
	if prefix == "" {
		prefix = "FOLDER"
	}
	var folders []string
	for i := 1; ; i++ {
		folder := strings.TrimSpace(lookup(fmt.Sprintf("%s_%d", prefix, i)))
		if folder == "" {
			break
		}
		folders = append(folders, folder)
	}
	if len(folders) == 0 {
		return fallback
	}
	return folders
}

// FolderPath joins a configured folder identifier onto the container root.
func (c *Config) FolderPath(folder string) string {
	return filepath.Join(c.Paths.ContainerRoot, folder)
}
