package config

import (
	"log"
	"os"
	"sync"

	"github.com/BurntSushi/toml"
)

// DefaultConfigPath 默认配置文件路径，可通过环境变量 EPIPREDICT_CONFIG 覆盖
const DefaultConfigPath = "configs/config_local.toml"

type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Mode    string `toml:"mode"` // gin 运行模式: debug/release/test
}

type LogConfig struct {
	LogPath    string `toml:"logPath"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"maxSizeMB"`
	MaxBackups int    `toml:"maxBackups"`
	MaxAgeDays int    `toml:"maxAgeDays"`
}

// ClassModelConfig 单个 HLA 类别的 ONNX 模型
type ClassModelConfig struct {
	ModelPath    string `toml:"modelPath"`
	InputName    string `toml:"inputName"`
	OutputName   string `toml:"outputName"`
	ApplySoftmax bool   `toml:"applySoftmax"`
}

type ModelConfig struct {
	OrtLibraryPath string           `toml:"ortLibraryPath"`
	TokenizerPath  string           `toml:"tokenizerPath"` // 为空时使用内置 ESM-2 词表
	BatchSize      int              `toml:"batchSize"`
	LoadOnStartup  bool             `toml:"loadOnStartup"`
	ClassI         ClassModelConfig `toml:"classI"`
	ClassII        ClassModelConfig `toml:"classII"`
}

// PredictConfig 预测请求限制
type PredictConfig struct {
	MaxSequenceLength int `toml:"maxSequenceLength"` // 输入序列最大残基数
}

type CacheConfig struct {
	Capacity int    `toml:"capacity"`
	Policy   string `toml:"policy"` // fifo | lru
}

type StructureConfig struct {
	Endpoint       string  `toml:"endpoint"`
	TimeoutSeconds int     `toml:"timeoutSeconds"`
	CacheCapacity  int     `toml:"cacheCapacity"`
	RedisTTLHours  int     `toml:"redisTTLHours"`
	RatePerSecond  float64 `toml:"ratePerSecond"`
	Burst          int     `toml:"burst"`
}

type RedisConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"poolSize"`
	MinIdleConns int    `toml:"minIdleConns"`
}

type SecurityConfig struct {
	SSLRedirect  bool     `toml:"sslRedirect"`
	AllowOrigins []string `toml:"allowOrigins"`
}

type StaticConfig struct {
	Dir string `toml:"dir"`
}

type Config struct {
	MainConfig      `toml:"mainConfig"`
	LogConfig       `toml:"logConfig"`
	ModelConfig     `toml:"modelConfig"`
	PredictConfig   `toml:"predictConfig"`
	CacheConfig     `toml:"cacheConfig"`
	StructureConfig `toml:"structureConfig"`
	RedisConfig     `toml:"redisConfig"`
	SecurityConfig  `toml:"securityConfig"`
	StaticConfig    `toml:"staticConfig"`
}

var (
	config *Config
	once   sync.Once
)

// Default 默认配置
func Default() *Config {
	return &Config{
		MainConfig:    MainConfig{AppName: "EpiPredict", Host: "0.0.0.0", Port: 8080, Mode: "release"},
		LogConfig:     LogConfig{Level: "info"},
		ModelConfig:   ModelConfig{BatchSize: 16, LoadOnStartup: true},
		PredictConfig: PredictConfig{MaxSequenceLength: 2000},
		CacheConfig:   CacheConfig{Capacity: 100, Policy: "fifo"},
		StructureConfig: StructureConfig{
			Endpoint:       "https://api.esmatlas.com/foldSequence/v1/pdb/",
			TimeoutSeconds: 60,
			CacheCapacity:  100,
			RedisTTLHours:  24,
			RatePerSecond:  2,
			Burst:          4,
		},
		SecurityConfig: SecurityConfig{AllowOrigins: []string{"*"}},
		StaticConfig:   StaticConfig{Dir: "app/static"},
	}
}

// Load 在默认配置上叠加 TOML 文件；文件不存在时返回默认配置
func Load(path string) (*Config, error) {
	conf := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return conf, nil
	}
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return conf, err
	}
	return conf, nil
}

func LoadConfig() error {
	configPath := os.Getenv("EPIPREDICT_CONFIG")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	conf, err := Load(configPath)
	config = conf
	if err != nil {
		log.Printf("加载配置文件失败: %v, 使用默认设置", err)
		return err
	}
	return nil
}

func GetConfig() *Config {
	once.Do(func() {
		_ = LoadConfig()
	})
	return config
}
