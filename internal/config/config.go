package config

import (
	"log"

	"github.com/BurntSushi/toml"
)

type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type LogConfig struct {
	LogPath string `toml:"logPath"`
}

type MilvusConfig struct {
	Enabled      bool   `toml:"enabled"`
	Address      string `toml:"address"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	DBName       string `toml:"dbName"`
	DefaultIndex string `toml:"defaultIndex"`
	VectorDim    int    `toml:"vectorDim"`
	MetricType   string `toml:"metricType"`
}

type KafkaConfig struct {
	Enabled         bool     `toml:"enabled"`
	Brokers         []string `toml:"brokers"`
	ClientID        string   `toml:"clientID"`
	IngestTopic     string   `toml:"ingestTopic"`
	ConsumerGroupID string   `toml:"consumerGroupID"`
	Partitions      int32    `toml:"partitions"`
	Replication     int16    `toml:"replication"`
}

type AIEmbeddingConfig struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"apiKey"`
	BaseURL        string `toml:"baseURL"`
	Model          string `toml:"model"`
	Dimensions     int    `toml:"dimensions"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
	BatchSize      int    `toml:"batchSize"`
}

type AIConfig struct {
	Embedding AIEmbeddingConfig `toml:"embedding"`
}

// IngestConfig 摄取管道配置：队列长度、工作协程数与切片参数
type IngestConfig struct {
	QueueSize          int    `toml:"queueSize"`
	Workers            int    `toml:"workers"`
	SplitMode          string `toml:"splitMode"`
	ChunkSize          int    `toml:"chunkSize"`
	ChunkOverlap       int    `toml:"chunkOverlap"`
	LoadTimeoutSeconds int    `toml:"loadTimeoutSeconds"`
}

type Config struct {
	MainConfig   `toml:"mainConfig"`
	MysqlConfig  `toml:"mysqlConfig"`
	MilvusConfig `toml:"milvusConfig"`
	KafkaConfig  `toml:"kafkaConfig"`
	AIConfig     `toml:"aiConfig"`
	IngestConfig `toml:"ingestConfig"`
	LogConfig    `toml:"logConfig"`
}

var config *Config

func LoadConfig() error {
	configPath := "configs/config_local.toml"
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		log.Printf("加载配置文件失败: %v, 尝试使用默认设置", err)
		return err
	}
	return nil
}

func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig()
	}
	return config
}
