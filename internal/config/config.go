// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Tika          TikaConfig          `mapstructure:"tika"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Summarizer    SummarizerConfig    `mapstructure:"summarizer"`
	Vectorizer    VectorizerConfig    `mapstructure:"vectorizer"`
	Classifiers   ClassifiersConfig   `mapstructure:"classifiers"`
	Experiment    ExperimentConfig    `mapstructure:"experiment"`
	Datasets      []DatasetConfig     `mapstructure:"datasets"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储摘要重建任务队列的 Kafka 配置。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// TikaConfig 存储 Tika 服务器相关的配置。
type TikaConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// ElasticsearchConfig 存储表示向量缓存所用的 Elasticsearch 配置。
type ElasticsearchConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储报告产物上传所用的 MinIO 配置。
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// EmbeddingConfig 存储预训练向量模型 API 的配置。
type EmbeddingConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	Dimensions     int    `mapstructure:"dimensions"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LLMConfig 存储生成式摘要服务的配置。
type LLMConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	// MaxRetries 是首次调用之外的额外尝试次数上限，保持有界。
	MaxRetries int `mapstructure:"max_retries"`
}

// SummarizerConfig 存储两类摘要的生成参数。
type SummarizerConfig struct {
	// ExtractiveSentences 是抽取式摘要选取的句子数。
	ExtractiveSentences int `mapstructure:"extractive_sentences"`
	// AbstractiveWords 是生成式摘要的目标词数。
	AbstractiveWords int `mapstructure:"abstractive_words"`
}

// VectorizerConfig 存储各向量化器的参数。
type VectorizerConfig struct {
	TFIDF TFIDFConfig `mapstructure:"tfidf"`
}

// TFIDFConfig 存储 TF-IDF 向量化器的参数。
type TFIDFConfig struct {
	MaxFeatures int `mapstructure:"max_features"`
	MinDocFreq  int `mapstructure:"min_doc_freq"`
}

// ClassifiersConfig 聚合各分类器家族的结构化配置。
type ClassifiersConfig struct {
	LinearSVM LinearSVMConfig `mapstructure:"linearsvm"`
	MLP       MLPConfig       `mapstructure:"mlp"`
	Forest    ForestConfig    `mapstructure:"forest"`
}

// LinearSVMConfig 存储线性 SVM 的超参数。
type LinearSVMConfig struct {
	C      float64 `mapstructure:"c"`
	Epochs int     `mapstructure:"epochs"`
}

// MLPConfig 存储多层感知机的超参数。
type MLPConfig struct {
	HiddenSize   int     `mapstructure:"hidden_size"`
	LearningRate float64 `mapstructure:"learning_rate"`
	Epochs       int     `mapstructure:"epochs"`
}

// ForestConfig 存储随机森林的超参数。
type ForestConfig struct {
	Trees    int `mapstructure:"trees"`
	MaxDepth int `mapstructure:"max_depth"`
}

// ExperimentConfig 存储实验运行器的配置。
type ExperimentConfig struct {
	// Representations 与 Classifiers 枚举要比较的种类，空表示全部。
	Representations []string `mapstructure:"representations"`
	Classifiers     []string `mapstructure:"classifiers"`
	// TextSources 枚举参与对比的文本来源：fulltext / extractive / abstractive。
	TextSources  []string `mapstructure:"text_sources"`
	TestFraction float64  `mapstructure:"test_fraction"`
	Seed         int64    `mapstructure:"seed"`
	ReportDir    string   `mapstructure:"report_dir"`
}

// DatasetConfig 描述一个受支持的语料来源。
type DatasetConfig struct {
	Name string `mapstructure:"name"`
	// Kind 为 csv 或 dir。csv 语料按列名读取；dir 语料逐文件经 Tika 提取文本，
	// 标签取自文件的父目录名。
	Kind        string   `mapstructure:"kind"`
	Path        string   `mapstructure:"path"`
	TextColumn  string   `mapstructure:"text_column"`
	LabelColumn string   `mapstructure:"label_column"`
	Labels      []string `mapstructure:"labels"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}

// Dataset 按名称查找数据集配置，未配置时返回 nil。
func (c *Config) Dataset(name string) *DatasetConfig {
	for i := range c.Datasets {
		if c.Datasets[i].Name == name {
			return &c.Datasets[i]
		}
	}
	return nil
}
