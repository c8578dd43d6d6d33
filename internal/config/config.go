package config

import (
	"log"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const envConfigPath = "NEIGHBORGUARD_CONFIG"

type MainConfig struct {
	AppName  string `toml:"appName"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	ForceTLS bool   `toml:"forceTLS"`
	Timezone string `toml:"timezone"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type LogConfig struct {
	LogPath    string `toml:"logPath"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"maxSizeMB"`
	MaxBackups int    `toml:"maxBackups"`
	MaxAgeDays int    `toml:"maxAgeDays"`
}

type JwtConfig struct {
	Key         string `toml:"key"`
	ExpireHours int    `toml:"expireHours"`
	Issuer      string `toml:"issuer"`
}

type RedisConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Password        string `toml:"password"`
	DB              int    `toml:"db"`
	PoolSize        int    `toml:"poolSize"`
	MinIdleConns    int    `toml:"minIdleConns"`
	UnreadTTLSecond int    `toml:"unreadTTLSeconds"`
}

type KafkaConfig struct {
	Brokers         []string `toml:"brokers"`
	ClientID        string   `toml:"clientID"`
	DispatchTopic   string   `toml:"dispatchTopic"`
	ConsumerGroupID string   `toml:"consumerGroupID"`
	Partitions      int32    `toml:"partitions"`
	Replication     int16    `toml:"replication"`
}

// OneSignalConfig 推送服务凭据，进程启动时解析一次后注入客户端
type OneSignalConfig struct {
	AppID              string `toml:"appID"`
	APIKey             string `toml:"apiKey"`
	Endpoint           string `toml:"endpoint"`
	IncidentTemplateID string `toml:"incidentTemplateID"`
	BatchSize          int    `toml:"batchSize"`
	TimeoutSeconds     int    `toml:"timeoutSeconds"`
	// RequestsPerSecond 对推送服务的请求限速，0 表示不限速
	RequestsPerSecond float64 `toml:"requestsPerSecond"`
	Burst             int     `toml:"burst"`
}

// NotifyConfig 通知引擎参数
type NotifyConfig struct {
	DefaultRadiusKm      float64 `toml:"defaultRadiusKm"`
	RecipientInsertBatch int     `toml:"recipientInsertBatch"`
	// DispatchMode: "local" 进程内队列，"kafka" 经 Kafka 投递
	DispatchMode    string `toml:"dispatchMode"`
	QueueSize       int    `toml:"queueSize"`
	DispatchWorkers int    `toml:"dispatchWorkers"`
}

type Config struct {
	MainConfig      `toml:"mainConfig"`
	MysqlConfig     `toml:"mysqlConfig"`
	LogConfig       `toml:"logConfig"`
	JwtConfig       `toml:"jwtConfig"`
	RedisConfig     `toml:"redisConfig"`
	KafkaConfig     `toml:"kafkaConfig"`
	OneSignalConfig `toml:"oneSignalConfig"`
	NotifyConfig    `toml:"notifyConfig"`
}

var config *Config

func LoadConfig() error {
	configPath := "configs/config_local.toml"
	if p := strings.TrimSpace(os.Getenv(envConfigPath)); p != "" {
		configPath = p
	}
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		log.Printf("load config %s failed: %v, falling back to defaults", configPath, err)
		config.applyDefaults()
		return err
	}
	config.applyDefaults()
	return nil
}

// Decode 从 TOML 文本解析配置，不影响全局单例
func Decode(data string) (*Config, error) {
	c := new(Config)
	if _, err := toml.Decode(data, c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return c, nil
}

func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig()
	}
	return config
}

func (c *Config) applyDefaults() {
	if c.AppName == "" {
		c.AppName = "neighborguard"
	}
	if c.MainConfig.Port == 0 {
		c.MainConfig.Port = 8000
	}
	if c.Timezone == "" {
		c.Timezone = "America/Sao_Paulo"
	}
	if c.OneSignalConfig.Endpoint == "" {
		c.OneSignalConfig.Endpoint = "https://onesignal.com/api/v1/notifications"
	}
	if c.OneSignalConfig.BatchSize <= 0 {
		c.OneSignalConfig.BatchSize = 1000
	}
	if c.OneSignalConfig.TimeoutSeconds <= 0 {
		c.OneSignalConfig.TimeoutSeconds = 5
	}
	if c.NotifyConfig.DefaultRadiusKm <= 0 {
		c.NotifyConfig.DefaultRadiusKm = 5
	}
	if c.NotifyConfig.RecipientInsertBatch <= 0 {
		c.NotifyConfig.RecipientInsertBatch = 500
	}
	if c.NotifyConfig.DispatchMode == "" {
		c.NotifyConfig.DispatchMode = "local"
	}
	if c.NotifyConfig.QueueSize <= 0 {
		c.NotifyConfig.QueueSize = 1024
	}
	if c.NotifyConfig.DispatchWorkers <= 0 {
		c.NotifyConfig.DispatchWorkers = 4
	}
	if c.KafkaConfig.DispatchTopic == "" {
		c.KafkaConfig.DispatchTopic = "neighborguard.notification.dispatch"
	}
	if c.KafkaConfig.ConsumerGroupID == "" {
		c.KafkaConfig.ConsumerGroupID = "neighborguard-dispatch"
	}
	if c.RedisConfig.UnreadTTLSecond <= 0 {
		c.RedisConfig.UnreadTTLSecond = 300
	}
}
