package config

import (
	"log"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	GameResult       string `mapstructure:"game_result"`
	DepositResult    string `mapstructure:"deposit_result"`
	WithdrawalResult string `mapstructure:"withdrawal_result"`
	AdminAlert       string `mapstructure:"admin_alert"`
}

type BusinessConfig struct {
	MinimumWithdrawal    float64 `mapstructure:"minimum_withdrawal"`     // 最低提现积分
	AdminTelegramIDs     []int64 `mapstructure:"admin_telegram_ids"`     // 配置的管理员 Telegram ID 集合
	SessionHistoryLimit  int     `mapstructure:"session_history_limit"`  // 游戏记录单页条数
	RequestHistoryLimit  int     `mapstructure:"request_history_limit"`  // 充值/提现记录单页条数
	PendingReminderHours int     `mapstructure:"pending_reminder_hours"` // 申请挂起多久后提醒管理员
	MaxRetryCount        int     `mapstructure:"max_retry_count"`        // 发件箱消息最大重试次数
}

// MinWithdrawal 最低提现额度，定点小数
func (b *BusinessConfig) MinWithdrawal() decimal.Decimal {
	return decimal.NewFromFloat(b.MinimumWithdrawal)
}

var GlobalConfig *Config

// LoadConfig 加载配置文件
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	applyDefaults(config)

	GlobalConfig = config
	return config
}

func applyDefaults(config *Config) {
	if config.Business.SessionHistoryLimit <= 0 {
		config.Business.SessionHistoryLimit = 50
	}
	if config.Business.RequestHistoryLimit <= 0 {
		config.Business.RequestHistoryLimit = 20
	}
	if config.Business.PendingReminderHours <= 0 {
		config.Business.PendingReminderHours = 12
	}
	if config.Business.MaxRetryCount <= 0 {
		config.Business.MaxRetryCount = 3
	}
}
