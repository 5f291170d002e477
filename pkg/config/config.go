package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	RPC     RPCConfig     `mapstructure:"rpc"`
	Wallet  WalletConfig  `mapstructure:"wallet"`
	Gas     GasConfig     `mapstructure:"gas"`
	Confirm ConfirmConfig `mapstructure:"confirm"`
	Lock    LockConfig    `mapstructure:"lock"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Events  EventsConfig  `mapstructure:"events"`
	Token   TokenConfig   `mapstructure:"token"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"` // 为空时按 env 选择默认级别
	HttpPort string `mapstructure:"http_port"`
}

type RPCConfig struct {
	URL         string        `mapstructure:"url"`
	StepTimeout time.Duration `mapstructure:"step_timeout"` // 单次 RPC 调用的超时, 0 表示只受调用方 ctx 控制
}

type WalletConfig struct {
	PrivateKey     string `mapstructure:"private_key"` // 通过环境变量 PRIVATE_KEY 传入, 不要写进配置文件
	Mnemonic       string `mapstructure:"mnemonic"`    // PRIVATE_KEY 未设置时使用, 环境变量 MNEMONIC
	DerivationPath string `mapstructure:"derivation_path"`
	ToAddress      string `mapstructure:"to_address"`
	Amount         string `mapstructure:"amount"` // 以 ETH 为单位
}

type GasConfig struct {
	TransferLimit    uint64 `mapstructure:"transfer_limit"`
	ContractLimit    uint64 `mapstructure:"contract_limit"`
	FeeBufferPercent uint64 `mapstructure:"fee_buffer_percent"`
}

type ConfirmConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type LockConfig struct {
	Backend string        `mapstructure:"backend"` // "local" or "redis"
	TTL     time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

type EventsConfig struct {
	Sink  string `mapstructure:"sink"` // "none", "kafka" or "redis"
	Topic string `mapstructure:"topic"`
}

type TokenConfig struct {
	Address string `mapstructure:"address"`
}

const (
	DefaultRPCURL    = "https://sepolia-rollup.arbitrum.io/rpc"
	DefaultToAddress = "0x741CD80d41eDE318feD4010E296704a061f4115a"
	DefaultAmount    = "0.001"
	// Arbitrum Sepolia 上的 USDC 测试代币
	DefaultTokenAddress = "0x75faf114eafb1BDbe2F0316DF893fd58CE46AA4d"
	ExplorerTxURL       = "https://sepolia.arbiscan.io/tx/"
)

// envBindings 保留原有的环境变量名 (PRIVATE_KEY 等), 同时也接受 WALLET_PRIVATE_KEY 这种自动映射的写法
var envBindings = map[string][]string{
	"wallet.private_key":     {"PRIVATE_KEY", "WALLET_PRIVATE_KEY"},
	"wallet.mnemonic":        {"MNEMONIC", "WALLET_MNEMONIC"},
	"wallet.derivation_path": {"DERIVATION_PATH", "WALLET_DERIVATION_PATH"},
	"wallet.to_address":      {"TO_ADDRESS", "WALLET_TO_ADDRESS"},
	"wallet.amount":          {"AMOUNT", "WALLET_AMOUNT"},
	"rpc.url":                {"RPC_URL"},
	"app.log_level":          {"LOG_LEVEL"},
}

var Global Config

// Options controls where Load looks for its sources.
type Options struct {
	ConfigPaths []string // 查找 config.yaml 的目录
	DotEnvFile  string   // 为空时不读取 .env
}

// DefaultOptions mirrors what the binaries use: config.yaml in . or ./config, and ./.env.
func DefaultOptions() Options {
	return Options{
		ConfigPaths: []string{".", "./config"},
		DotEnvFile:  ".env",
	}
}

// Load reads configuration from defaults, an optional .env file, an optional
// config.yaml and the environment, in increasing order of precedence.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range opts.ConfigPaths {
		v.AddConfigPath(p)
	}

	// 环境变量设置
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	// 设置默认值
	setDefaults(v)

	if opts.DotEnvFile != "" {
		if err := loadDotEnv(v, opts.DotEnvFile); err != nil {
			return nil, err
		}
	}

	if len(opts.ConfigPaths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	return &cfg, nil
}

// Init loads the default sources into Global and aborts the process on failure.
func Init() {
	cfg, err := Load(DefaultOptions())
	if err != nil {
		log.Fatalf("Fatal error config: %v", err)
	}
	Global = *cfg
	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

// loadDotEnv 读取 .env 文件, 只作为默认值使用, 真实环境变量和配置文件优先
func loadDotEnv(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	dotenv := viper.New()
	dotenv.SetConfigFile(path)
	dotenv.SetConfigType("env")
	if err := dotenv.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	// env 名 -> 配置 key
	lookup := make(map[string]string)
	for _, key := range v.AllKeys() {
		lookup[strings.ReplaceAll(key, ".", "_")] = key
	}
	for key, envs := range envBindings {
		for _, env := range envs {
			lookup[strings.ToLower(env)] = key
		}
	}

	for _, name := range dotenv.AllKeys() {
		if key, ok := lookup[name]; ok {
			v.SetDefault(key, dotenv.Get(name))
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "")
	v.SetDefault("app.http_port", "8080")

	v.SetDefault("rpc.url", DefaultRPCURL)
	v.SetDefault("rpc.step_timeout", 30*time.Second)

	v.SetDefault("wallet.derivation_path", "m/44'/60'/0'/0/0")
	v.SetDefault("wallet.to_address", DefaultToAddress)
	v.SetDefault("wallet.amount", DefaultAmount)

	v.SetDefault("gas.transfer_limit", 21000)
	v.SetDefault("gas.contract_limit", 300000)
	v.SetDefault("gas.fee_buffer_percent", 0)

	v.SetDefault("confirm.timeout", 2*time.Minute)
	v.SetDefault("confirm.poll_interval", 2*time.Second)

	v.SetDefault("lock.backend", "local")
	v.SetDefault("lock.ttl", 2*time.Minute)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})

	v.SetDefault("events.sink", "none")
	v.SetDefault("events.topic", "arb_transfer_events")

	v.SetDefault("token.address", DefaultTokenAddress)
}
