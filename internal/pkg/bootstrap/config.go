// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 聚合了一个服务启动所需的全部配置。
// 来源优先级: 内置默认值 < yaml 配置文件 < 环境变量。
type Config struct {
	App struct {
		// Currency 是创建支付会话时使用的币种代码
		Currency string `yaml:"currency"`
		// RemoteCallTimeoutSeconds 是调用下游服务（商品目录、支付）的单次超时
		RemoteCallTimeoutSeconds int `yaml:"remote_call_timeout_seconds"`
	} `yaml:"app"`

	Infra struct {
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Kafka struct {
			Brokers            string `yaml:"brokers"`
			PaymentEventsTopic string `yaml:"payment_events_topic"`
			ConsumerGroup      string `yaml:"consumer_group"`
		} `yaml:"kafka"`
		Redis struct {
			Addrs string `yaml:"addrs"`
		} `yaml:"redis"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Zookeeper struct {
			Servers string `yaml:"servers"`
		} `yaml:"zookeeper"`
		Nacos struct {
			Addrs     string `yaml:"addrs"`
			Namespace string `yaml:"namespace"`
			Group     string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`
}

var currentConfig Config

// Init 加载配置。在每个服务的 main 中最先调用。
func Init() {
	cfg := defaultConfig()

	// yaml 配置文件可选，便于本地直接用默认值 + 环境变量启动
	if path := getEnv("CONFIG_PATH", "configs/config.yaml"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				panic("bootstrap: invalid config file " + path + ": " + err.Error())
			}
		}
	}

	cfg.Infra.Mysql.DSN = getEnv("MYSQL_DSN", cfg.Infra.Mysql.DSN)
	cfg.Infra.Kafka.Brokers = getEnv("KAFKA_BROKERS", cfg.Infra.Kafka.Brokers)
	cfg.Infra.Redis.Addrs = getEnv("REDIS_ADDRS", cfg.Infra.Redis.Addrs)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	cfg.Infra.Zookeeper.Servers = getEnv("ZOOKEEPER_SERVERS", cfg.Infra.Zookeeper.Servers)
	cfg.Infra.Nacos.Addrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.Addrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)

	currentConfig = cfg
}

// GetCurrentConfig 返回进程当前生效的配置。
func GetCurrentConfig() Config {
	return currentConfig
}

// RemoteCallTimeout 以 time.Duration 的形式返回下游调用超时。
func (c Config) RemoteCallTimeout() time.Duration {
	if c.App.RemoteCallTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.App.RemoteCallTimeoutSeconds) * time.Second
}

func defaultConfig() Config {
	var cfg Config
	cfg.App.Currency = "usd"
	cfg.App.RemoteCallTimeoutSeconds = 5
	cfg.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/bazaar?charset=utf8mb4&parseTime=True&loc=Local"
	cfg.Infra.Kafka.Brokers = "localhost:9092"
	cfg.Infra.Kafka.PaymentEventsTopic = "payment-succeeded-topic"
	cfg.Infra.Kafka.ConsumerGroup = "order-settlement-consumer-group"
	cfg.Infra.Redis.Addrs = "localhost:6379"
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Zookeeper.Servers = "localhost:2181"
	cfg.Infra.Nacos.Addrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
