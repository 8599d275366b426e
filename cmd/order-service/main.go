// cmd/order-service/main.go
package main

import (
	"context"
	"strings"
	"time"

	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/httpclient"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/pkg/redis"
	"bazaar/internal/service/order/application"
	"bazaar/internal/service/order/infrastructure"
	"bazaar/internal/service/order/infrastructure/adapter"
	"bazaar/internal/service/order/interfaces"
	"bazaar/internal/zookeeper"

	"go.opentelemetry.io/otel"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const serviceName = "order-service"

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	db, err := gorm.Open(gormmysql.Open(cfg.Infra.Mysql.DSN), &gorm.Config{})
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to connect to mysql")
	}
	repo := infrastructure.NewGormOrderRepository(db)
	if err := repo.Migrate(); err != nil {
		logger.L().Fatal().Err(err).Msg("failed to migrate order schema")
	}

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to initialize redis client")
	}
	guard := adapter.NewSettlementGuardRedis(redisClient)

	zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, 5*time.Second)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to connect to zookeeper")
	}
	locker := adapter.NewSettlementZkLocker(zkConn)

	brokers := strings.Split(cfg.Infra.Kafka.Brokers, ",")
	settlementReader := mq.NewKafkaReader(brokers, cfg.Infra.Kafka.PaymentEventsTopic, cfg.Infra.Kafka.ConsumerGroup)

	// 全局 TracerProvider 由 StartService 注册，otel 的全局 tracer 支持延迟绑定
	tracer := otel.Tracer(serviceName)

	// 下游适配器依赖 Nacos 发现，所以在 RegisterHandlers 回调里完成最终组装
	var consumer *infrastructure.SettlementConsumerAdapter

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8080,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			httpClient := httpclient.NewClient(tracer, appCtx.Nacos)
			catalog := adapter.NewCatalogHTTPAdapter(httpClient, cfg.RemoteCallTimeout())
			payment := adapter.NewPaymentHTTPAdapter(httpClient, cfg.RemoteCallTimeout())

			appSvc := application.NewOrderApplicationService(repo, catalog, payment, locker, tracer, cfg.App.Currency)
			consumer = infrastructure.NewSettlementConsumerAdapter(settlementReader, appSvc, guard)

			interfaces.NewOrderHandler(appSvc).RegisterRoutes(appCtx.Mux)
		},
		Runners: []func(ctx context.Context) error{
			// RegisterHandlers 先于 Runners 执行，consumer 此时已完成组装
			func(ctx context.Context) error { return consumer.Run(ctx) },
		},
	})
}
