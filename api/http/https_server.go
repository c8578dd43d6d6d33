package http

import (
	"context"
	"fmt"
	"time"

	"NeighborGuard/internal/config"
	jwtMiddleware "NeighborGuard/internal/middleware/jwt"
	"NeighborGuard/internal/modules/notification/application/service"
	"NeighborGuard/internal/modules/notification/domain/policy"
	"NeighborGuard/internal/modules/notification/infrastructure/cache"
	"NeighborGuard/internal/modules/notification/infrastructure/mq/kafka"
	"NeighborGuard/internal/modules/notification/infrastructure/persistence"
	"NeighborGuard/internal/modules/notification/infrastructure/push"
	"NeighborGuard/internal/modules/notification/infrastructure/push/onesignal"
	"NeighborGuard/internal/modules/notification/infrastructure/queue"
	notificationHandler "NeighborGuard/internal/modules/notification/interface/http"
	"NeighborGuard/internal/modules/notification/interface/realtime"
	"NeighborGuard/pkg/redis"
	"NeighborGuard/pkg/ssl"
	"NeighborGuard/pkg/ws"
	"NeighborGuard/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DispatchModeLocal = "local"
	DispatchModeKafka = "kafka"
)

var GE *gin.Engine

// Runtime 后台组件，进程退出时按顺序关闭
type Runtime struct {
	eventSource service.EventSourceService
	localQueue  *queue.LocalDispatchQueue
	kafkaQueue  *queue.KafkaDispatchQueue
	consumer    *queue.DispatchConsumerWorker
	cancel      context.CancelFunc
}

// Setup 组装依赖并注册路由到 GE
func Setup(db *gorm.DB, conf *config.Config) (*Runtime, error) {
	loc, err := time.LoadLocation(conf.MainConfig.Timezone)
	if err != nil {
		zlog.Warn("load timezone failed, using local", zap.String("timezone", conf.MainConfig.Timezone), zap.Error(err))
		loc = time.Local
	}

	wsHub := ws.NewHub()

	userRepo := persistence.NewUserDirectoryRepository(db)
	groupRepo := persistence.NewGroupMembershipRepository(db)
	notificationRepo := persistence.NewNotificationRepository(db)
	uow := persistence.NewNotificationUnitOfWork(db)
	unread := cache.NewUnreadCounter(redis.Cmdable(), time.Duration(conf.RedisConfig.UnreadTTLSecond)*time.Second)

	sender := push.NewThrottledSender(onesignal.NewClient(onesignal.Config{
		AppID:    conf.OneSignalConfig.AppID,
		APIKey:   conf.OneSignalConfig.APIKey,
		Endpoint: conf.OneSignalConfig.Endpoint,
		Timeout:  time.Duration(conf.OneSignalConfig.TimeoutSeconds) * time.Second,
	}, nil), conf.OneSignalConfig.RequestsPerSecond, conf.OneSignalConfig.Burst)
	if conf.OneSignalConfig.AppID == "" || conf.OneSignalConfig.APIKey == "" {
		zlog.Warn("onesignal credentials not configured, push delivery will fail")
	}
	batcher := service.NewDispatchBatcher(sender, conf.OneSignalConfig.BatchSize, time.Duration(conf.OneSignalConfig.TimeoutSeconds)*time.Second)
	processor := service.NewDispatchProcessor(batcher, wsHub)

	rt := &Runtime{}
	ctx, cancel := context.WithCancel(context.Background())
	rt.cancel = cancel

	var dispatchQueue service.DispatchQueue
	switch conf.NotifyConfig.DispatchMode {
	case DispatchModeKafka:
		q, worker, err := setupKafka(conf, processor)
		if err != nil {
			cancel()
			return nil, err
		}
		rt.kafkaQueue, rt.consumer = q, worker
		dispatchQueue = q
		go func() {
			if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
				zlog.Error("dispatch consumer stopped", zap.Error(err))
			}
		}()
	case DispatchModeLocal, "":
		q := queue.NewLocalDispatchQueue(processor, conf.NotifyConfig.QueueSize, conf.NotifyConfig.DispatchWorkers)
		q.Start(context.WithoutCancel(ctx))
		rt.localQueue = q
		dispatchQueue = q
	default:
		cancel()
		return nil, fmt.Errorf("unknown dispatch mode %q", conf.NotifyConfig.DispatchMode)
	}

	resolver := policy.NewResolver(conf.NotifyConfig.DefaultRadiusKm, loc)
	aggregator := service.NewCandidateAggregator(userRepo, service.NewGroupAffinityChecker(groupRepo), resolver)
	persister := service.NewNotificationPersister(notificationRepo, uow, conf.NotifyConfig.RecipientInsertBatch)
	notifySvc := service.NewNotifyService(userRepo, aggregator, persister, dispatchQueue, unread, service.NotifyOptions{
		IncidentTemplateID:   conf.OneSignalConfig.IncidentTemplateID,
		DefaultMaxDistanceKm: conf.NotifyConfig.DefaultRadiusKm,
	})
	readSvc := service.NewReadStateService(notificationRepo, unread)
	rt.eventSource = service.NewEventSourceService(notifySvc)

	notificationH := notificationHandler.NewNotificationHandler(notifySvc, readSvc)
	eventH := notificationHandler.NewEventSourceHandler(rt.eventSource)
	wsH := realtime.NewWsHandler(wsHub)

	GE = newEngine(conf)
	GE.GET("/wss", wsH.Connect)
	GE.GET("/healthz", healthHandler(defaultProbes(db)))

	authed := GE.Group("/")
	authed.Use(jwtMiddleware.Auth())
	authed.GET("/notifications", notificationH.List)
	authed.GET("/notifications/unread-count", notificationH.UnreadCount)
	authed.GET("/notifications/nearby", notificationH.Nearby)
	authed.POST("/notifications/:id/read", notificationH.MarkAsRead)
	authed.POST("/notifications/read-all", notificationH.MarkAllAsRead)
	authed.POST("/notifications/location", notificationH.NotifyLocation)
	authed.POST("/notifications/events", notificationH.NotifyEvent)
	authed.POST("/events/incidents", eventH.IncidentCreated)
	authed.POST("/events/cameras", eventH.CameraShared)

	return rt, nil
}

func newEngine(conf *config.Config) *gin.Engine {
	ge := gin.New()
	ge.Use(gin.Recovery(), accessLog())
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	ge.Use(cors.New(corsConfig))
	ge.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port, conf.MainConfig.ForceTLS))
	return ge
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zlog.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func setupKafka(conf *config.Config, processor service.DispatchProcessor) (*queue.KafkaDispatchQueue, *queue.DispatchConsumerWorker, error) {
	kc := conf.KafkaConfig
	if err := kafka.EnsureTopic(kafka.TopicAdminConfig{Brokers: kc.Brokers, ClientID: kc.ClientID}, kc.DispatchTopic, kc.Partitions, kc.Replication); err != nil {
		return nil, nil, fmt.Errorf("ensure dispatch topic: %w", err)
	}
	pub, err := kafka.NewPublisher(kafka.PublisherConfig{Brokers: kc.Brokers, ClientID: kc.ClientID})
	if err != nil {
		return nil, nil, fmt.Errorf("kafka publisher: %w", err)
	}
	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:  kc.Brokers,
		GroupID:  kc.ConsumerGroupID,
		Topics:   []string{kc.DispatchTopic},
		ClientID: kc.ClientID,
	})
	if err != nil {
		_ = pub.Close()
		return nil, nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return queue.NewKafkaDispatchQueue(pub, kc.DispatchTopic), queue.NewDispatchConsumerWorker(consumer, processor), nil
}

// Shutdown 先等后台通知生成完毕，再排空推送队列
func (rt *Runtime) Shutdown(ctx context.Context) {
	if rt == nil {
		return
	}
	if err := rt.eventSource.Wait(ctx); err != nil {
		zlog.Warn("wait detached notifications failed", zap.Error(err))
	}
	if rt.localQueue != nil {
		if err := rt.localQueue.Close(ctx); err != nil {
			zlog.Warn("drain dispatch queue failed", zap.Error(err))
		}
	}
	if rt.kafkaQueue != nil {
		_ = rt.kafkaQueue.Close()
	}
	rt.cancel()
	if rt.consumer != nil {
		_ = rt.consumer.Close()
	}
}
