package main

import (
	"drivero/internal/api"
	"drivero/internal/booking"
	"drivero/internal/geo"
	"drivero/internal/ingest"
	"drivero/internal/matching"
	"drivero/internal/ports/chatservice"
	"drivero/internal/ports/directory"
	"drivero/internal/ports/kafkanotify"
	"drivero/internal/ports/mongostore"
	"drivero/internal/presence"
	"drivero/pkg/app"
	"drivero/pkg/config"
	"drivero/pkg/kafka"
	kafka_config "drivero/pkg/kafka/config"
)

const ServiceName = "core"

const (
	topicNotifications = "drivero.notifications"
	topicAvailability  = "drivero.availability"
	topicLessons       = "drivero.lessons"
	dlqSuffix          = ".dlq"
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.Client.SetChat(cfg.ChatServiceURL)
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Drivero core service")

	serverApp := app.NewApplication(cfg)
	appRouter, healthHandler := initServices(cfg, serverApp)
	serverApp.SetApp(appRouter, healthHandler)
	serverApp.Run()
}

func initServices(cfg *config.Config, serverApp *app.Application) (*api.Router, *api.HealthHandler) {
	kafkaCfg := kafka_config.Load()
	notifyProducer := newProducer(cfg, kafkaCfg, topicNotifications)
	availabilityProducer := newProducer(cfg, kafkaCfg, topicAvailability)
	lessonProducer := newProducer(cfg, kafkaCfg, topicLessons)
	serverApp.AddWorker(closerWorker{notifyProducer, cfg})
	serverApp.AddWorker(closerWorker{availabilityProducer, cfg})
	serverApp.AddWorker(closerWorker{lessonProducer, cfg})

	events := kafkanotify.NewEventPublisher(availabilityProducer, lessonProducer, cfg.Log)
	notifier := kafkanotify.NewNotifier(notifyProducer)

	geoIndex := geo.NewIndex(cfg.MaxQueryRadiusMeters)
	tracker := presence.NewTracker(cfg.StalenessThreshold, geoIndex, events.PublishAvailability)

	staleSweeper := presence.NewSweeper(tracker, cfg.SweepInterval, cfg.Log)
	staleSweeper.Start()
	serverApp.AddWorker(staleSweeper)

	ingestor := ingest.NewIngestor(
		geoIndex,
		tracker,
		ingest.NewReportValidator(cfg.Log),
		cfg.DebounceInterval,
		cfg.Log,
	)
	serverApp.AddWorker(ingestor)

	instructorDirectory := directory.NewStatic()
	matcher := matching.NewEngine(geoIndex, tracker, instructorDirectory, cfg.MatchLimit, cfg.Log)

	coordinator := booking.NewCoordinator(
		booking.Config{
			HoldExpiry:              cfg.HoldExpiry,
			CancellationGraceWindow: cfg.CancellationGraceWindow,
			NoShowGraceWindow:       cfg.NoShowGraceWindow,
		},
		booking.NewHoldTable(),
		mongostore.NewHoldRepository(cfg),
		mongostore.NewLessonRepository(cfg),
		notifier,
		chatservice.NewChatService(cfg.Client.Chat),
		tracker,
		booking.NewRequestValidator(cfg.Log),
		events.PublishLesson,
		cfg.Log,
	)

	holdSweeper := booking.NewHoldSweeper(coordinator, cfg.HoldSweepInterval, cfg.Log)
	holdSweeper.Start()
	serverApp.AddWorker(holdSweeper)

	instructorHandler := api.NewInstructorHandler(ingestor, tracker, matcher, cfg.Log)
	bookingHandler := api.NewBookingHandler(coordinator, cfg.Log)
	healthHandler := api.NewHealthHandler(cfg.Client.Mongo, cfg.Log)

	cfg.Log.Info("Core service initialized", "database", cfg.MongoDatabaseName)
	return api.NewRouter(instructorHandler, bookingHandler), healthHandler
}

func newProducer(cfg *config.Config, kafkaCfg *kafka_config.Config, topic string) *kafka.Producer {
	producer, err := kafka.NewProducer(kafkaCfg, topic, topic+dlqSuffix)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}
	return producer
}

// closerWorker adapts the producer's Close to the application's Stop hook.
type closerWorker struct {
	producer *kafka.Producer
	cfg      *config.Config
}

func (w closerWorker) Stop() {
	if err := w.producer.Close(); err != nil {
		w.cfg.Log.Error("Kafka producer close failed", "error", err)
	}
}
