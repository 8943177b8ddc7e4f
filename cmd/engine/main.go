package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"indoor-position-engine/internal/api"
	"indoor-position-engine/internal/config"
	"indoor-position-engine/internal/database/influx"
	"indoor-position-engine/internal/database/postgres"
	"indoor-position-engine/internal/database/postgres/repositories"
	"indoor-position-engine/internal/logger"
	"indoor-position-engine/internal/mqtt"
	"indoor-position-engine/internal/mqtt/handlers"
	"indoor-position-engine/internal/services"
	"indoor-position-engine/internal/store"
)

type Application struct {
	config *config.Config

	postgresDB *postgres.PostgresDB
	influxDB   *influx.InfluxDB
	fixStore   *store.FixStore

	anchorRepository   *repositories.AnchorRepository
	buildingRepository *repositories.BuildingRepository

	anchorService      *services.AnchorService
	positioningService *services.PositioningService
	presenceService    *services.PresenceService

	mqttClient    *mqtt.Client
	topicManager  *mqtt.TopicManager
	publisher     *mqtt.Publisher
	scanHandler   *handlers.ScanHandler
	motionHandler *handlers.MotionHandler
	geoHandler    *handlers.GeoHandler
	anchorHandler *handlers.AnchorHandler

	apiServer *api.Server

	shutdownChan chan os.Signal
	ctx          context.Context
	cancelFunc   context.CancelFunc
}

func main() {
	app := &Application{}

	if err := app.initialize(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	if err := app.run(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run application")
	}
}

func (app *Application) initialize() error {
	var err error

	app.config, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	logger.NewLogger(app.config.Logger)
	log.Info().
		Str("component", "main").
		Str("version", app.config.Service.Version).
		Msg("Setting up service...")

	app.ctx, app.cancelFunc = context.WithCancel(context.Background())
	app.shutdownChan = make(chan os.Signal, 1)
	signal.Notify(app.shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.initializeDatabases(); err != nil {
		return fmt.Errorf("error while initializing databases: %w", err)
	}

	if err := app.initializeMQTT(); err != nil {
		return fmt.Errorf("error while initializing MQTT: %w", err)
	}

	if err := app.initializeRepositories(); err != nil {
		return fmt.Errorf("error while initializing repositories: %w", err)
	}

	if err := app.initializeServices(); err != nil {
		return fmt.Errorf("error while initializing services: %w", err)
	}

	if err := app.setupTopicHandlers(); err != nil {
		return fmt.Errorf("error while setting up topic handlers: %w", err)
	}

	app.apiServer = api.New(
		app.config.HTTP,
		app.positioningService,
		app.presenceService,
		app.anchorService,
		logger.GetLogger("api-server"),
	)

	log.Info().Msg("Successfully initialized application")
	return nil
}

func (app *Application) initializeDatabases() error {
	var err error

	app.postgresDB, err = postgres.NewConnection(app.config.Postgres)
	if err != nil {
		return fmt.Errorf("could not connect to PostgreSQL: %w", err)
	}

	app.influxDB, err = influx.NewConnection(&app.config.InfluxDB)
	if err != nil {
		return fmt.Errorf("could not connect to InfluxDB: %w", err)
	}

	app.fixStore, err = store.NewFixStore(app.config.Redis, logger.GetLogger("fix-store"))
	if err != nil {
		return fmt.Errorf("could not connect to Redis: %w", err)
	}

	log.Info().
		Str("component", "main").
		Str("host", app.config.Postgres.Host).
		Msg("Successfully initialized databases")
	return nil
}

func (app *Application) initializeMQTT() error {
	var err error

	app.topicManager = mqtt.NewTopicManager(app.config.MQTT.BaseTopic)

	app.mqttClient, err = mqtt.NewClient(&app.config.MQTT, logger.GetLogger("mqtt-client"))
	if err != nil {
		return fmt.Errorf("could not create MQTT client: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(app.ctx, 30*time.Second)
	defer cancel()

	if err := app.mqttClient.Connect(connectCtx); err != nil {
		return fmt.Errorf("could not connect to MQTT broker: %w", err)
	}

	app.publisher = mqtt.NewPublisher(app.mqttClient, app.topicManager, logger.GetLogger("publisher"))

	log.Info().
		Str("component", "main").
		Msg("Successfully initialized MQTT client")

	return nil
}

func (app *Application) initializeRepositories() error {
	db := app.postgresDB.GetDB()

	app.anchorRepository = repositories.NewAnchorRepository(db)
	app.buildingRepository = repositories.NewBuildingRepository(db)

	log.Info().
		Str("component", "main").
		Msg("Successfully initialized repositories")
	return nil
}

func (app *Application) initializeServices() error {
	app.anchorService = services.NewAnchorService(
		app.anchorRepository,
		logger.GetLogger("anchor-service"),
	)

	if err := app.anchorService.SyncFromDatabase(app.ctx); err != nil {
		return fmt.Errorf("initial anchor sync failed: %w", err)
	}
	app.anchorService.StartPeriodicSync(app.ctx, app.config.Service.AnchorSyncPeriod)

	app.positioningService = services.NewPositioningService(
		app.config.Positioning,
		app.anchorService,
		influx.NewFixWriter(app.influxDB.GetWriteAPI(), logger.GetLogger("fix-writer")),
		app.fixStore,
		app.publisher,
		logger.GetLogger("positioning-service"),
	)
	app.positioningService.StartJanitor(app.ctx, time.Minute, app.config.Service.EngineIdleTimeout)

	app.presenceService = services.NewPresenceService(
		app.buildingRepository,
		app.publisher,
		logger.GetLogger("presence-service"),
	)

	if err := app.presenceService.ReloadBuildings(app.ctx); err != nil {
		return fmt.Errorf("initial building load failed: %w", err)
	}
	app.presenceService.StartJanitor(app.ctx, time.Minute, app.config.Service.EngineIdleTimeout)

	log.Info().
		Str("component", "main").
		Msg("Successfully initialized services")
	return nil
}

func (app *Application) setupTopicHandlers() error {
	app.scanHandler = handlers.NewScanHandler(
		app.topicManager,
		app.positioningService,
		app.presenceService,
		logger.GetLogger("scan-handler"),
	)
	if err := app.mqttClient.Subscribe(app.topicManager.GetScanTopic(), app.scanHandler.HandleMessage); err != nil {
		return fmt.Errorf("error subscribing to scan topic: %w", err)
	}

	app.motionHandler = handlers.NewMotionHandler(
		app.topicManager,
		app.positioningService,
		logger.GetLogger("motion-handler"),
	)
	if err := app.mqttClient.Subscribe(app.topicManager.GetMotionTopic(), app.motionHandler.HandleMessage); err != nil {
		return fmt.Errorf("error subscribing to motion topic: %w", err)
	}

	app.geoHandler = handlers.NewGeoHandler(
		app.topicManager,
		app.presenceService,
		logger.GetLogger("geo-handler"),
	)
	if err := app.mqttClient.Subscribe(app.topicManager.GetGeoTopic(), app.geoHandler.HandleMessage); err != nil {
		return fmt.Errorf("error subscribing to geo topic: %w", err)
	}

	app.anchorHandler = handlers.NewAnchorHandler(
		app.topicManager,
		app.anchorService,
		logger.GetLogger("anchor-handler"),
	)
	if err := app.mqttClient.Subscribe(app.topicManager.GetAnchorTopic(), app.anchorHandler.HandleMessage); err != nil {
		return fmt.Errorf("error subscribing to anchor topic: %w", err)
	}

	return nil
}

func (app *Application) run() error {
	apiErrChan := make(chan error, 1)
	go func() {
		if err := app.apiServer.Run(app.ctx); err != nil {
			apiErrChan <- err
		}
	}()

	select {
	case sig := <-app.shutdownChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-apiErrChan:
		log.Error().Err(err).Msg("HTTP API failed")
	case <-app.ctx.Done():
		log.Info().Msg("context cancelled, shutting down application")
	}

	return app.shutdown()
}

func (app *Application) shutdown() error {
	app.cancelFunc()

	if app.mqttClient != nil {
		app.mqttClient.Disconnect()
	}

	if app.influxDB != nil {
		app.influxDB.Close()
	}

	if app.fixStore != nil {
		if err := app.fixStore.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Redis connection")
		}
	}

	if app.postgresDB != nil {
		if err := app.postgresDB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing PostgreSQL connection")
		}
	}

	return nil
}
