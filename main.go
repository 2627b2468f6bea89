package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsgo_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/pruthvir7/ParkingManagement/internal/alert"
	"github.com/pruthvir7/ParkingManagement/internal/api"
	"github.com/pruthvir7/ParkingManagement/internal/api/handler"
	"github.com/pruthvir7/ParkingManagement/internal/config"
	"github.com/pruthvir7/ParkingManagement/internal/imageproc"
	"github.com/pruthvir7/ParkingManagement/internal/iot"
	"github.com/pruthvir7/ParkingManagement/internal/logging"
	"github.com/pruthvir7/ParkingManagement/internal/ocr/tesseract"
	"github.com/pruthvir7/ParkingManagement/internal/repository"
	"github.com/pruthvir7/ParkingManagement/internal/repository/postgresql"
	"github.com/pruthvir7/ParkingManagement/internal/repository/sqlite"
	"github.com/pruthvir7/ParkingManagement/internal/service"
	"github.com/pruthvir7/ParkingManagement/internal/tracker"
	"github.com/pruthvir7/ParkingManagement/internal/vision"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Logger
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	if len(cfg.Defaulted) > 0 {
		logger.Debugw("using defaults for unset variables", "keys", cfg.Defaulted)
	}
	logger.Infow("configuration loaded", "store", cfg.StoreDriver, "recognizer", cfg.Recognizer,
		"enhancer", cfg.Enhancer, "lot", cfg.LotName, "slot", cfg.SlotName)

	if err := run(cfg, logger); err != nil {
		logger.Errorf("%v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Storage
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Infof("Session store ready (%s)", cfg.StoreDriver)

	// 4. AWS clients, only when something needs them
	var (
		sqsClient         *sqs.Client
		iotDataClient     *iotdataplane.Client
		rekognitionClient *rekognition.Client
	)
	needAWS := cfg.Recognizer == config.RecognizerRekognition || cfg.SQSEntryQueueURL != "" ||
		cfg.SQSAlertQueueURL != "" || cfg.IoTMQTTEndpoint != ""
	if needAWS {
		awsSDKCfg, err := awsgo_config.LoadDefaultConfig(ctx, awsgo_config.WithRegion(cfg.AWSRegion))
		if err != nil {
			return fmt.Errorf("loading AWS SDK config: %w", err)
		}
		sqsClient = sqs.NewFromConfig(awsSDKCfg)
		rekognitionClient = rekognition.NewFromConfig(awsSDKCfg)
		if cfg.IoTMQTTEndpoint != "" {
			iotDataClient = iotdataplane.NewFromConfig(awsSDKCfg, func(o *iotdataplane.Options) {
				endpointWithSchema := cfg.IoTMQTTEndpoint
				if !strings.HasPrefix(endpointWithSchema, "https://") && !strings.HasPrefix(endpointWithSchema, "http://") {
					endpointWithSchema = "https://" + endpointWithSchema
				}
				o.BaseEndpoint = aws.String(endpointWithSchema)
			})
		}
		logger.Infof("AWS clients initialised for region %s", cfg.AWSRegion)
	}

	// 5. Live dashboard hub
	wsManager := handler.NewWebSocketManager(logger)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		wsManager.Start(ctx)
	}()

	// 6. Alerting
	notifiers := alert.Multi{alert.NewLogNotifier(logger.Named("alert")), wsManager}
	if iotDataClient != nil {
		notifiers = append(notifiers, alert.NewIoTNotifier(iotDataClient, cfg.AlertTopicPrefix))
	}
	if cfg.SQSAlertQueueURL != "" {
		notifiers = append(notifiers, alert.NewSQSNotifier(sqsClient, cfg.SQSAlertQueueURL))
	}

	// 7. Services
	emitter := service.NewSessionEmitter(store.Sessions, service.EmitterConfig{
		MinDwell:     cfg.MinDwell,
		QueueSize:    cfg.EmitQueueSize,
		StoreTimeout: cfg.StoreTimeout,
	}, wsManager, logger)
	validator := service.NewEntryValidator(service.EntryValidatorDeps{
		Reservations: store.Reservations,
		Checks:       store.EntryChecks,
		Notifier:     notifiers,
		Recipient:    cfg.AlertRecipient,
		Events:       wsManager,
		Logger:       logger,
	})
	entryHandler := service.NewEntryHandler(validator, cfg.EmitQueueSize, cfg.StoreTimeout, logger)

	// 8. Vision pipeline
	vp, err := openPipeline(cfg, rekognitionClient, logger)
	if err != nil {
		entryHandler.Close()
		emitter.Close()
		return err
	}
	defer vp.close(logger)

	engine, err := tracker.NewEngine(cfg.TrackerConfig(), tracker.Deps{
		Source:     vp.capture,
		Detector:   vp.detector,
		Enhancer:   vp.enhancer,
		Recognizer: vp.recognizer,
		Sessions:   emitter,
		Entries:    entryHandler,
		Events:     wsManager,
		Snapshots:  vp.snapshots,
		Logger:     logger,
	})
	if err != nil {
		vp.capture.Close()
		entryHandler.Close()
		emitter.Close()
		return err
	}

	// 9. Scheduled entry-check retention
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	janitor := service.NewEntryCheckJanitor(store.EntryChecks, cfg.EntryCheckRetention, nil, logger)
	if _, err := janitor.Schedule(scheduler, time.Minute); err != nil {
		return fmt.Errorf("scheduling entry-check cleanup: %w", err)
	}
	scheduler.Start()

	// 10. Gate-entry events from SQS
	if cfg.SQSEntryQueueURL == "" {
		logger.Warn("SQS_ENTRY_QUEUE_URL is not configured. SQS Consumer will not run.")
	} else {
		sqsConsumer := iot.NewSQSConsumer(sqsClient, cfg.SQSEntryQueueURL, validator, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sqsConsumer.Start(ctx)
			logger.Info("SQS Consumer stopped.")
		}()
	}

	// 11. HTTP surface
	router := api.SetupRouter(api.RouterDeps{
		Tracks:     engine,
		Lot:        cfg.LotName,
		Slot:       cfg.SlotName,
		Store:      store,
		Validator:  validator,
		Recognizer: vp.recognizer,
		Enhancer:   vp.enhancer,
		WebSocket:  wsManager,
		Logger:     logger,
	})
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}
	go func() {
		logger.Infof("Server listening on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("ListenAndServe: %v", err)
			stop()
		}
	}()

	// 12. Tracking loop
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := engine.Run(ctx); err != nil {
			logger.Errorf("%v", err)
			stop()
			return
		}
		logger.Info("Tracking loop finished; HTTP surface stays up until shutdown.")
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shut down: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("Background workers did not stop within 5s.")
	}

	if err := scheduler.Shutdown(); err != nil {
		logger.Warnf("Scheduler shutdown: %v", err)
	}
	entryHandler.Close()
	emitter.Close()

	stats := emitter.Stats()
	logger.Infow("Session emitter drained",
		"queued", stats.Queued,
		"stored", stats.Stored,
		"failed", stats.Failed,
		"dropped", stats.Dropped,
		"frames", engine.Frames(),
		"ocr_calls", engine.OCRCalls(),
	)
	logger.Info("Server stopped.")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		return postgresql.Open(ctx, cfg.PostgresDSN(), logger)
	default:
		return sqlite.Open(ctx, cfg.SQLitePath, logger)
	}
}

// pipeline holds the vision components that own native resources.
type pipeline struct {
	capture    *vision.Capture
	detector   *vision.CascadeDetector
	enhancer   tracker.Enhancer
	recognizer tracker.Recognizer
	snapshots  tracker.Snapshotter
	closers    []func() error
}

func openPipeline(cfg *config.Config, rekognitionClient *rekognition.Client, logger *zap.SugaredLogger) (*pipeline, error) {
	p := &pipeline{}

	detector, err := vision.NewCascadeDetector(cfg.CascadePath)
	if err != nil {
		return nil, err
	}
	p.detector = detector
	p.closers = append(p.closers, detector.Close)

	switch cfg.Enhancer {
	case config.EnhancerOpenCV:
		e := vision.NewEnhancer()
		p.enhancer = e
		p.closers = append(p.closers, e.Close)
	default:
		p.enhancer = imageproc.NewEnhancer()
	}

	switch cfg.Recognizer {
	case config.RecognizerRekognition:
		p.recognizer = service.NewLPRService(rekognitionClient, logger)
	default:
		r, err := tesseract.NewRecognizer(cfg.OCRLanguage)
		if err != nil {
			p.close(logger)
			return nil, err
		}
		p.recognizer = r
		p.closers = append(p.closers, r.Close)
	}

	if cfg.SnapshotDir != "" {
		p.snapshots = imageproc.NewSnapshotWriter(cfg.SnapshotDir)
	}

	capture, err := vision.OpenCapture(cfg.CameraSource, cfg.FrameWidth, cfg.FrameHeight)
	if err != nil {
		p.close(logger)
		return nil, err
	}
	p.capture = capture
	logger.Infof("Capturing from %s", cfg.CameraSource)
	return p, nil
}

// close releases everything except the capture, which the engine closes.
func (p *pipeline) close(logger *zap.SugaredLogger) {
	var errs error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, p.closers[i]())
	}
	if errs != nil {
		logger.Warnf("releasing vision resources: %v", errs)
	}
}
