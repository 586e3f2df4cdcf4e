package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-nain/internal/config"
	"github.com/teslashibe/go-nain/internal/log"
	"github.com/teslashibe/go-nain/pkg/advisor"
	"github.com/teslashibe/go-nain/pkg/camera"
	"github.com/teslashibe/go-nain/pkg/detection"
	"github.com/teslashibe/go-nain/pkg/hub"
	"github.com/teslashibe/go-nain/pkg/inference"
	"github.com/teslashibe/go-nain/pkg/intent"
	"github.com/teslashibe/go-nain/pkg/journal"
	"github.com/teslashibe/go-nain/pkg/location"
	"github.com/teslashibe/go-nain/pkg/navigation"
	"github.com/teslashibe/go-nain/pkg/places"
	"github.com/teslashibe/go-nain/pkg/protocol"
	"github.com/teslashibe/go-nain/pkg/proximity"
	"github.com/teslashibe/go-nain/pkg/routing"
	"github.com/teslashibe/go-nain/pkg/speech"
	"github.com/teslashibe/go-nain/pkg/transcribe"
	"github.com/teslashibe/go-nain/pkg/tts"
	"github.com/teslashibe/go-nain/pkg/web"
)

// frameMaxAge bounds how old an uploaded frame may be before detection skips it.
const frameMaxAge = 5 * time.Second

var staticDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the navigation server",
	Long: `Run the navigation server.

The server hosts the web client, the REST API and the /ws/events socket
that carries speech, beeps and state snapshots to connected clients.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&staticDir, "static", "", "directory of web client files to serve at /")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	logger := log.Component("serve")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := hub.New("events", log.Component("hub"))
	go events.Run(ctx)

	speaker, err := newSpeaker(cfg, events)
	if err != nil {
		return err
	}
	go speaker.Run(ctx)

	feed := location.NewFeed(cfg.Navigation.LocationTimeout, log.Component("location"))
	if cfg.Services.LocationWSURL != "" {
		go location.NewWSSource(cfg.Services.LocationWSURL, feed, log.Component("location.ws")).Run(ctx)
	}

	uploads := camera.NewLatest(frameMaxAge)
	var frames camera.Source = uploads
	if cfg.Detection.Camera != "" {
		dev, err := openCamera(cfg.Detection.Camera)
		if err != nil {
			return err
		}
		defer dev.Close()
		frames = dev
	}

	detector, closeDetector, err := newDetector(cfg)
	if err != nil {
		return err
	}
	defer closeDetector()

	var (
		llm        *inference.Client
		adv        *advisor.Client
		recognizer intent.Recognizer
	)
	if cfg.LLMAPIKey != "" {
		llm, err = inference.NewClient(
			inference.WithBaseURL(cfg.Services.LLMBaseURL),
			inference.WithAPIKey(cfg.LLMAPIKey),
			inference.WithModel(cfg.Services.LLMModel),
			inference.WithLogger(log.L()),
		)
		if err != nil {
			return fmt.Errorf("inference client: %w", err)
		}
		adv = advisor.NewClient(llm, log.Component("advisor"))
		recognizer = intent.NewLLMRecognizer(llm, log.Component("intent"))
	} else {
		logger.Warn("no LLM API key, intent recognition and guidance disabled")
	}

	router, closeCache, err := newRouter(cfg, adv)
	if err != nil {
		return err
	}
	defer closeCache()

	journ, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer journ.Close()

	navCfg := navigation.Config{
		Router:    router,
		Location:  feed,
		Frames:    frames,
		Detector:  detector,
		Speaker:   speaker,
		Beeper:    proximity.BeeperFunc(func() { events.Publish(string(protocol.TypeBeep), protocol.BeepData{}) }),
		Journal:   journ,
		Observer:  web.StatePublisher(events),
		Obstacles: cfg.Detection.Obstacles,
		Timing: navigation.Timing{
			DetectionInterval: cfg.Navigation.DetectionInterval,
			GuidanceInterval:  cfg.Navigation.GuidanceInterval,
			GuidanceCooldown:  cfg.Navigation.GuidanceCooldown,
			InsightsDelay:     cfg.Navigation.InsightsDelay,
			FirstStepDelay:    cfg.Navigation.FirstStepDelay,
			FirstStepLate:     cfg.Navigation.FirstStepLate,
			LocationTimeout:   cfg.Navigation.LocationTimeout,
		},
		Logger: log.Component("navigation"),
	}
	if adv != nil {
		navCfg.Advisor = adv
	}
	coord := navigation.New(navCfg)
	defer coord.Close()

	dispCfg := intent.DispatcherConfig{
		Navigator: coord,
		Speaker:   speaker,
		Locator:   coord,
		Places: places.NewOverpass(places.OverpassConfig{
			URL:    cfg.Services.PlacesURL,
			Radius: cfg.Navigation.PlacesRadius,
			Logger: log.Component("places"),
		}),
		Logger: log.Component("dispatcher"),
	}
	if adv != nil {
		dispCfg.Adviser = adv
	}

	whisper := transcribe.NewWhisper(transcribe.Config{
		BaseURL: cfg.Services.WhisperURL,
		Timeout: transcribe.DefaultConfig().Timeout,
		Logger:  log.Component("transcribe"),
	})

	checks := []web.HealthCheck{{Name: "whisper", Check: whisper.Health}}
	if hc, ok := detector.(interface{ Health(context.Context) error }); ok {
		checks = append(checks, web.HealthCheck{Name: "detection", Check: hc.Health})
	}
	if llm != nil {
		checks = append(checks, web.HealthCheck{Name: "inference", Check: llm.Health})
	}
	reportHealth(ctx, logger, checks)

	srv := web.NewServer(web.Config{
		Addr:        cfg.Addr(),
		Coordinator: coord,
		Dispatcher:  intent.NewDispatcher(dispCfg),
		Recognizer:  recognizer,
		Transcriber: whisper,
		Location:    feed,
		Frames:      uploads,
		Speaker:     speaker,
		Hub:         events,
		Journal:     journ,
		Checks:      checks,
		StaticDir:   staticDir,
		Version:     Version,
		Logger:      log.Component("web"),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}

	logger.Info("shutting down")
	coord.EndNavigation()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", "error", err)
	}
	return nil
}

func newSpeaker(cfg config.Config, events *hub.Hub) (*speech.Speaker, error) {
	var out speech.Output = speech.NewBroadcastOutput(events)
	if cfg.TTSMode == "openai" {
		opts := []tts.Option{tts.WithAPIKey(cfg.LLMAPIKey), tts.WithLogger(log.L())}
		if cfg.TTSVoice != "" {
			opts = append(opts, tts.WithVoice(cfg.TTSVoice))
		}
		provider, err := tts.NewOpenAI(opts...)
		if err != nil {
			return nil, fmt.Errorf("tts: %w", err)
		}
		out = speech.NewTTSOutput(provider, events, log.Component("speech"))
	}
	return speech.NewSpeaker(out, log.Component("speech")), nil
}

func openCamera(device string) (*camera.Device, error) {
	idx, err := strconv.Atoi(device)
	if err != nil {
		return nil, fmt.Errorf("camera device %q: must be an index", device)
	}
	camCfg := camera.DefaultConfig()
	camCfg.Device = idx
	return camera.OpenDevice(camCfg, log.Component("camera"))
}

func newDetector(cfg config.Config) (detection.Detector, func(), error) {
	switch cfg.Detection.Backend {
	case "local":
		yoloCfg := detection.DefaultYOLOConfig()
		yoloCfg.ModelPath = cfg.Detection.ModelPath
		y, err := detection.NewYOLO(yoloCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("detector: %w", err)
		}
		return y, func() { y.Close() }, nil
	default:
		clientCfg := detection.DefaultClientConfig()
		clientCfg.BaseURL = cfg.Services.DetectionURL
		clientCfg.Logger = log.Component("detection")
		return detection.NewClient(clientCfg), func() {}, nil
	}
}

func newRouter(cfg config.Config, adv *advisor.Client) (*routing.Service, func(), error) {
	var geocoder routing.Geocoder = routing.NewNominatim(routing.NominatimConfig{
		BaseURL: cfg.Services.GeocoderURL,
		Logger:  log.Component("geocoder"),
	})
	closeCache := func() {}
	if cfg.Services.GeocodeCachePath != "" {
		cache, err := routing.OpenSQLiteCache(cfg.Services.GeocodeCachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("geocode cache: %w", err)
		}
		geocoder = routing.NewCachedGeocoder(geocoder, cache, log.Component("geocoder"))
		closeCache = func() { cache.Close() }
	}

	directions := routing.NewOSRM(routing.OSRMConfig{
		BaseURL: cfg.Services.RoutingURL,
		Logger:  log.Component("osrm"),
	})

	opts := []routing.Option{routing.WithLogger(log.Component("routing"))}
	if adv != nil {
		opts = append(opts, routing.WithInsights(adv))
	}
	return routing.NewService(geocoder, directions, opts...), closeCache, nil
}

func openJournal(ctx context.Context, cfg config.Config) (journal.Journal, error) {
	if cfg.DatabaseURL == "" {
		return journal.NewMemory(500), nil
	}
	pg, err := journal.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	return pg, nil
}

// reportHealth logs the state of each collaborator once at startup.
// Failures are not fatal; the affected feature degrades at runtime.
func reportHealth(ctx context.Context, logger *slog.Logger, checks []web.HealthCheck) {
	for _, hc := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := hc.Check(checkCtx)
		cancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("service unavailable", "service", hc.Name, "error", err)
			continue
		}
		if err == nil {
			logger.Info("service ready", "service", hc.Name)
		}
	}
}
