package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"razglasgo/internal/api"
	"razglasgo/pkg/audio"
	"razglasgo/pkg/cancelled"
	"razglasgo/pkg/config"
	"razglasgo/pkg/core"
	"razglasgo/pkg/db"
	"razglasgo/pkg/emergency"
	"razglasgo/pkg/engine"
	"razglasgo/pkg/feed"
	"razglasgo/pkg/llm"
	"razglasgo/pkg/llm/failover"
	"razglasgo/pkg/llm/gemini"
	"razglasgo/pkg/llm/httpai"
	"razglasgo/pkg/logging"
	"razglasgo/pkg/pipeline"
	"razglasgo/pkg/playlog"
	"razglasgo/pkg/probe"
	"razglasgo/pkg/request"
	"razglasgo/pkg/templates"
	"razglasgo/pkg/texts"
	"razglasgo/pkg/tracker"
	"razglasgo/pkg/tts"
	"razglasgo/pkg/tts/edgetts"
	"razglasgo/pkg/version"
)

const (
	assetCacheDir     = "./data/assets"
	emergencyTickRate = 15 * time.Second
	playLogRetention  = 7 * 24 * time.Hour
)

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault("configs/razglas.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated: configs/razglas.yaml")
		return
	}

	if err := run(context.Background(), "configs/razglas.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// TTS and API credentials come from the environment; a .env file is
	// optional in production.
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("RazglasGo started", "version", version.Version)

	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()
	plog := playlog.New(dbConn)

	tr := tracker.New()
	backoff := request.NewProviderBackoff(
		time.Duration(appCfg.Request.Backoff.BaseDelay),
		time.Duration(appCfg.Request.Backoff.MaxDelay),
	)
	reqClient := request.New(tr, time.Duration(appCfg.Request.Timeout), appCfg.Request.Retries, backoff)

	feedAdapter := feed.New(reqClient, appCfg.Feed.URL)
	tmplStore := templates.New(reqClient, appCfg.Templates.URL, appCfg.Templates.Language,
		time.Duration(appCfg.Templates.CacheTTL), tr)

	aiProv, err := buildAIProvider(appCfg, reqClient, tr)
	if err != nil {
		return fmt.Errorf("failed to initialize AI providers: %w", err)
	}

	resolver := texts.NewResolver(tmplStore, aiProv, tr, texts.Options{
		AICooldown:        time.Duration(appCfg.AI.Cooldown),
		AICacheTTL:        time.Duration(appCfg.AI.CacheTTL),
		SentimentSuppress: appCfg.AI.SentimentSuppress,
		PeakHours:         appCfg.AI.PeakHours,
	})

	audioMgr := audio.New(appCfg.Audio)
	defer audioMgr.Shutdown()
	if err := audioMgr.StartMusic(); err != nil {
		slog.Warn("Background music unavailable", "error", err)
	}

	speaker := tts.NewSpeaker(edgetts.NewProvider(tr), audioMgr,
		appCfg.TTS.EdgeTTS.VoiceID, appCfg.TTS.WorkDir)

	assets := pipeline.NewAssetStore(reqClient, appCfg.Audio.AssetBaseURL, assetCacheDir)
	pl := pipeline.New(appCfg.Audio, audioMgr, speaker, assets, plog)

	cancelledReg := cancelled.New(appCfg.Cancelled, resolver, pl)
	eng := engine.New(appCfg.Engine, resolver, cancelledReg)
	emergencyReg := emergency.New()

	// Startup verification. The feed is the one upstream the engine cannot
	// run without; everything else degrades (templates fall back to builtin
	// text, assets fall back to speech, AI falls back to templates).
	probes := []probe.Probe{
		{Name: "Flight Feed", Check: feedAdapter.HealthCheck, Critical: true},
		{Name: "Template Store", Check: tmplStore.HealthCheck},
		{Name: "AI Providers", Check: aiProv.HealthCheck},
		{Name: "Audio Assets", Check: assets.HealthCheck},
	}
	if err := probe.AnalyzeResults(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	sched := core.NewScheduler(time.Duration(appCfg.Ticker.SchedulerLoop))
	fetchJob := core.NewFetchCycleJob(feedAdapter, eng, pl, time.Duration(appCfg.Feed.PollInterval))
	sched.AddJob(fetchJob)
	sched.AddJob(core.NewEmergencyTickJob(emergencyReg, pl, emergencyTickRate))
	if appCfg.Safety.Enabled {
		sched.AddJob(core.NewSafetyJob(pl, appCfg.Safety.Text, time.Duration(appCfg.Safety.Interval)))
	}
	maxAge := time.Duration(appCfg.Engine.TrackingMaxAge)
	sched.AddJob(core.NewCleanupJob(time.Duration(appCfg.Engine.CleanupInterval), func(ctx context.Context) {
		eng.Cleanup(maxAge)
		resolver.PruneCooldowns(maxAge)
		if err := dbConn.PrunePlayLog(playLogRetention); err != nil {
			slog.Warn("Play log pruning failed", "error", err)
		}
	}))
	go sched.Start(ctx)

	err = runServer(ctx, appCfg, tr, eng, pl, cancelledReg, emergencyReg)

	// Drain in-flight announcements before tearing down audio and the DB.
	cancel()
	pl.Shutdown()
	cancelledReg.Stop()
	plog.Flush()

	return err
}

// buildAIProvider assembles the ordered failover chain from config.
func buildAIProvider(cfg *config.Config, reqClient *request.Client, tr *tracker.Tracker) (llm.Provider, error) {
	var chain []llm.Provider
	for _, name := range cfg.AI.Providers {
		switch name {
		case "http":
			chain = append(chain, httpai.New(reqClient, cfg.AI.HTTP.URL, time.Duration(cfg.AI.HTTP.Timeout)))
		case "gemini":
			c, err := gemini.NewClient(cfg.AI.Gemini, tr)
			if err != nil {
				return nil, fmt.Errorf("gemini: %w", err)
			}
			chain = append(chain, c)
		default:
			return nil, fmt.Errorf("unknown AI provider %q", name)
		}
	}
	return failover.New(chain, tr)
}

func runServer(ctx context.Context, cfg *config.Config, tr *tracker.Tracker, eng *engine.Engine, pl *pipeline.Pipeline, cancelledReg *cancelled.Registry, emergencyReg *emergency.Registry) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	emergencyH := api.NewEmergencyHandler(emergencyReg)
	statsH := api.NewStatsHandler(tr, eng, pl, cancelledReg, emergencyReg, cfg.AI.Providers)

	srv := api.NewServer(cfg.Server.Address, emergencyH, statsH, shutdownFunc)
	srv.Handler = loggingMiddleware(srv.Handler)

	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
