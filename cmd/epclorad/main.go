package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v2"
	log "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/namsral/flag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/ingest"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/metrics"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/pipeline"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/profile"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/storage"
	badgerstore "github.com/Hamza-Khrissi/Testing-LoRaWAN/storage/badger"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/web"
)

const appName = "epclorad"

var (
	version = "no version from LDFLAGS"

	profileName  = flag.String("profile", "eu868-sf12", "radio profile name")
	profilesPath = flag.String("profilesPath", "", "TOML file with extra radio profiles")
	spreadFactor = flag.Int("spreadFactor", 0, "override the profile spread factor (7-12)")
	bandwidthKHz = flag.Int("bandwidthKHz", 0, "override the profile bandwidth in kHz (125/250/500)")
	codingRate   = flag.Int("codingRate", 0, "override the profile coding rate (1-4 for 4/5-4/8)")
	minMatch     = flag.Int("minMatch", 6, "clustering similarity threshold in character positions")

	watchDir = flag.String("watchDir", "", "drop directory to watch for tag files, disabled if empty")
	dbPath   = flag.String("dbPath", "runs.db", "DB path")

	httpMetricsPort = flag.Int("httpMetricsPort", 8888, "http port")
	httpAPIPort     = flag.Int("httpAPIPort", 9201, "http API port")
	healthPort      = flag.Int("healthPort", 6666, "grpc health port")

	httpServer        *http.Server
	grpcHealthServer  *grpc.Server
	httpMetricsServer *http.Server
)

func main() {
	flag.Parse()

	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))
	logger = log.With(logger, "caller", log.DefaultCaller, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "app", appName)
	logger = level.NewFilter(logger, level.AllowAll())

	stdlog.SetOutput(log.NewStdlibAdapter(logger))

	level.Info(logger).Log("msg", "Starting app", "version", version)

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)

	// catch termination
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// radio profile
	profiles, err := profile.Load(*profilesPath)
	if err != nil {
		level.Error(logger).Log("msg", "failed to load profiles", "error", err, "path", *profilesPath)
		os.Exit(2)
	}
	prof, ok := profiles[*profileName]
	if !ok {
		level.Error(logger).Log("msg", "unknown profile", "profile", *profileName)
		os.Exit(2)
	}
	params := prof.Params()
	if *spreadFactor != 0 {
		params.SpreadFactor = *spreadFactor
	}
	if *bandwidthKHz != 0 {
		params.BandwidthKHz = *bandwidthKHz
	}
	if *codingRate != 0 {
		params.CodingRate = *codingRate
	}
	if err := params.Validate(); err != nil {
		level.Error(logger).Log("msg", "invalid modulation parameters", "error", err)
		os.Exit(2)
	}
	level.Info(logger).Log("msg", "modulation configured",
		"profile", *profileName,
		"sf", params.SpreadFactor,
		"bw_khz", params.BandwidthKHz,
		"cr", params.CodingRate,
		"max_payload", params.MaxPayload(),
		"members_per_frame", params.MaxMembersPerFrame())

	// Badger
	opts := badger.DefaultOptions(*dbPath)
	opts.Logger = nil

	bdb, err := badger.Open(opts)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open DB", "error", err, "path", *dbPath)
		os.Exit(2)
	}

	store := &badgerstore.Store{DB: bdb}

	// gRPC Health Server
	healthServer := health.NewServer()
	g.Go(func() error {
		grpcHealthServer = grpc.NewServer(
			grpc.KeepaliveParams(keepalive.ServerParameters{MaxConnectionAge: 2 * time.Minute}),
		)

		healthpb.RegisterHealthServer(grpcHealthServer, healthServer)

		haddr := fmt.Sprintf(":%d", *healthPort)
		hln, err := net.Listen("tcp", haddr)
		if err != nil {
			level.Error(logger).Log("msg", "gRPC Health server: failed to listen", "error", err)
			os.Exit(2)
		}
		level.Info(logger).Log("msg", fmt.Sprintf("gRPC health server serving at %s", haddr))
		return grpcHealthServer.Serve(hln)
	})

	// web server metrics
	g.Go(func() error {
		httpMetricsServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", *httpMetricsPort),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		level.Info(logger).Log("msg", fmt.Sprintf("HTTP Metrics server serving at :%d", *httpMetricsPort))

		// Register Prometheus metrics handler.
		http.Handle("/metrics", promhttp.Handler())

		if err := httpMetricsServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}

		return nil
	})

	// API server
	g.Go(func() error {
		cfg := web.Config{
			Params:   params,
			MinMatch: *minMatch,
		}
		s := web.NewServer(appName, logger, store, cfg)

		r := mux.NewRouter()
		r.HandleFunc("/api/runs", s.CreateRun).Methods(http.MethodPost)
		r.HandleFunc("/api/runs", s.RunsQuery).Methods(http.MethodGet)
		r.HandleFunc("/api/runs/{id}", s.RunQuery).Methods(http.MethodGet)
		r.HandleFunc("/api/runs/{id}", s.DeleteRun).Methods(http.MethodDelete)
		r.HandleFunc("/api/runs/{id}/frames", s.FramesQuery).Methods(http.MethodGet)
		r.HandleFunc("/api/airtime", s.AirtimeQuery).Methods(http.MethodGet)
		r.HandleFunc("/api/plan", s.PlanQuery).Methods(http.MethodGet)

		httpServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", *httpAPIPort),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			Handler: handlers.CompressHandler(
				handlers.CORS(handlers.AllowedOrigins([]string{"*"}))(r)),
		}
		level.Info(logger).Log("msg", fmt.Sprintf("HTTP API server serving at :%d", *httpAPIPort))

		healthServer.SetServingStatus(fmt.Sprintf("grpc.health.v1.%s", appName), healthpb.HealthCheckResponse_SERVING)

		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}

		return nil
	})

	// drop directory watcher
	if *watchDir != "" {
		g.Go(func() error {
			proc, err := pipeline.New(logger, params, pipeline.Config{
				MinMatch: *minMatch,
				Events:   pipeline.MultiEvents(pipeline.LogEvents{Logger: logger}, pipeline.MetricsEvents{}),
			})
			if err != nil {
				return err
			}

			w := ingest.NewWatcher(logger, *watchDir, func(path string, tags []string) {
				rep, err := proc.Process(tags)
				if err != nil {
					level.Error(logger).Log("msg", "can't process tag file", "path", path, "error", err)
					metrics.ErrorCounter.Inc()
					return
				}
				metrics.TagsValidatedCounter.Add(float64(rep.ValidTags))
				metrics.TagsRejectedCounter.Add(float64(len(rep.RejectedTags)))
				metrics.RunsProcessedCounter.Inc()

				run := storage.RunFromReport(time.Now(), params, rep)
				if err := store.StoreRun(run); err != nil {
					level.Error(logger).Log("msg", "can't store run", "path", path, "error", err)
					metrics.ErrorCounter.Inc()
				}
			})
			return w.Run(ctx)
		})
	}

	select {
	case <-interrupt:
		cancel()
		break
	case <-ctx.Done():
		break
	}

	level.Warn(logger).Log("msg", "received shutdown signal")

	healthServer.SetServingStatus(fmt.Sprintf("grpc.health.v1.%s", appName), healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpMetricsServer != nil {
		_ = httpMetricsServer.Shutdown(shutdownCtx)
	}

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if grpcHealthServer != nil {
		grpcHealthServer.GracefulStop()
	}

	if err := bdb.Close(); err != nil {
		level.Error(logger).Log("msg", "can't close DB", "error", err)
	}

	err = g.Wait()
	if err != nil {
		level.Error(logger).Log("msg", "server returning an error", "error", err)
		os.Exit(2)
	}
}
