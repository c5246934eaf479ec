package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/banshee-data/vitals.report/internal/api"
	"github.com/banshee-data/vitals.report/internal/config"
	"github.com/banshee-data/vitals.report/internal/db"
	"github.com/banshee-data/vitals.report/internal/framesource"
	"github.com/banshee-data/vitals.report/internal/monitoring"
	"github.com/banshee-data/vitals.report/internal/publish"
	"github.com/banshee-data/vitals.report/internal/serialmux"
	"github.com/banshee-data/vitals.report/internal/session"
	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
	"github.com/banshee-data/vitals.report/internal/vitals/synth"
)

func loadPipelineConfig() (pipeline.Config, error) {
	if *tuningPath == "" {
		return pipeline.DefaultConfig(), nil
	}
	tuning, err := config.LoadTuningConfig(*tuningPath)
	if err != nil {
		return pipeline.Config{}, err
	}
	monitoring.Logf("loaded tuning from %s", *tuningPath)
	return pipeline.ConfigFromTuning(tuning), nil
}

func openSinks() (publish.Sink, error) {
	enc, err := publish.ParseEncoding(*encoding)
	if err != nil {
		return nil, err
	}
	var sinks publish.Multi
	if *natsURL != "" {
		s, err := publish.ConnectNATS(*natsURL, *natsSubject, enc)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
		monitoring.Logf("publishing snapshots to NATS %s on %s", *natsURL, *natsSubject)
	}
	if *mqttBroker != "" {
		s, err := publish.ConnectMQTT(publish.MQTTOptions{
			Broker:   *mqttBroker,
			ClientID: *mqttClientID,
			Topic:    *mqttTopic,
			QoS:      0,
			Retained: true,
			Encoding: enc,
		})
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, s)
		monitoring.Logf("publishing snapshots to MQTT %s on %s", *mqttBroker, *mqttTopic)
	}
	return sinks, nil
}

// devLineSource returns a generator of capture-board lines for dev mode.
func devLineSource() (func() []byte, error) {
	kind, err := synth.ParseKind(*devScene)
	if err != nil {
		return nil, err
	}
	cfg := synth.DefaultConfig(kind)
	cfg.RateHz = float64(*rateHz)
	cfg.BPM = *devBPM
	cfg.StartMs = time.Now().UnixMilli()
	gen, err := synth.New(cfg)
	if err != nil {
		return nil, err
	}
	return func() []byte {
		line, err := l1frames.EncodeLine(gen.Next())
		if err != nil {
			return []byte("# " + err.Error())
		}
		return line
	}, nil
}

// openSource picks the frame source. The returned mux is nil for replays.
func openSource() (framesource.Source, serialmux.SerialMuxInterface, string, error) {
	if *replayPath != "" {
		data, err := os.ReadFile(*replayPath)
		if err != nil {
			return nil, nil, "", err
		}
		return framesource.ReplaySource{Reader: bytes.NewReader(data), RateHz: *replayRate}, nil, "replay:" + *replayPath, nil
	}

	var mux serialmux.SerialMuxInterface
	var name string
	if *devMode {
		next, err := devLineSource()
		if err != nil {
			return nil, nil, "", err
		}
		mux = serialmux.NewMockSerialMux(next, time.Second/time.Duration(*rateHz))
		name = "synth:" + *devScene
	} else {
		m, err := serialmux.NewRealSerialMux(*port, serialmux.PortOptions{BaudRate: *baud})
		if err != nil {
			return nil, nil, "", fmt.Errorf("failed to open capture board: %w", err)
		}
		mux = m
		name = "serial:" + *port
	}
	if err := mux.Initialise(*rateHz); err != nil {
		mux.Close()
		return nil, nil, "", fmt.Errorf("failed to initialise capture board: %w", err)
	}
	monitoring.Logf("capture board %s streaming at %d Hz", name, *rateHz)
	return framesource.SerialSource{Mux: mux}, mux, name, nil
}

func run(ctx context.Context) error {
	if *rateHz <= 0 {
		return fmt.Errorf("-rate must be positive")
	}

	pcfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}
	pipe, err := pipeline.New(pcfg)
	if err != nil {
		return err
	}

	var store *db.DB
	if *dbPath != "" {
		store, err = db.NewDB(*dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()
	}

	sink, err := openSinks()
	if err != nil {
		return err
	}
	defer sink.Close()

	source, mux, sourceName, err := openSource()
	if err != nil {
		return err
	}
	if mux != nil {
		defer mux.Close()
	}

	rcfg := session.Config{
		Source:          sourceName,
		PersistInterval: *persistInterval,
		Sink:            sink,
	}
	var apiStore api.Store
	if store != nil {
		rcfg.Store = store
		apiStore = store
	}
	runner := session.NewRunner(pipe, rcfg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mailbox := framesource.NewMailbox()
	var wg sync.WaitGroup

	if mux != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mux.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("failed to monitor serial port: %v", err)
			}
			log.Print("monitor routine terminated")
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer mailbox.Close()
		if err := source.Run(ctx, mailbox); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("frame source stopped: %v", err)
		}
	}()

	health := api.NewHealth(runner)
	wg.Add(1)
	go func() {
		defer wg.Done()
		health.Watch(ctx, time.Second)
	}()
	if *grpcListen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := health.ServeGRPC(ctx, *grpcListen); err != nil {
				log.Printf("gRPC health server: %v", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		serveHTTP(ctx, runner, apiStore, store, mux)
	}()

	// The runner ends when the source is exhausted (replays) or ctx is done.
	runErr := runner.Run(ctx, mailbox)
	if *replayPath != "" && runErr == nil {
		monitoring.Logf("replay complete after %d ticks; serving until interrupted", runner.Ticks())
		<-ctx.Done()
	}
	cancel()
	wg.Wait()
	return runErr
}

func serveHTTP(ctx context.Context, runner *session.Runner, apiStore api.Store, store *db.DB, mux serialmux.SerialMuxInterface) {
	httpMux := http.NewServeMux()

	// Admin debugging routes, reachable only over localhost or Tailscale.
	if store != nil {
		if err := store.AttachAdminRoutes(httpMux); err != nil {
			log.Printf("failed to attach database admin routes: %v", err)
		}
	}
	if mux != nil {
		mux.AttachAdminRoutes(httpMux)
	}

	httpMux.Handle("/api/", api.NewServer(runner, apiStore).ServeMux())
	httpMux.Handle("/metrics", api.MetricsHandler(api.NewMetricsRegistry(runner)))

	server := &http.Server{
		Addr:              *listen,
		Handler:           api.LoggingMiddleware(httpMux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		monitoring.Logf("HTTP listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}
