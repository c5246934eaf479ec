// Command vitals runs the camera-PPG vitals pipeline against a capture board,
// a recording or a synthetic source, and serves the results over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/vitals.report/internal/db"
	"github.com/banshee-data/vitals.report/internal/monitoring"
	"github.com/banshee-data/vitals.report/internal/version"
)

var (
	listen          = flag.String("listen", ":8080", "HTTP listen address")
	grpcListen      = flag.String("grpc-listen", "", "gRPC health listen address (disabled when empty)")
	port            = flag.String("port", "/dev/ttyACM0", "Capture board serial port")
	baud            = flag.Int("baud", 0, "Serial baud rate (0 uses the board default)")
	rateHz          = flag.Int("rate", 30, "Frame rate requested from the capture board")
	devMode         = flag.Bool("dev", false, "Use a synthetic capture board instead of the serial port")
	devScene        = flag.String("dev-scene", "finger", "Synthetic scene in dev mode: finger, led, metal or dark")
	devBPM          = flag.Float64("dev-bpm", 72, "Synthetic heart rate in dev mode")
	replayPath      = flag.String("replay", "", "Replay a JSONL frame recording instead of reading the serial port")
	replayRate      = flag.Float64("replay-rate", 30, "Replay pace in frames per second (0 replays unpaced)")
	dbPath          = flag.String("db", "vitals.db", "SQLite session database (empty disables persistence)")
	tuningPath      = flag.String("config", "", "Tuning JSON overriding config/tuning.defaults.json")
	persistInterval = flag.Duration("persist-interval", time.Second, "Frame-time gap between persisted snapshots")
	natsURL         = flag.String("nats", "", "NATS server URL for snapshot publishing")
	natsSubject     = flag.String("nats-subject", "vitals.snapshot", "NATS subject")
	mqttBroker      = flag.String("mqtt", "", "MQTT broker host:port for snapshot publishing")
	mqttTopic       = flag.String("mqtt-topic", "vitals/snapshot", "MQTT topic")
	mqttClientID    = flag.String("mqtt-client-id", "vitals-report", "MQTT client ID")
	encoding        = flag.String("encoding", "json", "Published payload encoding: json or proto")
	debugLog        = flag.String("debug-log", "", "Write diagnostic logs to this file ('-' for stderr)")
	traceLog        = flag.Bool("trace", false, "Include per-tick trace logs in the debug log")
	showVersion     = flag.Bool("version", false, "Print version and exit")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: vitals [flags]\n       vitals migrate <command>\n\nFlags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("vitals"))
		return
	}

	if flag.NArg() > 0 && flag.Arg(0) == "migrate" {
		if *dbPath == "" {
			log.Fatal("migrate requires -db")
		}
		if err := db.RunMigrateCommand(flag.Args()[1:], *dbPath, os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}
	if flag.NArg() > 0 {
		usage()
		os.Exit(2)
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	closeLogs, err := configureLogging(*debugLog, *traceLog)
	if err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}
	defer closeLogs()

	monitoring.Logf("starting %s", version.String("vitals"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("vitals: %v", err)
	}
	monitoring.Logf("shut down cleanly")
}
