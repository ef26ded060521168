// Command mqttverify runs an end-to-end MQTT load and correctness test
// scenario: one publisher (driving N parameterised message sources)
// and one subscriber (verifying N session-filtered message counts)
// against the brokers named by --publish-uri/--subscribe-uri.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/coregrid/mqttverify/broker"
	"github.com/coregrid/mqttverify/executor"
)

func main() {
	os.Exit(run(os.Args[1:], os.LookupEnv, os.Stderr))
}

func run(args []string, lookup lookupEnvFunc, stderr io.Writer) int {
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	cfg, err := ParseConfig(args, lookup, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		logger.Error("invalid configuration", "error", err)
		return 1
	}

	if cfg.PublishURI == "" || cfg.SubscribeURI == "" {
		logger.Error("--publish-uri and --subscribe-uri are required")
		return 1
	}

	publishClient, err := broker.NewPahoClient(cfg.PublishURI, cfg.ReconnectInterval)
	if err != nil {
		logger.Error("invalid --publish-uri", "error", err)
		return 1
	}

	subscribeClient, err := broker.NewPahoClient(cfg.SubscribeURI, cfg.ReconnectInterval)
	if err != nil {
		logger.Error("invalid --subscribe-uri", "error", err)
		return 1
	}

	sc, err := buildScenario(cfg, publishClient, subscribeClient)
	if err != nil {
		logger.Error("invalid scenario", "error", err)
		return 1
	}

	exitCode := 0
	for outcome := range executor.Run(context.Background(), sc, logger) {
		kind := "publisher"
		if outcome.Kind == executor.SubscriberActor {
			kind = "subscriber"
		}

		if outcome.Err != nil {
			logger.Error("actor failed", "kind", kind, "index", outcome.Index, "error", outcome.Err)
			exitCode = 1
			continue
		}
		logger.Info("actor completed", "kind", kind, "index", outcome.Index)
	}

	return exitCode
}
