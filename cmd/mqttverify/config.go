package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/coregrid/mqttverify/verifyerr"
)

// Config is the parsed, validated CLI configuration, per spec.md §6's
// flag table.
type Config struct {
	PublishURI        string
	SubscribeURI      string
	Publishers        int
	FrequencyHz       float64
	LengthSeconds     float64
	Topic             string
	InitialTimeout    time.Duration
	ReconnectInterval *time.Duration
	Parameters        map[string]string
}

// parameterList collects repeated --parameter flag occurrences.
type parameterList []string

func (p *parameterList) String() string { return strings.Join(*p, ",") }

func (p *parameterList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

// lookupEnvFunc mirrors os.LookupEnv's signature so tests can supply a
// fake environment instead of mutating the process's real one.
type lookupEnvFunc func(key string) (string, bool)

func envDefault(lookup lookupEnvFunc, key, fallback string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return fallback
}

// ParseConfig parses args (excluding the program name) and builds a
// Config. Flag values fall back to environment bindings, then to the
// hardcoded defaults in spec.md §6's table — an explicit flag always
// wins over both. output receives flag.FlagSet's usage text.
func ParseConfig(args []string, lookup lookupEnvFunc, output io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("mqttverify", flag.ContinueOnError)
	fs.SetOutput(output)

	var params parameterList
	fs.Var(&params, "parameter", "Seed the root context with K=V (repeatable)")

	publishURI := fs.String("publish-uri", envDefault(lookup, "PUBLISH_URI", ""), "Broker URI for publishers")
	subscribeURI := fs.String("subscribe-uri", envDefault(lookup, "SUBSCRIBE_URI", ""), "Broker URI for subscribers")
	publishers := fs.Int("publishers", mustAtoi(envDefault(lookup, "PUBLISHERS", "1")), "Number of parallel publisher sources")
	frequency := fs.Float64("frequency", mustAtof(envDefault(lookup, "FREQUENCY", "1.0")), "Messages per second per source")
	length := fs.Float64("length", mustAtof(envDefault(lookup, "LENGTH", "10.0")), "Session length in seconds")
	topic := fs.String("topic", envDefault(lookup, "TOPIC", "1"), "Topic template")
	initialTimeout := fs.Float64("initial-timeout", mustAtof(envDefault(lookup, "INITIAL_TIMEOUT", "1.0")), "Seconds for the initial connect budget")
	reconnectInterval := fs.String("reconnect-interval", envDefault(lookup, "RECONNECT_INTERVAL", ""), "Seconds between reconnect attempts (unset disables reconnect)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	parsed := make(map[string]string, len(params))
	for _, raw := range params {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, &verifyerr.MalformedParameterError{Raw: raw}
		}
		parsed[key] = value
	}

	cfg := &Config{
		PublishURI:     *publishURI,
		SubscribeURI:   *subscribeURI,
		Publishers:     *publishers,
		FrequencyHz:    *frequency,
		LengthSeconds:  *length,
		Topic:          *topic,
		InitialTimeout: time.Duration(*initialTimeout * float64(time.Second)),
		Parameters:     parsed,
	}

	if *reconnectInterval != "" {
		seconds, err := strconv.ParseFloat(*reconnectInterval, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --reconnect-interval %q: %w", *reconnectInterval, err)
		}
		d := time.Duration(seconds * float64(time.Second))
		cfg.ReconnectInterval = &d
	}

	return cfg, nil
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func mustAtof(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
