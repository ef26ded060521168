package main

import (
	"fmt"
	"strconv"

	"github.com/coregrid/mqttverify/analyzer"
	"github.com/coregrid/mqttverify/broker"
	"github.com/coregrid/mqttverify/expansion"
	"github.com/coregrid/mqttverify/scenario"
	"github.com/coregrid/mqttverify/source"
)

// fanAnalyzer runs every child analyzer against each message and
// renders Done only once every child has; it fails as soon as any
// child does. The two Analyzer kinds in package analyzer stay a closed
// set (spec.md §9); this is CLI-level composition over instances of
// them, not a third kind.
type fanAnalyzer struct {
	children []analyzer.Analyzer
	done     []bool
}

func newFanAnalyzer(children []analyzer.Analyzer) *fanAnalyzer {
	return &fanAnalyzer{children: children, done: make([]bool, len(children))}
}

func (f *fanAnalyzer) Analyze(msg *broker.Message) (analyzer.Verdict, error) {
	allDone := true
	for i, child := range f.children {
		if f.done[i] {
			continue
		}
		verdict, err := child.Analyze(msg)
		if err != nil {
			return analyzer.Continue, err
		}
		if verdict == analyzer.Done {
			f.done[i] = true
		} else {
			allDone = false
		}
	}
	if allDone {
		return analyzer.Done, nil
	}
	return analyzer.Continue, nil
}

// buildScenario wires exactly one publisher (cfg.Publishers sources)
// and one subscriber (cfg.Publishers filtered counters fanned into one
// sink), per spec.md §9 note (c): the scenario model stays general,
// only the CLI's construction is this specific.
func buildScenario(cfg *Config, publishClient, subscribeClient broker.Client) (scenario.Scenario, error) {
	topicTemplate, err := expansion.Precompile(cfg.Topic)
	if err != nil {
		return scenario.Scenario{}, err
	}

	root := expansion.Root()
	for k, v := range cfg.Parameters {
		root.Insert(k, v)
	}

	// total = floor(frequency * length), per spec.md §6 and
	// original_source/src/scenario.rs's truncating cast.
	total := int(cfg.FrequencyHz * cfg.LengthSeconds)

	sources := make([]*source.Source, cfg.Publishers)
	topics := make([]string, cfg.Publishers)
	sinks := make([]analyzer.Analyzer, cfg.Publishers)

	for i := 0; i < cfg.Publishers; i++ {
		idx := i + 1
		sessionID := strconv.Itoa(idx)

		scope := expansion.Sub(root)
		scope.Insert("publisher", fmt.Sprintf("p-%d", idx))

		topic, err := topicTemplate.Evaluate(scope)
		if err != nil {
			return scenario.Scenario{}, err
		}
		topics[i] = topic

		sources[i] = source.New(sessionID, topicTemplate, scope, total, cfg.FrequencyHz)
		sinks[i] = analyzer.NewSessionIdFilter(sessionID, analyzer.NewCountingAnalyzer(total))
	}

	connectOpts := scenario.ConnectOptions{
		ConnectTimeout:    cfg.InitialTimeout,
		ReconnectInterval: cfg.ReconnectInterval,
	}

	return scenario.Scenario{
		Publishers: []scenario.Publisher{
			{Client: publishClient, Options: connectOpts, Sources: sources},
		},
		Subscribers: []scenario.Subscriber{
			{
				Client:  subscribeClient,
				Options: connectOpts,
				Topics:  dedupTopics(topics),
				Sinks:   []analyzer.Analyzer{newFanAnalyzer(sinks)},
			},
		},
	}, nil
}

func dedupTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
