package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/common/version"

	"flowtagger/internal/aggregate"
	"flowtagger/internal/collector"
	"flowtagger/internal/config"
	"flowtagger/internal/datadir"
	"flowtagger/internal/flowlog"
	"flowtagger/internal/logging"
	"flowtagger/internal/lookup"
	"flowtagger/internal/protocols"
	"flowtagger/internal/report"
)

const program = "flowtagger"

// Run executes one tagging run and returns the process exit code. Log output
// goes to stderr.
func Run(cfg config.Config) int {
	return run(cfg, os.Stdout, os.Stderr)
}

func run(cfg config.Config, stdout, stderr io.Writer) int {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logging.Info
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		format = logging.Plain
	}
	log := logging.New(stderr, level, format)

	if cfg.ShowVersion {
		fmt.Fprintln(stdout, version.Print(program))
		return 0
	}

	if err := Pipeline(cfg, log); err != nil {
		log.Error(err.Error())
		return 1
	}
	return 0
}

// Pipeline runs the stages in order: load protocol table, load lookup table,
// parse flow logs, aggregate, write report. The first failing stage aborts
// the run; the returned error reads "<stage>: <cause>".
func Pipeline(cfg config.Config, log *logging.Logger) error {
	dir := datadir.Dir{Root: cfg.BasePath}

	protos, err := protocols.Load(dir, cfg.ProtocolFile)
	if err != nil {
		return fmt.Errorf("load protocol table: %w", err)
	}
	log.Info("loaded protocol table", "path", dir.Path(cfg.ProtocolFile), "protocols", len(protos))

	rules, err := lookup.Load(dir, cfg.LookupFile)
	if err != nil {
		return fmt.Errorf("load lookup table: %w", err)
	}
	log.Info("loaded lookup table", "path", dir.Path(cfg.LookupFile), "rules", len(rules))

	parser := &flowlog.Parser{
		Protocols:     protos,
		SkipMalformed: cfg.SkipMalformed,
		Logger:        log,
	}
	records, stats, err := parser.ParseFiles(dir, cfg.FlowLogs)
	if err != nil {
		return fmt.Errorf("parse flow log: %w", err)
	}
	log.Info("parsed flow log",
		"files", stats.Files,
		"lines", stats.Lines,
		"records", stats.Records,
		"headers", stats.Headers,
		"blank", stats.Blank,
		"malformed", stats.Malformed,
	)

	counts := aggregate.Aggregate(records, rules)
	log.Info("aggregated flow records",
		"records", counts.Records(),
		"tags", counts.NumTags(),
		"port_protocols", counts.NumPortProtocols(),
		"untagged", counts.Tag(aggregate.Untagged),
	)

	if err := report.WriteFile(dir, cfg.OutputFile, counts); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Info("wrote report", "path", dir.Path(cfg.OutputFile))

	if cfg.MetricsTextfile == "" {
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(versioncollector.NewCollector(program))

	rc := collector.NewRunCollector()
	rc.MustRegister(reg)
	rc.Apply(collector.Summary{
		Counts:     counts,
		Parse:      stats,
		Rules:      len(rules),
		Protocols:  len(protos),
		FinishedAt: float64(time.Now().Unix()),
	})

	path := dir.Path(cfg.MetricsTextfile)
	if err := collector.WriteTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	log.Info("wrote metrics textfile", "path", path)

	return nil
}
