package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Config holds runtime configuration for a tagging run.
type Config struct {
	ConfigFile string

	BasePath      string
	ProtocolFile  string
	LookupFile    string
	FlowLogs      multiString
	OutputFile    string
	SkipMalformed bool

	MetricsTextfile string

	LogLevel  string
	LogFormat string

	ShowHelp    bool
	ShowVersion bool
}

// fileConfig is the YAML layout of -config.file. Unset keys keep the flag
// defaults.
type fileConfig struct {
	BasePath        *string  `yaml:"base_path"`
	ProtocolFile    *string  `yaml:"protocol_file"`
	LookupFile      *string  `yaml:"lookup_file"`
	FlowLogs        []string `yaml:"flow_logs"`
	OutputFile      *string  `yaml:"output_file"`
	SkipMalformed   *bool    `yaml:"skip_malformed"`
	MetricsTextfile *string  `yaml:"metrics_textfile"`
	LogLevel        *string  `yaml:"log_level"`
	LogFormat       *string  `yaml:"log_format"`
}

const defaultFlowLog = "flow.log"

// ParseFlags parses the process command line.
func ParseFlags() (Config, error) {
	return Parse(flag.CommandLine, os.Args[1:])
}

// Parse registers all flags on fs and parses args. Values from -config.file
// apply first; flags given explicitly on the command line override them.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config

	fs.StringVar(&cfg.ConfigFile, "config.file", "", "Optional YAML file with the same settings as the flags below.")

	fs.StringVar(&cfg.BasePath, "path.base", ".", "Directory that relative input and output paths are resolved against.")
	fs.StringVar(&cfg.ProtocolFile, "protocol.file", "protocol.csv", "CSV mapping protocol numbers to names (columns: Decimal, Keyword).")
	fs.StringVar(&cfg.LookupFile, "lookup.file", "lookup.csv", "CSV mapping port/protocol to tags (columns: dstport, protocol, tag).")
	fs.Var(&cfg.FlowLogs, "flowlog.file", "Flow log file or glob pattern (** allowed). Repeatable; files are read in order. (default \""+defaultFlowLog+"\")")
	fs.StringVar(&cfg.OutputFile, "output.file", "output.csv", "Report file to write.")
	fs.BoolVar(&cfg.SkipMalformed, "flowlog.skip-malformed", false, "Skip flow log lines with fewer than 8 fields instead of failing the run.")

	fs.StringVar(&cfg.MetricsTextfile, "metrics.textfile", "", "If set, write run metrics to this file in Prometheus text format.")

	fs.StringVar(&cfg.LogLevel, "log.level", "info", "Only log messages with the given severity or above. One of: [debug, info, warn, error]")
	fs.StringVar(&cfg.LogFormat, "log.format", "plain", "Output format of log messages. One of: [plain, logfmt, json, color]")

	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help and exit.")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help and exit.")

	// Aliases.
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show application version and exit.")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show application version and exit.")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.ShowHelp || cfg.ShowVersion {
		return cfg, nil
	}

	if cfg.ConfigFile != "" {
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

		if err := cfg.applyFile(cfg.ConfigFile, set); err != nil {
			return cfg, err
		}
	}

	if len(cfg.FlowLogs) == 0 {
		cfg.FlowLogs = append(cfg.FlowLogs, defaultFlowLog)
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyFile(path string, set map[string]bool) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.UnmarshalStrict(b, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString := func(flagName string, dst *string, v *string) {
		if v != nil && !set[flagName] {
			*dst = *v
		}
	}
	setString("path.base", &c.BasePath, fc.BasePath)
	setString("protocol.file", &c.ProtocolFile, fc.ProtocolFile)
	setString("lookup.file", &c.LookupFile, fc.LookupFile)
	setString("output.file", &c.OutputFile, fc.OutputFile)
	setString("metrics.textfile", &c.MetricsTextfile, fc.MetricsTextfile)
	setString("log.level", &c.LogLevel, fc.LogLevel)
	setString("log.format", &c.LogFormat, fc.LogFormat)

	if fc.SkipMalformed != nil && !set["flowlog.skip-malformed"] {
		c.SkipMalformed = *fc.SkipMalformed
	}
	if len(fc.FlowLogs) > 0 && !set["flowlog.file"] {
		c.FlowLogs = append(multiString(nil), fc.FlowLogs...)
	}

	return nil
}

// Validate reports settings a run cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ProtocolFile) == "" {
		errs = append(errs, errors.New("protocol file path is empty"))
	}
	if strings.TrimSpace(c.LookupFile) == "" {
		errs = append(errs, errors.New("lookup file path is empty"))
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		errs = append(errs, errors.New("output file path is empty"))
	}
	for _, p := range c.FlowLogs {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, errors.New("flow log path is empty"))
			break
		}
	}
	if len(c.FlowLogs) == 0 {
		errs = append(errs, errors.New("no flow log files configured"))
	}
	return errors.Join(errs...)
}

type multiString []string

func (m *multiString) String() string {
	if m == nil {
		return ""
	}
	return strings.Join(*m, ",")
}

func (m *multiString) Set(value string) error {
	*m = append(*m, value)
	return nil
}
