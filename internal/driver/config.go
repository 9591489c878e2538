package driver

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is spec.md §6's CLI surface, consumed by the driver. It is
// populated three ways, layered like the teacher's CLI reads its one
// positional argument: an optional project file loaded first, then
// flags, which always override file values (SPEC_FULL.md §0).
type Config struct {
	Verify            bool     `yaml:"verify"`
	IRDumpStderr      bool     `yaml:"irDumpStderr"`
	DiagDumpStderr    bool     `yaml:"diagDumpStderr"`
	PrintBefore       []string `yaml:"printBefore"`
	PrintAfter        []string `yaml:"printAfter"`
	EnableGpuPipeline bool     `yaml:"enableGpuPipeline"`
	OptLevel          int      `yaml:"optLevel"`
	Fastmath          bool     `yaml:"fastmath"`
	ForceInline       bool     `yaml:"forceInline"`
	MaxConcurrency    uint32   `yaml:"maxConcurrency"`
	DebugTypes        []string `yaml:"debugTypes"`
}

// DefaultConfig matches a plain compilation with no optimization and
// no GPU pipeline, the safest baseline for driver.Compile callers that
// don't need CLI parsing.
func DefaultConfig() Config {
	return Config{
		Verify:         true,
		MaxConcurrency: 1,
	}
}

// ParseFlags layers a Config the way the teacher's cmd/kanso-cli reads
// its arguments, generalized from a single positional path argument to
// a full flag set: an optional -config file is loaded first, then
// every flag explicitly passed on args overrides the matching file
// value. Returns the resulting Config plus the non-flag arguments
// (e.g. the source file path).
func ParseFlags(args []string, stderr *os.File) (Config, []string, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("plierc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "path to a YAML project config file")
	verify := fs.Bool("verify", cfg.Verify, "run the IR verifier before and between passes")
	irDumpStderr := fs.Bool("ir-dump-stderr", cfg.IRDumpStderr, "dump IR to stderr on failure")
	diagDumpStderr := fs.Bool("diag-dump-stderr", cfg.DiagDumpStderr, "dump accumulated diagnostics to stderr on failure")
	enableGpu := fs.Bool("enable-gpu", cfg.EnableGpuPipeline, "run the GPU lowering stage")
	optLevel := fs.Int("opt-level", cfg.OptLevel, "optimization level 0-3")
	fastmath := fs.Bool("fastmath", cfg.Fastmath, "allow fastmath-unsafe float rewrites")
	forceInline := fs.Bool("force-inline", cfg.ForceInline, "run the force-inline engine")
	maxConcurrency := fs.Uint("max-concurrency", uint(cfg.MaxConcurrency), "maximum concurrent module compilations")

	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	if *configPath != "" {
		fileCfg, err := loadConfigFile(*configPath)
		if err != nil {
			return Config{}, nil, fmt.Errorf("driver: loading %s: %w", *configPath, err)
		}
		cfg = fileCfg
	}

	// Every flag the caller actually passed overrides whatever the
	// config file (or the baseline default) set; flags never named on
	// the command line leave the file/default value alone.
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if explicit["verify"] {
		cfg.Verify = *verify
	}
	if explicit["ir-dump-stderr"] {
		cfg.IRDumpStderr = *irDumpStderr
	}
	if explicit["diag-dump-stderr"] {
		cfg.DiagDumpStderr = *diagDumpStderr
	}
	if explicit["enable-gpu"] {
		cfg.EnableGpuPipeline = *enableGpu
	}
	if explicit["opt-level"] {
		cfg.OptLevel = *optLevel
	}
	if explicit["fastmath"] {
		cfg.Fastmath = *fastmath
	}
	if explicit["force-inline"] {
		cfg.ForceInline = *forceInline
	}
	if explicit["max-concurrency"] {
		cfg.MaxConcurrency = uint32(*maxConcurrency)
	}

	if cfg.OptLevel < 0 || cfg.OptLevel > 3 {
		return Config{}, nil, fmt.Errorf("driver: opt-level must be 0-3, got %d", cfg.OptLevel)
	}

	return cfg, fs.Args(), nil
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
