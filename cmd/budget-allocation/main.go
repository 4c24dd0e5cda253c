package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iwvelando/budget-allocation/internal/allocation"
	"github.com/iwvelando/budget-allocation/internal/config"
	"github.com/iwvelando/budget-allocation/internal/profiles"
	"github.com/iwvelando/budget-allocation/pkg/constants"
	"github.com/iwvelando/budget-allocation/pkg/output"
	"github.com/iwvelando/budget-allocation/pkg/textmatch"
	"github.com/iwvelando/budget-allocation/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
	case "json":
		zapConfig = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)

	// Reports go to stdout, so logs default to stderr.
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

// loadConfiguration reads the config file. The default path may be absent,
// in which case built-in defaults apply; an explicitly named file must exist.
func loadConfiguration(path string, explicit bool) (*config.Configuration, error) {
	if !explicit {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.DefaultConfiguration(), nil
		}
	}
	return config.LoadConfiguration(path)
}

// loadRegistry returns the embedded profile registry unless a file is configured.
func loadRegistry(path string) (*profiles.Registry, error) {
	if path == "" {
		return profiles.Default()
	}
	return profiles.LoadFile(path)
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	planLocation := flag.String("plan", constants.DefaultPlanFile, "path to the plan to preview")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serve := flag.Bool("serve", false, "run the HTTP API instead of previewing a plan")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	conf, err := loadConfiguration(*configLocation, flagWasSet("config"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	registry, err := loadRegistry(conf.Profiles.File)
	if err != nil {
		logger.Fatal("failed to load allocation profiles",
			zap.String("op", "main"),
			zap.String("file", conf.Profiles.File),
			zap.Error(err),
		)
	}
	engine := allocation.NewEngine(logger, textmatch.DefaultAliasTable())

	if *serve {
		if err := runServer(logger, conf, engine, registry); err != nil {
			logger.Fatal("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	report, err := previewPlan(logger, engine, registry, *planLocation)
	if err != nil {
		logger.Fatal("failed to build allocation preview",
			zap.String("op", "main"),
			zap.String("plan", *planLocation),
			zap.Error(err),
		)
	}

	if err := output.Write(os.Stdout, outputFormat, report); err != nil {
		logger.Fatal("failed to write report",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// previewPlan loads a plan file and builds its allocation report.
func previewPlan(logger *zap.Logger, engine *allocation.Engine, registry *profiles.Registry, path string) (output.Report, error) {
	plan, err := config.LoadPlan(path)
	if err != nil {
		return output.Report{}, err
	}

	warnings, err := plan.Validate()
	if err != nil {
		return output.Report{}, err
	}
	for _, warning := range warnings {
		logger.Warn("Plan warning: "+warning,
			zap.String("op", "main.previewPlan"),
		)
	}

	profile, err := registry.Resolve(plan.ProfileID, plan.Classification)
	if err != nil {
		return output.Report{}, err
	}
	lines, err := plan.ToCostLines()
	if err != nil {
		return output.Report{}, err
	}

	preview := engine.BuildPreview(profile, lines, plan.TotalBudget, plan.ToStakeholders())
	logger.Debug("preview built",
		zap.String("op", "main.previewPlan"),
		zap.String("profile", profile.ID),
		zap.Int("lines", len(preview)),
	)
	return output.NewReport(profile, plan.TotalBudget, preview), nil
}
