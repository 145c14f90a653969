package main

import (
	"flag"
	"fmt"
	"os"

	"jss/internal/config"
	"jss/internal/driver"
	"jss/internal/logger"
	"jss/pkg/color"

	"github.com/charmbracelet/log"
)

// Main entry point for the jss interpreter.
func main() {
	var (
		help       bool
		configFile string
		flags      config.Config
	)

	flag.BoolVar(&help, "h", false, "Show help")
	flag.BoolVar(&flags.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&flags.NoColor, "n", false, "No color")
	flag.BoolVar(&flags.Disassemble, "d", false, "Print bytecode before running")
	flag.StringVar(&flags.Frontend, "f", config.FrontendJSS, "Front end (jss, starlark)")
	flag.IntVar(&flags.MaxSteps, "s", 0, "Maximum instructions to execute (0 = unlimited)")
	flag.StringVar(&configFile, "config", "", "Config file (.toml, .yaml); defaults to jss.toml or jss.yaml if present")

	flag.Parse()
	args := flag.Args()

	if help {
		fmt.Printf("Usage: %s [options] <file>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	cfg, err := loadConfig(configFile, flags)

	logger.Init(cfg.Verbose, cfg.NoColor)
	if err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}

	if cfg.NoColor {
		color.EnableColor(false)
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	d := driver.Driver{
		Verbose:     cfg.Verbose,
		NoColor:     cfg.NoColor,
		Disassemble: cfg.Disassemble,
		Frontend:    cfg.Frontend,
		MaxSteps:    cfg.MaxSteps,
		SourceFile:  args[0],
	}

	if err := d.Run(); err != nil {
		log.Fatal("Execution failed", "error", err)
	}
}

// loadConfig reads the config file, if any, and overlays the flags that were
// set explicitly on the command line.
func loadConfig(path string, flags config.Config) (config.Config, error) {
	cfg := config.Default()

	if path == "" {
		path = config.Find(".")
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return flags, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			cfg.Verbose = flags.Verbose
		case "n":
			cfg.NoColor = flags.NoColor
		case "d":
			cfg.Disassemble = flags.Disassemble
		case "f":
			cfg.Frontend = flags.Frontend
		case "s":
			cfg.MaxSteps = flags.MaxSteps
		}
	})

	return cfg, cfg.Validate()
}
