package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"sluice/internal/config"
	"sluice/internal/supervisorrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override configured log level")
	development := flag.Bool("dev", false, "enable development logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version())
		return
	}

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	opts := supervisorrun.Options{
		LogLevel:    *logLevel,
		Development: *development,
	}
	if err := supervisorrun.Run(context.Background(), cfg, opts); err != nil {
		// The failure is already logged with context by the runtime.
		os.Exit(1)
	}
}
