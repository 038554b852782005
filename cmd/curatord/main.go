// Command curatord runs the file organization daemon in the foreground.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"curator/internal/config"
	"curator/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, resolvedPath, _, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "curatord: %v\n", err)
		os.Exit(1)
	}

	err = daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel:   *logLevel,
		ConfigPath: resolvedPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "curatord: %v\n", err)
		os.Exit(1)
	}
}
