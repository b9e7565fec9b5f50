package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"dbchunk/cmd"
	"dbchunk/internal/config"
	"dbchunk/internal/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := buildLogger()
	if err != nil {
		os.Stderr.WriteString("dbchunk: " + err.Error() + "\n")
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sig {
			cmd.RequestInterrupt()
			cancel()
			if cmd.InterruptEscalated() {
				log.Warn("second interrupt received, exiting immediately")
				os.Exit(130)
			}
			log.Warn("interrupt requested — abandoning the current chunk, then pausing")
		}
	}()

	settings := config.Default()
	connection := config.Connection{
		Name:     getEnvString("DB_CONNECTION_NAME", "default"),
		Host:     getEnvString("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnvString("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
	}

	if err := cmd.Execute(ctx, connection, settings, log); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// buildLogger honors LOG_FILE, tee-ing every log line to that file on top of
// stdout, in addition to the LOG_LEVEL/LOG_FORMAT that always apply.
func buildLogger() (logger.Logger, error) {
	level := getEnvString("LOG_LEVEL", "info")
	format := getEnvString("LOG_FORMAT", "text")
	if file := os.Getenv("LOG_FILE"); file != "" {
		return logger.FileLogger(level, format, file)
	}
	return logger.New(level, format), nil
}

func getEnvString(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}
