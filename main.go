package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Exit codes: 0 success, 1 sync failure, 2 configuration error.
var exit = os.Exit

func main() {
	configFilePath := flag.String("configfile", "", "Configuration File Path")
	flag.Parse()

	_ = godotenv.Load() // best-effort

	appConfig, configErr := loadConfig(*configFilePath)
	if configErr != nil {
		fail(2, configErr.Error())
		return
	}
	configureLogging(appConfig.LogLevel, appConfig.LogFormat)

	log.Info("Config:")
	for _, line := range appConfig.ConfigStringArray() {
		log.Info(line)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncer, setupErr := newSyncerFromConfig(ctx, appConfig)
	if setupErr != nil {
		code := 1
		var cfgErr *ConfigError
		if errors.As(setupErr, &cfgErr) {
			code = 2
		}
		fail(code, setupErr.Error())
		return
	}

	if appConfig.Schedule != "" {
		if schedErr := runScheduled(ctx, syncer, appConfig.Schedule); schedErr != nil {
			fail(2, schedErr.Error())
		}
		return
	}

	report, syncErr := syncer.Run(ctx)
	if syncErr != nil {
		fail(1, fmt.Sprintf("fail to upload files: %s", syncErr))
		return
	}
	log.Info(report.String())
}

func newSyncerFromConfig(ctx context.Context, appConfig AppConfig) (*Syncer, error) {
	sc, err := appConfig.SyncConfig()
	if err != nil {
		return nil, err
	}
	client, err := appConfig.ClientFromConfig(ctx)
	if err != nil {
		return nil, err
	}

	var notifier Notifier
	if appConfig.Notify.Topic != "" {
		notifier, err = NewSNSNotifier(ctx, appConfig)
		if err != nil {
			return nil, fmt.Errorf("Error creating sns notifier: %w", err)
		}
	}

	return NewSyncer(client, sc, notifier), nil
}

// fail logs msg and exits. Under GitHub Actions it also emits an error
// annotation so the step shows the reason.
func fail(code int, msg string) {
	log.Error(msg)
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		fmt.Printf("::error::%s\n", msg)
	}
	exit(code)
}
