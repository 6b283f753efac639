package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/retromusic/storefront/app/providers"
	"github.com/retromusic/storefront/config"
	"github.com/retromusic/storefront/pkg/logger"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func loadSettings() (*config.Settings, error) {
	s, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	logger.Setup(s.App.Env, s.App.LogLevel, os.Stdout)
	return s, nil
}

func boot(ctx context.Context) (*providers.Container, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return providers.Boot(ctx, s)
}
