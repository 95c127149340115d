package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/damagebot/core/config"
	coretelegram "github.com/m3rciful/damagebot/core/telegram"
)

type stubConfig struct{ cfg *coreconfig.Config }

func (s stubConfig) CoreConfig() *coreconfig.Config { return s.cfg }

type stubApp struct{ stopped *bool }

func (a stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStop: func(context.Context, coretelegram.Runtime) error {
			*a.stopped = true
			return nil
		},
	}, nil
}

func TestRunWiresHooks(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	var (
		gotPath   = "unset"
		stopped   bool
		loggerOff bool
	)
	err := Run(Options{
		LoadConfig: func(path string) (ConfigCarrier, error) {
			gotPath = path
			return stubConfig{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) {
			return stubApp{stopped: &stopped}, nil
		},
		ShutdownLogger: func() error {
			loggerOff = true
			return nil
		},
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotPath != "" {
		t.Fatalf("config path = %q, want empty", gotPath)
	}
	if !stopped || !loggerOff {
		t.Fatalf("stopped=%v loggerOff=%v", stopped, loggerOff)
	}
}

func TestRunBootstrapError(t *testing.T) {
	err := Run(Options{
		LoadConfig: func(string) (ConfigCarrier, error) {
			return stubConfig{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) {
			return nil, errors.New("db down")
		},
	})
	if err == nil {
		t.Fatal("expected bootstrap error")
	}
}

func TestRunRequiresLoaders(t *testing.T) {
	if err := Run(Options{}); err == nil {
		t.Fatal("expected error without LoadConfig")
	}
}
