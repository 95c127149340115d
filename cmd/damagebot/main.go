// Command damagebot runs the building damage evaluation Telegram bot.
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/m3rciful/damagebot/bot"
	"github.com/m3rciful/damagebot/core/bootstrap"
	"github.com/m3rciful/damagebot/core/cmd"
	coreconfig "github.com/m3rciful/damagebot/core/config"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded .env")
	}

	err := cmd.Run(cmd.Options{
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return coreconfig.Load(path)
		},
		Bootstrap: func(cc cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg := cc.CoreConfig()
			infra, err := bootstrap.Run(bootstrap.Options{Config: cfg})
			if err != nil {
				return nil, err
			}
			return newApp(cfg, infra)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}

// newApp builds the bot on top of infra and releases infra when that fails.
func newApp(cfg *coreconfig.Config, infra *bootstrap.Result) (*bot.App, error) {
	app, err := bot.New(cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return app, nil
}
