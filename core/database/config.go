package database

import (
	"fmt"
	"net/url"

	coreconfig "github.com/m3rciful/damagebot/core/config"
)

// Config holds the journal connection settings.
type Config = coreconfig.DatabaseConfig

// connDSN renders cfg as a lib/pq keyword/value connection string.
func connDSN(cfg Config) string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		quoteDSN(cfg.User), quoteDSN(cfg.Password), quoteDSN(cfg.Host), quoteDSN(cfg.Port), quoteDSN(cfg.Name), quoteDSN(cfg.SSLMode),
	)
}

// migrateURL renders cfg as the postgres:// URL golang-migrate expects.
func migrateURL(cfg Config) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// quoteDSN single-quotes values that lib/pq would otherwise split on.
func quoteDSN(v string) string {
	if v == "" {
		return "''"
	}
	needs := false
	for _, r := range v {
		if r == ' ' || r == '\'' || r == '\\' {
			needs = true
			break
		}
	}
	if !needs {
		return v
	}
	out := make([]rune, 0, len(v)+2)
	out = append(out, '\'')
	for _, r := range v {
		if r == '\'' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}
