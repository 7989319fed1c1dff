package storage

import (
	"errors"
	"strings"

	logx "castbot/pkg/logx"
)

// Open initializes the SQLite store at cfg.Path, creating the database file
// and parent directory when missing. Failure here is fatal for the caller:
// the bot cannot run without its subscriber table.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("storage path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return openSQLite(cfg, log)
}
