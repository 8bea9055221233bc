// Package cli implements the interactive vault client: an authenticated
// read-eval-print loop over the record store and the share service.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/digivault/digivault/internal/config"
	"github.com/digivault/digivault/internal/keymanager"
	"github.com/digivault/digivault/internal/logging"
	"github.com/digivault/digivault/internal/share"
	"github.com/digivault/digivault/internal/storage"
	"github.com/digivault/digivault/internal/vault"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	auth     *keymanager.Manager
	vault    *vault.Store
	shares   *share.Service
	destruct *vault.SelfDestructPolicy

	sess   *keymanager.Session
	reader *bufio.Reader
	out    *os.File
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	s := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	logger := logging.NewSlogLogger(s)

	store, err := storage.Open(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	auth := keymanager.NewManager(store, c.SessionTTL)
	vaultStore := vault.NewStore(store, auth, logger)
	shares := share.NewService(store, vaultStore, auth, logger)

	return &App{
		config:   c,
		logger:   logger,
		auth:     auth,
		vault:    vaultStore,
		shares:   shares,
		destruct: vault.NewSelfDestructPolicy(vaultStore),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.sess != nil
}

// status feeds the REPL prompt.
func (a *App) status() string {
	if a.sess == nil {
		return "anonymous"
	}
	return a.sess.Email
}

func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "DigiVault CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
}
