// contact-manager is a local-first personal address book.
//
// Usage:
//
//	contact-manager serve          Start the HTTP API with scheduled backups
//	contact-manager mcp            Start the MCP server (stdio transport)
//	contact-manager native-host    Speak the browser native-messaging protocol
//	contact-manager tui            Open the terminal UI
//	contact-manager add|get|list|update|delete|search|favorite
//	contact-manager export|import|clear|backup|backups|restore
//	contact-manager setup [target] Connect a browser or agent
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AbduSami-bK/contact-manager/internal/backup"
	"github.com/AbduSami-bK/contact-manager/internal/config"
	"github.com/AbduSami-bK/contact-manager/internal/logger"
	"github.com/AbduSami-bK/contact-manager/internal/nativehost"
	"github.com/AbduSami-bK/contact-manager/internal/slot"
	"github.com/AbduSami-bK/contact-manager/internal/store"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	// Browsers launch the host with their own arguments
	if nativehost.IsBrowserLaunch(os.Args[1:]) {
		root.SetArgs([]string{"native-host"})
	}
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app carries the state shared by every command.
type app struct {
	configPath string
	cfg        *config.Config
	log        zerolog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "contact-manager",
		Short:         "Local-first personal address book",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New("contact-manager", logger.Options{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
			})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config.yaml (default $CONTACTS_CONFIG or <data dir>/config.yaml)")

	root.AddCommand(
		a.newServeCmd(),
		a.newMCPCmd(),
		a.newNativeHostCmd(),
		a.newTUICmd(),
		a.newAddCmd(),
		a.newGetCmd(),
		a.newListCmd(),
		a.newUpdateCmd(),
		a.newDeleteCmd(),
		a.newSearchCmd(),
		a.newFavoriteCmd(),
		a.newStatsCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
		a.newClearCmd(),
		a.newBackupCmd(),
		a.newBackupsCmd(),
		a.newRestoreCmd(),
		a.newVacuumCmd(),
		a.newAnalyzeCmd(),
		a.newCaptureCmd(),
		a.newSetupCmd(),
		newVersionCmd(),
	)
	return root
}

// openStore builds the slot, archive and store described by the config.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	sl, err := slot.Open(ctx, slot.Config{
		Driver: a.cfg.Storage.Driver,
		Dir:    a.cfg.Storage.DataDir,
		Name:   a.cfg.Storage.Slot,
		DSN:    a.cfg.Storage.PostgresDSN,
	})
	if err != nil {
		return nil, err
	}

	archive, err := backup.NewDir(a.cfg.Backup.Dir, a.cfg.Storage.Slot, a.cfg.Backup.Passphrase)
	if err != nil {
		_ = sl.Close()
		return nil, err
	}

	cfg := store.DefaultConfig()
	cfg.Logger = a.log
	cfg.Archive = archive
	cfg.BackupKeep = a.cfg.Backup.Keep

	s, err := store.New(ctx, sl, cfg)
	if err != nil {
		_ = sl.Close()
		return nil, err
	}
	a.log.Debug().Str("driver", a.cfg.Storage.Driver).Str("slot", s.SlotName()).Msg("store opened")
	return s, nil
}

// withStore runs fn against an open store and closes it afterwards.
func (a *app) withStore(fn func(cmd *cobra.Command, s *store.Store, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := a.openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(cmd, s, args)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "contact-manager %s\n", version)
		},
	}
}
