package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AbduSami-bK/contact-manager/internal/mcp"
	"github.com/AbduSami-bK/contact-manager/internal/messaging"
	"github.com/AbduSami-bK/contact-manager/internal/nativehost"
	"github.com/AbduSami-bK/contact-manager/internal/server"
	"github.com/AbduSami-bK/contact-manager/internal/setup"
	"github.com/AbduSami-bK/contact-manager/internal/store"
	"github.com/AbduSami-bK/contact-manager/internal/tui"
)

// ─── Long-running surfaces ───────────────────────────────────────────────────

func (a *app) newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and scheduled backups",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, _ []string) error {
			cfg := server.DefaultConfig()
			cfg.Host = a.cfg.HTTP.Host
			cfg.Port = a.cfg.HTTP.Port
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			cfg.ReadTimeout = a.cfg.HTTP.ReadTimeout
			cfg.WriteTimeout = a.cfg.HTTP.WriteTimeout
			cfg.IdleTimeout = a.cfg.HTTP.IdleTimeout
			cfg.ShutdownTimeout = a.cfg.HTTP.ShutdownTimeout
			cfg.Version = version
			cfg.Logger = a.log

			srv := server.NewWithConfig(s, cfg)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return srv.Run(ctx) })
			g.Go(func() error { return s.AutoBackup(ctx, a.cfg.Backup.Interval) })
			if err := g.Wait(); err != nil {
				a.log.Error().Stack().Err(err).Msg("serve stopped")
				return err
			}
			return nil
		}),
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides http.port)")
	return cmd
}

func (a *app) newMCPCmd() *cobra.Command {
	var tools string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(_ *cobra.Command, s *store.Store, _ []string) error {
			srv := mcp.NewServerWithTools(s, version, mcp.ResolveTools(tools))
			return mcpserver.ServeStdio(srv)
		}),
	}
	cmd.Flags().StringVar(&tools, "tools", "", "tool profiles or names: agent, admin, all, or a comma list")
	return cmd
}

func (a *app) newNativeHostCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "native-host",
		Short:  "Run as a browser native-messaging host on stdin/stdout",
		Hidden: true,
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, _ []string) error {
			host := nativehost.New(messaging.New(s, a.log), a.log)
			return host.Serve(cmd.Context(), os.Stdin, os.Stdout)
		}),
	}
}

func (a *app) newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, s *store.Store, _ []string) error {
			p := tea.NewProgram(tui.New(cmd.Context(), s, version), tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		}),
	}
}

// ─── Setup ───────────────────────────────────────────────────────────────────

func (a *app) newSetupCmd() *cobra.Command {
	var opts setup.Options

	cmd := &cobra.Command{
		Use:   "setup [target]",
		Short: "Register the native host with a browser or the MCP server with an agent",
		Long:  "Without a target, lists what can be set up.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, t := range setup.SupportedTargets() {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, t.Description, t.InstallDir)
				}
				return tw.Flush()
			}

			result, err := installWithOptions(args[0], opts)
			if err != nil {
				return err
			}
			a.log.Info().Str("target", result.Target).Str("destination", result.Destination).Msg("setup complete")
			fmt.Fprintf(out, "Configured %s: %s\n", result.Target, result.Destination)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.ExtensionID, "extension-id", "", "Chromium extension id (default $CONTACTS_CHROME_EXTENSION_ID)")
	cmd.Flags().StringVar(&opts.FirefoxExtensionID, "firefox-extension-id", "", "Firefox add-on id (default $CONTACTS_FIREFOX_EXTENSION_ID)")
	cmd.Flags().StringVar(&opts.BinaryPath, "binary", "", "path the browser or agent should launch (default: this executable)")
	return cmd
}

var installWithOptions = setup.InstallWithOptions
