// Package main is the entry point for the hubview CLI.
//
// The default command opens the terminal UI for a repository route
// ("owner/repo" or "owner/repo/path"). Subcommands expose the same
// gateway over other surfaces: a local HTTP API for browser
// frontends, an MCP stdio server for AI tooling, and token
// management for the system keyring.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"hubview/internal/config"
	"hubview/internal/github"
	"hubview/internal/logging"
	"hubview/internal/mcp"
	"hubview/internal/server"
	"hubview/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := buildRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hubview [owner/repo[/path]]",
		Short: "Browse and edit a GitHub repository from the terminal",
		Long: `hubview renders a GitHub repository's file tree, previews file
contents (text, Markdown, images), and commits text edits back
through the GitHub Contents API.

The optional path segment after owner/repo pre-expands the tree to
that location. With no argument, the default route from the config
file is used.`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	rootCmd.PersistentFlags().String("branch", "", "Branch to browse (default: the repository's default branch)")
	rootCmd.PersistentFlags().String("api-url", "", "GitHub API base URL for enterprise installs")

	rootCmd.AddCommand(buildServeCmd())
	rootCmd.AddCommand(buildMCPCmd())
	rootCmd.AddCommand(buildAuthCmd())
	rootCmd.AddCommand(buildConfigCmd())

	return rootCmd
}

// bootstrap loads config, resolves the route and credentials, and
// builds the API client shared by every command.
func bootstrap(cmd *cobra.Command, args []string) (*github.Client, config.Route, *config.Config, *logging.AppLogger, error) {
	logger := logging.NewAppLogger()

	cfg, err := config.Load()
	if err != nil {
		return nil, config.Route{}, nil, nil, err
	}

	if branch, _ := cmd.Flags().GetString("branch"); branch != "" {
		cfg.Branch = branch
	}
	if apiURL, _ := cmd.Flags().GetString("api-url"); apiURL != "" {
		cfg.APIBaseURL = apiURL
	}

	routeArg := cfg.DefaultRoute
	if len(args) > 0 {
		routeArg = args[0]
	}
	if routeArg == "" {
		return nil, config.Route{}, nil, nil, fmt.Errorf("no repository given: pass owner/repo or set default_route in the config file")
	}

	route, err := config.ParseRoute(routeArg)
	if err != nil {
		return nil, config.Route{}, nil, nil, err
	}

	token, err := github.NewCredentialManager().ResolveToken()
	if err != nil {
		return nil, config.Route{}, nil, nil, err
	}

	var opts []github.Option
	if cfg.APIBaseURL != "" {
		opts = append(opts, github.WithBaseURL(cfg.APIBaseURL))
	}
	client := github.NewClient(route.Owner, route.Repo, token, logger, opts...)

	return client, route, cfg, logger, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	client, route, cfg, logger, err := bootstrap(cmd, args)
	if err != nil {
		return err
	}

	model := tui.NewMainModel(client, route, cfg, logger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func buildServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve [owner/repo]",
		Short: "Serve the repository content API over local HTTP",
		Long: `Start a local HTTP server exposing the repository tree, content
previews, and the save endpoint for browser-based frontends.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, cfg, logger, err := bootstrap(cmd, args)
			if err != nil {
				return err
			}

			addr, _ := cmd.Flags().GetString("addr")
			srv := server.NewServer(client, cfg.Branch, logger)

			logger.Info("HTTP server listening", "addr", addr)
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           srv,
				ReadHeaderTimeout: 10 * time.Second,
			}
			return httpServer.ListenAndServe()
		},
	}

	serveCmd.Flags().String("addr", "127.0.0.1:8750", "Listen address")
	return serveCmd
}

func buildMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp [owner/repo]",
		Short: "Serve read-only repository tools over MCP stdio",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, cfg, logger, err := bootstrap(cmd, args)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(client, cfg.Branch, logger)
			return srv.Start(cmd.Context())
		},
	}
}

func buildConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the hubview config file",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "set-route <owner/repo[/path]>",
		Short: "Set the repository opened when no argument is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.SetDefaultRoute(args[0]); err != nil {
				return err
			}
			fmt.Println("Default route set to", cfg.DefaultRoute)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	})

	return configCmd
}

func buildAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the GitHub token in the system keyring",
	}

	authCmd.AddCommand(&cobra.Command{
		Use:   "set <token>",
		Short: "Store a GitHub personal access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := github.NewCredentialManager().StoreToken(args[0]); err != nil {
				return err
			}
			fmt.Println("Token stored in the system keyring.")
			return nil
		},
	})

	authCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := github.NewCredentialManager().DeleteToken(); err != nil {
				return err
			}
			fmt.Println("Token removed.")
			return nil
		},
	})

	authCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether a token is configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			if github.NewCredentialManager().HasToken() {
				fmt.Println("A token is stored in the system keyring.")
			} else {
				fmt.Println("No token stored. Run 'hubview auth set <token>' or export GITHUB_TOKEN.")
			}
			return nil
		},
	})

	return authCmd
}
