package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wrenchat/wren/pkg/client"
	"github.com/wrenchat/wren/pkg/client/ui"
)

var Version = "dev"

var (
	flagServer   string
	flagConfig   string
	flagStateDir string
	flagDebug    bool
)

func main() {
	root := &cobra.Command{
		Use:     "wren",
		Short:   "Terminal client for wren group chat",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat()
		},
	}
	root.PersistentFlags().StringVar(&flagServer, "server", "", "server websocket URL (overrides config)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path")
	root.PersistentFlags().StringVar(&flagStateDir, "state-dir", "", "state directory")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "debug logging")

	root.AddCommand(&cobra.Command{
		Use:   "login <token>",
		Short: "Store a session token obtained from the web login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := openState()
			if err != nil {
				return err
			}
			defer state.Close()
			if err := state.SetSessionToken(args[0]); err != nil {
				return err
			}
			fmt.Println("token stored")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Drop the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := openState()
			if err != nil {
				return err
			}
			defer state.Close()
			if err := state.ClearSessionToken(); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func stateDir() string {
	if flagStateDir != "" {
		return flagStateDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "wren")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "wren-state"
	}
	return filepath.Join(home, ".local", "share", "wren")
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wren", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "wren", "config.toml")
}

func openState() (*client.State, error) {
	return client.OpenState(filepath.Join(stateDir(), "state.db"))
}

func openLogger() (zerolog.Logger, func(), error) {
	dir := stateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "wren.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	level := zerolog.InfoLevel
	if flagDebug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return logger, func() { f.Close() }, nil
}

func runChat() error {
	cfg, err := client.LoadConfig(configPath())
	if err != nil {
		return err
	}

	logger, closeLog, err := openLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	state, err := openState()
	if err != nil {
		return err
	}
	defer state.Close()

	serverURL := cfg.Server.URL
	if flagServer != "" {
		serverURL = flagServer
	}
	if err := state.SetLastServer(serverURL); err != nil {
		logger.Warn().Err(err).Msg("persisting server address")
	}

	conn := client.NewConnection(serverURL, logger)
	conn.SetBackoff(
		time.Duration(cfg.Server.ReconnectDelaySeconds)*time.Second,
		time.Duration(cfg.Server.MaxReconnectDelaySeconds)*time.Second,
	)
	defer conn.Close()

	uploader := client.NewUploader(cfg.UploadBase(), logger)
	view := ui.NewAdapter()
	core := client.NewClient(conn, state, uploader, view, logger)
	core.SetPageSize(cfg.History.PageSize)

	model := ui.NewModel(core, Version)
	program := tea.NewProgram(model, tea.WithAltScreen())
	view.Attach(program)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := core.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("event loop stopped")
		}
	}()

	conn.Start()

	_, err = program.Run()
	return err
}
