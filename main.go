// Package main provides the entry point for the elevengui CLI application.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/winedarkmoon/elevengui/internal/config"
	"github.com/winedarkmoon/elevengui/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	mouse      bool
	appearance string

	settings config.Settings

	rootCmd = &cobra.Command{
		Use:   "elevengui",
		Short: "Text to speech and speech to text in the terminal",
		Long: paragraph(
			fmt.Sprintf("\nSpeak text with %s voices, browse your history and dictate with Whisper.", keyword("ElevenLabs")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: func(*cobra.Command, []string) error {
			return runTUI()
		},
	}
)

func validateOptions(cmd *cobra.Command) error {
	if f := cmd.Flag("config"); f != nil && f.Changed {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	s, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	settings = s
	applyLogLevel(settings.LogLevel)
	return nil
}

func runTUI() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the interface needs a terminal; see --help for the headless commands")
	}

	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	loc, err := settings.Location()
	if err != nil {
		return err
	}
	cfg.Location = loc
	cfg.Appearance = settings.Appearance
	cfg.Backend = settings.TranscribeBackend
	cfg.RemovalDelay = settings.RemovalDelay
	cfg.RequestTimeout = settings.Timeout
	cfg.EnableMouse = cfg.EnableMouse || mouse

	svc, closeServices, err := newServices(settings)
	if err != nil {
		return err
	}
	defer closeServices()

	p := ui.NewProgram(cfg, svc)
	watchConfig(p.Send)

	// Run Bubble Tea program
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

// watchConfig reloads the settings that can change at runtime whenever the
// config file is written.
func watchConfig(send func(tea.Msg)) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		s, err := config.Load(viper.GetViper())
		if err != nil {
			log.Warn("Ignoring invalid configuration change", "path", e.Name, "err", err)
			return
		}
		loc, err := s.Location()
		if err != nil {
			return
		}
		log.Debug("Configuration reloaded", "path", e.Name)
		applyLogLevel(s.LogLevel)
		send(ui.SettingsMsg{Location: loc, Appearance: s.Appearance, PreviewCacheSize: s.PreviewCacheSize})
	})
	viper.WatchConfig()
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	loadDotEnv()
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse support")
	rootCmd.Flags().StringVar(&appearance, "appearance", "", "system, dark or light")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("appearance", rootCmd.Flags().Lookup("appearance"))

	config.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(configCmd, manCmd, voicesCmd, historyCmd, quotaCmd, sayCmd, transcribeCmd)
}

// loadDotEnv reads API keys from a .env file in the working directory.
// Variables already set in the environment win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("Could not read .env file", "err", err)
	}
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "elevengui")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "elevengui")}, dirs...)
	}

	if c := os.Getenv("ELEVENGUI_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("elevengui")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("elevengui")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "elevengui.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
		return
	}
	viper.SetConfigFile(configFile)
	_ = viper.ReadInConfig()
}
