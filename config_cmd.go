package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# ElevenLabs API. The key is usually taken from ELEVENLABS_API_KEY.
api:
  # key: ""
  base_url: "https://api.elevenlabs.io/v1"
  # throttle outgoing requests, 0 disables
  requests_per_minute: 0
  timeout: "30s"

# OpenAI key for the Whisper API backend, usually OPENAI_API_KEY.
# openai:
#   key: ""

# timezone used to show history dates, e.g. "Europe/Berlin"
timezone: "Local"
# system, dark or light
appearance: "system"
# debug, info, warn or error
log_level: "info"

preview:
  # decoded voice samples kept in memory, in MiB
  cache_size: 64
  # directory that keeps downloaded samples across restarts, empty disables
  disk_cache: ""
  # in MiB
  disk_cache_size: 256

transcribe:
  # api or local; only used when both are available
  backend: ""
  whisper_cli: "whisper-cli"
  # model name (base.en, small, ...) or a path to a ggml model file
  model: "base.en"
  models_dir: ""

record:
  # grace period before temporary recordings are deleted
  removal_delay: "1s"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the elevengui config file",
	Long:    paragraph(fmt.Sprintf("\n%s the elevengui config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("elevengui config\nelevengui config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("ElevenGUI", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
