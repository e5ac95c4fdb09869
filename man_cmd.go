package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		page, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return err //nolint:wrapcheck
		}

		page = page.WithSection("Environment", "ELEVENLABS_API_KEY and OPENAI_API_KEY hold the API keys. "+
			"They are also read from a .env file in the working directory. "+
			"Set ELEVENGUI_DEBUG to write a debug log.")
		fmt.Println(page.Build(roff.NewDocument()))
		return nil
	},
}
