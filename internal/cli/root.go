// Package cli implements the roomclaw command line interface.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/roomclaw/roomclaw/internal/cli.version=1.2.3"
	version = "0.4.0"
	logo    = "\n" +
		"  ____                       ____ _\n" +
		" |  _ \\ ___   ___  _ __ ___ / ___| | __ ___      __\n" +
		" | |_) / _ \\ / _ \\| '_ ` _ \\ |   | |/ _` \\ \\ /\\ / /\n" +
		" |  _ < (_) | (_) | | | | | | |___| | (_| |\\ V  V /\n" +
		" |_| \\_\\___/ \\___/|_| |_| |_|\\____|_|\\__,_| \\_/\\_/\n"
)

var rootCmd = &cobra.Command{
	Use:   "roomclaw",
	Short: "RoomClaw - Matrix room automation and relay bot",
	Long:  color.CyanString(logo) + "\nA plugin-driven Matrix bot that answers commands and mentions\nand relays messages between room clusters.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
}
