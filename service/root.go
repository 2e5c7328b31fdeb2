// Package service implements the newsroom command line.
package service

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"newsroom/app/config"
	"newsroom/app/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the newsroom CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsroom",
		Short: "Newsroom - a small news site with comments",
		Long: `Newsroom serves a news site where an admin publishes posts and
registered readers comment on them. The first account registered is the admin.`,
		SilenceUsage: true,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewDBCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			version := cmd.Root().Version
			if version == "" {
				version = "dev"
			}
			cmd.Printf("newsroom %s\n", version)
			return nil
		},
	}
}

// loadConfig reads the settings for cmd. Only serve needs a secret, so
// validation is left to the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Read(cmd.Flags())
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (zerolog.Logger, error) {
	return logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
}

// confirm asks a yes/no question on the command's streams. Anything but
// y or Y is a no.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false
	}
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}
