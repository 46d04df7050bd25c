package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var serverFlag string
	var jsonFlag bool

	ctx := &commandContext{server: &serverFlag, json: &jsonFlag}

	rootCmd := &cobra.Command{
		Use:           "podforge",
		Short:         "Podforge podcast generation CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "http://127.0.0.1:8000", "Base URL of the podforged API")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Emit raw JSON instead of tables")

	rootCmd.AddCommand(newCreateCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newRemoveCommand(ctx))
	rootCmd.AddCommand(newRescanCommand(ctx))
	rootCmd.AddCommand(newHealthCommand(ctx))

	return rootCmd
}

// commandContext carries the persistent flag values shared by all commands.
type commandContext struct {
	server *string
	json   *bool
}

func (c *commandContext) client() *apiClient {
	return newAPIClient(*c.server)
}
