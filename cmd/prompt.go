package cmd

import (
	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-brief/internal/prompt"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Ask for the current weather city by city",
	Long:  `Read a city name per line and print its current temperature and conditions. Type 'exit' to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loop := prompt.New(newAggregator(), log.Logger)
		return loop.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}
