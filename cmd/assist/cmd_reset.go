package main

import (
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Run the fixture clear and seed commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newResetter(cmd).Reset(commandContext(cmd)); err != nil {
			return err
		}
		logger.Info("fixture data reset")
		return nil
	},
}
