package main

import (
	"errors"

	"github.com/spf13/cobra"

	"landcharges/assist/internal/checks"
)

var errEndpointsDown = errors.New("one or more endpoints are down")

// checkCmd checks every configured service before a run
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the configured service endpoints over HTTP and TCP",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	preflight := checks.NewPreflight(
		checks.NewHTTPChecker(cfg.HTTPTimeout()),
		checks.NewTCPChecker(cfg.HTTPTimeout()),
	)

	results, err := preflight.Run(commandContext(cmd), cfg.EndpointList())
	if err != nil {
		return err
	}

	if err := checks.WriteResults(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if !checks.AllUp(results) {
		return errEndpointsDown
	}
	return nil
}
