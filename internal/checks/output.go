package checks

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"landcharges/assist/internal/domain"
)

// WriteResults prints one aligned line per check result.
func WriteResults(w io.Writer, results []domain.CheckResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for _, r := range results {
		status := color.GreenString("UP")
		if r.Status != domain.CheckStatusUp {
			status = color.RedString("DOWN")
		}

		detail := formatMilliseconds(r.Duration)
		if r.StatusCode != 0 {
			detail = fmt.Sprintf("%d %s", r.StatusCode, detail)
		}
		if r.Error != "" {
			detail = r.Error
		}

		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			status, r.Kind, r.Endpoint.Name, r.Endpoint.EnvKey, r.Endpoint.URL, detail); err != nil {
			return err
		}
	}

	return tw.Flush()
}
