package client

import (
	"context"
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"

	hallv1alpha1 "github.com/KirkDiggler/hall-runner/internal/handlers/hall/v1alpha1"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask every run of the user to stop",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List the user's active runs",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStop(cmd *cobra.Command, _ []string) error {
	a, err := newAPI()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	var resp hallv1alpha1.StopResponse
	if err := a.do(ctx, http.MethodPost, "/v1alpha1/halls/sessions/stop", nil, &resp); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stop requested for %d run(s)\n", resp.Stopped)
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := newAPI()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	var resp hallv1alpha1.StatusResponse
	if err := a.do(ctx, http.MethodGet, "/v1alpha1/halls/sessions/status", nil, &resp); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if resp.SessionID != "" {
		state := "running"
		if resp.Done {
			state = "finished"
		}
		fmt.Fprintf(out, "session %s (%s), %d account(s)\n", resp.SessionID, state, len(resp.Accounts))
	}
	if resp.ActiveCount == 0 {
		fmt.Fprintln(out, "no active runs")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tHALL\tFLOOR\tSTATUS\tELAPSED")
	for _, run := range resp.Runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%ds\n", run.Account, run.Hall, run.Floor, run.Status, run.ElapsedSeconds)
	}
	return tw.Flush()
}
