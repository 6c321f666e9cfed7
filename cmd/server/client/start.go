package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	hallv1alpha1 "github.com/KirkDiggler/hall-runner/internal/handlers/hall/v1alpha1"
)

var (
	hallName   string
	checkQuota bool
)

var startCmd = &cobra.Command{
	Use:   "start [account...]",
	Short: "Start a session and follow its progress",
	Long: `Start running the given accounts and print progress until the session ends.
Interrupting the client leaves the session running; use "client stop" to stop it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStart,
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Replay and follow the latest session",
	Args:  cobra.NoArgs,
	RunE:  runResume,
}

func init() {
	startCmd.Flags().StringVar(&hallName, "hall", "", "only run this hall")
	startCmd.Flags().BoolVar(&checkQuota, "check-quota", false, "skip accounts that used their weekly attempts")
	ClientCmd.AddCommand(resumeCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	a, err := newAPI()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	req, err := a.newRequest(ctx, http.MethodPost, "/v1alpha1/halls/sessions", hallv1alpha1.StartSessionRequest{
		AccountNames:     args,
		HallName:         hallName,
		CheckWeeklyQuota: checkQuota,
	})
	if err != nil {
		return err
	}
	return a.follow(ctx, req, cmd.OutOrStdout())
}

func runResume(cmd *cobra.Command, _ []string) error {
	a, err := newAPI()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	req, err := a.newRequest(ctx, http.MethodGet, "/v1alpha1/halls/sessions/resume", nil)
	if err != nil {
		return err
	}
	return a.follow(ctx, req, cmd.OutOrStdout())
}

func (a *api) follow(ctx context.Context, req *http.Request, out io.Writer) error {
	resp, err := a.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd())
	}
	err = printStream(resp.Body, out, color)
	if ctx.Err() != nil {
		fmt.Fprintln(out, "detached; the session keeps running")
		return nil
	}
	return err
}

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiGreen  = "\033[32m"
	ansiDim    = "\033[2m"
)

// printStream writes the data lines of an SSE stream, one per line
func printStream(r io.Reader, out io.Writer, color bool) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if color {
			data = colorize(data)
		}
		fmt.Fprintln(out, data)
	}
	return scanner.Err()
}

func colorize(line string) string {
	switch {
	case line == hallv1alpha1.FrameHeartbeat:
		return ansiDim + line + ansiReset
	case strings.Contains(line, "FAILED"), strings.Contains(line, "失败"):
		return ansiRed + line + ansiReset
	case strings.Contains(line, "STOPPED"), strings.Contains(line, "SKIPPED"), strings.Contains(line, "跳过"):
		return ansiYellow + line + ansiReset
	case strings.Contains(line, "COMPLETED"), line == hallv1alpha1.FrameComplete:
		return ansiGreen + line + ansiReset
	}
	return line
}
