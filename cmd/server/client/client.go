// Package client provides commands that drive a running hall runner over HTTP
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/hall-runner/internal/errors"
	hallv1alpha1 "github.com/KirkDiggler/hall-runner/internal/handlers/hall/v1alpha1"
)

var (
	// Connection flags
	serverAddr string
	user       string
	timeout    time.Duration
)

// ClientCmd is the root command for all client commands
var ClientCmd = &cobra.Command{
	Use:   "client",
	Short: "Drive a running hall runner",
	Long:  `Client commands start, stop and inspect hall sessions through the HTTP API.`,
}

func init() {
	ClientCmd.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8080", "hall runner base URL")
	ClientCmd.PersistentFlags().StringVar(&user, "user", "", "user the session belongs to")
	ClientCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout for non-streaming calls")

	ClientCmd.AddCommand(startCmd)
	ClientCmd.AddCommand(stopCmd)
	ClientCmd.AddCommand(statusCmd)
}

// api is a thin HTTP client for the hall endpoints
type api struct {
	base string
	user string
	http *http.Client
}

func newAPI() (*api, error) {
	if user == "" {
		return nil, errors.InvalidArgument("--user is required")
	}
	return &api{
		base: strings.TrimRight(serverAddr, "/"),
		user: user,
		http: &http.Client{},
	}, nil
}

func (a *api) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set(hallv1alpha1.UserHeader, a.user)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends a request and decodes a JSON response into dst
func (a *api) do(ctx context.Context, method, path string, body, dst interface{}) error {
	req, err := a.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// decodeError turns an error response back into a coded error
func decodeError(resp *http.Response) error {
	var body errors.HTTPBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Code == "" {
		return errors.Internalf("server returned %s", resp.Status)
	}
	return errors.New(body.Code, body.Message).WithMetaMap(body.Meta)
}
