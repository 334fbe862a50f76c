package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/oigbridge/oigbridge/pkg/common"
	"github.com/oigbridge/oigbridge/pkg/log"
)

// clitester calls a running oigbridge server the way a tool client would.
//
//	clitester --email you@example.com --password secret --tool get_basic_data
//	clitester --readonly=false --tool set_box_mode --args '{"mode":"Home 1"}'
func main() {
	baseURL := lflag.String("url", "http://localhost:8080", "Base URL of the running server")
	email := lflag.String("email", "", "OIG Cloud account email")
	password := lflag.String("password", "", "OIG Cloud account password")
	readonly := lflag.Bool("readonly", true, "Send the readonly header as true")
	tool := lflag.String("tool", "", "Tool to call (e.g. get_basic_data)")
	payload := lflag.String("args", "{}", "JSON arguments for the tool")
	lflag.Configure()

	ctx := context.Background()

	if *tool == "" {
		fmt.Fprintln(os.Stderr, "usage: clitester --tool <name> [--args '{...}'] [flags]")
		os.Exit(2)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		*baseURL+"/tools/"+*tool, bytes.NewBufferString(*payload))
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to build request", "error", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if *email != "" {
		req.Header.Set("X-OIG-Email", *email)
		req.Header.Set("X-OIG-Password", *password)
	}
	if !*readonly {
		req.Header.Set("X-OIG-Readonly-Access", "false")
	}

	resp, err := common.HTTPClient(30 * time.Second).Do(req)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "request failed", "error", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to read response", "error", err)
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		// not JSON, print as-is
		fmt.Printf("%s %s\n", resp.Status, body)
		return
	}
	fmt.Printf("%s\n%s\n", resp.Status, pretty.String())
}
