// Package statuspage fetches public service status documents.
package statuspage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

const requestTimeout = 10 * time.Second

// FetchJSON downloads url and decodes the JSON body into target. Status
// pages are public, so the plain client is used rather than the session one.
func FetchJSON(ctx context.Context, client *http.Client, url string, target any) error {
	if client == nil {
		client = cleanhttp.DefaultClient()
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status page returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode status: %w", err)
	}
	return nil
}
