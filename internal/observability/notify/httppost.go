package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// PostJSON posts body to url and drains the response. Non-2xx responses become errors
// prefixed with service.
func PostJSON(ctx context.Context, client *http.Client, url, service string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		closeErr := resp.Body.Close()
		if readErr != nil {
			return errors.Join(fmt.Errorf("read %s error response: %w", service, readErr), closeErr)
		}
		return fmt.Errorf("%s %s: %s", service, resp.Status, strings.TrimSpace(string(respBody)))
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return errors.Join(fmt.Errorf("drain %s response body: %w", service, err), resp.Body.Close())
	}
	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}
	return nil
}
