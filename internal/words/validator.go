// internal/words/validator.go
//
// Validators used by submission: Local checks the loaded dictionary,
// Remote asks an HTTP dictionary service (DICTIONARY_URL).

package words

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Local validates against the loaded dictionary. It never fails.
type Local struct{}

// IsWord implements game.Validator.
func (Local) IsWord(_ context.Context, w string) (bool, error) {
	return IsWord(w), nil
}

// Remote asks an HTTP dictionary service about each word:
// GET {BaseURL}/{word} answers 200 for a known word and 404 for an unknown
// one. Any other outcome is an error, which the submission flow treats
// leniently.
type Remote struct {
	BaseURL string
	Client  *http.Client
}

// NewRemote returns a Remote with a bounded HTTP client.
func NewRemote(baseURL string) *Remote {
	return &Remote{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// IsWord implements game.Validator.
func (r *Remote) IsWord(ctx context.Context, w string) (bool, error) {
	w = strings.ToLower(strings.TrimSpace(w))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/"+url.PathEscape(w), nil)
	if err != nil {
		return false, err
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("lookup %q: %w", w, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("lookup %q: unexpected status %d", w, resp.StatusCode)
	}
}
