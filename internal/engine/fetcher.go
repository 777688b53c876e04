package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tartampluch/go-valentine/internal/config"
)

// CardFetcher retrieves the recipient vCard from a remote location.
type CardFetcher interface {
	Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error)
}

// HTTPFetcher downloads a single vCard over HTTP(S).
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with the default timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{Timeout: config.HTTPTimeout},
	}
}

// Fetch downloads cardURL, authenticating with Basic Auth when credentials
// are given. Responses announcing more than config.MaxHTTPResponseSize are
// refused; unannounced ones are truncated at that size.
func (f *HTTPFetcher) Fetch(ctx context.Context, cardURL, user, pass string) (io.ReadCloser, error) {
	u, err := parseCardURL(cardURL)
	if err != nil {
		return nil, err
	}
	log := slog.With(config.LogKeyComponent, config.CompFetcher, config.LogKeyURL, redactURL(u))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderAccept, config.MimeVCardAccept)
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrFetchNetwork, err)
	}

	switch {
	case resp.StatusCode != http.StatusOK:
		_ = resp.Body.Close()
		log.Warn(config.MsgFetchStatus, config.LogKeyStatus, resp.StatusCode)
		return nil, fmt.Errorf("%s: %s", config.ErrFetchStatus, resp.Status)

	case resp.ContentLength > config.MaxHTTPResponseSize:
		_ = resp.Body.Close()
		log.Warn(config.ErrCardTooLarge, config.LogKeySizeBytes, resp.ContentLength)
		return nil, fmt.Errorf("%s: %d bytes", config.ErrCardTooLarge, resp.ContentLength)
	}

	log.Debug(config.MsgFetchOK, config.LogKeySizeBytes, resp.ContentLength)
	return limitedBody{
		Reader: io.LimitReader(resp.Body, config.MaxHTTPResponseSize),
		Closer: resp.Body,
	}, nil
}

// parseCardURL accepts absolute http and https URLs only.
func parseCardURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %q", config.ErrProtocol, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%s: missing host", config.ErrInvalidURL)
	}
	return u, nil
}

// redactURL keeps credentials, query and fragment out of the logs.
func redactURL(u *url.URL) string {
	clean := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}
	return clean.String()
}

// limitedBody reads through the size limit and closes the response body.
type limitedBody struct {
	io.Reader
	io.Closer
}
