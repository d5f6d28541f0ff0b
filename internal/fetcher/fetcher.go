package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/oshokin/libsync/internal/config"
	"github.com/oshokin/libsync/internal/domain/library"
	"github.com/oshokin/libsync/internal/logger"
)

const (
	// downloadPath is the path of the Drive download endpoint.
	downloadPath = "download"

	// confirmationPageLimit bounds how much of an HTML answer is inspected.
	confirmationPageLimit = 1 << 20
)

var (
	// errEmptyID is returned when an empty identifier is requested.
	errEmptyID = errors.New("identifier must be provided")
	// errBadHTTPStatus is returned for non-200 responses.
	errBadHTTPStatus = errors.New("unexpected http status")
	// errConfirmationPage is returned when Drive keeps answering with an HTML page.
	errConfirmationPage = errors.New("file host returned a web page instead of the archive")

	// hiddenInputPattern matches hidden form fields of the Drive confirmation page.
	hiddenInputPattern = regexp.MustCompile(`<input[^>]*type="hidden"[^>]*name="([^"]+)"[^>]*value="([^"]*)"`)
)

// Fetcher retrieves the archive addressed by an identifier.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (io.ReadCloser, error)
}

// DriveFetcher downloads files shared through Google Drive.
type DriveFetcher struct {
	// baseURL is the scheme and host of the download endpoint.
	baseURL string
	// client performs HTTP requests.
	client *http.Client
	// timeout bounds a single download including the body transfer.
	timeout time.Duration
}

// Option configures DriveFetcher behaviour.
type Option func(*DriveFetcher)

// WithBaseURL overrides the download endpoint.
func WithBaseURL(baseURL string) Option {
	return func(f *DriveFetcher) {
		if baseURL != "" {
			f.baseURL = baseURL
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *DriveFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout sets a timeout for a single download.
func WithTimeout(timeout time.Duration) Option {
	return func(f *DriveFetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// NewDriveFetcher creates a fetcher for the Google Drive download endpoint.
func NewDriveFetcher(opts ...Option) *DriveFetcher {
	f := &DriveFetcher{
		baseURL: config.DefaultDownloadURL,
		client:  http.DefaultClient,
		timeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch returns the archive body. The caller must close it.
// Every failure wraps library.ErrDownloadFailed.
func (f *DriveFetcher) Fetch(ctx context.Context, id string) (io.ReadCloser, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: %w", library.ErrDownloadFailed, errEmptyID)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)

	body, err := f.fetch(fetchCtx, id)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("fetch %s: %w: %w", id, library.ErrDownloadFailed, err)
	}

	return &cancelOnClose{ReadCloser: body, cancel: cancel}, nil
}

// fetch requests the file and follows a single confirmation page.
func (f *DriveFetcher) fetch(ctx context.Context, id string) (io.ReadCloser, error) {
	query := url.Values{
		"id":      {id},
		"export":  {"download"},
		"confirm": {"t"},
	}

	response, err := f.get(ctx, query)
	if err != nil {
		return nil, err
	}

	if !isHTML(response) {
		return response.Body, nil
	}

	logger.DebugKV(ctx, "Received confirmation page, retrying with its form values", "id", id)

	fields, err := readConfirmationFields(response.Body)
	if err != nil {
		return nil, err
	}

	for name, value := range fields {
		query.Set(name, value)
	}

	response, err = f.get(ctx, query)
	if err != nil {
		return nil, err
	}

	if isHTML(response) {
		_ = response.Body.Close()

		return nil, errConfirmationPage
	}

	return response.Body, nil
}

// get performs a GET against the download endpoint.
func (f *DriveFetcher) get(ctx context.Context, query url.Values) (*http.Response, error) {
	downloadURL, err := url.Parse(f.baseURL)
	if err != nil {
		return nil, err
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	downloadURL.Path = path.Join("/", downloadURL.Path, downloadPath)
	downloadURL.RawQuery = query.Encode()
	finalURL := downloadURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()

		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	return response, nil
}

// isHTML reports whether the response is a web page rather than a file.
func isHTML(response *http.Response) bool {
	mediaType, _, err := mime.ParseMediaType(response.Header.Get("Content-Type"))
	if err != nil {
		return false
	}

	return strings.EqualFold(mediaType, "text/html")
}

// readConfirmationFields collects hidden form values from the confirmation page.
func readConfirmationFields(body io.ReadCloser) (map[string]string, error) {
	defer func() {
		_ = body.Close()
	}()

	page, err := io.ReadAll(io.LimitReader(body, confirmationPageLimit))
	if err != nil {
		return nil, err
	}

	matches := hiddenInputPattern.FindAllSubmatch(page, -1)
	if len(matches) == 0 {
		return nil, errConfirmationPage
	}

	fields := make(map[string]string, len(matches))
	for _, match := range matches {
		fields[string(match[1])] = string(match[2])
	}

	return fields, nil
}

// cancelOnClose releases the download context once the body is closed.
type cancelOnClose struct {
	io.ReadCloser

	cancel context.CancelFunc
}

// Close closes the body and cancels the download context.
func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()

	return err
}
