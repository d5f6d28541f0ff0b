package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/libsync/internal/domain/library"
)

// TestDriveFetcher_Success verifies the archive body is returned and the query carries the identifier.
func TestDriveFetcher_Success(t *testing.T) {
	t.Parallel()

	archive := []byte("archive-bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download" || r.URL.Query().Get("id") != "file-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	f := NewDriveFetcher(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	body, err := f.Fetch(context.Background(), "file-1")
	require.NoError(t, err)

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	require.Equal(t, archive, got)
}

// TestDriveFetcher_ConfirmationPage verifies the hidden form values are sent on the retry.
func TestDriveFetcher_ConfirmationPage(t *testing.T) {
	t.Parallel()

	const page = `<html><body><form action="/download" method="get">
<input type="hidden" name="id" value="big-file">
<input type="hidden" name="confirm" value="t">
<input type="hidden" name="uuid" value="token-123">
</form></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("uuid") != "token-123" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(page))

			return
		}

		w.Header().Set("Content-Type", "application/x-bzip2")
		_, _ = w.Write([]byte("big-archive"))
	}))
	defer server.Close()

	f := NewDriveFetcher(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	body, err := f.Fetch(context.Background(), "big-file")
	require.NoError(t, err)

	defer func() {
		_ = body.Close()
	}()

	got, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "big-archive", string(got))
}

// TestDriveFetcher_Failures verifies every failure is reported as ErrDownloadFailed.
func TestDriveFetcher_Failures(t *testing.T) {
	t.Parallel()

	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer notFound.Close()

	alwaysHTML := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<input type="hidden" name="uuid" value="x">`))
	}))
	defer alwaysHTML.Close()

	quotaPage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html>Too many users have viewed or downloaded this file recently.</html>`))
	}))
	defer quotaPage.Close()

	cases := map[string]struct {
		server *httptest.Server
		id     string
		target error
	}{
		"status":     {server: notFound, id: "x", target: errBadHTTPStatus},
		"html twice": {server: alwaysHTML, id: "x", target: errConfirmationPage},
		"quota page": {server: quotaPage, id: "x", target: errConfirmationPage},
		"empty id":   {server: notFound, id: "", target: errEmptyID},
	}

	for name, tc := range cases {
		f := NewDriveFetcher(WithBaseURL(tc.server.URL), WithHTTPClient(tc.server.Client()))

		_, err := f.Fetch(context.Background(), tc.id)
		require.ErrorIs(t, err, library.ErrDownloadFailed, name)
		require.ErrorIs(t, err, tc.target, name)
	}
}

// TestDriveFetcher_Unreachable verifies transport errors are reported as ErrDownloadFailed.
func TestDriveFetcher_Unreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	f := NewDriveFetcher(WithBaseURL(baseURL), WithTimeout(time.Second))

	_, err := f.Fetch(context.Background(), "x")
	require.ErrorIs(t, err, library.ErrDownloadFailed)
}
