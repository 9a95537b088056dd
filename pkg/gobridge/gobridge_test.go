package gobridge_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly/v2/debug"
)

// transport rewrites requests for the real vendor hosts to the test server,
// so production URLs can be exercised end to end against local fixtures.
type transport struct {
	baseURL *url.URL
	rt      http.RoundTripper
}

var _ http.RoundTripper = (*transport)(nil)

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Host = t.baseURL.Host
	req.URL.Scheme = t.baseURL.Scheme
	req.URL.User = t.baseURL.User

	deadline, ok := req.Context().Deadline()
	if ok && deadline.After(time.Now()) {
		timeout := time.Until(deadline).Milliseconds()
		q := req.URL.Query()
		q.Add("t", strconv.FormatInt(timeout*2, 10))
		req.URL.RawQuery = q.Encode()
	}

	return t.rt.RoundTrip(req)
}

func newTestTransport(base string, rt http.RoundTripper) http.RoundTripper {
	baseURL, err := url.Parse(base)
	if err != nil {
		panic(err)
	}
	return &transport{baseURL, rt}
}

// distHandler serves canned distribution files by path, honoring the same
// "t" sleep query parameter the transport sets for timeout tests.
type distHandler struct {
	tb    testing.TB
	files map[string][]byte
}

var _ http.Handler = (*distHandler)(nil)

func newDistServer(tb testing.TB, files map[string][]byte) *httptest.Server {
	tb.Helper()

	return httptest.NewServer(distHandler{tb, files})
}

func (h distHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if t := r.URL.Query().Get("t"); t != "" {
		timeout, err := strconv.Atoi(t)
		if err == nil {
			time.Sleep(time.Duration(timeout) * time.Millisecond)
		}
	}

	body, ok := h.files[r.URL.Path]
	if !ok {
		h.tb.Logf("dist server: no fixture for %s", r.URL.Path)
		http.NotFound(w, r)
		return
	}

	w.Write(body)
}

type archiveEntry struct {
	name string
	body string
	mode int64
}

func buildTarGz(tb testing.TB, entries []archiveEntry) []byte {
	tb.Helper()

	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)

	for _, e := range entries {
		if err := tw.WriteHeader(&tar.Header{
			Name:     e.name,
			Typeflag: tar.TypeReg,
			Mode:     e.mode,
			Size:     int64(len(e.body)),
		}); err != nil {
			tb.Fatalf("write tar header: %v", err)
		}
		if _, err := tw.Write([]byte(e.body)); err != nil {
			tb.Fatalf("write tar body: %v", err)
		}
	}

	if err := tw.Close(); err != nil {
		tb.Fatalf("close tar writer: %v", err)
	}
	if err := gzw.Close(); err != nil {
		tb.Fatalf("close gzip writer: %v", err)
	}

	return buf.Bytes()
}

func buildZip(tb testing.TB, entries []archiveEntry) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, e := range entries {
		header := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		header.SetMode(os.FileMode(e.mode))

		w, err := zw.CreateHeader(header)
		if err != nil {
			tb.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			tb.Fatalf("write zip entry: %v", err)
		}
	}

	if err := zw.Close(); err != nil {
		tb.Fatalf("close zip writer: %v", err)
	}

	return buf.Bytes()
}

func toolchainArchive(tb testing.TB) []byte {
	return buildTarGz(tb, []archiveEntry{
		{name: "go/VERSION", body: "go1.12", mode: 0o644},
		{name: "go/bin/go", body: "#!/bin/sh\necho fake toolchain\n", mode: 0o755},
		{name: "go/bin/gofmt", body: "#!/bin/sh\necho fake gofmt\n", mode: 0o755},
		{name: "go/pkg/tool/placeholder", body: "", mode: 0o644},
	})
}

type testDebugger struct {
	tb      testing.TB
	start   time.Time
	counter int32
}

func newTestDebugger(tb testing.TB) *testDebugger {
	tb.Helper()

	return &testDebugger{tb: tb}
}

var _ debug.Debugger = (*testDebugger)(nil)

func (t *testDebugger) Init() error {
	t.counter = 0
	t.start = time.Now()
	return nil
}

func (t *testDebugger) Event(e *debug.Event) {
	i := atomic.AddInt32(&t.counter, 1)
	t.tb.Logf("[%06d] %d [%06d - %s] %q	(%s)", i, e.CollectorID, e.RequestID, e.Type, e.Values, time.Since(t.start))
}

func (t *testDebugger) events() int32 {
	return atomic.LoadInt32(&t.counter)
}

func lookupEnv(environ []string, name string) (string, bool) {
	prefix := name + "="
	for _, entry := range environ {
		if len(entry) > len(prefix) && entry[:len(prefix)] == prefix {
			return entry[len(prefix):], true
		}
		if entry == prefix {
			return "", true
		}
	}
	return "", false
}
