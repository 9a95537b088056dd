package gobridge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// InstallOptions customizes Install. The zero value is valid.
type InstallOptions struct {
	// Modules forces module mode on for the returned handle.
	Modules bool
	// Checksum is the expected SHA-256 of the archive, in hex. The transfer
	// is hashed while it is extracted and a mismatch fails the
	// installation. Verification is skipped while empty.
	Checksum string
	// VerifyPublishedChecksum fetches the checksum the vendor publishes
	// next to the archive and verifies the transfer against it.
	// Ignored when Checksum is set.
	VerifyPublishedChecksum bool
	// Client performs the transfers. Defaults to http.DefaultClient.
	Client *http.Client
	// Extractors overrides the archive format decoders, keyed by archive
	// extension. Defaults to the built-in tar.gz and zip decoders.
	Extractors map[string]Extractor
	// Toolchain customizes the returned handle.
	Toolchain *Options
}

// Install downloads the distribution archive for the given toolchain
// version and host platform/architecture pair, extracts it into installDir
// and returns a handle bound to the freshly installed binary and the given
// workspace root.
//
// The transfer is streamed straight into extraction. A non-success response
// or a streaming failure in either stage fails the whole installation with
// no retry; installDir may be left partially populated and no byte of it is
// usable. Retry, fallback versions and cached-install reuse are the
// caller's policies, not Install's.
func Install(ctx context.Context, installDir, workspace, version, platform, arch string, opts *InstallOptions) (*Toolchain, error) {
	if opts == nil {
		opts = &InstallOptions{}
	}

	url := DownloadURL(version, platform, arch)
	ext := archiveExt(ResolvePlatform(platform))

	extractors := opts.Extractors
	if extractors == nil {
		extractors = extractorsByExt
	}
	extractor := extractors[ext]
	if extractor == nil {
		return nil, fmt.Errorf("gobridge: install go%s: no extractor for %q archives", version, ext)
	}

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return nil, fmt.Errorf("gobridge: ensure install dir %s: %w", installDir, err)
	}

	want := opts.Checksum
	var digest string

	g, gctx := errgroup.WithContext(ctx)

	if want == "" && opts.VerifyPublishedChecksum {
		g.Go(func() error {
			published, err := fetchChecksum(gctx, client, url+".sha256")
			if err != nil {
				return err
			}
			want = published
			return nil
		})
	}

	g.Go(func() error {
		req, err := http.NewRequestWithContext(gctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("gobridge: compose download request: %w", err)
		}

		res, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("gobridge: download %s: %w", url, err)
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return fmt.Errorf("gobridge: download %s: unexpected status %d %s", url, res.StatusCode, http.StatusText(res.StatusCode))
		}

		hasher := sha256.New()
		if err := extractor.Extract(installDir, io.TeeReader(res.Body, hasher)); err != nil {
			return fmt.Errorf("gobridge: extract %s: %w", url, err)
		}

		digest = hex.EncodeToString(hasher.Sum(nil))
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if want != "" && digest != want {
		return nil, fmt.Errorf("gobridge: install go%s: checksum mismatch: got %s, want %s", version, digest, want)
	}

	goBin := filepath.Join(installDir, "bin", executableName(platform))
	handle, err := New(goBin, workspace, platform, arch, opts.Modules, opts.Toolchain)
	if err != nil {
		return nil, err
	}

	return handle, nil
}

// executableName returns the name of the toolchain binary inside the
// distribution's bin directory for a host platform identifier.
func executableName(platform string) string {
	if ResolvePlatform(platform) == "windows" {
		return "go.exe"
	}
	return "go"
}

func fetchChecksum(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("gobridge: compose checksum request: %w", err)
	}

	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gobridge: download %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gobridge: download %s: unexpected status %d %s", url, res.StatusCode, http.StatusText(res.StatusCode))
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("gobridge: read %s: %w", url, err)
	}

	return strings.TrimSpace(string(data)), nil
}
