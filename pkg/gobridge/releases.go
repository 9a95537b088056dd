package gobridge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/debug"
	"github.com/gocolly/colly/v2/extensions"
)

const (
	releasesDomain   = "go.dev"
	releasesEndpoint = "https://" + releasesDomain + "/dl/"
)

// The Client retrieves the catalog of published toolchain releases from the
// vendor's downloads page. It lets callers resolve version strings and
// obtain archive checksums without hardcoding either.
type Client struct {
	// CacheDir specifies a location where GET requests the scraper makes
	// are cached as files. Caching is disabled if not provided.
	CacheDir string
	// Debugger is an optional debugger implementation used by the scraper.
	Debugger debug.Debugger
	// RoundTripper is, if defined, a custom roundtripper used by the scraper.
	RoundTripper http.RoundTripper
	// Timeout is the request timeout. Defaults to no timeout.
	Timeout time.Duration

	collector     *colly.Collector
	collectorInit sync.Once
}

func (c *Client) getCollector(ctx context.Context) *colly.Collector {
	c.collectorInit.Do(func() {
		col := colly.NewCollector()
		col.AllowedDomains = []string{releasesDomain, "www." + releasesDomain}
		col.CacheDir = c.CacheDir
		col.AllowURLRevisit = true
		// SetDebugger initializes the debugger right away, so a nil one
		// must not be handed to it.
		if c.Debugger != nil {
			col.SetDebugger(c.Debugger)
		}
		col.WithTransport(c.RoundTripper)
		col.SetRequestTimeout(c.Timeout)
		extensions.RandomUserAgent(col)

		c.collector = col
	})

	col := c.collector.Clone()
	col.Context = ctx
	return col
}

// A Release is one published toolchain version together with its
// downloadable files.
type Release struct {
	// Version is the bare version string, e.g. "1.12".
	Version string
	// Files are the artifacts published for this version.
	Files []ReleaseFile
}

// File returns the distribution archive published for the given host
// platform/architecture pair, or false when the release has none.
func (r *Release) File(platform, arch string) (ReleaseFile, bool) {
	p := ResolvePlatform(platform)
	a := ResolveArch(arch)
	name := fmt.Sprintf("go%s.%s-%s.%s", r.Version, p, a, archiveExt(p))

	for _, f := range r.Files {
		if f.Filename == name {
			return f, true
		}
	}

	return ReleaseFile{}, false
}

// A ReleaseFile is a single downloadable artifact of a release.
type ReleaseFile struct {
	// Filename of the artifact, e.g. "go1.12.linux-amd64.tar.gz".
	Filename string
	// URL the artifact is downloaded from.
	URL string
	// Kind of artifact as the catalog reports it: "Archive", "Installer"
	// or "Source".
	Kind string
	// OS and Arch as the catalog displays them. Empty for source archives.
	OS   string
	Arch string
	// SizeBytes is the artifact size. 0 when the catalog lists none.
	SizeBytes int64
	// SHA256 is the published checksum of the artifact, in hex.
	SHA256 string
}

// ReadableSize returns the artifact size in a human-readable format.
func (f *ReleaseFile) ReadableSize() string {
	return units.HumanSize(float64(f.SizeBytes))
}

// Releases scrapes the downloads page and returns every published release,
// newest first, as listed there. It returns an error if the page cannot be
// retrieved or lists no versions.
func (c *Client) Releases(ctx context.Context) ([]Release, error) {
	col := c.getCollector(ctx)

	var releases []Release

	col.OnHTML(`div.toggle, div.toggleVisible`, func(h *colly.HTMLElement) {
		id := h.Attr("id")
		if !strings.HasPrefix(id, "go") {
			return
		}

		rel := Release{Version: strings.TrimPrefix(id, "go")}

		h.ForEach(`table.downloads tr`, func(_ int, row *colly.HTMLElement) {
			var f ReleaseFile

			row.ForEach(`td`, func(i int, cell *colly.HTMLElement) {
				switch i {
				case 0:
					f.Filename = strings.TrimSpace(cell.ChildText(`a`))
					f.URL = cell.Request.AbsoluteURL(cell.ChildAttr(`a`, `href`))
				case 1:
					f.Kind = strings.TrimSpace(cell.Text)
				case 2:
					f.OS = strings.TrimSpace(cell.Text)
				case 3:
					f.Arch = strings.TrimSpace(cell.Text)
				case 4:
					if size, err := units.FromHumanSize(strings.TrimSpace(cell.Text)); err == nil {
						f.SizeBytes = size
					}
				case 5:
					f.SHA256 = strings.TrimSpace(cell.ChildText(`tt`))
				}
			})

			// Header rows have no cells and parse to an empty filename.
			if f.Filename != "" {
				rel.Files = append(rel.Files, f)
			}
		})

		releases = append(releases, rel)
	})

	if err := col.Visit(releasesEndpoint); err != nil {
		return nil, fmt.Errorf("gobridge: failed to list releases: %w", err)
	}

	if len(releases) == 0 {
		return nil, fmt.Errorf("gobridge: failed to list releases: no versions found")
	}

	return releases, nil
}

// FindRelease returns the catalog entry for the given bare version string.
// It returns an error if the version is not listed.
func (c *Client) FindRelease(ctx context.Context, version string) (*Release, error) {
	releases, err := c.Releases(ctx)
	if err != nil {
		return nil, err
	}

	for i := range releases {
		if releases[i].Version == version {
			return &releases[i], nil
		}
	}

	return nil, fmt.Errorf("gobridge: no release with version %s", version)
}
