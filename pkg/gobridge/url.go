package gobridge

import "fmt"

const distEndpoint = "https://dl.google.com/go"

// archiveExt returns the archive container extension the distribution uses
// for the given resolved platform. Windows releases ship as zip archives,
// every other platform as gzipped tarballs.
func archiveExt(platform string) string {
	if platform == "windows" {
		return "zip"
	}
	return "tar.gz"
}

// DownloadURL composes the distribution archive URL for a toolchain version
// and a host platform/architecture pair. The pair is resolved to the
// vendor's naming before it is substituted into the URL; the version string
// is substituted verbatim.
func DownloadURL(version, platform, arch string) string {
	platform = ResolvePlatform(platform)
	arch = ResolveArch(arch)

	return fmt.Sprintf("%s/go%s.%s-%s.%s", distEndpoint, version, platform, arch, archiveExt(platform))
}
