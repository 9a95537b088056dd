package gobridge

// Host-reported platform and architecture identifiers do not always match
// the names the distribution archives use. The remaps below are fixed by
// the vendor's naming convention; everything else passes through unchanged.
var (
	platformNames = map[string]string{
		"win32": "windows",
	}

	archNames = map[string]string{
		"x64": "amd64",
		"x86": "386",
	}
)

// ResolvePlatform maps a host platform identifier to the name the toolchain
// distribution uses. Unknown identifiers are returned unchanged.
func ResolvePlatform(platform string) string {
	if name, ok := platformNames[platform]; ok {
		return name
	}
	return platform
}

// ResolveArch maps a host architecture identifier to the name the toolchain
// distribution uses. Unknown identifiers are returned unchanged.
func ResolveArch(arch string) string {
	if name, ok := archNames[arch]; ok {
		return name
	}
	return arch
}
