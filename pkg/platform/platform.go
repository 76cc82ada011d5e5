package platform

import "runtime"

// Platform identifies a host as a canonical (OS, architecture) pair.
// The zero value means the host is not a supported release target.
type Platform struct {
	OS   string
	Arch string
}

// Canonical OS and architecture names used in release asset filenames.
const (
	OSDarwin  = "darwin"
	OSLinux   = "linux"
	OSWindows = "windows"

	ArchX8664   = "x86_64"
	ArchAarch64 = "aarch64"
)

// osAliases maps common OS spellings to canonical names.
var osAliases = map[string]string{
	"darwin":  OSDarwin,
	"macos":   OSDarwin,
	"osx":     OSDarwin,
	"linux":   OSLinux,
	"windows": OSWindows,
}

// archAliases maps common architecture spellings to canonical names.
var archAliases = map[string]string{
	"x86_64":  ArchX8664,
	"amd64":   ArchX8664,
	"x64":     ArchX8664,
	"aarch64": ArchAarch64,
	"arm64":   ArchAarch64,
}

// Detect identifies the running host. An unrecognized OS/arch combination
// yields the zero Platform, which callers must treat as "no prebuilt binary
// for this host", not as an error.
func Detect() Platform {
	return Normalize(runtime.GOOS, runtime.GOARCH)
}

// Normalize maps OS and architecture spellings to a canonical Platform.
// Unknown spellings yield the zero Platform.
func Normalize(osName, arch string) Platform {
	o, okOS := osAliases[osName]
	a, okArch := archAliases[arch]
	if !okOS || !okArch {
		return Platform{}
	}
	return Platform{OS: o, Arch: a}
}

// Supported reports whether the platform is a recognized release target.
func (p Platform) Supported() bool {
	return p.OS != "" && p.Arch != ""
}

// String returns the canonical os-arch identifier used to match release
// asset filenames, e.g. "linux-x86_64".
func (p Platform) String() string {
	if !p.Supported() {
		return "unsupported"
	}
	return p.OS + "-" + p.Arch
}
