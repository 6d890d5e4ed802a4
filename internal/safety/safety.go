// Package safety holds the guards shared by the fetch, cache and asset
// layers: URL checks before a request leaves the process, bounded body
// reads, file names that cannot escape their directory, and atomic writes.
package safety

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsafeScheme is returned for URLs that are not http or https.
	ErrUnsafeScheme = errors.New("safety: only http and https URLs are fetched")
	// ErrPrivateHost is returned when a URL targets a loopback or private address.
	ErrPrivateHost = errors.New("safety: URL targets a private or loopback address")
	// ErrPathEscape is returned when a file name would leave its directory.
	ErrPathEscape = errors.New("safety: file name escapes directory")
	// ErrTooLarge is returned by LimitedReadAll when the limit is exceeded.
	ErrTooLarge = errors.New("safety: body exceeds limit")
)

// CheckScheme accepts absolute http(s) URLs with a host.
func CheckScheme(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("safety: invalid URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return ErrUnsafeScheme
	}
	if u.Hostname() == "" {
		return fmt.Errorf("safety: URL %q has no host", rawURL)
	}
	return nil
}

// ValidatePublicURL is CheckScheme plus a refusal of hosts that are, or
// resolve to, private addresses. Unresolvable hosts pass; the dial fails later.
func ValidatePublicURL(rawURL string) error {
	if err := CheckScheme(rawURL); err != nil {
		return err
	}
	u, _ := url.Parse(rawURL)
	host := u.Hostname()

	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return ErrPrivateHost
		}
		return nil
	}
	addrs, err := net.LookupHost(host)
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && isPrivateIP(ip) {
			return ErrPrivateHost
		}
	}
	return nil
}

// LimitedReadAll reads r up to maxBytes and fails with ErrTooLarge beyond it.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxBytes)
	}
	return data, nil
}

// JoinFile joins a bare file name onto dir. Empty names, dot names and
// names containing a separator are refused.
func JoinFile(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, name)
	}
	joined := filepath.Join(dir, name)
	if filepath.Dir(joined) != filepath.Clean(dir) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, name)
	}
	return joined, nil
}

// WriteFileAtomic writes data next to path and renames it into place, so
// readers see either the old file or the complete new one.
func WriteFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("safety: write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("safety: rename: %w", err)
	}
	return nil
}

var privateNets = func() []*net.IPNet {
	var out []*net.IPNet
	for _, cidr := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"fc00::/7",
	} {
		_, n, err := net.ParseCIDR(cidr)
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}()

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	for _, n := range privateNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
