package smbmount

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Scheme is the only URL scheme accepted by ParseAddress.
const Scheme = "smb"

const schemePrefix = Scheme + "://"

// Address is a validated smb://host/share address. The zero value is not a
// valid address; use ParseAddress.
type Address struct {
	Raw       string // Trimmed input
	Scheme    string // Always "smb"
	Host      string // Hostname or IP address, never empty
	Port      int    // Explicit port, 0 when the input had none
	SharePath string // Share and sub-path with separators stripped from both ends
}

// ParseAddress validates raw against the smb://host[:port][/share[/...]]
// grammar. Surrounding whitespace is ignored and the scheme is matched
// case-insensitively. An address without a share segment (smb://host) is
// valid and yields an empty SharePath.
//
// ParseAddress performs no network or filesystem access.
func ParseAddress(raw string) (Address, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Address{}, &AddressError{Raw: raw, Reason: "empty address"}
	}

	if len(s) < len(schemePrefix) || !strings.EqualFold(s[:len(schemePrefix)], schemePrefix) {
		return Address{}, &AddressError{Raw: s, Reason: "address must start with " + schemePrefix}
	}

	u, err := url.Parse(s)
	if err != nil {
		return Address{}, &AddressError{Raw: s, Reason: err.Error()}
	}

	if !u.IsAbs() || !strings.EqualFold(u.Scheme, Scheme) {
		return Address{}, &AddressError{Raw: s, Reason: "scheme must be " + Scheme}
	}

	host := u.Hostname()
	if host == "" {
		return Address{}, &AddressError{Raw: s, Reason: "host is required"}
	}

	addr := Address{
		Raw:       s,
		Scheme:    Scheme,
		Host:      host,
		SharePath: stripSeparators(u.Path),
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return Address{}, &AddressError{Raw: s, Reason: "invalid port: " + p}
		}
		addr.Port = port
	}

	return addr, nil
}

// stripSeparators converts Windows separators to forward slashes and removes
// separators from both ends of p.
func stripSeparators(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.Trim(p, "/")
}

// HasShare reports whether the address names a share.
func (a Address) HasShare() bool {
	return a.SharePath != ""
}

// Share returns the first segment of the share path, which names the share
// itself. It is empty when the address has no share.
func (a Address) Share() string {
	share, _, _ := strings.Cut(a.SharePath, "/")
	return share
}

// String renders the address in canonical smb:// form.
func (a Address) String() string {
	if a.Host == "" {
		return a.Raw
	}
	host := a.Host
	if a.Port != 0 {
		host = net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if a.SharePath == "" {
		return schemePrefix + host
	}
	return schemePrefix + host + "/" + a.SharePath
}

// UNC renders the address as a Windows UNC path (\\host\share\...).
func (a Address) UNC() string {
	unc := `\\` + a.Host
	if a.SharePath != "" {
		unc += `\` + strings.ReplaceAll(a.SharePath, "/", `\`)
	}
	return unc
}
