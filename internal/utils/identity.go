package utils

import (
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// clientAddressHeaders lists proxy headers in lookup order.
var clientAddressHeaders = []string{
	"X-Forwarded-For",
	"X-Nf-Client-Connection-Ip",
	"X-Real-Ip",
}

// ClientAddress derives the caller's address from proxy headers, falling back to the
// socket peer and finally to fallback. It is not an authenticated identity.
func ClientAddress(r *http.Request, fallback string) string {
	for _, h := range clientAddressHeaders {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		// X-Forwarded-For is a list; the left-most entry is the original client.
		if i := strings.IndexByte(v, ','); i >= 0 {
			v = v[:i]
		}
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
	}
	return fallback
}

// HashIdentity returns a hex BLAKE2b-256 digest of the identity so raw client
// addresses are never kept in memory tables or written to logs.
func HashIdentity(identity string) string {
	sum := blake2b.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:])
}

// ShortHash is the log-safe prefix of a hashed identity.
func ShortHash(hashed string) string {
	if len(hashed) > 12 {
		return hashed[:12]
	}
	return hashed
}
