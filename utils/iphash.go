package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
)

// ClientIP strips the port from a RemoteAddr-style "ip:port" value so the
// same client keeps one identity across connections. Input without a port
// comes back unchanged.
func ClientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// HashIP hashes an IP address for anonymous attribution. Only the first
// 8 bytes of the digest are kept; enough to key reactions without
// storing the raw address.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
