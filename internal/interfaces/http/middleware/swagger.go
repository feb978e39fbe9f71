package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SwaggerConfig controls access to the generated API documentation.
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	// AllowedIPs whitelists client addresses, as single IPs or CIDR
	// ranges. Empty means any address.
	AllowedIPs []string
}

// ipWhitelist holds the parsed form of SwaggerConfig.AllowedIPs. Bare IPs
// are normalized to host-only CIDR ranges so a single Contains path serves
// both entry kinds.
type ipWhitelist []*net.IPNet

func parseWhitelist(entries []string) ipWhitelist {
	var wl ipWhitelist
	for _, entry := range entries {
		if !strings.Contains(entry, "/") {
			if ip := net.ParseIP(entry); ip != nil {
				if ip.To4() != nil {
					entry += "/32"
				} else {
					entry += "/128"
				}
			}
		}
		if _, network, err := net.ParseCIDR(entry); err == nil {
			wl = append(wl, network)
		}
	}
	return wl
}

func (wl ipWhitelist) contains(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, network := range wl {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// SwaggerProtection gates the documentation routes. A disabled config hides
// them behind 404 so production deployments do not reveal the docs exist.
// When a whitelist is set, only listed addresses get through; RequireAuth
// additionally runs the given JWT middleware.
func SwaggerProtection(cfg SwaggerConfig, jwtMiddleware gin.HandlerFunc) gin.HandlerFunc {
	whitelist := parseWhitelist(cfg.AllowedIPs)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "API documentation is not available",
			})
			return
		}

		if len(cfg.AllowedIPs) > 0 && !whitelist.contains(clientAddr(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Access to API documentation is restricted",
			})
			return
		}

		if cfg.RequireAuth && jwtMiddleware != nil {
			jwtMiddleware(c)
			if c.IsAborted() {
				return
			}
		}

		c.Next()
	}
}

// clientAddr resolves the caller's IP, preferring gin's trusted-proxy aware
// ClientIP and falling back to the raw remote address.
func clientAddr(c *gin.Context) net.IP {
	if ip := net.ParseIP(c.ClientIP()); ip != nil {
		return ip
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		host = c.Request.RemoteAddr
	}
	return net.ParseIP(host)
}
