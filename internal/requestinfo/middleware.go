// internal/requestinfo/middleware.go
//
// HTTP middleware that attaches *Info to each request.
//
/*
Context
--------
This handler sits right after request-id assignment and before the access
log, so the log line can name the workstation and client that sent a
print request.  For every request it:

  1. Extracts the left-most client IP from X-Forwarded-For or X-Real-IP,
     falling back to `r.RemoteAddr`.
  2. Summarises the User-Agent (a browser via uasurfer, else the
     script's product token).
  3. Looks up a country hint when a GeoIP database is configured.
  4. Stores the result in `request.Context` under an unexported key.

Notes
-----
  • All look-ups are read-only, so the middleware is safe under concurrency.
  • Oxford commas, two spaces after periods.  No em dash.
*/
package requestinfo

import (
	"net"
	"net/http"
	"strings"
	"time"
)

// Enrich returns middleware bound to geo (which may be nil).
func Enrich(geo *GeoDB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			info := &Info{IP: clientIP(r), Timestamp: time.Now().UTC()}
			info.Country = geo.Country(info.IP)
			parseAgent(info, r.UserAgent())
			next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
		}
		return http.HandlerFunc(fn)
	}
}

// clientIP returns the first parseable address from X-Forwarded-For, then
// X-Real-Ip, then r.RemoteAddr (with or without a port).
func clientIP(r *http.Request) net.IP {
	for _, h := range [...]string{"X-Forwarded-For", "X-Real-Ip"} {
		for _, part := range strings.Split(r.Header.Get(h), ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
