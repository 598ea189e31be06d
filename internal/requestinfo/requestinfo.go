//
//  internal/requestinfo/requestinfo.go
//
//  Per-request client metadata for the access log: client address,
//  user-agent summary, and an optional country hint.  Values are inert and
//  safe to log.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

// Info is what Enrich attaches to each request.
type Info struct {
	IP        net.IP
	Client    string // "Chrome", "Firefox", "curl", ... or "Unknown"
	Version   string
	OS        string
	Device    string // Desktop, Phone, Tablet, Bot, ...
	IsBot     bool
	Country   string // ISO code; empty without a GeoIP database
	Timestamp time.Time
}

// GeoDB wraps a MaxMind reader.  A nil *GeoDB is valid and never matches.
type GeoDB struct {
	r *geoip2.Reader
}

// OpenGeo opens a GeoLite2 Country or City database.  An empty path
// disables lookups and returns (nil, nil).
func OpenGeo(path string) (*GeoDB, error) {
	if path == "" {
		return nil, nil
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoDB{r: r}, nil
}

// Close releases the database handle.
func (g *GeoDB) Close() error {
	if g == nil || g.r == nil {
		return nil
	}
	return g.r.Close()
}

// Country returns the ISO code for ip, or "" when unknown.
func (g *GeoDB) Country(ip net.IP) string {
	if g == nil || g.r == nil || ip == nil {
		return ""
	}
	rec, err := g.r.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}

type ctxKey struct{}

// FromContext returns the value stored by Enrich, or nil.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

// WithInfo stores info on ctx.
func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// parseAgent fills the user-agent fields.  Scripted clients (curl,
// labelctl, Go's http package) are not browsers; uasurfer reports them as
// Unknown, so their leading product token is kept instead.
func parseAgent(info *Info, header string) {
	u := uasurfer.Parse(header)
	info.Client = strings.TrimPrefix(u.Browser.Name.String(), "Browser")
	info.Version = formatVersion(u.Browser.Version)
	info.OS = strings.TrimPrefix(u.OS.Name.String(), "OS")
	if info.OS == "MacOSX" {
		info.OS = "macOS"
	}
	info.Device = deviceName(u.DeviceType)
	info.IsBot = u.IsBot()

	if u.Browser.Name == uasurfer.BrowserUnknown {
		if product, version, ok := productToken(header); ok {
			info.Client = product
			info.Version = version
			if !info.IsBot {
				info.Device = "Script"
			}
		}
	}
}

// productToken splits the first "name/version" token of a User-Agent.
func productToken(header string) (name, version string, ok bool) {
	tok, _, _ := strings.Cut(strings.TrimSpace(header), " ")
	name, version, ok = strings.Cut(tok, "/")
	if !ok || name == "" {
		return "", "", false
	}
	return name, version, true
}

// formatVersion builds "major.minor.patch" and drops trailing ".0"s.
func formatVersion(v uasurfer.Version) string {
	out := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	for strings.HasSuffix(out, ".0") {
		out = strings.TrimSuffix(out, ".0")
	}
	return out
}

func deviceName(dt uasurfer.DeviceType) string {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}
