package utils

import (
	"log"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

const (
	LocationLAN     = "LAN"
	LocationUnknown = "Unknown"
)

type GeoResolver struct {
	db    *geoip2.Reader
	cache sync.Map // map[string]string
}

// NewGeoResolver opens the GeoLite2 city database at dbPath. A missing or unreadable
// database leaves the resolver usable: private addresses still resolve to LAN and
// everything else to Unknown.
func NewGeoResolver(dbPath string) *GeoResolver {
	g := &GeoResolver{}
	if dbPath == "" {
		return g
	}

	db, err := geoip2.Open(dbPath)
	if err != nil {
		log.Printf("⚠️  Could not open GeoIP database at %s: %v", dbPath, err)
		return g
	}
	g.db = db
	log.Printf("✓ GeoIP database loaded from %s", dbPath)
	return g
}

func (g *GeoResolver) Close() {
	if g != nil && g.db != nil {
		g.db.Close()
	}
}

// Lookup is safe to call on a nil resolver
func (g *GeoResolver) Lookup(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return LocationUnknown
	}
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
		return LocationLAN
	}
	if g == nil || g.db == nil {
		return LocationUnknown
	}

	if val, ok := g.cache.Load(ipStr); ok {
		return val.(string)
	}

	location := LocationUnknown
	record, err := g.db.City(ip)
	if err == nil {
		country := record.Country.Names["en"]
		city := record.City.Names["en"]
		switch {
		case city != "" && country != "":
			location = city + ", " + country
		case country != "":
			location = country
		}
	}

	g.cache.Store(ipStr, location)
	return location
}
