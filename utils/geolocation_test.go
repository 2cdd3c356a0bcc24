package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeoResolver_NilSafe(t *testing.T) {
	var g *GeoResolver

	assert.Equal(t, LocationLAN, g.Lookup("192.168.1.10"))
	assert.Equal(t, LocationUnknown, g.Lookup("8.8.8.8"))
	assert.Equal(t, LocationUnknown, g.Lookup("not-an-ip"))
	g.Close()
}

func TestGeoResolver_WithoutDatabase(t *testing.T) {
	g := NewGeoResolver("")
	defer g.Close()

	assert.Equal(t, LocationLAN, g.Lookup("10.0.0.5"))
	assert.Equal(t, LocationLAN, g.Lookup("127.0.0.1"))
	assert.Equal(t, LocationUnknown, g.Lookup("1.1.1.1"))
}

func TestGeoResolver_MissingDatabaseFile(t *testing.T) {
	g := NewGeoResolver("/nonexistent/GeoLite2-City.mmdb")
	defer g.Close()

	assert.Equal(t, LocationUnknown, g.Lookup("1.1.1.1"))
}
