package http_test

import (
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	pkghttp "github.com/tmorgan-dev/authgate/pkg/http"
)

func TestClientKey_UsesRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(nethttp.MethodPost, "/admin/auth/login", nil)
	req.RemoteAddr = "203.0.113.1:51234"

	key := pkghttp.ClientKey(req, &pkghttp.ClientKeyConfig{})

	assert.Equal(t, "203.0.113.1", key)
}

func TestClientKey_IgnoresForwardedHeadersFromUntrustedPeer(t *testing.T) {
	req := httptest.NewRequest(nethttp.MethodPost, "/admin/auth/login", nil)
	req.RemoteAddr = "203.0.113.1:51234"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	req.Header.Set("X-Real-IP", "198.51.100.7")

	key := pkghttp.ClientKey(req, &pkghttp.ClientKeyConfig{})

	assert.Equal(t, "203.0.113.1", key)
}

func TestClientKey_HonorsForwardedHeaderFromTrustedProxy(t *testing.T) {
	req := httptest.NewRequest(nethttp.MethodPost, "/admin/auth/login", nil)
	req.RemoteAddr = "10.0.0.5:44330"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.5")

	key := pkghttp.ClientKey(req, &pkghttp.ClientKeyConfig{TrustedProxies: []string{"10.0.0.0/8"}})

	assert.Equal(t, "198.51.100.7", key)
}

func TestClientKey_SkipsInvalidForwardedEntries(t *testing.T) {
	req := httptest.NewRequest(nethttp.MethodPost, "/admin/auth/login", nil)
	req.RemoteAddr = "10.0.0.5:44330"
	req.Header.Set("X-Forwarded-For", "not-an-ip, 198.51.100.7")

	key := pkghttp.ClientKey(req, &pkghttp.ClientKeyConfig{TrustedProxies: []string{"10.0.0.0/8"}})

	assert.Equal(t, "198.51.100.7", key)
}

func TestClientKey_FallsBackToRealIPHeader(t *testing.T) {
	req := httptest.NewRequest(nethttp.MethodPost, "/admin/auth/login", nil)
	req.RemoteAddr = "10.0.0.5:44330"
	req.Header.Set("X-Real-IP", "198.51.100.9")

	key := pkghttp.ClientKey(req, &pkghttp.ClientKeyConfig{TrustedProxies: []string{"10.0.0.0/8"}})

	assert.Equal(t, "198.51.100.9", key)
}

func TestClientKey_TrustedProxyWithoutHeadersUsesProxyAddr(t *testing.T) {
	req := httptest.NewRequest(nethttp.MethodPost, "/admin/auth/login", nil)
	req.RemoteAddr = "10.0.0.5:44330"

	key := pkghttp.ClientKey(req, &pkghttp.ClientKeyConfig{TrustedProxies: []string{"10.0.0.0/8"}})

	assert.Equal(t, "10.0.0.5", key)
}

func TestClientKey_UnknownWhenNoAddress(t *testing.T) {
	req := httptest.NewRequest(nethttp.MethodPost, "/admin/auth/login", nil)
	req.RemoteAddr = ""

	key := pkghttp.ClientKey(req, &pkghttp.ClientKeyConfig{})

	assert.Equal(t, pkghttp.UnknownClientKey, key)
}

func TestClientKey_InvalidCIDRIsSkipped(t *testing.T) {
	req := httptest.NewRequest(nethttp.MethodPost, "/admin/auth/login", nil)
	req.RemoteAddr = "10.0.0.5:44330"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")

	key := pkghttp.ClientKey(req, &pkghttp.ClientKeyConfig{TrustedProxies: []string{"bogus"}})

	assert.Equal(t, "10.0.0.5", key)
}
