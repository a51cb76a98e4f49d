package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertHardened(t *testing.T, cfg *tls.Config) {
	t.Helper()
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	require.NotEmpty(t, cfg.CipherSuites)

	aead := map[uint16]bool{
		tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384:       true,
		tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384:         true,
		tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256:       true,
		tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256:         true,
		tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256: true,
		tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256:   true,
	}
	for _, cs := range cfg.CipherSuites {
		assert.True(t, aead[cs], "unexpected non-AEAD cipher suite: %d", cs)
	}
}

func writeCA(t *testing.T) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "handoff test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	return path
}

func TestServerTLSConfig(t *testing.T) {
	assertHardened(t, ServerTLSConfig())
}

func TestClientTLSConfig(t *testing.T) {
	cfg, err := ClientTLSConfig(ClientOptions{ServerName: "host.internal"})
	require.NoError(t, err)
	assertHardened(t, cfg)
	assert.Equal(t, "host.internal", cfg.ServerName)
	assert.Nil(t, cfg.RootCAs, "system roots by default")

	cfg, err = ClientTLSConfig(ClientOptions{CAFile: writeCA(t)})
	require.NoError(t, err)
	assert.NotNil(t, cfg.RootCAs)
}

func TestClientTLSConfig_BadCAFile(t *testing.T) {
	_, err := ClientTLSConfig(ClientOptions{CAFile: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.pem")
	require.NoError(t, os.WriteFile(empty, []byte("not a certificate"), 0o600))
	_, err = ClientTLSConfig(ClientOptions{CAFile: empty})
	assert.ErrorContains(t, err, "no certificates")
}

func TestNewClients(t *testing.T) {
	clients, err := NewClients(ClientOptions{}, 15*time.Second, 10*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, clients.Request.Timeout)
	assert.Zero(t, clients.Stream.Timeout, "streams must not be cut off by an overall timeout")

	req, ok := clients.Request.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Zero(t, req.ResponseHeaderTimeout)
	assertHardened(t, req.TLSClientConfig)

	stream, ok := clients.Stream.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, stream.ResponseHeaderTimeout)
	assert.NotSame(t, req.TLSClientConfig, stream.TLSClientConfig)
}
