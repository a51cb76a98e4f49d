package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

// aeadSuites are the TLS 1.2 cipher suites we accept. TLS 1.3 suites are
// not configurable and are all AEAD.
var aeadSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// ServerTLSConfig returns the hardened configuration for handoffd listeners.
func ServerTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		CipherSuites: aeadSuites,
	}
}

// ClientOptions controls how host connections are verified.
type ClientOptions struct {
	// CAFile is a PEM bundle trusted in addition to the system roots, for
	// hosts behind a private CA.
	CAFile string
	// ServerName overrides the name checked against the host certificate.
	ServerName string
}

// ClientTLSConfig builds the hardened client configuration for opts.
func ClientTLSConfig(opts ClientOptions) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		CipherSuites: aeadSuites,
		ServerName:   opts.ServerName,
	}
	if opts.CAFile == "" {
		return cfg, nil
	}

	pem, err := os.ReadFile(opts.CAFile)
	if err != nil {
		return nil, fmt.Errorf("read CA file: %w", err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", opts.CAFile)
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// Clients holds the two host clients: one for request/response calls and
// one for the event stream, which must not carry an overall timeout.
type Clients struct {
	Request *http.Client
	Stream  *http.Client
}

// NewClients builds host clients sharing one TLS configuration. timeout bounds
// a whole request/response call; headerTimeout bounds only the wait for the
// event stream's response headers.
func NewClients(opts ClientOptions, timeout, headerTimeout time.Duration) (*Clients, error) {
	tlsCfg, err := ClientTLSConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Clients{
		Request: &http.Client{Timeout: timeout, Transport: transport(tlsCfg, 0)},
		Stream:  &http.Client{Transport: transport(tlsCfg, headerTimeout)},
	}, nil
}

func transport(tlsCfg *tls.Config, headerTimeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: tlsCfg.Clone(),
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		ResponseHeaderTimeout: headerTimeout,
	}
}
