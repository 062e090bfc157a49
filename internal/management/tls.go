package management

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File names expected inside the certificate directory.
const (
	CAFile   = "ca.crt"
	CertFile = "tls.crt"
	KeyFile  = "tls.key"
)

// LoadTLSConfig builds a client TLS configuration from certDir. The router
// certificate chain is always verified against ca.crt; the host name is only
// checked when verifyHostname is set.
func LoadTLSConfig(certDir, host string, verifyHostname bool) (*tls.Config, error) {
	caPEM, err := os.ReadFile(filepath.Join(certDir, CAFile))
	if err != nil {
		return nil, fmt.Errorf("management: tls: read CA: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("management: tls: no certificates in %s", filepath.Join(certDir, CAFile))
	}

	cert, err := tls.LoadX509KeyPair(filepath.Join(certDir, CertFile), filepath.Join(certDir, KeyFile))
	if err != nil {
		return nil, fmt.Errorf("management: tls: load key pair: %w", err)
	}

	cfg := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		ServerName:   host,
	}
	if !verifyHostname {
		// Chain-only verification: the standard check is disabled and
		// replaced by VerifyConnection below.
		cfg.InsecureSkipVerify = true
		cfg.VerifyConnection = verifyChain(pool)
	}
	return cfg, nil
}

func verifyChain(roots *x509.CertPool) func(tls.ConnectionState) error {
	return func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return errors.New("management: tls: router presented no certificate")
		}
		opts := x509.VerifyOptions{
			Roots:         roots,
			Intermediates: x509.NewCertPool(),
		}
		for _, c := range cs.PeerCertificates[1:] {
			opts.Intermediates.AddCert(c)
		}
		if _, err := cs.PeerCertificates[0].Verify(opts); err != nil {
			return fmt.Errorf("management: tls: verify router certificate: %w", err)
		}
		return nil
	}
}
