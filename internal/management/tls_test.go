package management

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testCA struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey
	pem  []byte
}

func newTestCA(t *testing.T) *testCA {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	return &testCA{
		cert: cert,
		key:  key,
		pem:  pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
	}
}

// issue returns a leaf certificate (DER) and its key (PEM) signed by ca.
func (ca *testCA) issue(t *testing.T, cn string) (*x509.Certificate, []byte, []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		DNSNames:     []string{cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca.cert, &key.PublicKey, ca.key)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	return cert,
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
}

func writeCertDir(t *testing.T, ca *testCA) string {
	t.Helper()
	dir := t.TempDir()
	_, certPEM, keyPEM := ca.issue(t, "router-metrics")
	for name, data := range map[string][]byte{
		CAFile:   ca.pem,
		CertFile: certPEM,
		KeyFile:  keyPEM,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadTLSConfig_ChainOnly(t *testing.T) {
	ca := newTestCA(t)
	dir := writeCertDir(t, ca)

	cfg, err := LoadTLSConfig(dir, "router.local", false)
	if err != nil {
		t.Fatalf("LoadTLSConfig: %v", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("Certificates = %d, want 1", len(cfg.Certificates))
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
	}
	if !cfg.InsecureSkipVerify || cfg.VerifyConnection == nil {
		t.Fatal("expected chain-only verification")
	}

	// A router certificate for a different name still passes.
	leaf, _, _ := ca.issue(t, "some-other-host")
	if err := cfg.VerifyConnection(tls.ConnectionState{PeerCertificates: []*x509.Certificate{leaf}}); err != nil {
		t.Errorf("VerifyConnection(trusted leaf) = %v, want nil", err)
	}

	// A certificate from another CA is rejected.
	other := newTestCA(t)
	foreign, _, _ := other.issue(t, "router.local")
	if err := cfg.VerifyConnection(tls.ConnectionState{PeerCertificates: []*x509.Certificate{foreign}}); err == nil {
		t.Error("VerifyConnection(foreign leaf) = nil, want error")
	}

	if err := cfg.VerifyConnection(tls.ConnectionState{}); err == nil {
		t.Error("VerifyConnection(no certificates) = nil, want error")
	}
}

func TestLoadTLSConfig_VerifyHostname(t *testing.T) {
	ca := newTestCA(t)
	dir := writeCertDir(t, ca)

	cfg, err := LoadTLSConfig(dir, "router.local", true)
	if err != nil {
		t.Fatalf("LoadTLSConfig: %v", err)
	}
	if cfg.InsecureSkipVerify {
		t.Error("InsecureSkipVerify = true with hostname verification")
	}
	if cfg.ServerName != "router.local" {
		t.Errorf("ServerName = %q, want router.local", cfg.ServerName)
	}
	if cfg.RootCAs == nil {
		t.Error("RootCAs = nil")
	}
}

func TestLoadTLSConfig_MissingFiles(t *testing.T) {
	if _, err := LoadTLSConfig(t.TempDir(), "r", false); err == nil {
		t.Error("LoadTLSConfig(empty dir) = nil error")
	}
}

func TestLoadTLSConfig_BadCA(t *testing.T) {
	dir := writeCertDir(t, newTestCA(t))
	if err := os.WriteFile(filepath.Join(dir, CAFile), []byte("not a cert"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTLSConfig(dir, "r", false); err == nil {
		t.Error("LoadTLSConfig(bad CA) = nil error")
	}
}
