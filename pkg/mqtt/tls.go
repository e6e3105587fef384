package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/rf-tools/rtlamr2mqtt/pkg/config"
	"github.com/rf-tools/rtlamr2mqtt/pkg/errors"
)

// newTLSConfig builds the transport encryption profile for the broker
// connection from the configured CA and optional client certificate pair.
func newTLSConfig(cfg *config.MQTTConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.IsTLSInsecure(),
	}

	if cfg.TLSCA != "" {
		caCert, err := os.ReadFile(cfg.TLSCA)
		if err != nil {
			return nil, errors.NewIOError("failed to read CA certificate", err).WithContext("tls_ca", cfg.TLSCA)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, errors.NewValidationError("failed to parse CA certificate", nil).WithContext("tls_ca", cfg.TLSCA)
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.TLSCert != "" && cfg.TLSKeyfile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKeyfile)
		if err != nil {
			return nil, errors.NewIOError("failed to load client certificate", err).
				WithContext("tls_cert", cfg.TLSCert).WithContext("tls_keyfile", cfg.TLSKeyfile)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
