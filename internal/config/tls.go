package config

import (
	"crypto/tls"
	"fmt"
)

// GatewayTLS builds a *tls.Config for the device-facing gateway listener.
// Returns nil, nil if no cert/key is configured (plaintext mode, for running
// behind a TLS-terminating proxy). Client certificates are requested but not
// required at the handshake: devices on the basic profile present none, and
// mtls devices are checked against pinned fingerprints after the handshake.
func (c *Config) GatewayTLS() (*tls.Config, error) {
	if c.GatewayTLSCert == "" && c.GatewayTLSKey == "" {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(c.GatewayTLSCert, c.GatewayTLSKey)
	if err != nil {
		return nil, fmt.Errorf("load gateway server cert: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.RequestClientCert,
		MinVersion:   tls.VersionTLS12,
	}, nil
}
