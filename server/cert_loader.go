package server

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// certCheckInterval bounds how often the certificate files are stat'ed.
const certCheckInterval = time.Minute

// CertLoader serves the listener's TLS certificate and picks up renewed
// certificate files without a restart.
type CertLoader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	cert      *tls.Certificate
	loadedAt  time.Time
	lastCheck time.Time
}

// NewCertLoader loads the key pair and returns a loader serving it.
func NewCertLoader(certFile, keyFile string, logger *slog.Logger) (*CertLoader, error) {
	return newCertLoader(certFile, keyFile, logger, time.Now)
}

func newCertLoader(certFile, keyFile string, logger *slog.Logger, now func() time.Time) (*CertLoader, error) {
	l := &CertLoader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   logger,
		now:      now,
	}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// GetCertificate is a tls.Config.GetCertificate callback. On reload errors
// the previously loaded certificate keeps being served.
func (l *CertLoader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	l.mu.RLock()
	if l.now().Sub(l.lastCheck) < certCheckInterval {
		defer l.mu.RUnlock()
		return l.cert, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.now().Sub(l.lastCheck) < certCheckInterval {
		return l.cert, nil
	}
	l.lastCheck = l.now()

	changed, err := l.filesChanged()
	if err != nil {
		l.logger.Error("failed to stat certificate files", "error", err)
		return l.cert, nil
	}
	if changed {
		if err := l.reload(); err != nil {
			l.logger.Error("failed to reload certificate", "error", err)
		}
	}
	return l.cert, nil
}

func (l *CertLoader) filesChanged() (bool, error) {
	for _, name := range []string{l.certFile, l.keyFile} {
		info, err := os.Stat(name)
		if err != nil {
			return false, err
		}
		if info.ModTime().After(l.loadedAt) {
			return true, nil
		}
	}
	return false, nil
}

func (l *CertLoader) reload() error {
	cert, err := tls.LoadX509KeyPair(l.certFile, l.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load key pair: %w", err)
	}
	l.cert = &cert
	l.loadedAt = l.now()
	l.logger.Info("loaded tls certificate", "cert", l.certFile, "key", l.keyFile)
	return nil
}
