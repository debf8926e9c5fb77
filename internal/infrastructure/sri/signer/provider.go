package signer

import (
	"crypto/tls"
	"strings"
	"sync"
	"time"
)

// FileCertProvider carga el certificado de firma desde disco (.p12 o PEM)
// y lo cachea. La vigencia se revalida en cada consulta para que un
// certificado que venció con el proceso corriendo deje de usarse.
type FileCertProvider struct {
	certPath string
	keyPath  string
	password string

	mu     sync.Mutex
	loaded bool
	cert   tls.Certificate

	now func() time.Time
}

func NewFileCertProvider(certPath, keyPath, password string) *FileCertProvider {
	return &FileCertProvider{
		certPath: certPath,
		keyPath:  keyPath,
		password: password,
		now:      time.Now,
	}
}

// SigningCertificate devuelve el certificado listo para firmar, o un error
// si no se puede cargar o ya no está vigente.
func (p *FileCertProvider) SigningCertificate() (tls.Certificate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		var (
			cert tls.Certificate
			err  error
		)
		if strings.HasSuffix(strings.ToLower(p.certPath), ".p12") || strings.HasSuffix(strings.ToLower(p.certPath), ".pfx") {
			cert, err = LoadFromP12(p.certPath, p.password)
		} else {
			cert, err = LoadFromPEM(p.certPath, p.keyPath)
		}
		if err != nil {
			return tls.Certificate{}, err
		}
		p.cert = cert
		p.loaded = true
	}

	if err := ValidateForSigning(p.cert, p.now()); err != nil {
		return tls.Certificate{}, err
	}
	return p.cert, nil
}
