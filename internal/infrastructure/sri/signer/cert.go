// Carga y validación del certificado de firma (.p12 del Banco Central o par PEM).

package signer

import (
	"crypto/rsa"
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/pkcs12"
)

// LoadFromP12 carga certificado y llave privada desde un archivo .p12/.pfx.
// Es el formato en que las entidades de certificación ecuatorianas (BCE,
// Security Data, ANF) entregan los certificados de firma electrónica.
func LoadFromP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// LoadFromPEM carga certificado y llave desde archivos PEM
// (certificado y llave por separado, o combinados en un solo archivo).
func LoadFromPEM(certPath, keyPath string) (tls.Certificate, error) {
	if keyPath == "" {
		keyPath = certPath
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar PEM: %w", err)
	}
	return cert, nil
}

// ValidateForSigning comprueba que el certificado sirva para firmar un
// comprobante: llave RSA presente y vigencia no vencida. Se llama antes de
// consumir un secuencial para no quemar numeración con un certificado inválido.
func ValidateForSigning(cert tls.Certificate, now time.Time) error {
	if len(cert.Certificate) == 0 {
		return fmt.Errorf("certificado no configurado")
	}
	if _, ok := cert.PrivateKey.(*rsa.PrivateKey); !ok {
		return fmt.Errorf("el certificado debe incluir llave privada RSA")
	}
	leaf := cert.Leaf
	if leaf == nil {
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return fmt.Errorf("parsear certificado: %w", err)
		}
		leaf = parsed
	}
	if now.Before(leaf.NotBefore) {
		return fmt.Errorf("certificado aún no vigente (NotBefore %s)", leaf.NotBefore.Format(time.RFC3339))
	}
	if now.After(leaf.NotAfter) {
		return fmt.Errorf("certificado vencido (NotAfter %s)", leaf.NotAfter.Format(time.RFC3339))
	}
	return nil
}

// CertDigestAndIssuerSerial devuelve el digest SHA-1 del certificado (Base64),
// el nombre del emisor y el serial en decimal para xades:SigningCertificate.
func CertDigestAndIssuerSerial(cert *x509.Certificate) (digestB64, issuerName, serial string) {
	h := sha1.Sum(cert.Raw)
	digestB64 = base64.StdEncoding.EncodeToString(h[:])
	issuerName = cert.Issuer.String()
	serial = cert.SerialNumber.String()
	return digestB64, issuerName, serial
}
