// Package sri: interfaz para firma digital de comprobantes XML (XAdES-BES, SRI).

package sri

import "crypto/tls"

// Signer firma el XML de un comprobante y devuelve el XML con la firma inyectada
// como último hijo del elemento raíz (firma enveloped).
type Signer interface {
	// Sign toma el XML del comprobante (sin firma) y el certificado con llave
	// privada, y retorna el XML con el nodo ds:Signature incorporado.
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}
