// Constantes para firma XAdES-BES de comprobantes electrónicos SRI.

package signer

// Namespaces y algoritmos XMLDSig / XAdES. El SRI valida firmas XAdES-BES con
// RSA-SHA1, el perfil de su aplicación de referencia.
const (
	NamespaceDS    = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceXAdES = "http://uri.etsi.org/01903/v1.3.2#"

	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA1         = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	AlgSHA1            = "http://www.w3.org/2000/09/xmldsig#sha1"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"

	// TypeSignedProperties valor del atributo Type de la Reference a SignedProperties.
	TypeSignedProperties = "http://uri.etsi.org/01903#SignedProperties"
)

// ComprobanteElementID id del elemento raíz <factura> al que apunta la
// Reference principal (URI="#comprobante").
const ComprobanteElementID = "comprobante"
