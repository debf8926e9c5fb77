// Servicio de firma digital XAdES-BES para comprobantes electrónicos SRI.
// Inyecta <ds:Signature> como último hijo del elemento raíz <factura>
// (firma enveloped, Reference URI="#comprobante").

package signer

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	pkgsri "github.com/jvillacis/tallerpro-api/pkg/sri"
)

// XAdESService implementa la firma XAdES-BES sobre el XML del comprobante.
type XAdESService struct{}

// NewXAdESService crea el servicio.
func NewXAdESService() *XAdESService {
	return &XAdESService{}
}

// Sign implementa pkg/sri.Signer. Calcula los digests, firma SignedInfo con
// RSA-SHA1 e inyecta el nodo ds:Signature dentro de <factura>.
func (s *XAdESService) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("sri: XML vacío")
	}
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("sri: el certificado debe incluir llave privada RSA")
	}
	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("sri: parsear certificado: %w", err)
	}

	// 1) Digest del documento completo (C14N) para la Reference enveloped "#comprobante".
	canonicalDoc, err := canonicalizeXML(xmlBytes)
	if err != nil {
		canonicalDoc = xmlBytes
	}
	docDigest := sha1.Sum(canonicalDoc)
	docDigestB64 := base64.StdEncoding.EncodeToString(docDigest[:])

	// 2) SignedProperties (SigningTime, SigningCertificate) y su digest.
	signingTime := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	certDigestB64, issuerName, serial := CertDigestAndIssuerSerial(x509Cert)
	signedPropsXML := s.buildSignedProperties(signingTime, certDigestB64, issuerName, serial)
	canonicalProps, err := canonicalizeXML([]byte(signedPropsXML))
	if err != nil {
		canonicalProps = []byte(signedPropsXML)
	}
	propsDigest := sha1.Sum(canonicalProps)
	propsDigestB64 := base64.StdEncoding.EncodeToString(propsDigest[:])

	// 3) SignedInfo con ambas References; se canoniza y se firma RSA-SHA1.
	signedInfoXML := s.buildSignedInfo(docDigestB64, propsDigestB64)
	canonicalSignedInfo, err := canonicalizeXML([]byte(signedInfoXML))
	if err != nil {
		canonicalSignedInfo = []byte(signedInfoXML)
	}
	signHash := sha1.Sum(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA1, signHash[:])
	if err != nil {
		return nil, fmt.Errorf("sri: firmar SignedInfo: %w", err)
	}
	signatureValueB64 := base64.StdEncoding.EncodeToString(signatureValue)
	certB64 := base64.StdEncoding.EncodeToString(x509Cert.Raw)

	signatureXML := s.buildFullSignature(signedInfoXML, signatureValueB64, certB64, signedPropsXML)

	// 4) Inyectar como último hijo de <factura>.
	return s.injectSignature(xmlBytes, signatureXML)
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func (s *XAdESService) buildSignedInfo(docDigestB64, propsDigestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo xmlns:ds="` + NamespaceDS + `" xmlns:xades="` + NamespaceXAdES + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgC14N + `"/>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + AlgRSASHA1 + `"/>`)
	sb.WriteString(`<ds:Reference Id="SignedPropertiesID" Type="` + TypeSignedProperties + `" URI="#SignedProperties">`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA1 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + propsDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`<ds:Reference URI="#` + ComprobanteElementID + `">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + TransformEnveloped + `"/></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA1 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + docDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

func (s *XAdESService) buildSignedProperties(signingTime, certDigestB64, issuerName, serial string) string {
	var sb strings.Builder
	sb.WriteString(`<xades:SignedProperties xmlns:ds="` + NamespaceDS + `" xmlns:xades="` + NamespaceXAdES + `" Id="SignedProperties">`)
	sb.WriteString(`<xades:SignedSignatureProperties>`)
	sb.WriteString(`<xades:SigningTime>` + signingTime + `</xades:SigningTime>`)
	sb.WriteString(`<xades:SigningCertificate><xades:Cert>`)
	sb.WriteString(`<xades:CertDigest><ds:DigestMethod Algorithm="` + AlgSHA1 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + certDigestB64 + `</ds:DigestValue></xades:CertDigest>`)
	sb.WriteString(`<xades:IssuerSerial><ds:X509IssuerName>` + escapeXML(issuerName) + `</ds:X509IssuerName>`)
	sb.WriteString(`<ds:X509SerialNumber>` + serial + `</ds:X509SerialNumber></xades:IssuerSerial>`)
	sb.WriteString(`</xades:Cert></xades:SigningCertificate>`)
	sb.WriteString(`</xades:SignedSignatureProperties>`)
	sb.WriteString(`</xades:SignedProperties>`)
	return sb.String()
}

func (s *XAdESService) buildFullSignature(signedInfoXML, signatureValueB64, certB64, signedPropsXML string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature xmlns:ds="` + NamespaceDS + `" xmlns:xades="` + NamespaceXAdES + `" Id="Signature">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<ds:SignatureValue>` + signatureValueB64 + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo><ds:X509Data><ds:X509Certificate>` + certB64 + `</ds:X509Certificate></ds:X509Data></ds:KeyInfo>`)
	sb.WriteString(`<ds:Object><xades:QualifyingProperties Target="#Signature">`)
	sb.WriteString(signedPropsXML)
	sb.WriteString(`</xades:QualifyingProperties></ds:Object>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

func (s *XAdESService) injectSignature(xmlBytes []byte, signatureXML string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("sri: parsear XML del comprobante: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("sri: documento sin raíz")
	}
	if root.SelectAttrValue("id", "") != ComprobanteElementID {
		return nil, fmt.Errorf("sri: el elemento raíz no tiene id=%q", ComprobanteElementID)
	}

	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, fmt.Errorf("sri: parsear Signature: %w", err)
	}
	sigRoot := sigDoc.Root()
	if sigRoot == nil {
		return nil, fmt.Errorf("sri: firma sin raíz")
	}
	root.AddChild(sigRoot)

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("sri: serializar XML firmado: %w", err)
	}
	return out.Bytes(), nil
}

var _ pkgsri.Signer = (*XAdESService)(nil)
