package sri

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	pkgsri "github.com/jvillacis/tallerpro-api/pkg/sri"
)

// Endpoints de los web services offline del SRI por ambiente.
const (
	recepcionURLPruebas    = "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline"
	autorizacionURLPruebas = "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"

	recepcionURLProduccion    = "https://cel.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline"
	autorizacionURLProduccion = "https://cel.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"

	soapEnvNS        = "http://schemas.xmlsoap.org/soap/envelope/"
	recepcionENS     = "http://ec.gob.sri.ws.recepcion"
	autorizacionENS  = "http://ec.gob.sri.ws.autorizacion"
	maxSOAPRespBytes = 1 << 20 // 1 MB
)

// SRIClient define el puerto de salida hacia los web services del SRI.
// La implementación concreta usa SOAP; para tests se inyecta un mock.
type SRIClient interface {
	// ValidarComprobante envía el XML firmado (Base64) a RecepcionComprobantesOffline.
	ValidarComprobante(ctx context.Context, signedXML []byte) (*ReceptionResult, error)
	// AutorizacionComprobante consulta AutorizacionComprobantesOffline por clave de acceso.
	AutorizacionComprobante(ctx context.Context, claveAcceso string) (*AuthorizationResult, error)
}

// SOAPClient implementa SRIClient contra los endpoints del esquema offline.
// Usa net/http; los WS del SRI son SOAP 1.1 sin WS-Security.
type SOAPClient struct {
	httpClient      *http.Client
	recepcionURL    string
	autorizacionURL string
}

// NewSOAPClient construye el cliente para el ambiente dado ("1" pruebas, "2" producción).
func NewSOAPClient(ambiente string, timeout time.Duration) *SOAPClient {
	c := &SOAPClient{
		httpClient:      &http.Client{Timeout: timeout},
		recepcionURL:    recepcionURLPruebas,
		autorizacionURL: autorizacionURLPruebas,
	}
	if ambiente == pkgsri.AmbienteProduccion {
		c.recepcionURL = recepcionURLProduccion
		c.autorizacionURL = autorizacionURLProduccion
	}
	return c
}

// NewSOAPClientWithURLs construye el cliente con endpoints explícitos (tests).
func NewSOAPClientWithURLs(recepcionURL, autorizacionURL string, timeout time.Duration) *SOAPClient {
	return &SOAPClient{
		httpClient:      &http.Client{Timeout: timeout},
		recepcionURL:    recepcionURL,
		autorizacionURL: autorizacionURL,
	}
}

// ── Estructuras SOAP de request ───────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	XmlnsS  string   `xml:"xmlns:soapenv,attr"`
	XmlnsEC string   `xml:"xmlns:ec,attr"`
	Header  struct{} `xml:"soapenv:Header"`
	Body    soapBody `xml:"soapenv:Body"`
}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soapenv:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type validarComprobanteBody struct {
	XMLName xml.Name `xml:"ec:validarComprobante"`
	XML     string   `xml:"xml"` // comprobante firmado en Base64
}

type autorizacionComprobanteBody struct {
	XMLName     xml.Name `xml:"ec:autorizacionComprobante"`
	ClaveAcceso string   `xml:"claveAccesoComprobante"`
}

// ── Estructuras SOAP de respuesta ─────────────────────────────────────────────

type soapResponseEnvelope struct {
	Body soapResponseBody `xml:"Body"`
}

type soapResponseBody struct {
	ValidarResponse      *validarComprobanteResponse      `xml:"validarComprobanteResponse"`
	AutorizacionResponse *autorizacionComprobanteResponse `xml:"autorizacionComprobanteResponse"`
	Fault                *soapFault                       `xml:"Fault"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

type validarComprobanteResponse struct {
	Respuesta respuestaRecepcion `xml:"RespuestaRecepcionComprobante"`
}

type respuestaRecepcion struct {
	Estado       string `xml:"estado"`
	Comprobantes []struct {
		ClaveAcceso string    `xml:"claveAcceso"`
		Mensajes    []Mensaje `xml:"mensajes>mensaje"`
	} `xml:"comprobantes>comprobante"`
}

type autorizacionComprobanteResponse struct {
	Respuesta respuestaAutorizacion `xml:"RespuestaAutorizacionComprobante"`
}

type respuestaAutorizacion struct {
	ClaveAccesoConsultada string `xml:"claveAccesoConsultada"`
	NumeroComprobantes    string `xml:"numeroComprobantes"`
	Autorizaciones        []struct {
		Estado             string    `xml:"estado"`
		NumeroAutorizacion string    `xml:"numeroAutorizacion"`
		FechaAutorizacion  string    `xml:"fechaAutorizacion"`
		Ambiente           string    `xml:"ambiente"`
		Comprobante        string    `xml:"comprobante"`
		Mensajes           []Mensaje `xml:"mensajes>mensaje"`
	} `xml:"autorizaciones>autorizacion"`
}

// ── Operaciones ───────────────────────────────────────────────────────────────

// ValidarComprobante envía el comprobante firmado a recepción. Un error indica
// fallo de transporte o respuesta inusable; el rechazo del SRI (DEVUELTA) no es
// un error aquí, viene en ReceptionResult.Estado con sus mensajes.
func (c *SOAPClient) ValidarComprobante(ctx context.Context, signedXML []byte) (*ReceptionResult, error) {
	if len(signedXML) == 0 {
		return nil, fmt.Errorf("sri: comprobante firmado vacío")
	}
	body := &validarComprobanteBody{XML: base64.StdEncoding.EncodeToString(signedXML)}

	raw, err := c.call(ctx, c.recepcionURL, recepcionENS, body)
	if err != nil {
		return nil, err
	}

	var envResp soapResponseEnvelope
	if err := xml.Unmarshal(raw, &envResp); err != nil {
		return nil, fmt.Errorf("sri: parsear respuesta de recepción: %w", err)
	}
	if envResp.Body.Fault != nil {
		return nil, fmt.Errorf("sri: SOAP Fault en recepción [%s]: %s",
			envResp.Body.Fault.FaultCode, envResp.Body.Fault.FaultString)
	}
	if envResp.Body.ValidarResponse == nil {
		return nil, fmt.Errorf("sri: respuesta de recepción vacía o inesperada")
	}

	resp := envResp.Body.ValidarResponse.Respuesta
	result := &ReceptionResult{Estado: resp.Estado}
	for _, comp := range resp.Comprobantes {
		result.Mensajes = append(result.Mensajes, comp.Mensajes...)
	}
	return result, nil
}

// AutorizacionComprobante consulta el estado de autorización de una clave de
// acceso. Pending=true cuando el SRI aún no registra ninguna autorización o la
// única autorización está EN PROCESO.
func (c *SOAPClient) AutorizacionComprobante(ctx context.Context, claveAcceso string) (*AuthorizationResult, error) {
	body := &autorizacionComprobanteBody{ClaveAcceso: claveAcceso}

	raw, err := c.call(ctx, c.autorizacionURL, autorizacionENS, body)
	if err != nil {
		return nil, err
	}

	var envResp soapResponseEnvelope
	if err := xml.Unmarshal(raw, &envResp); err != nil {
		return nil, fmt.Errorf("sri: parsear respuesta de autorización: %w", err)
	}
	if envResp.Body.Fault != nil {
		return nil, fmt.Errorf("sri: SOAP Fault en autorización [%s]: %s",
			envResp.Body.Fault.FaultCode, envResp.Body.Fault.FaultString)
	}
	if envResp.Body.AutorizacionResponse == nil {
		return nil, fmt.Errorf("sri: respuesta de autorización vacía o inesperada")
	}

	resp := envResp.Body.AutorizacionResponse.Respuesta
	if len(resp.Autorizaciones) == 0 {
		return &AuthorizationResult{Estado: AutorizacionEnProceso, Pending: true}, nil
	}

	auth := resp.Autorizaciones[0]
	result := &AuthorizationResult{
		Estado:             auth.Estado,
		Pending:            auth.Estado == AutorizacionEnProceso,
		NumeroAutorizacion: auth.NumeroAutorizacion,
		Ambiente:           auth.Ambiente,
		Mensajes:           auth.Mensajes,
	}
	if t, ok := parseFechaAutorizacion(auth.FechaAutorizacion); ok {
		result.FechaAutorizacion = &t
	}
	return result, nil
}

// call ejecuta un POST SOAP 1.1 y devuelve el cuerpo crudo de la respuesta.
func (c *SOAPClient) call(ctx context.Context, url, ecNS string, content interface{}) ([]byte, error) {
	envelope := soapEnvelope{
		XmlnsS:  soapEnvNS,
		XmlnsEC: ecNS,
		Body:    soapBody{Content: content},
	}
	payload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("sri: serializar envelope SOAP: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("sri: crear request SOAP: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("sri: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("sri: llamada HTTP al SRI fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSOAPRespBytes))
	if err != nil {
		return nil, fmt.Errorf("sri: leer respuesta del SRI: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sri: el SRI respondió HTTP %d", resp.StatusCode)
	}
	return raw, nil
}

// parseFechaAutorizacion tolera los dos formatos que devuelve el SRI:
// ISO 8601 con zona y sin zona.
func parseFechaAutorizacion(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000-07:00", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var _ SRIClient = (*SOAPClient)(nil)
