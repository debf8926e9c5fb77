package sri

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recepcionRecibidaXML = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ns2:validarComprobanteResponse xmlns:ns2="http://ec.gob.sri.ws.recepcion">
      <RespuestaRecepcionComprobante>
        <estado>RECIBIDA</estado>
        <comprobantes/>
      </RespuestaRecepcionComprobante>
    </ns2:validarComprobanteResponse>
  </soap:Body>
</soap:Envelope>`

const recepcionDevueltaXML = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ns2:validarComprobanteResponse xmlns:ns2="http://ec.gob.sri.ws.recepcion">
      <RespuestaRecepcionComprobante>
        <estado>DEVUELTA</estado>
        <comprobantes>
          <comprobante>
            <claveAcceso>1508202601179001235200110010020000001231234567811</claveAcceso>
            <mensajes>
              <mensaje>
                <identificador>35</identificador>
                <mensaje>ARCHIVO NO CUMPLE ESTRUCTURA XML</mensaje>
                <informacionAdicional>detalle del error</informacionAdicional>
                <tipo>ERROR</tipo>
              </mensaje>
            </mensajes>
          </comprobante>
        </comprobantes>
      </RespuestaRecepcionComprobante>
    </ns2:validarComprobanteResponse>
  </soap:Body>
</soap:Envelope>`

const autorizadoXML = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ns2:autorizacionComprobanteResponse xmlns:ns2="http://ec.gob.sri.ws.autorizacion">
      <RespuestaAutorizacionComprobante>
        <claveAccesoConsultada>1508202601179001235200110010020000001231234567811</claveAccesoConsultada>
        <numeroComprobantes>1</numeroComprobantes>
        <autorizaciones>
          <autorizacion>
            <estado>AUTORIZADO</estado>
            <numeroAutorizacion>1508202601179001235200110010020000001231234567811</numeroAutorizacion>
            <fechaAutorizacion>2026-08-15T10:35:00-05:00</fechaAutorizacion>
            <ambiente>PRUEBAS</ambiente>
            <comprobante><![CDATA[<factura/>]]></comprobante>
            <mensajes/>
          </autorizacion>
        </autorizaciones>
      </RespuestaAutorizacionComprobante>
    </ns2:autorizacionComprobanteResponse>
  </soap:Body>
</soap:Envelope>`

const sinAutorizacionesXML = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ns2:autorizacionComprobanteResponse xmlns:ns2="http://ec.gob.sri.ws.autorizacion">
      <RespuestaAutorizacionComprobante>
        <claveAccesoConsultada>1508202601179001235200110010020000001231234567811</claveAccesoConsultada>
        <numeroComprobantes>0</numeroComprobantes>
        <autorizaciones/>
      </RespuestaAutorizacionComprobante>
    </ns2:autorizacionComprobanteResponse>
  </soap:Body>
</soap:Envelope>`

const soapFaultXML = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>Internal Error</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

func soapServer(t *testing.T, responseXML string, capture *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if capture != nil {
			*capture = string(body)
		}
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = w.Write([]byte(responseXML))
	}))
}

func TestValidarComprobanteRecibida(t *testing.T) {
	var captured string
	srv := soapServer(t, recepcionRecibidaXML, &captured)
	defer srv.Close()

	client := NewSOAPClientWithURLs(srv.URL, srv.URL, 5*time.Second)
	signed := []byte(`<factura id="comprobante"/>`)

	result, err := client.ValidarComprobante(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, RecepcionRecibida, result.Estado)
	assert.Empty(t, result.Mensajes)

	// El comprobante viaja en Base64 dentro de <xml>.
	b64 := base64.StdEncoding.EncodeToString(signed)
	assert.Contains(t, captured, b64)
	assert.Contains(t, captured, "validarComprobante")
}

func TestValidarComprobanteDevuelta(t *testing.T) {
	srv := soapServer(t, recepcionDevueltaXML, nil)
	defer srv.Close()

	client := NewSOAPClientWithURLs(srv.URL, srv.URL, 5*time.Second)
	result, err := client.ValidarComprobante(context.Background(), []byte("<factura/>"))
	require.NoError(t, err)

	assert.Equal(t, RecepcionDevuelta, result.Estado)
	require.Len(t, result.Mensajes, 1)
	assert.Equal(t, "35", result.Mensajes[0].Identificador)
	assert.Equal(t, "ERROR", result.Mensajes[0].Tipo)

	flat := MensajesToStrings(result.Mensajes)
	require.Len(t, flat, 1)
	assert.Contains(t, flat[0], "ARCHIVO NO CUMPLE ESTRUCTURA XML")
	assert.Contains(t, flat[0], "detalle del error")
}

func TestValidarComprobanteVacio(t *testing.T) {
	client := NewSOAPClientWithURLs("http://unused", "http://unused", time.Second)
	_, err := client.ValidarComprobante(context.Background(), nil)
	assert.Error(t, err)
}

func TestAutorizacionComprobanteAutorizado(t *testing.T) {
	var captured string
	srv := soapServer(t, autorizadoXML, &captured)
	defer srv.Close()

	client := NewSOAPClientWithURLs(srv.URL, srv.URL, 5*time.Second)
	clave := "1508202601179001235200110010020000001231234567811"

	result, err := client.AutorizacionComprobante(context.Background(), clave)
	require.NoError(t, err)

	assert.Equal(t, AutorizacionAutorizado, result.Estado)
	assert.False(t, result.Pending)
	assert.Equal(t, clave, result.NumeroAutorizacion)
	require.NotNil(t, result.FechaAutorizacion)
	assert.Equal(t, 2026, result.FechaAutorizacion.Year())
	assert.Contains(t, captured, clave)
}

func TestAutorizacionComprobanteSinAutorizaciones(t *testing.T) {
	srv := soapServer(t, sinAutorizacionesXML, nil)
	defer srv.Close()

	client := NewSOAPClientWithURLs(srv.URL, srv.URL, 5*time.Second)
	result, err := client.AutorizacionComprobante(context.Background(), "123")
	require.NoError(t, err)

	assert.True(t, result.Pending)
	assert.Equal(t, AutorizacionEnProceso, result.Estado)
}

func TestSOAPFault(t *testing.T) {
	srv := soapServer(t, soapFaultXML, nil)
	defer srv.Close()

	client := NewSOAPClientWithURLs(srv.URL, srv.URL, 5*time.Second)

	_, err := client.ValidarComprobante(context.Background(), []byte("<factura/>"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Fault"))

	_, err = client.AutorizacionComprobante(context.Background(), "123")
	assert.Error(t, err)
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewSOAPClientWithURLs(srv.URL, srv.URL, 5*time.Second)
	_, err := client.ValidarComprobante(context.Background(), []byte("<factura/>"))
	assert.Error(t, err)
}
