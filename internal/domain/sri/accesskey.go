// Cálculo de la clave de acceso de comprobantes electrónicos SRI (Ficha Técnica,
// esquema offline): 48 dígitos de datos + 1 dígito verificador módulo 11.

package sri

import (
	"fmt"
	"time"

	pkgsri "github.com/jvillacis/tallerpro-api/pkg/sri"
)

// Anchos fijos de cada campo de la clave de acceso (49 dígitos en total).
const (
	widthFecha      = 8 // ddmmaaaa
	widthCodDoc     = 2
	widthRUC        = 13
	widthAmbiente   = 1
	widthEstab      = 3
	widthPtoEmi     = 3
	widthSecuencial = 9 // con ceros a la izquierda
	widthCodigoNum  = 8
	widthTipoEmi    = 1

	// AccessKeyLength longitud total de la clave de acceso.
	AccessKeyLength = 49
)

// AccessKeyParams son los campos de la clave de acceso como cadenas de dígitos
// de ancho fijo. El generador valida los anchos; nunca rellena ni trunca.
// FormatFecha y FormatSecuencial producen los campos derivados.
type AccessKeyParams struct {
	Fecha          string // ddmmaaaa
	CodDoc         string // "01" factura
	RUC            string // 13 dígitos
	Ambiente       string // "1" pruebas, "2" producción
	Estab          string // 3 dígitos
	PtoEmi         string // 3 dígitos
	Secuencial     string // 9 dígitos, con ceros a la izquierda
	CodigoNumerico string // 8 dígitos, aportado por el caller
	TipoEmision    string // "1" emisión normal
}

// GenerateAccessKey genera la clave de acceso de 49 dígitos.
// Función pura: entradas idénticas producen siempre la misma clave.
func GenerateAccessKey(p AccessKeyParams) (string, error) {
	fields := []struct {
		name  string
		value string
		width int
	}{
		{"fecha", p.Fecha, widthFecha},
		{"codDoc", p.CodDoc, widthCodDoc},
		{"ruc", p.RUC, widthRUC},
		{"ambiente", p.Ambiente, widthAmbiente},
		{"estab", p.Estab, widthEstab},
		{"ptoEmi", p.PtoEmi, widthPtoEmi},
		{"secuencial", p.Secuencial, widthSecuencial},
		{"codigoNumerico", p.CodigoNumerico, widthCodigoNum},
		{"tipoEmision", p.TipoEmision, widthTipoEmi},
	}

	base := make([]byte, 0, AccessKeyLength)
	for _, f := range fields {
		if len(f.value) != f.width || !allDigits(f.value) {
			return "", &InvalidFieldWidthError{Field: f.name, Want: f.width, Got: f.value}
		}
		base = append(base, f.value...)
	}

	if !pkgsri.ValidDocTypeCodes[p.CodDoc] {
		return "", fmt.Errorf("clave de acceso: codDoc %q no está en la tabla de tipos de comprobante", p.CodDoc)
	}

	check := Mod11CheckDigit(string(base))
	return string(base) + string(check), nil
}

// Mod11CheckDigit calcula el dígito verificador módulo 11 sobre una cadena de
// dígitos: se recorre de derecha a izquierda multiplicando por los pesos
// cíclicos 2,3,4,5,6,7; dígito = 11 - (suma mod 11); 11 se mapea a '0' y 10 a '1'.
// Asume que base contiene solo dígitos (el caller valida).
func Mod11CheckDigit(base string) byte {
	weight := 2
	sum := 0
	for i := len(base) - 1; i >= 0; i-- {
		sum += int(base[i]-'0') * weight
		weight++
		if weight > 7 {
			weight = 2
		}
	}
	check := 11 - sum%11
	switch check {
	case 11:
		return '0'
	case 10:
		return '1'
	default:
		return byte('0' + check)
	}
}

// VerifyAccessKey comprueba que la clave tenga 49 dígitos y que recalcular el
// módulo 11 sobre los primeros 48 reproduzca el dígito 49.
func VerifyAccessKey(key string) error {
	if len(key) != AccessKeyLength || !allDigits(key) {
		return fmt.Errorf("sri: clave de acceso debe tener %d dígitos numéricos", AccessKeyLength)
	}
	if got := Mod11CheckDigit(key[:AccessKeyLength-1]); got != key[AccessKeyLength-1] {
		return fmt.Errorf("sri: dígito verificador de la clave de acceso inválido: esperado %c, recibido %c", got, key[AccessKeyLength-1])
	}
	return nil
}

// FormatFecha formatea la fecha de emisión como exige la clave de acceso (ddmmaaaa).
func FormatFecha(t time.Time) string {
	return t.Format("02012006")
}

// FormatSecuencial formatea el secuencial a 9 dígitos con ceros a la izquierda.
func FormatSecuencial(n int64) string {
	return fmt.Sprintf("%09d", n)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
