// Package sri: tipos de error del ciclo de emisión de comprobantes electrónicos.
// Cada etapa del pipeline falla con un tipo propio para que los callers puedan
// ramificar con errors.As de forma exhaustiva.
package sri

import (
	"fmt"
	"strings"
)

// ValidationError agrupa los problemas de datos detectados antes de consumir un
// secuencial o tocar la red: emisor/comprador/líneas malformados o totales que
// no cuadran. El caller puede corregir la venta y reintentar.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "sri: venta inválida para emisión: " + strings.Join(e.Issues, "; ")
}

// AllocationError indica que el contador secuencial no está disponible.
// Se aborta antes de generar la clave de acceso.
type AllocationError struct {
	Key string // (taller, codDoc, estab, ptoEmi) en formato legible
	Err error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("sri: no se pudo asignar secuencial para %s: %v", e.Key, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// InvalidFieldWidthError indica que un campo de la clave de acceso no cumple su
// ancho fijo o contiene caracteres no numéricos. El generador nunca rellena ni
// trunca por su cuenta.
type InvalidFieldWidthError struct {
	Field string
	Want  int
	Got   string
}

func (e *InvalidFieldWidthError) Error() string {
	return fmt.Sprintf("sri: campo %s de la clave de acceso debe tener %d dígitos, se recibió %q", e.Field, e.Want, e.Got)
}

// SigningError indica fallo de certificado, contraseña o criptografía al firmar.
type SigningError struct {
	Stage string // "cert-load", "cert-check", "sign"
	Err   error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("sri: error de firma en %s: %v", e.Stage, e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// SubmissionError indica fallo de red o transporte hablando con el SRI.
type SubmissionError struct {
	Op  string // "recepcion" | "autorizacion"
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("sri: error de comunicación en %s: %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
