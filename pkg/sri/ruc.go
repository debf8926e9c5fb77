package sri

import (
	"fmt"
	"unicode"
)

// Pesos módulo 11 para RUC de sociedad privada (dígito verificador en la posición 10).
var rucPrivateWeights = [9]int{4, 3, 2, 7, 6, 5, 4, 3, 2}

// Pesos módulo 11 para RUC de entidad pública (dígito verificador en la posición 9).
var rucPublicWeights = [8]int{3, 2, 7, 6, 5, 4, 3, 2}

// ValidateRUC valida un RUC ecuatoriano de 13 dígitos: código de provincia,
// tercer dígito según tipo de contribuyente, dígito verificador y sufijo de
// establecimiento distinto de "000".
// Acepta el RUC con o sin separadores ("1790012345001" o "1790012345-001").
func ValidateRUC(ruc string) error {
	digits := extractDigits(ruc)
	if len(digits) != 13 {
		return fmt.Errorf("sri: RUC debe tener 13 dígitos, se encontraron %d", len(digits))
	}
	province := int(digits[0]-'0')*10 + int(digits[1]-'0')
	if (province < 1 || province > 24) && province != 30 {
		return fmt.Errorf("sri: código de provincia del RUC inválido: %02d", province)
	}
	if string(digits[10:]) == "000" {
		return fmt.Errorf("sri: el sufijo de establecimiento del RUC no puede ser 000")
	}

	third := digits[2] - '0'
	switch {
	case third <= 5:
		// Persona natural: los 10 primeros dígitos son una cédula (módulo 10).
		return validateCedulaDigits(digits[:10])
	case third == 6:
		return validateMod11(digits[:9], rucPublicWeights[:], "RUC de entidad pública")
	case third == 9:
		return validateMod11(digits[:10], rucPrivateWeights[:], "RUC de sociedad privada")
	default:
		return fmt.Errorf("sri: tercer dígito del RUC inválido: %c", digits[2])
	}
}

// ValidateCedula valida una cédula de identidad ecuatoriana (10 dígitos, módulo 10).
func ValidateCedula(cedula string) error {
	digits := extractDigits(cedula)
	if len(digits) != 10 {
		return fmt.Errorf("sri: cédula debe tener 10 dígitos, se encontraron %d", len(digits))
	}
	return validateCedulaDigits(digits)
}

// validateCedulaDigits aplica el algoritmo módulo 10: pesos 2,1 alternados sobre
// los 9 primeros dígitos, restando 9 a los productos mayores a 9.
func validateCedulaDigits(digits []byte) error {
	var sum int
	for i := 0; i < 9; i++ {
		d := int(digits[i] - '0')
		if i%2 == 0 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	expected := (10 - sum%10) % 10
	if int(digits[9]-'0') != expected {
		return fmt.Errorf("sri: dígito verificador de cédula inválido: esperado %d, recibido %c", expected, digits[9])
	}
	return nil
}

// validateMod11 valida el dígito verificador módulo 11 (el último byte de digits).
func validateMod11(digits []byte, weights []int, kind string) error {
	last := len(digits) - 1
	var sum int
	for i := 0; i < last; i++ {
		sum += int(digits[i]-'0') * weights[i]
	}
	remainder := sum % 11
	expected := 0
	if remainder != 0 {
		expected = 11 - remainder
	}
	if expected == 10 || int(digits[last]-'0') != expected {
		return fmt.Errorf("sri: dígito verificador de %s inválido", kind)
	}
	return nil
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
