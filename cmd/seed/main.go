// seed genera un script SQL para poblar la cartera de clientes de un taller
// a partir de un CSV exportado de sistemas legados (codificado en ISO-8859-1,
// separado por punto y coma).
//
// Uso: go run ./cmd/seed <ruc-del-taller> [ruta/clientes.csv]
// Por defecto busca clientes.csv en el directorio actual.
// Columnas esperadas: tipo_identificacion;identificacion;razon_social;direccion;email;telefono
// Escribe: migrations/002_seed_clients.sql
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	pkgsri "github.com/jvillacis/tallerpro-api/pkg/sri"
)

type clientRow struct {
	tipoIdent      string
	identificacion string
	razonSocial    string
	direccion      string
	email          string
	telefono       string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Uso: seed <ruc-del-taller> [ruta/clientes.csv]")
		os.Exit(1)
	}
	tallerRUC := strings.TrimSpace(os.Args[1])
	if err := pkgsri.ValidateRUC(tallerRUC); err != nil {
		fmt.Fprintf(os.Stderr, "RUC del taller inválido: %v\n", err)
		os.Exit(1)
	}

	csvPath := "clientes.csv"
	if len(os.Args) > 2 {
		csvPath = os.Args[2]
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	// Los exports legados vienen en ISO-8859-1 (tildes y eñes).
	reader := csv.NewReader(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	reader.Comma = ';'
	reader.FieldsPerRecord = 6

	records, err := reader.ReadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	var rows []clientRow
	var skipped int
	for i, rec := range records {
		if i == 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "tipo_identificacion") {
			continue // cabecera
		}
		row := clientRow{
			tipoIdent:      strings.TrimSpace(rec[0]),
			identificacion: strings.TrimSpace(rec[1]),
			razonSocial:    strings.TrimSpace(rec[2]),
			direccion:      strings.TrimSpace(rec[3]),
			email:          strings.TrimSpace(rec[4]),
			telefono:       strings.TrimSpace(rec[5]),
		}
		if err := validateRow(row); err != nil {
			fmt.Fprintf(os.Stderr, "fila %d omitida: %v\n", i+1, err)
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "el CSV no contiene filas válidas")
		os.Exit(1)
	}

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "migrations", "002_seed_clients.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	fmt.Fprintf(out, "-- Cartera de clientes para el taller RUC %s\n", tallerRUC)
	out.WriteString("-- Generado desde " + filepath.Base(csvPath) + " por cmd/seed\n\n")

	for _, row := range rows {
		fmt.Fprintf(out, "INSERT INTO clients (id, taller_id, tipo_ident, identificacion, razon_social, direccion, email, telefono, created_at, updated_at)\n")
		fmt.Fprintf(out, "SELECT gen_random_uuid(), id, '%s', '%s', '%s', %s, %s, %s, now(), now()\n",
			row.tipoIdent, escapeSQL(row.identificacion), escapeSQL(row.razonSocial),
			sqlNullable(row.direccion), sqlNullable(row.email), sqlNullable(row.telefono))
		fmt.Fprintf(out, "FROM talleres WHERE ruc = '%s'\n", tallerRUC)
		out.WriteString("ON CONFLICT (taller_id, identificacion) DO UPDATE SET razon_social = EXCLUDED.razon_social;\n")
	}

	fmt.Printf("Generado %s: %d clientes (%d filas omitidas)\n", outPath, len(rows), skipped)
}

func validateRow(row clientRow) error {
	if _, ok := pkgsri.ValidIdentificationTypes[row.tipoIdent]; !ok {
		return fmt.Errorf("tipo de identificación %q no catalogado", row.tipoIdent)
	}
	switch row.tipoIdent {
	case pkgsri.IdentificacionRUC:
		if err := pkgsri.ValidateRUC(row.identificacion); err != nil {
			return err
		}
	case pkgsri.IdentificacionCedula:
		if err := pkgsri.ValidateCedula(row.identificacion); err != nil {
			return err
		}
	}
	if row.razonSocial == "" {
		return fmt.Errorf("razón social vacía")
	}
	return nil
}

func sqlNullable(s string) string {
	if s == "" {
		return "NULL"
	}
	return "'" + escapeSQL(s) + "'"
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
