package entity

import "time"

// Taller representa el tenant (taller mecánico) y su perfil tributario de emisor.
// El perfil es inmutable durante una emisión: el orquestador lo lee una vez al inicio.
type Taller struct {
	ID              string
	RUC             string // 13 dígitos
	RazonSocial     string
	NombreComercial string
	DirMatriz       string // Dirección matriz (infoTributaria)
	DirEstab        string // Dirección del establecimiento emisor (infoFactura)
	Estab           string // Código de establecimiento, 3 dígitos (ej: "001")
	PtoEmi          string // Punto de emisión, 3 dígitos (ej: "001")
	ObligadoContab  bool   // Obligado a llevar contabilidad
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
