package repository

import "context"

// SequenceRepository asigna secuenciales de comprobante por
// (taller, codDoc, establecimiento, punto de emisión).
//
// Next devuelve el siguiente valor de la serie de forma atómica: dos llamadas
// concurrentes nunca reciben el mismo número. La asignación debe ejecutarse en
// la misma transacción que inserta el comprobante para que un fallo posterior
// no deje huecos en la numeración sin comprobante asociado.
type SequenceRepository interface {
	Next(ctx context.Context, tallerID, codDoc, estab, ptoEmi string) (int64, error)
}
