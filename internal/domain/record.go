package domain

import (
	"errors"
	"time"
)

// Record mirrors one row in the `codigos_barras` table.
//
//	CREATE TABLE codigos_barras (
//	    id                CHAR(36)     NOT NULL PRIMARY KEY,
//	    codigo_barras     CHAR(8)      NOT NULL UNIQUE,
//	    comodin_proveedor VARCHAR(3)   NOT NULL,
//	    tbc_sku           VARCHAR(5)   NOT NULL,
//	    impreso           TINYINT(1)   NOT NULL DEFAULT 0,
//	    fecha_creacion    TIMESTAMP(6) NOT NULL,
//	    fecha_impresion   TIMESTAMP(6) NULL
//	);
//
// Wildcard and SKU are stored exactly as entered (trimmed, unpadded).  Only
// Printed and PrintedAt ever change after insert.
type Record struct {
	ID        string     `db:"id" json:"id"`
	Code      string     `db:"codigo_barras" json:"code"`
	Wildcard  string     `db:"comodin_proveedor" json:"wildcard"`
	SKU       string     `db:"tbc_sku" json:"sku"`
	Printed   bool       `db:"impreso" json:"printed"`
	CreatedAt time.Time  `db:"fecha_creacion" json:"created_at"`
	PrintedAt *time.Time `db:"fecha_impresion" json:"printed_at,omitempty"`
}

// MarkFailure is one id the store could not flag as printed.
type MarkFailure struct {
	ID  string
	Err error
}

// MarkResult is the per-id outcome of a bulk print-status update.
type MarkResult struct {
	Succeeded []string
	Failed    []MarkFailure
}

// OK reports whether every id was updated.
func (r MarkResult) OK() bool { return len(r.Failed) == 0 }

// FailedIDs lists the ids that were not updated, in request order.
func (r MarkResult) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.ID)
	}
	return ids
}

// Err joins the per-id causes, or returns nil when all ids succeeded.
func (r MarkResult) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}
