package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// schema is applied in order; every statement must be idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS codigos_barras (
	    id                CHAR(36)     NOT NULL,
	    codigo_barras     CHAR(8)      NOT NULL,
	    comodin_proveedor VARCHAR(3)   NOT NULL,
	    tbc_sku           VARCHAR(5)   NOT NULL,
	    impreso           TINYINT(1)   NOT NULL DEFAULT 0,
	    fecha_creacion    TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
	    fecha_impresion   TIMESTAMP(6) NULL,
	    PRIMARY KEY (id),
	    UNIQUE KEY uq_codigo_barras (codigo_barras),
	    KEY idx_comodin_proveedor (comodin_proveedor),
	    KEY idx_tbc_sku (tbc_sku),
	    KEY idx_fecha_creacion (fecha_creacion)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the label table and its indexes when missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
		zap.L().Debug("schema statement applied", zap.Int("step", i+1))
	}
	zap.L().Info("schema up to date", zap.Int("statements", len(schema)))
	return nil
}
