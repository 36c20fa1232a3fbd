// internal/models/wei.go
package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Wei is an unscaled token amount. It is stored as an exact integer
// column on postgres and as text on sqlite, whose NUMERIC affinity would
// turn values wider than int64 into REAL.
type Wei struct {
	decimal.Decimal
}

func NewWei(amount decimal.Decimal) Wei {
	return Wei{Decimal: amount}
}

// RequireWei parses a base-10 amount and panics on malformed input.
func RequireWei(amount string) Wei {
	return Wei{Decimal: decimal.RequireFromString(amount)}
}

func (Wei) GormDataType() string {
	return "wei"
}

func (Wei) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "sqlite":
		return "varchar(78)"
	default:
		return "numeric(78,0)"
	}
}
