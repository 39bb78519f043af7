package dialect

import "github.com/leapstack-labs/recordsql/pkg/core"

func init() {
	Register(&Dialect{
		Name: "sqlite",
		ColumnTypes: map[core.AttributeType]string{
			core.AttributeString:   "TEXT",
			core.AttributeNumber:   "REAL",
			core.AttributeBoolean:  "BOOLEAN",
			core.AttributeDate:     "DATE",
			core.AttributeDateTime: "DATETIME",
		},
		TimestampType:       "DATETIME",
		CurrentTimestamp:    "CURRENT_TIMESTAMP",
		TableExistsQuery:    `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`,
		OffsetRequiresLimit: true,
	})
}
