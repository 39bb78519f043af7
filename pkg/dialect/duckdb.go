package dialect

import "github.com/leapstack-labs/recordsql/pkg/core"

func init() {
	Register(&Dialect{
		Name: "duckdb",
		ColumnTypes: map[core.AttributeType]string{
			core.AttributeString:   "VARCHAR",
			core.AttributeNumber:   "DOUBLE",
			core.AttributeBoolean:  "BOOLEAN",
			core.AttributeDate:     "DATE",
			core.AttributeDateTime: "TIMESTAMP",
		},
		TimestampType:    "TIMESTAMP",
		CurrentTimestamp: "CURRENT_TIMESTAMP",
		TableExistsQuery: `SELECT table_name FROM information_schema.tables WHERE table_name = ?`,
	})
}
