package dialect

import "github.com/leapstack-labs/recordsql/pkg/core"

func init() {
	Register(&Dialect{
		Name:                "postgres",
		OrdinalPlaceholders: true,
		ColumnTypes: map[core.AttributeType]string{
			core.AttributeString:   "TEXT",
			core.AttributeNumber:   "DOUBLE PRECISION",
			core.AttributeBoolean:  "BOOLEAN",
			core.AttributeDate:     "DATE",
			core.AttributeDateTime: "TIMESTAMPTZ",
		},
		TimestampType:    "TIMESTAMPTZ",
		CurrentTimestamp: "NOW()",
		TableExistsQuery: `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1`,
	})
}
