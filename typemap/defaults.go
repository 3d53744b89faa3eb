package typemap

import "github.com/burugo/henry/drivers/schema"

// SourceTag returns the vocabulary tag for an engine.
func SourceTag(t schema.DatabaseType) string {
	switch t {
	case schema.MySQL:
		return TagMySQL
	case schema.PostgreSQL:
		return TagPostgreSQL
	case schema.SQLite:
		return TagSQLite
	default:
		return string(t)
	}
}

func build(name, from string, m map[string]StandardType) *TypeMap {
	tm := New(name, from, TagStandard, string(String))
	for native, st := range m {
		tm.Set(native, string(st))
	}
	return tm
}

// DefaultMySQL maps the DATA_TYPE values reported by INFORMATION_SCHEMA.COLUMNS.
func DefaultMySQL() *TypeMap {
	return build("mysql-standard", TagMySQL, map[string]StandardType{
		"tinyint":    Integer,
		"smallint":   Integer,
		"mediumint":  Integer,
		"int":        Integer,
		"integer":    Integer,
		"bigint":     Integer,
		"decimal":    Decimal,
		"numeric":    Decimal,
		"float":      Float,
		"double":     Double,
		"real":       Double,
		"bit":        Bit,
		"bool":       Boolean,
		"boolean":    Boolean,
		"char":       String,
		"varchar":    String,
		"tinytext":   String,
		"text":       String,
		"mediumtext": String,
		"longtext":   String,
		"enum":       String,
		"set":        String,
		"json":       String,
		"date":       Date,
		"datetime":   DateTime,
		"timestamp":  TimeStamp,
		"time":       String,
		"year":       Integer,
		"binary":     Binary,
		"varbinary":  Binary,
		"tinyblob":   Binary,
		"blob":       Binary,
		"mediumblob": Binary,
		"longblob":   Binary,
	})
}

// DefaultPostgreSQL maps the data_type values reported by information_schema.columns.
func DefaultPostgreSQL() *TypeMap {
	return build("postgresql-standard", TagPostgreSQL, map[string]StandardType{
		"smallint":                    Integer,
		"integer":                     Integer,
		"bigint":                      Integer,
		"smallserial":                 Integer,
		"serial":                      Integer,
		"bigserial":                   Integer,
		"numeric":                     Decimal,
		"decimal":                     Decimal,
		"money":                       Decimal,
		"real":                        Float,
		"double precision":            Double,
		"boolean":                     Boolean,
		"bit":                         Bit,
		"bit varying":                 Bit,
		"character":                   String,
		"character varying":           String,
		"text":                        String,
		"uuid":                        String,
		"json":                        String,
		"jsonb":                       String,
		"xml":                         String,
		"date":                        Date,
		"timestamp without time zone": DateTime,
		"timestamp with time zone":    TimeStamp,
		"time without time zone":      String,
		"time with time zone":         String,
		"interval":                    String,
		"bytea":                       Binary,
	})
}

// DefaultSQLite maps declared column types as returned by PRAGMA table_info.
func DefaultSQLite() *TypeMap {
	return build("sqlite-standard", TagSQLite, map[string]StandardType{
		"integer":   Integer,
		"int":       Integer,
		"tinyint":   Integer,
		"smallint":  Integer,
		"mediumint": Integer,
		"bigint":    Integer,
		"real":      Double,
		"double":    Double,
		"float":     Float,
		"numeric":   Decimal,
		"decimal":   Decimal,
		"boolean":   Boolean,
		"bool":      Boolean,
		"text":      String,
		"char":      String,
		"varchar":   String,
		"nvarchar":  String,
		"nchar":     String,
		"clob":      String,
		"date":      Date,
		"datetime":  DateTime,
		"timestamp": TimeStamp,
		"blob":      Binary,
	})
}

// Defaults returns the built-in engine to Standard maps.
func Defaults() []*TypeMap {
	return []*TypeMap{DefaultMySQL(), DefaultPostgreSQL(), DefaultSQLite()}
}

// ForDatabase returns the built-in Standard map for an engine.
func ForDatabase(t schema.DatabaseType) (*TypeMap, bool) {
	return Select(Defaults(), SourceTag(t), TagStandard)
}
