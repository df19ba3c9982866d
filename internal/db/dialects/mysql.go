package dialects

import (
	"erdspy/internal/db"
	"erdspy/internal/metadata"
)

// MySQL reads information_schema. A MySQL database is reported as the schema.
var MySQL = &metadata.Dialect{
	Name:            "MySQL",
	IdentifierQuote: "`",
	ExtraNameChars:  "$",
	Placeholder:     metadata.QuestionMark,
	Keywords: []string{
		"ACCESSIBLE", "ANALYZE", "AUTO_INCREMENT", "CHANGE", "DATABASES", "DELAYED", "DIV", "DUAL",
		"ENCLOSED", "ESCAPED", "EXPLAIN", "FULLTEXT", "HIGH_PRIORITY", "IGNORE", "INFILE", "KEYS",
		"KILL", "LIMIT", "LINES", "LOAD", "LOCK", "LONG", "MOD", "OPTIMIZE", "PURGE", "REGEXP",
		"RENAME", "REPLACE", "RLIKE", "SCHEMAS", "SHOW", "SPATIAL", "STRAIGHT_JOIN", "UNLOCK",
		"UNSIGNED", "USE", "XOR", "ZEROFILL",
	},

	VersionSQL: `SELECT version()`,
	SchemasSQL: `
        SELECT schema_name AS table_schem
        FROM information_schema.schemata
        WHERE schema_name NOT IN ('mysql','information_schema','performance_schema','sys')
        ORDER BY schema_name`,
	TablesSQL: `
        SELECT table_schema AS table_schem, table_name,
               CASE table_type WHEN 'BASE TABLE' THEN 'TABLE' ELSE table_type END AS table_type,
               table_comment AS remarks
        FROM information_schema.tables
        WHERE table_schema = :schema
        ORDER BY table_name`,
	ColumnsSQL: `
        SELECT column_name, data_type AS type_name,
               COALESCE(character_maximum_length, numeric_precision, datetime_precision, 0) AS column_size,
               COALESCE(numeric_scale, 0) AS decimal_digits,
               is_nullable, column_default AS column_def, ordinal_position, column_comment AS remarks,
               CASE WHEN extra LIKE '%auto_increment%' THEN 'YES' ELSE 'NO' END AS is_autoincrement
        FROM information_schema.columns
        WHERE table_schema = :schema AND table_name = :table
        ORDER BY ordinal_position`,
	IndexesSQL: `
        SELECT index_name, non_unique, 3 AS type, seq_in_index AS ordinal_position, column_name,
               CASE collation WHEN 'D' THEN 'D' ELSE 'A' END AS asc_or_desc
        FROM information_schema.statistics
        WHERE table_schema = :schema AND table_name = :table
        ORDER BY index_name, seq_in_index`,
	PrimaryKeysSQL: `
        SELECT table_schema AS table_schem, table_name, column_name,
               ordinal_position AS key_seq, constraint_name AS pk_name
        FROM information_schema.key_column_usage
        WHERE constraint_name = 'PRIMARY' AND table_schema = :schema AND table_name = :table
        ORDER BY ordinal_position`,
	ImportedKeysSQL: myKeys + ` WHERE k.table_schema = :schema AND k.table_name = :table ORDER BY k.referenced_table_name, k.ordinal_position`,
	ExportedKeysSQL: myKeys + ` WHERE k.referenced_table_schema = :schema AND k.referenced_table_name = :table ORDER BY k.table_name, k.ordinal_position`,

	Properties: map[string]string{
		"selectCheckConstraintsSql": `
            SELECT tc.table_name, cc.constraint_name, cc.check_clause AS text
            FROM information_schema.check_constraints cc
            JOIN information_schema.table_constraints tc
              ON tc.constraint_schema = cc.constraint_schema AND tc.constraint_name = cc.constraint_name
            WHERE cc.constraint_schema = :schema`,
		"selectViewSql": `SELECT view_definition FROM information_schema.views WHERE table_schema = :schema AND table_name = :view`,
		"selectColumnTypesSql": `
            SELECT table_name, column_name, column_type, data_type AS short_column_type
            FROM information_schema.columns
            WHERE table_schema = :schema`,
		"selectRoutinesSql": `
            SELECT routine_name, routine_type, dtd_identifier, routine_body, routine_definition,
                   sql_data_access, security_type, is_deterministic, routine_comment
            FROM information_schema.routines
            WHERE routine_schema = :schema`,
		"selectRoutineParametersSql": `
            SELECT specific_name, parameter_name, dtd_identifier, parameter_mode
            FROM information_schema.parameters
            WHERE specific_schema = :schema AND parameter_name IS NOT NULL
            ORDER BY specific_name, ordinal_position`,
		"selectTriggersSql": `
            SELECT trigger_name, event_object_table AS table_name, event_manipulation, action_timing, action_statement
            FROM information_schema.triggers
            WHERE trigger_schema = :schema`,
	},
}

// myKeys numbers rule names like the standard metadata API; FIELD is 1 based.
const myKeys = `
        SELECT k.constraint_name AS fk_name,
               k.table_schema AS fktable_schem, k.table_name AS fktable_name, k.column_name AS fkcolumn_name,
               k.referenced_table_schema AS pktable_schem, k.referenced_table_name AS pktable_name,
               k.referenced_column_name AS pkcolumn_name, k.ordinal_position AS key_seq,
               FIELD(r.update_rule, 'CASCADE', 'RESTRICT', 'SET NULL', 'NO ACTION', 'SET DEFAULT') - 1 AS update_rule,
               FIELD(r.delete_rule, 'CASCADE', 'RESTRICT', 'SET NULL', 'NO ACTION', 'SET DEFAULT') - 1 AS delete_rule
        FROM information_schema.key_column_usage k
        JOIN information_schema.referential_constraints r
          ON r.constraint_schema = k.constraint_schema AND r.constraint_name = k.constraint_name`

func init() {
	db.Register("mysql", MySQL)
}
