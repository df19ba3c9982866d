package dialects

import (
	"erdspy/internal/db"
	"erdspy/internal/metadata"
)

// Postgres reads pg_catalog and information_schema. It serves both the lib/pq
// ("postgres") and the pgx ("pgx") drivers.
var Postgres = &metadata.Dialect{
	Name:            "PostgreSQL",
	IdentifierQuote: `"`,
	Placeholder:     metadata.Dollar,
	DefaultSchema:   "public",
	Keywords: []string{
		"ANALYSE", "ANALYZE", "ARRAY", "ASYMMETRIC", "BINARY", "CONCURRENTLY", "DO", "FREEZE",
		"ILIKE", "ISNULL", "LIMIT", "NOTNULL", "OFFSET", "PLACING", "RETURNING", "SIMILAR",
		"SYMMETRIC", "TABLESAMPLE", "VARIADIC", "VERBOSE", "WINDOW",
	},

	VersionSQL:  `SELECT current_setting('server_version')`,
	CatalogsSQL: `SELECT datname AS table_cat FROM pg_database WHERE NOT datistemplate ORDER BY datname`,
	SchemasSQL: `
        SELECT nspname AS table_schem
        FROM pg_namespace
        WHERE nspname NOT IN ('pg_catalog','information_schema','pg_toast') AND nspname NOT LIKE 'pg_temp%'
        ORDER BY nspname`,
	TablesSQL: `
        SELECT current_database() AS table_cat, n.nspname AS table_schem, c.relname AS table_name,
               CASE c.relkind WHEN 'v' THEN 'VIEW' WHEN 'm' THEN 'MATERIALIZED VIEW' ELSE 'TABLE' END AS table_type,
               obj_description(c.oid, 'pg_class') AS remarks
        FROM pg_class c
        JOIN pg_namespace n ON n.oid = c.relnamespace
        WHERE n.nspname = :schema AND c.relkind IN ('r','p','v','m')
        ORDER BY c.relname`,
	ColumnsSQL: `
        SELECT c.column_name, c.udt_name AS type_name,
               COALESCE(c.character_maximum_length, c.numeric_precision, c.datetime_precision, 0) AS column_size,
               COALESCE(c.numeric_scale, 0) AS decimal_digits,
               c.is_nullable, c.column_default AS column_def, c.ordinal_position,
               CASE WHEN c.is_identity = 'YES' OR c.column_default LIKE 'nextval(%' THEN 'YES' ELSE 'NO' END AS is_autoincrement,
               col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position) AS remarks
        FROM information_schema.columns c
        WHERE c.table_schema = :schema AND c.table_name = :table
        ORDER BY c.ordinal_position`,
	IndexesSQL: `
        SELECT i.relname AS index_name, NOT ix.indisunique AS non_unique, 3 AS type,
               k.n AS ordinal_position, a.attname AS column_name,
               CASE WHEN ix.indoption[k.n - 1] & 1 = 1 THEN 'D' ELSE 'A' END AS asc_or_desc
        FROM pg_index ix
        JOIN pg_class t ON t.oid = ix.indrelid
        JOIN pg_class i ON i.oid = ix.indexrelid
        JOIN pg_namespace n ON n.oid = t.relnamespace
        CROSS JOIN LATERAL generate_subscripts(ix.indkey, 1) AS k(n)
        JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ix.indkey[k.n]
        WHERE n.nspname = :schema AND t.relname = :table
        ORDER BY i.relname, k.n`,
	PrimaryKeysSQL: `
        SELECT tc.table_schema AS table_schem, tc.table_name, kcu.column_name,
               kcu.ordinal_position AS key_seq, tc.constraint_name AS pk_name
        FROM information_schema.table_constraints tc
        JOIN information_schema.key_column_usage kcu
          ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema
        WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = :schema AND tc.table_name = :table
        ORDER BY kcu.ordinal_position`,
	ImportedKeysSQL: pgKeys + ` WHERE co.contype = 'f' AND fn.nspname = :schema AND fc.relname = :table ORDER BY pn.nspname, pc.relname, k.n`,
	ExportedKeysSQL: pgKeys + ` WHERE co.contype = 'f' AND pn.nspname = :schema AND pc.relname = :table ORDER BY fn.nspname, fc.relname, k.n`,

	Properties: map[string]string{
		"selectSchemasSql": `SELECT obj_description(oid, 'pg_namespace') AS schema_comment FROM pg_namespace WHERE nspname = :schema`,
		"selectCheckConstraintsSql": `
            SELECT cl.relname AS table_name, co.conname AS constraint_name, pg_get_constraintdef(co.oid) AS text
            FROM pg_constraint co
            JOIN pg_class cl ON cl.oid = co.conrelid
            JOIN pg_namespace n ON n.oid = cl.relnamespace
            WHERE co.contype = 'c' AND n.nspname = :schema`,
		"selectTableIdsSql": `
            SELECT c.relname AS table_name, c.oid AS table_id
            FROM pg_class c JOIN pg_namespace n ON n.oid = c.relnamespace
            WHERE n.nspname = :schema`,
		"selectIndexIdsSql": `
            SELECT t.relname AS table_name, i.relname AS index_name, i.oid AS index_id
            FROM pg_index ix
            JOIN pg_class t ON t.oid = ix.indrelid
            JOIN pg_class i ON i.oid = ix.indexrelid
            JOIN pg_namespace n ON n.oid = t.relnamespace
            WHERE n.nspname = :schema`,
		"selectViewSql": `SELECT view_definition FROM information_schema.views WHERE table_schema = :schema AND table_name = :view`,
		"selectRowCountSql": `
            SELECT c.reltuples::bigint AS row_count
            FROM pg_class c JOIN pg_namespace n ON n.oid = c.relnamespace
            WHERE n.nspname = :schema AND c.relname = :table AND c.reltuples >= 0`,
		"selectRoutinesSql": `
            SELECT r.routine_name, r.routine_type, r.data_type AS dtd_identifier, r.routine_body,
                   r.routine_definition, r.sql_data_access, r.security_type, r.is_deterministic,
                   obj_description(p.oid, 'pg_proc') AS routine_comment
            FROM information_schema.routines r
            JOIN pg_proc p ON p.proname = r.routine_name
            JOIN pg_namespace n ON n.oid = p.pronamespace AND n.nspname = r.routine_schema
            WHERE r.routine_schema = :schema`,
		"selectRoutineParametersSql": `
            SELECT r.routine_name AS specific_name, p.parameter_name, p.data_type AS dtd_identifier, p.parameter_mode
            FROM information_schema.parameters p
            JOIN information_schema.routines r ON r.specific_name = p.specific_name AND r.specific_schema = p.specific_schema
            WHERE p.specific_schema = :schema
            ORDER BY p.specific_name, p.ordinal_position`,
		"selectSequencesSql": `
            SELECT sequence_name, start_value, increment
            FROM information_schema.sequences
            WHERE sequence_schema = :schema`,
		"selectTypesSql": `
            SELECT CASE t.typtype WHEN 'e' THEN 'enum' WHEN 'd' THEN 'domain' ELSE 'composite' END AS type_of_type,
                   current_database() AS catalog, n.nspname AS schema, t.typname AS name,
                   obj_description(t.oid, 'pg_type') AS description,
                   CASE t.typtype WHEN 'e' THEN (SELECT string_agg(e.enumlabel, ', ' ORDER BY e.enumsortorder) FROM pg_enum e WHERE e.enumtypid = t.oid)
                                  WHEN 'd' THEN format_type(t.typbasetype, t.typtypmod) END AS definition
            FROM pg_type t JOIN pg_namespace n ON n.oid = t.typnamespace
            WHERE n.nspname = :schema AND t.typtype IN ('e','d')`,
		"selectTriggersSql": `
            SELECT trigger_name, event_object_table AS table_name, event_manipulation, action_timing, action_statement
            FROM information_schema.triggers
            WHERE trigger_schema = :schema`,
	},
}

const pgKeys = `
        SELECT co.conname AS fk_name, current_database() AS fktable_cat, current_database() AS pktable_cat,
               fn.nspname AS fktable_schem, fc.relname AS fktable_name, fa.attname AS fkcolumn_name,
               pn.nspname AS pktable_schem, pc.relname AS pktable_name, pa.attname AS pkcolumn_name,
               k.n AS key_seq,
               CASE co.confupdtype WHEN 'c' THEN 0 WHEN 'n' THEN 2 WHEN 'd' THEN 4 WHEN 'r' THEN 1 ELSE 3 END AS update_rule,
               CASE co.confdeltype WHEN 'c' THEN 0 WHEN 'n' THEN 2 WHEN 'd' THEN 4 WHEN 'r' THEN 1 ELSE 3 END AS delete_rule
        FROM pg_constraint co
        CROSS JOIN LATERAL generate_subscripts(co.conkey, 1) AS k(n)
        JOIN pg_class fc ON fc.oid = co.conrelid
        JOIN pg_namespace fn ON fn.oid = fc.relnamespace
        JOIN pg_attribute fa ON fa.attrelid = fc.oid AND fa.attnum = co.conkey[k.n]
        JOIN pg_class pc ON pc.oid = co.confrelid
        JOIN pg_namespace pn ON pn.oid = pc.relnamespace
        JOIN pg_attribute pa ON pa.attrelid = pc.oid AND pa.attnum = co.confkey[k.n]`

func init() {
	db.Register("postgres", Postgres)
	db.Register("pgx", Postgres)
}
