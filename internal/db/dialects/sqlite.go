package dialects

import (
	"erdspy/internal/db"
	"erdspy/internal/metadata"
)

// SQLite reads sqlite_master and the table valued pragma functions. SQLite has
// neither catalogs nor schemas in the metadata sense, so both are reported as
// NULL and tables are named by the database alone.
var SQLite = &metadata.Dialect{
	Name:            "SQLite",
	IdentifierQuote: `"`,
	Placeholder:     metadata.QuestionMark,
	Keywords: []string{
		"ABORT", "AUTOINCREMENT", "CONFLICT", "FAIL", "GLOB", "IGNORE", "INDEXED", "ISNULL",
		"LIMIT", "NOTNULL", "OFFSET", "PLAN", "PRAGMA", "QUERY", "RAISE", "REGEXP", "REINDEX",
		"RENAME", "REPLACE", "VACUUM", "VIRTUAL",
	},

	VersionSQL:  `SELECT sqlite_version()`,
	CatalogsSQL: `SELECT name AS table_cat FROM pragma_database_list ORDER BY seq`,
	TablesSQL: `
        SELECT name AS table_name, CASE type WHEN 'view' THEN 'VIEW' ELSE 'TABLE' END AS table_type
        FROM sqlite_master
        WHERE type IN ('table','view') AND name NOT LIKE 'sqlite_%'
        ORDER BY name`,
	ColumnsSQL: `
        SELECT name AS column_name, type AS type_name, 0 AS column_size, 0 AS decimal_digits,
               CASE WHEN "notnull" = 1 THEN 0 ELSE 1 END AS nullable, dflt_value AS column_def,
               cid + 1 AS ordinal_position,
               CASE WHEN pk = 1 AND upper(type) = 'INTEGER'
                     AND (SELECT sql FROM sqlite_master WHERE type = 'table' AND name = :table) LIKE '%AUTOINCREMENT%'
                    THEN 'YES' ELSE 'NO' END AS is_autoincrement
        FROM pragma_table_info(:table)
        ORDER BY cid`,
	IndexesSQL: `
        SELECT il.name AS index_name, NOT il."unique" AS non_unique, 3 AS type,
               ii.seqno + 1 AS ordinal_position, ii.name AS column_name, 'A' AS asc_or_desc
        FROM pragma_index_list(:table) AS il
        JOIN pragma_index_info(il.name) AS ii
        ORDER BY il.name, ii.seqno`,
	PrimaryKeysSQL: `
        SELECT :table AS table_name, name AS column_name, pk AS key_seq
        FROM pragma_table_info(:table)
        WHERE pk > 0
        ORDER BY pk`,
	ImportedKeysSQL: `
        SELECT 'fk_' || :table || '_' || f.id AS fk_name,
               :table AS fktable_name, f."from" AS fkcolumn_name,
               f."table" AS pktable_name,
               COALESCE(f."to", (SELECT p.name FROM pragma_table_info(f."table") AS p WHERE p.pk = f.seq + 1)) AS pkcolumn_name,
               f.seq + 1 AS key_seq,` + sqliteRules + `
        FROM pragma_foreign_key_list(:table) AS f
        ORDER BY f.id, f.seq`,
	ExportedKeysSQL: `
        SELECT 'fk_' || m.name || '_' || f.id AS fk_name,
               m.name AS fktable_name, f."from" AS fkcolumn_name,
               f."table" AS pktable_name,
               COALESCE(f."to", (SELECT p.name FROM pragma_table_info(f."table") AS p WHERE p.pk = f.seq + 1)) AS pkcolumn_name,
               f.seq + 1 AS key_seq,` + sqliteRules + `
        FROM sqlite_master AS m
        JOIN pragma_foreign_key_list(m.name) AS f
        WHERE m.type = 'table' AND f."table" = :table COLLATE NOCASE
        ORDER BY m.name, f.id, f.seq`,

	Properties: map[string]string{
		"selectViewSql": `SELECT sql AS view_definition FROM sqlite_master WHERE type = 'view' AND name = :view`,
		"selectTriggersSql": `
            SELECT name AS trigger_name, tbl_name AS table_name, sql AS action_statement
            FROM sqlite_master
            WHERE type = 'trigger'`,
	},
}

const sqliteRules = `
               CASE f.on_update WHEN 'CASCADE' THEN 0 WHEN 'RESTRICT' THEN 1 WHEN 'SET NULL' THEN 2 WHEN 'SET DEFAULT' THEN 4 ELSE 3 END AS update_rule,
               CASE f.on_delete WHEN 'CASCADE' THEN 0 WHEN 'RESTRICT' THEN 1 WHEN 'SET NULL' THEN 2 WHEN 'SET DEFAULT' THEN 4 ELSE 3 END AS delete_rule`

func init() {
	db.Register("sqlite", SQLite)
}
