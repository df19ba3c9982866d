//go:build oracle
// +build oracle

package dialects

import (
	_ "github.com/godror/godror"

	"erdspy/internal/db"
	"erdspy/internal/metadata"
)

// Oracle reads the ALL_* dictionary views. The schema is the owner and
// defaults to the login user.
var Oracle = &metadata.Dialect{
	Name:            "Oracle",
	IdentifierQuote: `"`,
	ExtraNameChars:  "$#",
	Placeholder:     metadata.ColonN,
	UserSchema:      true,
	Keywords: []string{
		"ACCESS", "AUDIT", "CLUSTER", "COMMENT", "COMPRESS", "EXCLUSIVE", "FILE", "IDENTIFIED",
		"INCREMENT", "INITIAL", "LOCK", "LONG", "MAXEXTENTS", "MINUS", "MLSLABEL", "MODE", "MODIFY",
		"NOAUDIT", "NOCOMPRESS", "NOWAIT", "NUMBER", "OFFLINE", "ONLINE", "PCTFREE", "RAW", "RENAME",
		"RESOURCE", "ROW", "ROWID", "ROWNUM", "ROWS", "SHARE", "START", "SUCCESSFUL", "SYNONYM",
		"SYSDATE", "UID", "VALIDATE", "VARCHAR2",
	},

	VersionSQL: `SELECT banner FROM v$version WHERE ROWNUM = 1`,
	SchemasSQL: `SELECT username AS table_schem FROM all_users WHERE oracle_maintained = 'N' ORDER BY username`,
	TablesSQL: `
        SELECT o.owner AS table_schem, o.object_name AS table_name,
               CASE o.object_type WHEN 'VIEW' THEN 'VIEW' ELSE 'TABLE' END AS table_type,
               c.comments AS remarks
        FROM all_objects o
        LEFT JOIN all_tab_comments c ON c.owner = o.owner AND c.table_name = o.object_name
        WHERE o.owner = :schema AND o.object_type IN ('TABLE','VIEW')
        ORDER BY o.object_name`,
	ColumnsSQL: `
        SELECT c.column_name, c.data_type AS type_name,
               COALESCE(c.data_precision, c.char_length, c.data_length) AS column_size,
               COALESCE(c.data_scale, 0) AS decimal_digits,
               CASE c.nullable WHEN 'Y' THEN 1 ELSE 0 END AS nullable,
               c.data_default AS column_def, c.column_id AS ordinal_position,
               CASE c.identity_column WHEN 'YES' THEN 'YES' ELSE 'NO' END AS is_autoincrement,
               m.comments AS remarks
        FROM all_tab_columns c
        LEFT JOIN all_col_comments m
          ON m.owner = c.owner AND m.table_name = c.table_name AND m.column_name = c.column_name
        WHERE c.owner = :schema AND c.table_name = :table
        ORDER BY c.column_id`,
	IndexesSQL: `
        SELECT i.index_name, CASE i.uniqueness WHEN 'UNIQUE' THEN 0 ELSE 1 END AS non_unique,
               3 AS type, ic.column_position AS ordinal_position, ic.column_name,
               CASE ic.descend WHEN 'DESC' THEN 'D' ELSE 'A' END AS asc_or_desc
        FROM all_indexes i
        JOIN all_ind_columns ic ON ic.index_owner = i.owner AND ic.index_name = i.index_name
        WHERE i.table_owner = :schema AND i.table_name = :table
        ORDER BY i.index_name, ic.column_position`,
	PrimaryKeysSQL: `
        SELECT c.owner AS table_schem, c.table_name, cc.column_name, cc.position AS key_seq,
               c.constraint_name AS pk_name
        FROM all_constraints c
        JOIN all_cons_columns cc ON cc.owner = c.owner AND cc.constraint_name = c.constraint_name
        WHERE c.constraint_type = 'P' AND c.owner = :schema AND c.table_name = :table
        ORDER BY cc.position`,
	ImportedKeysSQL: oraKeys + ` AND fc.owner = :schema AND fc.table_name = :table ORDER BY pc.table_name, fcc.position`,
	ExportedKeysSQL: oraKeys + ` AND pc.owner = :schema AND pc.table_name = :table ORDER BY fc.table_name, fcc.position`,

	Properties: map[string]string{
		"selectRowCountSql": `SELECT num_rows AS row_count FROM all_tables WHERE owner = :schema AND table_name = :table AND num_rows IS NOT NULL`,
		"selectCheckConstraintsSql": `
            SELECT table_name, constraint_name, search_condition AS text
            FROM all_constraints
            WHERE owner = :schema AND constraint_type = 'C' AND generated = 'USER NAME'`,
		"selectViewSql": `SELECT text AS view_definition FROM all_views WHERE owner = :schema AND view_name = :view`,
		"selectSequencesSql": `
            SELECT sequence_name, min_value AS start_value, increment_by AS increment
            FROM all_sequences
            WHERE sequence_owner = :schema`,
		"selectRoutinesSql": `
            SELECT object_name AS routine_name, object_type AS routine_type, NULL AS dtd_identifier,
                   'SQL' AS routine_body, NULL AS routine_definition, NULL AS sql_data_access,
                   'DEFINER' AS security_type, 'NO' AS is_deterministic, NULL AS routine_comment
            FROM all_procedures
            WHERE owner = :schema AND procedure_name IS NULL AND object_type IN ('PROCEDURE','FUNCTION')`,
		"selectTriggersSql": `
            SELECT trigger_name, table_name, triggering_event AS event_manipulation,
                   trigger_type AS action_timing, trigger_body AS action_statement
            FROM all_triggers
            WHERE owner = :schema`,
	},
}

const oraKeys = `
        SELECT fc.constraint_name AS fk_name,
               fc.owner AS fktable_schem, fc.table_name AS fktable_name, fcc.column_name AS fkcolumn_name,
               pc.owner AS pktable_schem, pc.table_name AS pktable_name, pcc.column_name AS pkcolumn_name,
               fcc.position AS key_seq, 3 AS update_rule,
               CASE fc.delete_rule WHEN 'CASCADE' THEN 0 WHEN 'SET NULL' THEN 2 ELSE 3 END AS delete_rule
        FROM all_constraints fc
        JOIN all_cons_columns fcc ON fcc.owner = fc.owner AND fcc.constraint_name = fc.constraint_name
        JOIN all_constraints pc ON pc.owner = fc.r_owner AND pc.constraint_name = fc.r_constraint_name
        JOIN all_cons_columns pcc
          ON pcc.owner = pc.owner AND pcc.constraint_name = pc.constraint_name AND pcc.position = fcc.position
        WHERE fc.constraint_type = 'R'`

func init() {
	db.Register("godror", Oracle)
}
