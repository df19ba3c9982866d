package dialects

import (
	"erdspy/internal/db"
	"erdspy/internal/metadata"
)

// SQLServer reads the sys catalog views of the connected database.
var SQLServer = &metadata.Dialect{
	Name:            "Microsoft SQL Server",
	IdentifierQuote: `"`,
	ExtraNameChars:  "$#@",
	Placeholder:     metadata.AtP,
	DefaultSchema:   "dbo",
	Keywords: []string{
		"BACKUP", "BREAK", "BROWSE", "BULK", "CHECKPOINT", "CLUSTERED", "COMPUTE", "CONTAINSTABLE",
		"DBCC", "DENY", "DISK", "DISTRIBUTED", "DUMP", "ERRLVL", "FILLFACTOR", "FREETEXT",
		"FREETEXTTABLE", "HOLDLOCK", "IDENTITYCOL", "IDENTITY_INSERT", "KILL", "LINENO", "LOAD",
		"NOCHECK", "NONCLUSTERED", "OFFSETS", "OPENDATASOURCE", "OPENQUERY", "OPENROWSET",
		"OPENXML", "PERCENT", "PIVOT", "PLAN", "PRINT", "PROC", "RAISERROR", "READTEXT",
		"RECONFIGURE", "REPLICATION", "RESTORE", "REVERT", "ROWCOUNT", "ROWGUIDCOL", "RULE",
		"SAVE", "SETUSER", "SHUTDOWN", "STATISTICS", "TEXTSIZE", "TOP", "TRAN", "TRUNCATE",
		"TSEQUAL", "UNPIVOT", "UPDATETEXT", "WAITFOR", "WRITETEXT",
	},

	VersionSQL:  `SELECT CAST(SERVERPROPERTY('ProductVersion') AS nvarchar(128))`,
	CatalogsSQL: `SELECT name AS table_cat FROM sys.databases ORDER BY name`,
	SchemasSQL: `
        SELECT s.name AS table_schem
        FROM sys.schemas s
        WHERE s.name NOT IN ('sys','INFORMATION_SCHEMA','guest') AND s.name NOT LIKE 'db[_]%'
        ORDER BY s.name`,
	TablesSQL: `
        SELECT DB_NAME() AS table_cat, s.name AS table_schem, o.name AS table_name,
               CASE o.type WHEN 'V' THEN 'VIEW' ELSE 'TABLE' END AS table_type,
               CAST(ep.value AS nvarchar(4000)) AS remarks
        FROM sys.objects o
        JOIN sys.schemas s ON s.schema_id = o.schema_id
        LEFT JOIN sys.extended_properties ep
          ON ep.major_id = o.object_id AND ep.minor_id = 0 AND ep.name = 'MS_Description'
        WHERE o.type IN ('U','V') AND s.name = :schema
        ORDER BY o.name`,
	ColumnsSQL: `
        SELECT c.name AS column_name, t.name AS type_name,
               CASE WHEN c.precision > 0 THEN c.precision ELSE c.max_length END AS column_size,
               c.scale AS decimal_digits, c.is_nullable AS nullable,
               OBJECT_DEFINITION(c.default_object_id) AS column_def, c.column_id AS ordinal_position,
               CASE WHEN c.is_identity = 1 THEN 'YES' ELSE 'NO' END AS is_autoincrement,
               CAST(ep.value AS nvarchar(4000)) AS remarks
        FROM sys.columns c
        JOIN sys.types t ON t.user_type_id = c.user_type_id
        JOIN sys.objects o ON o.object_id = c.object_id
        JOIN sys.schemas s ON s.schema_id = o.schema_id
        LEFT JOIN sys.extended_properties ep
          ON ep.major_id = c.object_id AND ep.minor_id = c.column_id AND ep.name = 'MS_Description'
        WHERE s.name = :schema AND o.name = :table
        ORDER BY c.column_id`,
	IndexesSQL: `
        SELECT i.name AS index_name, CASE WHEN i.is_unique = 1 THEN 0 ELSE 1 END AS non_unique,
               CASE WHEN i.type = 1 THEN 1 ELSE 3 END AS type,
               ic.key_ordinal AS ordinal_position, c.name AS column_name,
               CASE WHEN ic.is_descending_key = 1 THEN 'D' ELSE 'A' END AS asc_or_desc
        FROM sys.indexes i
        JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
        JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
        JOIN sys.objects o ON o.object_id = i.object_id
        JOIN sys.schemas s ON s.schema_id = o.schema_id
        WHERE s.name = :schema AND o.name = :table AND i.name IS NOT NULL AND ic.key_ordinal > 0
        ORDER BY i.name, ic.key_ordinal`,
	PrimaryKeysSQL: `
        SELECT s.name AS table_schem, o.name AS table_name, c.name AS column_name,
               ic.key_ordinal AS key_seq, i.name AS pk_name
        FROM sys.indexes i
        JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
        JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
        JOIN sys.objects o ON o.object_id = i.object_id
        JOIN sys.schemas s ON s.schema_id = o.schema_id
        WHERE i.is_primary_key = 1 AND s.name = :schema AND o.name = :table
        ORDER BY ic.key_ordinal`,
	ImportedKeysSQL: msKeys + ` WHERE fs.name = :schema AND fo.name = :table ORDER BY po.name, fkc.constraint_column_id`,
	ExportedKeysSQL: msKeys + ` WHERE ps.name = :schema AND po.name = :table ORDER BY fo.name, fkc.constraint_column_id`,

	Properties: map[string]string{
		"selectRowCountSql": `
            SELECT SUM(p.rows) AS row_count
            FROM sys.partitions p
            JOIN sys.objects o ON o.object_id = p.object_id
            JOIN sys.schemas s ON s.schema_id = o.schema_id
            WHERE p.index_id IN (0, 1) AND s.name = :schema AND o.name = :table`,
		"selectCheckConstraintsSql": `
            SELECT o.name AS table_name, cc.name AS constraint_name, cc.definition AS text
            FROM sys.check_constraints cc
            JOIN sys.objects o ON o.object_id = cc.parent_object_id
            JOIN sys.schemas s ON s.schema_id = o.schema_id
            WHERE s.name = :schema`,
		"selectTableIdsSql": `
            SELECT o.name AS table_name, o.object_id AS table_id
            FROM sys.objects o JOIN sys.schemas s ON s.schema_id = o.schema_id
            WHERE o.type = 'U' AND s.name = :schema`,
		"selectIndexIdsSql": `
            SELECT o.name AS table_name, i.name AS index_name, i.index_id
            FROM sys.indexes i
            JOIN sys.objects o ON o.object_id = i.object_id
            JOIN sys.schemas s ON s.schema_id = o.schema_id
            WHERE s.name = :schema AND i.name IS NOT NULL`,
		"selectViewSql": `
            SELECT m.definition AS view_definition
            FROM sys.sql_modules m
            JOIN sys.objects o ON o.object_id = m.object_id
            JOIN sys.schemas s ON s.schema_id = o.schema_id
            WHERE s.name = :schema AND o.name = :view`,
		"selectRoutinesSql": `
            SELECT routine_name, routine_type, data_type AS dtd_identifier, routine_body, routine_definition,
                   sql_data_access, 'DEFINER' AS security_type, is_deterministic, NULL AS routine_comment
            FROM INFORMATION_SCHEMA.ROUTINES
            WHERE routine_schema = :schema`,
		"selectRoutineParametersSql": `
            SELECT specific_name, parameter_name, data_type AS dtd_identifier, parameter_mode
            FROM INFORMATION_SCHEMA.PARAMETERS
            WHERE specific_schema = :schema AND parameter_name <> ''
            ORDER BY specific_name, ordinal_position`,
		"selectSequencesSql": `
            SELECT sq.name AS sequence_name, sq.start_value, sq.increment
            FROM sys.sequences sq JOIN sys.schemas s ON s.schema_id = sq.schema_id
            WHERE s.name = :schema`,
		"selectTriggersSql": `
            SELECT tr.name AS trigger_name, o.name AS table_name, te.type_desc AS event_manipulation,
                   CASE WHEN tr.is_instead_of_trigger = 1 THEN 'INSTEAD OF' ELSE 'AFTER' END AS action_timing,
                   m.definition AS action_statement
            FROM sys.triggers tr
            JOIN sys.trigger_events te ON te.object_id = tr.object_id
            JOIN sys.objects o ON o.object_id = tr.parent_id
            JOIN sys.schemas s ON s.schema_id = o.schema_id
            JOIN sys.sql_modules m ON m.object_id = tr.object_id
            WHERE s.name = :schema`,
	},
}

const msKeys = `
        SELECT fk.name AS fk_name, DB_NAME() AS fktable_cat, DB_NAME() AS pktable_cat,
               fs.name AS fktable_schem, fo.name AS fktable_name, fc.name AS fkcolumn_name,
               ps.name AS pktable_schem, po.name AS pktable_name, pc.name AS pkcolumn_name,
               fkc.constraint_column_id AS key_seq,
               CASE fk.update_referential_action WHEN 1 THEN 0 WHEN 2 THEN 2 WHEN 3 THEN 4 ELSE 3 END AS update_rule,
               CASE fk.delete_referential_action WHEN 1 THEN 0 WHEN 2 THEN 2 WHEN 3 THEN 4 ELSE 3 END AS delete_rule
        FROM sys.foreign_keys fk
        JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
        JOIN sys.objects fo ON fo.object_id = fkc.parent_object_id
        JOIN sys.schemas fs ON fs.schema_id = fo.schema_id
        JOIN sys.columns fc ON fc.object_id = fkc.parent_object_id AND fc.column_id = fkc.parent_column_id
        JOIN sys.objects po ON po.object_id = fkc.referenced_object_id
        JOIN sys.schemas ps ON ps.schema_id = po.schema_id
        JOIN sys.columns pc ON pc.object_id = fkc.referenced_object_id AND pc.column_id = fkc.referenced_column_id`

func init() {
	db.Register("sqlserver", SQLServer)
}
