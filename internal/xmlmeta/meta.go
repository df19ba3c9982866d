// Package xmlmeta loads override metadata that supplements what the live
// database reports: comments, extra tables and columns, and relationships the
// schema does not declare.
package xmlmeta

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SchemaMeta is the root of an override document.
type SchemaMeta struct {
	Comments string
	Tables   []TableMeta
}

// TableMeta overrides or declares a table. A remote catalog or schema makes it
// a remote table.
type TableMeta struct {
	Name          string
	Comments      string
	RemoteCatalog string
	RemoteSchema  string
	Columns       []ColumnMeta
}

// IsRemote reports whether the table lives in another container.
func (t TableMeta) IsRemote() bool {
	return t.RemoteCatalog != "" || t.RemoteSchema != ""
}

// ColumnMeta overrides or declares a column.
type ColumnMeta struct {
	Name          string
	Type          string
	ID            *int
	Size          int
	Digits        int
	IsPrimary     bool
	Nullable      bool
	AutoUpdated   bool
	DefaultValue  *string
	Comments      string
	IsExcluded    bool
	IsAllExcluded bool

	ImpliedParentsDisabled  bool
	ImpliedChildrenDisabled bool

	ForeignKeys []ForeignKeyMeta
}

// ForeignKeyMeta declares a reference from the enclosing column.
type ForeignKeyMeta struct {
	TableName     string
	ColumnName    string
	RemoteCatalog string
	RemoteSchema  string
}

// IsRemote reports whether the referenced table lives in another container.
func (f ForeignKeyMeta) IsRemote() bool {
	return f.RemoteCatalog != "" || f.RemoteSchema != ""
}

type rawSchema struct {
	XMLName  xml.Name   `xml:"schemaMeta" yaml:"-"`
	Comments string     `xml:"comments" yaml:"comments"`
	Tables   []rawTable `xml:"tables>table" yaml:"tables"`
}

type rawTable struct {
	Name          string      `xml:"name,attr" yaml:"name"`
	Comments      string      `xml:"comments,attr" yaml:"comments"`
	Remarks       string      `xml:"remarks,attr" yaml:"remarks"`
	RemoteCatalog string      `xml:"remoteCatalog,attr" yaml:"remoteCatalog"`
	RemoteSchema  string      `xml:"remoteSchema,attr" yaml:"remoteSchema"`
	Columns       []rawColumn `xml:"column" yaml:"columns"`
}

type rawColumn struct {
	Name                       string  `xml:"name,attr" yaml:"name"`
	Type                       string  `xml:"type,attr" yaml:"type"`
	ID                         *int    `xml:"id,attr" yaml:"id"`
	Size                       int     `xml:"size,attr" yaml:"size"`
	Digits                     int     `xml:"digits,attr" yaml:"digits"`
	PrimaryKey                 bool    `xml:"primaryKey,attr" yaml:"primaryKey"`
	Nullable                   *bool   `xml:"nullable,attr" yaml:"nullable"`
	AutoUpdated                bool    `xml:"autoUpdated,attr" yaml:"autoUpdated"`
	DefaultValue               *string `xml:"defaultValue,attr" yaml:"defaultValue"`
	Comments                   string  `xml:"comments,attr" yaml:"comments"`
	CommentsElem               string  `xml:"comments" yaml:"-"`
	DisableDiagramAssociations string  `xml:"disableDiagramAssociations,attr" yaml:"disableDiagramAssociations"`
	DisableImpliedKeys         string  `xml:"disableImpliedKeys,attr" yaml:"disableImpliedKeys"`
	ForeignKeys                []rawFK `xml:"foreignKey" yaml:"foreignKeys"`
}

type rawFK struct {
	Table         string `xml:"table,attr" yaml:"table"`
	Column        string `xml:"column,attr" yaml:"column"`
	RemoteCatalog string `xml:"remoteCatalog,attr" yaml:"remoteCatalog"`
	RemoteSchema  string `xml:"remoteSchema,attr" yaml:"remoteSchema"`
}

// Format selects the document syntax.
type Format int

const (
	XML Format = iota
	YAML
)

// Load reads path, choosing the format from its extension.
func Load(path string) (*SchemaMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	format := XML
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = YAML
	}
	m, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes an override document.
func Parse(r io.Reader, format Format) (*SchemaMeta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var raw rawSchema
	switch format {
	case YAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		err = xml.NewDecoder(bytes.NewReader(data)).Decode(&raw)
	}
	if err != nil {
		return nil, err
	}
	return raw.convert()
}

func (r rawSchema) convert() (*SchemaMeta, error) {
	m := &SchemaMeta{Comments: strings.TrimSpace(r.Comments)}
	for _, rt := range r.Tables {
		if rt.Name == "" {
			return nil, fmt.Errorf("table without a name")
		}
		tm := TableMeta{
			Name:          rt.Name,
			Comments:      strings.TrimSpace(firstNonEmpty(rt.Comments, rt.Remarks)),
			RemoteCatalog: rt.RemoteCatalog,
			RemoteSchema:  rt.RemoteSchema,
		}
		for _, rc := range rt.Columns {
			cm, err := rc.convert()
			if err != nil {
				return nil, fmt.Errorf("table %s: %w", rt.Name, err)
			}
			tm.Columns = append(tm.Columns, cm)
		}
		m.Tables = append(m.Tables, tm)
	}
	return m, nil
}

func (rc rawColumn) convert() (ColumnMeta, error) {
	if rc.Name == "" {
		return ColumnMeta{}, fmt.Errorf("column without a name")
	}
	cm := ColumnMeta{
		Name:         rc.Name,
		Type:         rc.Type,
		ID:           rc.ID,
		Size:         rc.Size,
		Digits:       rc.Digits,
		IsPrimary:    rc.PrimaryKey,
		Nullable:     rc.Nullable == nil || *rc.Nullable,
		AutoUpdated:  rc.AutoUpdated,
		DefaultValue: rc.DefaultValue,
		Comments:     strings.TrimSpace(firstNonEmpty(rc.Comments, rc.CommentsElem)),
	}
	switch strings.ToLower(rc.DisableDiagramAssociations) {
	case "all":
		cm.IsExcluded = true
		cm.IsAllExcluded = true
	case "exceptdirect":
		cm.IsExcluded = true
	}
	switch strings.ToLower(rc.DisableImpliedKeys) {
	case "all":
		cm.ImpliedParentsDisabled = true
		cm.ImpliedChildrenDisabled = true
	case "from":
		cm.ImpliedParentsDisabled = true
	case "to":
		cm.ImpliedChildrenDisabled = true
	}
	for _, fk := range rc.ForeignKeys {
		if fk.Table == "" || fk.Column == "" {
			return ColumnMeta{}, fmt.Errorf("column %s: foreign key needs table and column", rc.Name)
		}
		cm.ForeignKeys = append(cm.ForeignKeys, ForeignKeyMeta{
			TableName:     fk.Table,
			ColumnName:    fk.Column,
			RemoteCatalog: fk.RemoteCatalog,
			RemoteSchema:  fk.RemoteSchema,
		})
	}
	return cm, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
