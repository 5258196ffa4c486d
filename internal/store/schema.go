package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Column names of the saves table.
const (
	colID            = "id"
	colLabel         = "label"
	colMode          = "mode"
	colFormatVersion = "format_version"
	colCreatedAt     = "created_at"
	colPayload       = "payload"
)

var savesColumns = []*schema.Column{
	{Name: colID, Type: field.TypeString, Unique: true},
	{Name: colLabel, Type: field.TypeString, Default: ""},
	{Name: colMode, Type: field.TypeString},
	{Name: colFormatVersion, Type: field.TypeString},
	{Name: colCreatedAt, Type: field.TypeInt64},
	{Name: colPayload, Type: field.TypeBytes},
}

// SavesTable holds one row per save.
var SavesTable = &schema.Table{
	Name:       "saves",
	Columns:    savesColumns,
	PrimaryKey: []*schema.Column{savesColumns[0]},
	Indexes: []*schema.Index{
		{
			Name:    "save_created_at",
			Unique:  false,
			Columns: []*schema.Column{savesColumns[4]},
		},
	},
}

// Tables lists every table auto-migration creates.
var Tables = []*schema.Table{
	SavesTable,
}
