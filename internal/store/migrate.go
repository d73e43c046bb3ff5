package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	dialectsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/abhisek/persona/ent/schema"
)

// entities are the ent schemas backing the event tables.
var entities = []ent.Interface{
	entschema.ResultEvent{},
	entschema.LLMRequestEvent{},
}

// tables describes entities as migration tables: an auto-increment id, the
// mixin fields, then the schema's own fields.
func tables() ([]*schema.Table, error) {
	out := make([]*schema.Table, 0, len(entities))
	for _, e := range entities {
		t, err := tableFor(e)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func tableFor(e ent.Interface) (*schema.Table, error) {
	name := tableName(e)
	if name == "" {
		return nil, fmt.Errorf("schema %T has no table annotation", e)
	}

	id := &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
	t := &schema.Table{
		Name:       name,
		Columns:    []*schema.Column{id},
		PrimaryKey: []*schema.Column{id},
	}

	var (
		fields  []ent.Field
		indexes []ent.Index
	)
	for _, m := range e.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, e.Fields()...)
	indexes = append(indexes, e.Indexes()...)

	byName := make(map[string]*schema.Column, len(fields))
	for _, f := range fields {
		d := f.Descriptor()
		if d.Err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, d.Name, d.Err)
		}
		c := &schema.Column{
			Name:     d.Name,
			Type:     d.Info.Type,
			Unique:   d.Unique,
			Nullable: d.Optional,
			Default:  staticDefault(d.Default),
		}
		t.Columns = append(t.Columns, c)
		byName[d.Name] = c
	}

	for _, idx := range indexes {
		d := idx.Descriptor()
		cols := make([]*schema.Column, 0, len(d.Fields))
		for _, f := range d.Fields {
			c, ok := byName[f]
			if !ok {
				return nil, fmt.Errorf("index on %s: unknown column %q", name, f)
			}
			cols = append(cols, c)
		}
		t.Indexes = append(t.Indexes, &schema.Index{
			Name:    name + "_" + strings.Join(d.Fields, "_"),
			Unique:  d.Unique,
			Columns: cols,
		})
	}
	return t, nil
}

func tableName(e ent.Interface) string {
	for _, a := range e.Annotations() {
		switch a := a.(type) {
		case entsql.Annotation:
			return a.Table
		case *entsql.Annotation:
			return a.Table
		}
	}
	return ""
}

// staticDefault drops generator defaults such as time.Now.
func staticDefault(v any) any {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return v
	}
	return nil
}

// migrate creates or updates the event tables.
func migrate(ctx context.Context, db *sql.DB) error {
	ts, err := tables()
	if err != nil {
		return err
	}
	m, err := schema.NewMigrate(dialectsql.OpenDB(dialect.SQLite, db))
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Create(ctx, ts...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
