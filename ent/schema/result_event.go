package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	entschema "entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ResultEvent records one completed quiz and the distribution it produced.
type ResultEvent struct {
	ent.Schema
}

func (ResultEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (ResultEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id"),
		field.String("answers").
			Comment("JSON array of canonical answer indices"),
		field.String("label"),
		field.Float("confidence"),
		field.String("distribution").
			Comment("JSON array of label/probability pairs in display order"),
		field.String("pair_id").
			Default("").
			Comment("Artifact pair that produced the result"),
		field.String("source").
			Comment("tui, cli or http"),
	}
}

func (ResultEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("label"),
	}
}

func (ResultEvent) Annotations() []entschema.Annotation {
	return []entschema.Annotation{entsql.Annotation{Table: "results"}}
}
