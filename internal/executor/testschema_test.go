package executor

import "github.com/hanpama/normcache/internal/schema"

// buildStarWarsSchema returns a small schema shared by normalizer and
// reader tests: a Character interface implemented by Human and Droid, and
// a Query type exposing hero/human/droid lookups.
func buildStarWarsSchema() *schema.Schema {
	s := schema.NewSchema()

	character := schema.NewType("Character", schema.TypeKindInterface)
	character.AddField(schema.NewField("id", schema.NonNullType(schema.NamedType("ID"))))
	character.AddField(schema.NewField("name", schema.NonNullType(schema.NamedType("String"))))
	character.AddField(schema.NewField("friends", schema.ListType(schema.NamedType("Character"))))
	s.AddType(character)

	human := schema.NewType("Human", schema.TypeKindObject)
	human.Implements("Character")
	human.AddField(schema.NewField("id", schema.NonNullType(schema.NamedType("ID"))))
	human.AddField(schema.NewField("name", schema.NonNullType(schema.NamedType("String"))))
	human.AddField(schema.NewField("friends", schema.ListType(schema.NamedType("Character"))))
	human.AddField(schema.NewField("homePlanet", schema.NamedType("String")))
	s.AddType(human)
	character.AddPossibleType("Human")

	droid := schema.NewType("Droid", schema.TypeKindObject)
	droid.Implements("Character")
	droid.AddField(schema.NewField("id", schema.NonNullType(schema.NamedType("ID"))))
	droid.AddField(schema.NewField("name", schema.NonNullType(schema.NamedType("String"))))
	droid.AddField(schema.NewField("friends", schema.ListType(schema.NamedType("Character"))))
	droid.AddField(schema.NewField("primaryFunction", schema.NamedType("String")))
	s.AddType(droid)
	character.AddPossibleType("Droid")

	query := schema.NewType("Query", schema.TypeKindObject)
	hero := query.AddField(schema.NewField("hero", schema.NamedType("Character")))
	hero.AddArgument(schema.NewInputValue("episode", schema.NamedType("String")))
	human_ := query.AddField(schema.NewField("human", schema.NamedType("Human")))
	human_.AddArgument(schema.NewInputValue("id", schema.NonNullType(schema.NamedType("ID"))))
	s.AddType(query)
	s.SetQueryType("Query")

	return s
}
