// Command normcache is a small end-to-end demo of the cache package: it
// builds a toy schema, publishes a GraphQL response into an in-memory
// store, reads it back through a selection set, then mutates it through an
// Update and shows the resulting change notification.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	normcache "github.com/hanpama/normcache"
	eventbus "github.com/hanpama/normcache/internal/eventbus"
	"github.com/hanpama/normcache/internal/language"
	otelwire "github.com/hanpama/normcache/internal/otel"
	"github.com/hanpama/normcache/internal/schema"
	"github.com/hanpama/normcache/internal/store"
)

const rootUsage = `normcache — normalized GraphQL result cache demo

USAGE:
  normcache <command> [flags]

COMMANDS:
  demo   Publish a response, read it back, then update it in place
  help   Show this help
`

const demoUsage = `demo FLAGS:
  -otel.endpoint <addr>  OTLP collector endpoint
  -otel.service <name>   OpenTelemetry service name (default: normcache-demo)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("normcache", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer))
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	switch cmd, cmdArgs := remaining[0], remaining[1:]; cmd {
	case "demo":
		return cmdDemo(cmdArgs)
	case "help":
		fmt.Print(rootUsage)
		return nil
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdDemo(args []string) error {
	otelEndpoint := ""
	otelService := "normcache-demo"

	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, demoUsage)
		return err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otelwire.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	sch := buildDemoSchema()
	backend := store.NewInMemoryRecordStore()
	byID := func(o map[string]any) (any, bool) {
		if id, ok := o["id"]; ok {
			return id, true
		}
		return nil, false
	}
	cache := normcache.New(sch, backend, byID)
	cache.Subscribe(printingSubscriber{})

	ctx := context.Background()
	doc, err := language.ParseQuery(`{ hero { __typename id name friends { __typename id name } } }`)
	if err != nil {
		return fmt.Errorf("parse query: %w", err)
	}

	data := map[string]any{
		"hero": map[string]any{
			"__typename": "Human",
			"id":         "1000",
			"name":       "Luke Skywalker",
			"friends": []any{
				map[string]any{"__typename": "Human", "id": "1002", "name": "Han Solo"},
				map[string]any{"__typename": "Droid", "id": "2001", "name": "R2-D2"},
			},
		},
	}
	_, err = normcache.WithinReadWriteTransaction(ctx, cache, "demo-seed", func(tx *normcache.ReadWriteTransaction) (struct{}, error) {
		_, err := tx.Write(ctx, data, doc, "", nil)
		return struct{}{}, err
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	first, err := cache.Load(ctx, doc, "", nil)
	printResult("after publish", first, err)

	_, err = normcache.WithinReadWriteTransaction(ctx, cache, "demo-update", func(tx *normcache.ReadWriteTransaction) (struct{}, error) {
		_, err := tx.Update(ctx, doc, "", nil, func(root map[string]any) error {
			hero := root["hero"].(map[string]any)
			hero["name"] = "Luke Skywalker, Jedi Knight"
			return nil
		})
		return struct{}{}, err
	})
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	second, err := cache.Load(ctx, doc, "", nil)
	printResult("after update", second, err)
	return nil
}

func printResult(label string, result *normcache.Result, err error) {
	if err != nil {
		fmt.Printf("%s: error: %v\n", label, err)
		return
	}
	b, _ := json.MarshalIndent(result.Data, "", "  ")
	fmt.Printf("%s:\n%s\n", label, b)
}

type printingSubscriber struct{}

func (printingSubscriber) DidChangeKeys(changed map[store.ChangedKey]struct{}, identifier string) {
	fmt.Printf("changed (%s): %v\n", identifier, changed)
}

func buildDemoSchema() *schema.Schema {
	sch := schema.NewSchema()

	character := schema.NewType("Character", schema.TypeKindInterface)
	character.AddField(schema.NewField("id", schema.NonNullType(schema.NamedType("ID"))))
	character.AddField(schema.NewField("name", schema.NonNullType(schema.NamedType("String"))))
	character.AddField(schema.NewField("friends", schema.ListType(schema.NamedType("Character"))))
	sch.AddType(character)

	human := schema.NewType("Human", schema.TypeKindObject)
	human.Implements("Character")
	human.AddField(schema.NewField("id", schema.NonNullType(schema.NamedType("ID"))))
	human.AddField(schema.NewField("name", schema.NonNullType(schema.NamedType("String"))))
	human.AddField(schema.NewField("friends", schema.ListType(schema.NamedType("Character"))))
	human.AddField(schema.NewField("homePlanet", schema.NamedType("String")))
	sch.AddType(human)
	character.AddPossibleType("Human")

	droid := schema.NewType("Droid", schema.TypeKindObject)
	droid.Implements("Character")
	droid.AddField(schema.NewField("id", schema.NonNullType(schema.NamedType("ID"))))
	droid.AddField(schema.NewField("name", schema.NonNullType(schema.NamedType("String"))))
	droid.AddField(schema.NewField("friends", schema.ListType(schema.NamedType("Character"))))
	droid.AddField(schema.NewField("primaryFunction", schema.NamedType("String")))
	sch.AddType(droid)
	character.AddPossibleType("Droid")

	query := schema.NewType("Query", schema.TypeKindObject)
	query.AddField(schema.NewField("hero", schema.NamedType("Character")))
	sch.AddType(query)
	sch.SetQueryType("Query")

	return sch
}
