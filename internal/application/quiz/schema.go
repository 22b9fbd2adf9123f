package quiz

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed quizzes/*.yaml quizzes/quiz.schema.json
var assets embed.FS

const schemaName = "quiz.schema.json"

var (
	printer    = message.NewPrinter(language.English)
	quizSchema = mustCompileSchema(schemaName)
)

func mustCompileSchema(name string) *jsonschema.Schema {
	raw, err := assets.ReadFile("quizzes/" + name)
	if err != nil {
		panic(fmt.Sprintf("embedded %s missing: %v", name, err))
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// SchemaViolations validates raw YAML against the quiz schema and returns one
// "<pointer>: <message>" line per failing leaf. An empty result means the
// document conforms.
func SchemaViolations(data []byte) []string {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("yaml: %v", err)}
	}
	err := quizSchema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var out []string
	collectViolations(ve, &out)
	return out
}

func collectViolations(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/" + strings.Join(ve.InstanceLocation, "/")
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(printer)))
		return
	}
	for _, c := range ve.Causes {
		collectViolations(c, out)
	}
}
