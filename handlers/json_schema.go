package handlers

import "github.com/xeipuuv/gojsonschema"

var inputSchemas map[string]string = map[string]string{
	"Prewarm": PrewarmRequestSchemaDefinition,
}

// Schemas are string constants in this package; one that fails to compile is
// a programming error, so compilation runs and panics at program start.
func compileJsonSchemas() map[string]*gojsonschema.Schema {
	compiled := make(map[string]*gojsonschema.Schema, 0)
	for name, text := range inputSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(text))
		if err != nil {
			panic(err)
		}
		compiled[name] = schema
	}
	return compiled
}

var inputSchemasCompiled map[string]*gojsonschema.Schema = compileJsonSchemas()
