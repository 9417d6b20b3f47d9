package coordination

import (
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ValidateValueSetsAgainstSchema optionally validates the parsed value sets
// against a user-supplied CUE schema file, for teams that want compile-time
// field checking of their resource file's tags/value fields (§11.2):
// CUE itself stays in the stack for this leaf concern while the resource
// file's own section/key=value grammar is parsed directly (see
// ParseResourceFile and DESIGN.md). An empty schemaPath is a no-op.
func ValidateValueSetsAgainstSchema(sets []*ValueSet, schemaPath string) error {
	if schemaPath == "" {
		return nil
	}
	schemaSrc, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("coordination: reading CUE schema %s: %w", schemaPath, err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSrc)
	if schema.Err() != nil {
		return fmt.Errorf("coordination: compiling CUE schema %s: %w", schemaPath, schema.Err())
	}

	for _, set := range sets {
		doc := map[string]interface{}{"name": set.Name, "tags": set.Tags, "fields": set.Fields}
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("coordination: marshaling value set %q for schema check: %w", set.Name, err)
		}
		var instance cue.Value = ctx.CompileBytes(raw)
		unified := schema.Unify(instance)
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			return fmt.Errorf("coordination: value set %q fails schema %s: %w", set.Name, schemaPath, err)
		}
	}
	return nil
}
