package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fulmenhq/gofulmen/schema"

	schemasassets "github.com/go-collectivist/collectivist/internal/assets/schemas"
)

// ErrSchemaInvalid is the sentinel wrapped by every SchemaValidationError.
var ErrSchemaInvalid = errors.New("collection config failed schema validation")

// SchemaValidationError reports every field that failed validation.
type SchemaValidationError struct {
	Issues []SchemaIssue
}

// SchemaIssue is a single JSON-pointer-addressed validation failure.
type SchemaIssue struct {
	Path    string
	Message string
}

func (e *SchemaValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("%s: %s", e.Issues[0].Path, e.Issues[0].Message)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d schema issues:\n", len(e.Issues))
	for i, iss := range e.Issues {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  - %s: %s", iss.Path, iss.Message)
	}
	return b.String()
}

func (e *SchemaValidationError) Unwrap() error { return ErrSchemaInvalid }

var (
	validatorOnce sync.Once
	validator     *schema.Validator
	validatorErr  error
)

func getValidator() (*schema.Validator, error) {
	validatorOnce.Do(func() {
		if len(schemasassets.CollectionSchema) == 0 {
			validatorErr = fmt.Errorf("embedded collection schema is empty")
			return
		}
		validator, validatorErr = schema.NewValidator(schemasassets.CollectionSchema)
		if validatorErr != nil {
			validatorErr = fmt.Errorf("compile collection schema: %w", validatorErr)
		}
	})
	return validator, validatorErr
}

// ValidateConfig checks cfg against the embedded collection.yaml JSON
// Schema, used by the Analyzer before it writes a freshly authored config
// and by the server before it writes an updated schedule. The
// orchestrator does not validate a config it loads.
func ValidateConfig(cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config for validation: %w", err)
	}

	v, err := getValidator()
	if err != nil {
		return err
	}

	diags, err := v.ValidateJSON(data)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	var issues []SchemaIssue
	for _, d := range diags {
		if d.Severity == schema.SeverityError {
			issues = append(issues, SchemaIssue{Path: d.Pointer, Message: d.Message})
		}
	}
	if len(issues) == 0 {
		return nil
	}
	return &SchemaValidationError{Issues: issues}
}
