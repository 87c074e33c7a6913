// pkg/catalogschema/schema.go
package catalogschema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is the JSON Schema every catalog document must satisfy before the
// loader even attempts semantic integrity checks. Kept in pkg/ so offline
// tools (catalog-validator) can consume it without importing the engine.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "stages", "templates", "fundBrackets", "weights"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "currencyPrecision": {"type": "integer", "minimum": 0, "maximum": 4},
    "stages": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["code", "name", "nominalDurationMonths", "nominalCostUsd"],
        "properties": {
          "code": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "canWork": {"type": "boolean"},
          "weeklyWorkHourCap": {"type": "integer", "minimum": 0},
          "hourlyWageUsd": {"type": "number", "minimum": 0},
          "nominalDurationMonths": {"type": "integer", "minimum": 1},
          "nominalCostUsd": {"type": "integer", "minimum": 0},
          "minEducation": {"type": "string"},
          "transitionsFrom": {"type": "array", "items": {"type": "string"}},
          "requirements": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["text"],
              "properties": {"text": {"type": "string", "minLength": 1}}
            }
          },
          "eligibility": {"type": "array"}
        }
      }
    },
    "templates": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "stageCodes", "baseFeasibility", "goals"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "stageCodes": {"type": "array", "minItems": 1, "items": {"type": "string"}},
          "baseFeasibility": {"type": "integer", "minimum": 0, "maximum": 100},
          "goals": {"type": "array", "minItems": 1, "items": {"type": "string"}},
          "fields": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "fundBrackets": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "minUsd"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "minUsd": {"type": "integer", "minimum": 0},
          "maxUsd": {"type": "integer", "minimum": 0}
        }
      }
    },
    "weights": {
      "type": "object",
      "required": ["fund", "education", "priority"],
      "properties": {
        "age": {"type": "object"},
        "nationality": {"type": "object"},
        "fund": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["minRatio", "multiplier"],
            "properties": {
              "minRatio": {"type": "number", "minimum": 0},
              "multiplier": {"type": "number", "minimum": 0.6, "maximum": 1.3}
            }
          }
        },
        "education": {
          "type": "object",
          "required": ["belowMinimum", "meets", "perLevelBonus", "cap"],
          "properties": {
            "belowMinimum": {"type": "number", "minimum": 0.8},
            "meets": {"type": "number"},
            "perLevelBonus": {"type": "number", "minimum": 0},
            "cap": {"type": "number", "maximum": 1.2}
          }
        },
        "priority": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "required": ["mode", "bonus"],
            "properties": {
              "mode": {"type": "string", "enum": ["additive", "multiplicative"]},
              "bonus": {"type": "number"}
            }
          }
        }
      }
    }
  }
}`

// Issue is one schema violation found in a catalog document.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks raw catalog JSON against the schema and returns every
// violation found, not just the first.
func Validate(document []byte) ([]Issue, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(Schema),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	issues := make([]Issue, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, Issue{
			Field:   e.Field(),
			Message: e.Description(),
		})
	}
	return issues, nil
}
