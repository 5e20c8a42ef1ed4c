package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed document.schema.json
var documentSchema []byte

//go:embed save.schema.json
var saveSchema []byte

// DocumentSchema returns the JSON Schema for compiled stories.
func DocumentSchema() []byte { return append([]byte(nil), documentSchema...) }

// SaveSchema returns the JSON Schema for save envelopes.
func SaveSchema() []byte { return append([]byte(nil), saveSchema...) }

// ValidateDocument checks raw compiled JSON against the document schema.
// Violations are reported as an *AggregateError of *ValidationError.
func ValidateDocument(data []byte) error {
	return validate(documentSchema, data)
}

// ValidateSave checks a raw save envelope against the save schema.
func ValidateSave(data []byte) error {
	return validate(saveSchema, data)
}

func validate(schemaBytes, data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var errs []error
	for _, re := range result.Errors() {
		errs = append(errs, &ValidationError{
			Key:    re.Field(),
			Reason: re.Description(),
			Value:  re.Value(),
		})
	}
	return &AggregateError{Errors: errs}
}

// DecodeDocument validates and decodes a compiled story, then checks the
// references the schema cannot express.
func DecodeDocument(data []byte) (*domain.Document, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := CheckDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// CheckDocument verifies that the initial passage exists and that every
// passage is stored under its own ID.
func CheckDocument(doc *domain.Document) error {
	var errs []error
	if _, ok := doc.Passages[doc.InitialPassage]; !ok {
		errs = append(errs, &ValidationError{
			Key:    "initial_passage",
			Reason: fmt.Sprintf("passage %q does not exist", doc.InitialPassage),
		})
	}
	for _, id := range doc.PassageIDs() {
		p := doc.Passages[id]
		if p == nil {
			errs = append(errs, &ValidationError{Key: "passages." + id, Reason: "passage is null"})
			continue
		}
		if p.ID != id {
			errs = append(errs, &ValidationError{
				Key:    "passages." + id + ".id",
				Reason: fmt.Sprintf("stored under %q but named %q", id, p.ID),
			})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// DecodeSave validates and decodes a save envelope. Numbers in the state are
// kept as json.Number so the registry can tell ints from floats.
func DecodeSave(data []byte) (*domain.SaveData, error) {
	if err := ValidateSave(data); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var save domain.SaveData
	if err := dec.Decode(&save); err != nil {
		return nil, fmt.Errorf("decode save: %w", err)
	}
	return &save, nil
}
