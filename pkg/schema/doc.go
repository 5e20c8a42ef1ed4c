// Package schema validates the JSON artifacts exchanged with frontends.
//
// Compiled stories and save envelopes each have an embedded JSON Schema
// (draft-07). ValidateDocument and ValidateSave report every violation at
// once as an *AggregateError; DecodeDocument and DecodeSave validate before
// decoding into the domain types.
//
//	doc, err := schema.DecodeDocument(raw)
//	if errs := schema.ValidationErrors(err); errs != nil {
//	    // report each field
//	}
package schema
