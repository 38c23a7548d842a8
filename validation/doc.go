// Package validation turns bad input into invalid-input errors.AppErrors
// that name each rejected field.
//
// Payloads decoded from the wire are checked with struct tags
// (go-playground/validator). Field names follow the json tags:
//
//	type wireLot struct {
//	    LotID    *string `json:"lotId" validate:"required"`
//	    Quantity *int64  `json:"quantity" validate:"required,gte=0"`
//	}
//	err := validation.Validate(lot) // "lots[0].quantity: is required"
//
// Configuration and built values use the chained Validator:
//
//	err := validation.New().
//	    URL("endpoint", endpoint, "http", "https").
//	    Min("buffer_size", size, 1).
//	    Validate()
package validation
