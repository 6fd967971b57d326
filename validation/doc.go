// Package validation provides input validation for configuration and
// request payloads.
//
// It supports struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tags cover
// configuration types such as service definitions; the programmatic
// Validator suits request payloads assembled at runtime.
//
// # Struct Tag Validation
//
//	type ServiceDefinition struct {
//	    Endpoint string `validate:"required,url"`
//	}
//	err := validation.Validate(&def)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("service", req.Service).Required("operation", req.Operation)
//	if err := v.Validate(); err != nil {
//	    return err
//	}
package validation
