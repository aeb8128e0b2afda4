// Package validator provides a small validation abstraction for request and
// usecase input structs.
//
// Usecases depend on the Validator interface so validation can be shared and
// tested consistently. The concrete implementation wraps
// go-playground/validator v10 with english field-level messages.
package validator
