package validator

// Validator validates a struct against its field tags.
type Validator interface {
	Validate(data any) error
}
