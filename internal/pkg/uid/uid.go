// Package uid provides identifier generators behind small interfaces, so
// callers can swap implementations (snowflake, UUID, object ID) without
// caring how the bits are produced.
package uid

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
