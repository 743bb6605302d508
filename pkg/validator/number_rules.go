package validator

// Number covers the numeric types the rules below accept.
type Number interface {
	~int | ~int64 | ~float64
}

// NonNegative checks that the value is zero or greater.
func NonNegative[T Number](field string, value T) Rule {
	return Rule{
		Check: func() bool {
			return value >= 0
		},
		Error: ValidationError{
			Field:   field,
			Message: "must not be negative",
		},
	}
}

// Positive checks that the value is greater than zero.
func Positive[T Number](field string, value T) Rule {
	return Rule{
		Check: func() bool {
			return value > 0
		},
		Error: ValidationError{
			Field:   field,
			Message: "must be positive",
		},
	}
}
