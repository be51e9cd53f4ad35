package model

// TextInputState classifies the current content of a text field.
type TextInputState int

const (
	// InputEmpty means there is nothing to validate yet.
	InputEmpty TextInputState = iota
	// InputNone means the input is complete and carries no error.
	InputNone
	// InputValid means the input passed validation.
	InputValid
	// InputInvalid means the input failed validation.
	InputInvalid
)

func (s TextInputState) String() string {
	switch s {
	case InputNone:
		return "none"
	case InputValid:
		return "valid"
	case InputInvalid:
		return "invalid"
	default:
		return "empty"
	}
}
