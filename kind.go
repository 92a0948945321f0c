package lazygen

// OutputKind selects how the raw structured result of a model call is
// unwrapped into the caller-visible value.
type OutputKind string

const (
	// KindText unwraps a {text} field into a plain string.
	KindText OutputKind = "text"

	// KindObject returns the structured object as-is.
	KindObject OutputKind = "object"

	// KindList unwraps an {items} field into a slice.
	KindList OutputKind = "list"

	// KindLists returns the {categories, data} object as-is.
	KindLists OutputKind = "lists"

	// KindBool coerces an {answer} field into a boolean, accepting either
	// a native boolean or the literal strings "true"/"false".
	KindBool OutputKind = "boolean"

	// KindExtract unwraps an {items} field into a slice, like KindList,
	// but is intended for pulling structured data out of supplied text.
	KindExtract OutputKind = "extract"
)
