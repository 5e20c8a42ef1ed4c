package domain

// Reserved variable names.
const (
	// VarInputs holds the map of the most recently submitted input values.
	VarInputs = "_inputs"
)

// Save envelope tags for custom objects.
const (
	KeyType   = "_type"
	KeyModule = "_module"
	KeyState  = "state"
	// KeyOrder lists dict keys in insertion order when it is not sorted.
	KeyOrder = "order"
)
