package domain

import "errors"

// ErrPassageNotFound is returned when navigation targets an unknown passage.
var ErrPassageNotFound = errors.New("passage not found")

// ErrJumpCycle is returned when a chain of jumps revisits a passage.
var ErrJumpCycle = errors.New("jump cycle detected")

// ErrChoiceOutOfRange is returned when a choice index is not among the
// currently available choices.
var ErrChoiceOutOfRange = errors.New("choice index out of range")

// ErrNoOutput is returned when an operation needs a rendered passage first.
var ErrNoOutput = errors.New("no passage has been rendered")

// ErrSaveVersion is returned when a save was written by an incompatible format.
var ErrSaveVersion = errors.New("incompatible save version")

// ErrSaveNotFound is returned when a save ID cannot be found in the store.
var ErrSaveNotFound = errors.New("save not found")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownNodeType is returned when decoding a node with an unknown type tag.
var ErrUnknownNodeType = errors.New("unknown node type")

// ErrStoryNotFound is returned when a loader has no story with the given ID.
var ErrStoryNotFound = errors.New("story not found")

// ErrInvalidInput is returned when submitted input is rejected.
var ErrInvalidInput = errors.New("invalid input")
