package pipeline

import "errors"

// ErrMissingDep indicates a Runner was constructed without a required
// collaborator.
var ErrMissingDep = errors.New("missing pipeline dependency")
