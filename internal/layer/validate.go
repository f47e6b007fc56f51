package layer

import "fmt"

// Rejection is a decoded layer that fails a domain rule. A rejected layer is
// still a complete Layer; whether it proceeds is decided by the caller.
type Rejection struct {
	Reason string
	Fault  string // the reported LayerError, or "" when the rule was not about it
}

func (r *Rejection) Error() string { return r.Reason }

// Validate applies the layer rules in order and returns the first failure as
// a *Rejection, or nil if the layer is acceptable.
func Validate(l Layer) error {
	if l.LayerError != StatusSuccess {
		return &Rejection{
			Reason: fmt.Sprintf("Layer error reported: %s", l.LayerError),
			Fault:  l.LayerError,
		}
	}
	if l.LayerNumber <= 0 {
		return &Rejection{Reason: "Layer number must be greater than 0."}
	}
	return nil
}
