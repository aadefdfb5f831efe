package extract

import "fmt"

// DecodeError reports a document that could not be read. Page is 0 when
// the document itself failed to open.
type DecodeError struct {
	Name string
	Page int
	Err  error
}

func (e *DecodeError) Error() string {
	what := "document"
	if e.Name != "" {
		what = e.Name
	}
	if e.Page > 0 {
		return fmt.Sprintf("cannot decode %s: page %d: %v", what, e.Page, e.Err)
	}
	return fmt.Sprintf("cannot decode %s: %v", what, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
