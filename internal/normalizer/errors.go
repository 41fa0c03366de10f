package normalizer

import "fmt"

// ExtractionError means the document parser produced no usable text.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("no content extracted from %s", e.Filename)
	}
	return fmt.Sprintf("extracting %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// MalformedResponseError means the model answer is not a JSON object.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("model response is not valid JSON: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
