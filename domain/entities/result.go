package entities

// ResultStatus represents the outcome of a render call.
type ResultStatus string

const (
	// ResultStatusSuccess indicates the render produced output.
	ResultStatusSuccess ResultStatus = "success"

	// ResultStatusFailure indicates the render faulted and produced no output.
	ResultStatusFailure ResultStatus = "failure"
)

// RenderResult is the discriminated outcome of a render:
// either Output is set (success) or Error is set (failure).
type RenderResult struct {
	// Error contains structured error information if Status is failure.
	Error *ErrorDetail `json:"error,omitempty"`

	// Status indicates whether the render succeeded.
	Status ResultStatus `json:"status"`

	// Output is the rendered document.
	Output string `json:"output,omitempty"`
}

// RenderSuccess creates a successful RenderResult.
func RenderSuccess(output string) RenderResult {
	return RenderResult{Status: ResultStatusSuccess, Output: output}
}

// RenderFailure creates a failed RenderResult from the given error details.
func RenderFailure(err *ErrorDetail) RenderResult {
	return RenderResult{Status: ResultStatusFailure, Error: err}
}

// IsSuccess returns true if the result indicates success.
func (r RenderResult) IsSuccess() bool {
	return r.Status == ResultStatusSuccess
}

// Err returns the failure as an error, or nil on success.
func (r RenderResult) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}
