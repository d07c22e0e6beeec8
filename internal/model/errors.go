package model

import "fmt"

// LoadError reports that the model runtime was unavailable or failed to
// initialize. A gateway that returned a LoadError keeps returning it.
type LoadError struct {
	Model string
	Err   error
}

func (e *LoadError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("model: load %q: %v", e.Model, e.Err)
}

func (e *LoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InvocationError reports that a loaded model failed on one prompt.
type InvocationError struct {
	Model string
	Err   error
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("model: invoke %q: %v", e.Model, e.Err)
}

func (e *InvocationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
