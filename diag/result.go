package diag

// Result is the outcome of one compile attempt. It is immutable once built.
type Result struct {
	succeeded bool
	warnings  []KernelError
	errors    []KernelError
}

// Success builds a successful result carrying non-blocking diagnostics.
func Success(warnings []KernelError) Result {
	return Result{succeeded: true, warnings: clone(warnings)}
}

// Failed builds a failed result.
func Failed(errors []KernelError) Result {
	return Result{errors: clone(errors)}
}

// Succeeded reports whether the compile produced a kernel.
func (r Result) Succeeded() bool { return r.succeeded }

// Warnings returns a copy of the warnings of a successful compile.
func (r Result) Warnings() []KernelError { return clone(r.warnings) }

// Errors returns a copy of the errors of a failed compile.
func (r Result) Errors() []KernelError { return clone(r.errors) }

// Diagnostics returns whichever list the result carries.
func (r Result) Diagnostics() []KernelError {
	if r.succeeded {
		return r.Warnings()
	}
	return r.Errors()
}

// Equal reports whether both results have the same outcome and diagnostics.
func (r Result) Equal(o Result) bool {
	return r.succeeded == o.succeeded &&
		EqualErrors(r.warnings, o.warnings) &&
		EqualErrors(r.errors, o.errors)
}

// String returns "success" or "failed".
func (r Result) String() string {
	if r.succeeded {
		return "success"
	}
	return "failed"
}

func clone(errs []KernelError) []KernelError {
	if len(errs) == 0 {
		return []KernelError{}
	}
	out := make([]KernelError, len(errs))
	copy(out, errs)
	return out
}
