package media

import "fmt"

const (
	OpList   = "list"
	OpCreate = "create"
)

// ProvisionError is returned when the destination bucket cannot be listed or created.
// It is terminal for the calling request.
type ProvisionError struct {
	Op     string
	Bucket string
	Err    error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("ensure bucket %s: %s failed: %v", e.Bucket, e.Op, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// UploadError is returned when no attempt succeeded. Transient is set when every failure
// was retryable and the attempt budget ran out; otherwise the last failure was permanent.
type UploadError struct {
	Attempts  int
	Transient bool
	Err       error
}

func (e *UploadError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("upload failed after %d attempt(s), last error %s: %v", e.Attempts, kind, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
