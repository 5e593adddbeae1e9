package inventory

import (
	"errors"
	"fmt"
)

var ErrReceiptAlreadyImported = errors.New("receipt already imported")

// ImportError reports a receipt whose import was rolled back.
type ImportError struct {
	ReceiptID string
	Err       error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import receipt %s: %v", e.ReceiptID, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }
