/*
errors.go - Error types for the ingestion boundary

PURPOSE:
  A missing mandatory column is the only fatal outcome of an ingestion
  attempt. Everything else degrades to a skipped row so that the rest of
  the export still loads.

SEE ALSO:
  - normalizer.go: The only producer of these errors
*/
package orders

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchema is returned when the export header is missing a mandatory
// column. The prior OrderSet, if any, remains usable after this error.
var ErrSchema = errors.New("export schema invalid")

// SchemaError reports which mandatory columns were absent from the header.
type SchemaError struct {
	Missing []string
	Header  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s (header: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Header, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }
