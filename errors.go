package xlcalc

import "errors"

// Operation-level errors. Formula problems never surface here; they are
// stored on the cell as error values.
var (
	ErrSheetNotFound    = errors.New("sheet not found")
	ErrSheetExists      = errors.New("sheet already exists")
	ErrInvalidSheetName = errors.New("invalid sheet name")
	ErrInvalidCellID    = errors.New("invalid cell id")
)

// ParseError describes why a formula could not be parsed.
type ParseError struct {
	Formula string
	Message string
}

func (e *ParseError) Error() string {
	return "parse " + e.Formula + ": " + e.Message
}
