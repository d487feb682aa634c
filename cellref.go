package xlcalc

import (
	"fmt"
	"strconv"
	"strings"
)

// CellID identifies a cell within a sheet.
type CellID struct {
	Row int // 0-based row index
	Col int // 0-based column index
}

// xlsx grid limits: columns run to "XFD", rows to 1048576.
const (
	maxColumns = 16384
	maxRows    = 1048576
)

// NewCellID creates a CellID from 0-based row and column indexes.
func NewCellID(row, col int) CellID {
	return CellID{Row: row, Col: col}
}

// MustCellID parses name and panics on failure. Intended for tests and
// package-level fixtures.
func MustCellID(name string) CellID {
	id, err := ParseCellID(name)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseCellID parses a cell name like "A1", "ab12" or "$C$3".
// Column letters are case-normalized; "$" markers are ignored. Cells
// outside A1:XFD1048576 are rejected.
func ParseCellID(name string) (CellID, error) {
	s := strings.ReplaceAll(strings.TrimSpace(name), "$", "")
	if s == "" {
		return CellID{}, fmt.Errorf("%w: empty cell name", ErrInvalidCellID)
	}

	letters, digits, ok := splitCellName(s)
	if !ok {
		return CellID{}, fmt.Errorf("%w: %q", ErrInvalidCellID, name)
	}
	if len(digits) > len(strconv.Itoa(maxRows)) {
		return CellID{}, fmt.Errorf("%w: row out of range in %q", ErrInvalidCellID, name)
	}
	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 || row > maxRows {
		return CellID{}, fmt.Errorf("%w: row out of range in %q", ErrInvalidCellID, name)
	}

	col, err := NameToCol(letters)
	if err != nil {
		return CellID{}, fmt.Errorf("%w: %v", ErrInvalidCellID, err)
	}
	if col >= maxColumns {
		return CellID{}, fmt.Errorf("%w: column out of range in %q", ErrInvalidCellID, name)
	}
	return CellID{Row: row - 1, Col: col}, nil
}

// splitCellName splits s into up to three column letters and a run of
// digits, without checking grid bounds.
func splitCellName(s string) (letters, digits string, ok bool) {
	i := 0
	for i < len(s) && isAlpha(s[i]) {
		i++
	}
	if i == 0 || i == len(s) || i > 3 {
		return "", "", false
	}
	for j := i; j < len(s); j++ {
		if s[j] < '0' || s[j] > '9' {
			return "", "", false
		}
	}
	return s[:i], s[i:], true
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// String formats the CellID as "A1".
func (c CellID) String() string {
	return ColToName(c.Col) + strconv.Itoa(c.Row+1)
}

// Less orders cells row-major: by row, then by column.
func (c CellID) Less(other CellID) bool {
	if c.Row != other.Row {
		return c.Row < other.Row
	}
	return c.Col < other.Col
}

// ColToName converts a 0-based column index to a column name.
// 0→"A", 25→"Z", 26→"AA", 702→"AAA"
func ColToName(col int) string {
	result := ""
	col++
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// NameToCol converts a column name to a 0-based column index.
// "A"→0, "Z"→25, "AA"→26
func NameToCol(name string) (int, error) {
	name = strings.ToUpper(name)
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col - 1, nil
}

// CellKey identifies a cell across the whole workbook.
type CellKey struct {
	Sheet string
	Cell  CellID
}

// String formats the key as "Sheet1!A1", quoting the sheet name when needed.
func (k CellKey) String() string {
	return FormatSheetName(k.Sheet) + "!" + k.Cell.String()
}

func (k CellKey) less(other CellKey) bool {
	if k.Sheet != other.Sheet {
		return k.Sheet < other.Sheet
	}
	return k.Cell.Less(other.Cell)
}

// Reference is a parsed cell or range reference. A single-cell reference
// is a 1x1 range with Range unset.
type Reference struct {
	Sheet string // empty = owning sheet
	Start CellID
	End   CellID
	Range bool // written as "A1:B2" rather than "A1"
}

// NewCellReference creates a single-cell reference.
func NewCellReference(sheet string, id CellID) Reference {
	return Reference{Sheet: sheet, Start: id, End: id}
}

// NewRangeReference creates a range reference with normalized corners.
func NewRangeReference(sheet string, first, last CellID) Reference {
	r := Reference{Sheet: sheet, Start: first, End: last, Range: true}
	return r.normalized()
}

// ParseReference parses "A1", "A1:B3", "Sheet1!A1", "'Q1 Sales'!A1:B3".
func ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	var sheet string
	cellPart := s

	if idx := strings.LastIndex(s, "!"); idx >= 0 {
		name, err := parseSheetPrefix(s[:idx])
		if err != nil {
			return Reference{}, err
		}
		sheet = name
		cellPart = s[idx+1:]
	}

	first, last, isRange := cellPart, cellPart, false
	if parts := strings.SplitN(cellPart, ":", 2); len(parts) == 2 {
		first, last, isRange = parts[0], parts[1], true
	}

	start, err := ParseCellID(first)
	if err != nil {
		return Reference{}, fmt.Errorf("invalid reference %q: %w", s, err)
	}
	end, err := ParseCellID(last)
	if err != nil {
		return Reference{}, fmt.Errorf("invalid reference %q: %w", s, err)
	}

	ref := Reference{Sheet: sheet, Start: start, End: end, Range: isRange}
	return ref.normalized(), nil
}

// parseSheetPrefix returns the sheet name from the text before "!".
func parseSheetPrefix(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty sheet name", ErrInvalidSheetName)
	}
	if strings.HasPrefix(prefix, "'") {
		if len(prefix) < 3 || !strings.HasSuffix(prefix, "'") {
			return "", fmt.Errorf("%w: unterminated quoted name %s", ErrInvalidSheetName, prefix)
		}
		inner := prefix[1 : len(prefix)-1]
		// inner quotes must come in escaped pairs
		if strings.Count(strings.ReplaceAll(inner, "''", ""), "'") > 0 {
			return "", fmt.Errorf("%w: stray quote in %s", ErrInvalidSheetName, prefix)
		}
		return strings.ReplaceAll(inner, "''", "'"), nil
	}
	if !isPlainSheetName(prefix) {
		return "", fmt.Errorf("%w: %q must be quoted", ErrInvalidSheetName, prefix)
	}
	return prefix, nil
}

func (r Reference) normalized() Reference {
	if r.End.Row < r.Start.Row {
		r.Start.Row, r.End.Row = r.End.Row, r.Start.Row
	}
	if r.End.Col < r.Start.Col {
		r.Start.Col, r.End.Col = r.End.Col, r.Start.Col
	}
	return r
}

// Rows returns the number of rows spanned.
func (r Reference) Rows() int {
	return r.End.Row - r.Start.Row + 1
}

// Cols returns the number of columns spanned.
func (r Reference) Cols() int {
	return r.End.Col - r.Start.Col + 1
}

// Contains reports whether id lies inside the reference bounds.
func (r Reference) Contains(id CellID) bool {
	return id.Row >= r.Start.Row && id.Row <= r.End.Row &&
		id.Col >= r.Start.Col && id.Col <= r.End.Col
}

// String formats the reference as it would appear in a formula.
func (r Reference) String() string {
	var b strings.Builder
	if r.Sheet != "" {
		b.WriteString(FormatSheetName(r.Sheet))
		b.WriteByte('!')
	}
	b.WriteString(r.Start.String())
	if r.Range {
		b.WriteByte(':')
		b.WriteString(r.End.String())
	}
	return b.String()
}

// FormatSheetName returns name as it must be written in a formula: bare when
// it is a plain identifier, single-quoted (with '' escapes) otherwise.
func FormatSheetName(name string) string {
	if isPlainSheetName(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// isPlainSheetName reports whether name can be written without quotes:
// an identifier that is neither a cell name, a boolean, nor a function.
func isPlainSheetName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case isAlpha(ch) || ch == '_':
		case i > 0 && ((ch >= '0' && ch <= '9') || ch == '.'):
		default:
			return false
		}
	}
	if _, _, cellLike := splitCellName(name); cellLike {
		return false
	}
	upper := strings.ToUpper(name)
	if upper == "TRUE" || upper == "FALSE" {
		return false
	}
	_, isFunc := functions[upper]
	return !isFunc
}

// forbiddenSheetChars cannot appear in a sheet name at all.
const forbiddenSheetChars = `[]*?/\:!`

// ValidateSheetName checks that name can be used for a sheet.
func ValidateSheetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSheetName)
	}
	if strings.ContainsAny(name, forbiddenSheetChars) {
		return fmt.Errorf("%w: %q contains one of %s", ErrInvalidSheetName, name, forbiddenSheetChars)
	}
	if strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'") {
		return fmt.Errorf("%w: %q starts or ends with a quote", ErrInvalidSheetName, name)
	}
	return nil
}
