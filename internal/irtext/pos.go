package irtext

import "fmt"

// Pos is a position in an IR text file. The zero value is invalid.
type Pos struct {
	filename string
	line     uint32 // 1-based
	col      uint32 // 1-based byte column
}

// NewPos returns the position line:col in filename.
func NewPos(filename string, line, col uint32) Pos {
	return Pos{filename: filename, line: line, col: col}
}

// String formats the position as "file:line:col", or "line:col" when
// the file name is empty.
func (p Pos) String() string {
	if p.filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.filename, p.line, p.col)
	}
	return fmt.Sprintf("%d:%d", p.line, p.col)
}

// IsValid reports whether the position refers to a line.
func (p Pos) IsValid() bool { return p.line > 0 }

func (p Pos) Line() uint32 { return p.line }
func (p Pos) Col() uint32  { return p.col }
