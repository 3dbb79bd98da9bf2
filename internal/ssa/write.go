package ssa

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
)

// Write renders the identifier table as a text table, one row per record
// in insertion order.
func (s *State) Write(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Ident", "Original", "Storage", "Def", "Uses"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	var rows [][]string
	for sid := range s.Identifiers.All() {
		def := "-"
		if sid.DefStatement != nil {
			def = sid.DefStatement.String()
		}
		uses := make([]string, len(sid.Uses))
		for i, u := range sid.Uses {
			uses[i] = u.String()
		}
		rows = append(rows, []string{
			sid.Ident.String(),
			sid.Original.String(),
			sid.Ident.Storage.String(),
			def,
			strings.Join(uses, "; "),
		})
	}
	table.AppendBulk(rows)
	table.Render()
}

// WriteLong writes every record in the multi-line form of
// Identifier.Write.
func (s *State) WriteLong(w io.Writer) {
	for sid := range s.Identifiers.All() {
		sid.Write(w)
	}
}

// Dump logs the identifier table and the procedure at debug level.
func (s *State) Dump() {
	if !logrus.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	var buf bytes.Buffer
	s.WriteLong(&buf)
	fmt.Fprintf(&buf, "%d identifiers, %d statements\n", s.Identifiers.Len(), s.Procedure.NumStatements())
	s.logger().Debug("ssa state:\n" + buf.String())
}
