package tiered

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// dumpValues caps the number of values printed per bucket by Dump.
const dumpValues = 16

// Dump writes the bucket layout of the sequence to w, one line per bucket
// (for debugging purposes). Bucket headers are coloured if w is a terminal.
func (s *Sequence[T]) Dump(w io.Writer) error {
	header := color.New(color.FgBlue, color.Bold)
	partial := color.New(color.FgRed)
	if isTerminal(w) {
		header.EnableColor()
		partial.EnableColor()
	} else {
		header.DisableColor()
		partial.DisableColor()
	}
	if _, err := fmt.Fprintf(w, "sequence layout=%s len=%d buckets=%d\n",
		s.Layout(), s.m.size, len(s.m.buckets)); err != nil {
		return err
	}
	pos := 0
	for i, b := range s.m.buckets {
		c := header
		if i > 0 && i < s.m.last() && !b.IsFull() {
			c = partial
		}
		if _, err := c.Fprintf(w, "#%-3d %4d/%-4d @%d", i, b.Len(), b.Cap(), pos); err != nil {
			return err
		}
		var sb strings.Builder
		k := 0
		b.Each(func(v T) bool {
			if k == dumpValues {
				sb.WriteString(" …")
				return false
			}
			fmt.Fprintf(&sb, " %v", v)
			k++
			return true
		})
		if _, err := fmt.Fprintf(w, ":%s\n", sb.String()); err != nil {
			return err
		}
		pos += b.Len()
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ToDot writes the bucket chain of the sequence in Graphviz DOT format (for
// debugging purposes).
func (s *Sequence[T]) ToDot(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("strict digraph {\n")
	sb.WriteString("\trankdir=LR;\n")
	sb.WriteString("\tnode [fontname=Arial,fontsize=12,shape=record];\n")
	fmt.Fprintf(&sb, "\t\"seq\" [label=\"%s | len %d\",shape=box,style=filled,fillcolor=\"#a3d7e4\"];\n",
		s.Layout(), s.m.size)
	pos := 0
	for i, b := range s.m.buckets {
		fill := "white"
		if b.IsFull() {
			fill = "#CCDDFF"
		}
		label := fmt.Sprintf("#%d | %d/%d | @%d", i, b.Len(), b.Cap(), pos)
		if b.Len() > 0 {
			label += fmt.Sprintf(" | %s … %s", dotEscape(b.Front()), dotEscape(b.Back()))
		}
		fmt.Fprintf(&sb, "\t\"b%d\" [label=\"%s\",style=filled,fillcolor=\"%s\"];\n", i, label, fill)
		if i == 0 {
			sb.WriteString("\t\"seq\" -> \"b0\";\n")
		} else {
			fmt.Fprintf(&sb, "\t\"b%d\" -> \"b%d\";\n", i-1, i)
		}
		pos += b.Len()
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	if err != nil {
		tracer().Errorf("tiered DOT: %s", err.Error())
	}
	return err
}

func dotEscape(v any) string {
	r := strings.NewReplacer(`"`, `\"`, `|`, `\|`, `{`, `\{`, `}`, `\}`, `<`, `\<`, `>`, `\>`)
	return r.Replace(fmt.Sprint(v))
}
