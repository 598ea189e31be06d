// internal/label/label.go
//
// Printer-control text for the Zebra GC420t.
//
// Context
// -------
// Labels are 5 x 2.5 cm (406 x 203 dots at 203 dpi).  Each block prints
// one Code 128 barcode and the same digits in human-readable form, then
// asks the firmware for N copies.  Two dialects exist:
//
//   - EPL – Eltron Programming Language, the default for the GC420t.
//   - ZPL – Zebra Programming Language, same layout.
//
// Rendering is blind substitution.  Callers validate the code shape and the
// quantity first; nothing here can fail once a Renderer is selected.
//
// Notes
// -----
//   - A block always ends with "\n"; batches join blocks with one more
//     "\n", leaving a single blank line between blocks.
//   - Oxford commas, two spaces after periods.
package label

import (
	"errors"
	"fmt"
	"strings"
)

// Dialect names a printer language.
type Dialect string

const (
	EPL Dialect = "epl"
	ZPL Dialect = "zpl"
)

// ErrUnknownDialect is returned by ForDialect and ParseDialect.
var ErrUnknownDialect = errors.New("unknown label dialect")

// Renderer turns one code and copy count into a command block.
type Renderer interface {
	Dialect() Dialect
	Extension() string // file extension without the dot
	Render(code string, quantity int) string
}

// Item is one (code, quantity) pair in a batch.
type Item struct {
	Code     string
	Quantity int
}

//
// EPL
//

const eplBlock = `N
q406
Q203,26
B100,50,0,1,2,4,60,N,"%[1]s"
A100,150,0,3,1,1,N,"%[1]s"
P%[2]d
`

type eplRenderer struct{}

func (eplRenderer) Dialect() Dialect  { return EPL }
func (eplRenderer) Extension() string { return "epl" }
func (eplRenderer) Render(code string, quantity int) string {
	return fmt.Sprintf(eplBlock, code, quantity)
}

//
// ZPL
//

const zplBlock = `^XA
^FO100,30
^BY2
^BCN,80,Y,N,N
^FD%[1]s^FS
^FO100,130
^A0N,25,25
^FD%[1]s^FS
^PQ%[2]d
^XZ
`

type zplRenderer struct{}

func (zplRenderer) Dialect() Dialect  { return ZPL }
func (zplRenderer) Extension() string { return "zpl" }
func (zplRenderer) Render(code string, quantity int) string {
	return fmt.Sprintf(zplBlock, code, quantity)
}

//
// selection
//

var renderers = map[Dialect]Renderer{
	EPL: eplRenderer{},
	ZPL: zplRenderer{},
}

// ForDialect returns the renderer for d.  The empty dialect selects EPL,
// the language wired into the printing workflow.
func ForDialect(d Dialect) (Renderer, error) {
	if d == "" {
		d = EPL
	}
	r, ok := renderers[d]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, string(d))
	}
	return r, nil
}

// ParseDialect normalises user input ("EPL", " zpl ") to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	d := Dialect(strings.ToLower(strings.TrimSpace(s)))
	if d == "" {
		return "", nil
	}
	if _, ok := renderers[d]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, s)
	}
	return d, nil
}

// RenderBatch renders items in order and joins the blocks with a blank line.
// An empty batch renders as the empty string.
func RenderBatch(r Renderer, items []Item) string {
	if len(items) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(items))
	for _, it := range items {
		blocks = append(blocks, r.Render(it.Code, it.Quantity))
	}
	return strings.Join(blocks, "\n")
}
