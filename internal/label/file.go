package label

import (
	"fmt"
	"time"
)

// ContentType is what the printer utilities expect for a raw command file.
const ContentType = "application/octet-stream"

// File is a rendered, downloadable label artifact.
type File struct {
	Name    string  `json:"filename"`
	Dialect Dialect `json:"dialect"`
	Labels  int     `json:"labels"` // total copies across all blocks
	Content string  `json:"content"`
}

// SingleFile renders one code as <code>.<ext>.
func SingleFile(r Renderer, code string, quantity int) File {
	return File{
		Name:    code + "." + r.Extension(),
		Dialect: r.Dialect(),
		Labels:  quantity,
		Content: r.Render(code, quantity),
	}
}

// BatchFile renders items as lote_YYYYMMDD_HHMMSS.<ext>, stamped with now.
func BatchFile(r Renderer, items []Item, now time.Time) File {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return File{
		Name:    fmt.Sprintf("lote_%s.%s", now.Format("20060102_150405"), r.Extension()),
		Dialect: r.Dialect(),
		Labels:  total,
		Content: RenderBatch(r, items),
	}
}
