package memory

// Helpers for assembling documents in code. Tests across the engine build
// templates with these instead of parsing files.

// Para builds a paragraph block.
func Para(runs ...*Run) *Block {
	return &Block{Paragraph: &Paragraph{Runs: runs}}
}

// TableOf builds a table block.
func TableOf(rows ...*Row) *Block {
	return &Block{Table: &Table{Rows: rows}}
}

// RowOf builds a table row.
func RowOf(cells ...*Cell) *Row {
	return &Row{Cells: cells}
}

// CellOf builds a cell with a single paragraph.
func CellOf(runs ...*Run) *Cell {
	return &Cell{Paragraphs: []*Paragraph{{Runs: runs}}}
}

// Text builds a literal run.
func Text(s string) *Run {
	return &Run{Text: s}
}

// Field builds an inline content-control run.
func Field(name, text string) *Run {
	return &Run{Control: &Control{Name: name, Text: text}}
}

// BlockField builds a block-level content-control run.
func BlockField(name, text string) *Run {
	return &Run{Control: &Control{Name: name, Text: text, Block: true}}
}

// SectionOf builds a single-page section.
func SectionOf(blocks ...*Block) *Section {
	return &Section{Blocks: blocks, Pages: 1}
}
