package file

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/aretw0/docmerge/pkg/adapters/memory"
	"gopkg.in/yaml.v3"
)

// A template file describes a form as YAML. Paragraphs and cells are strings where
// {{Name}} marks an inline control, {{Name ~ default}} gives it template text and
// {{#Name ~ default}} makes it a block control:
//
//	name: CG2010
//	sections:
//	  - pages: 1
//	    footer: CG 20 10 04 13
//	    blocks:
//	      - "Named Insured: {{NamedInsured}}"
//	      - table:
//	          - ["Name", "Address"]
//	          - ["{{AI_1}}", "{{AIAddr_1}}"]
type templateFile struct {
	Name     string            `yaml:"name"`
	Sections []templateSection `yaml:"sections"`
}

type templateSection struct {
	Pages  int             `yaml:"pages"`
	Footer string          `yaml:"footer"`
	Blocks []templateBlock `yaml:"blocks"`
}

type templateBlock struct {
	Text  string
	Table [][]string
}

func (b *templateBlock) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&b.Text)
	}
	var t struct {
		Table [][]string `yaml:"table"`
	}
	if err := value.Decode(&t); err != nil {
		return fmt.Errorf("line %d: block must be a string or a table: %w", value.Line, err)
	}
	b.Table = t.Table
	return nil
}

var controlPattern = regexp.MustCompile(`\{\{(#?)([^{}~]+)(?:~([^{}]*))?\}\}`)

// LoadTemplate reads a YAML template description into an in-memory document.
func LoadTemplate(path string) (*memory.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return ParseTemplate(data)
}

// ParseTemplate builds an in-memory document from a YAML template description.
func ParseTemplate(data []byte) (*memory.Document, error) {
	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if tf.Name == "" {
		return nil, fmt.Errorf("template has no name")
	}

	p := &runParser{seen: make(map[string]int)}
	sections := make([]*memory.Section, 0, len(tf.Sections))
	for _, ts := range tf.Sections {
		s := &memory.Section{Pages: max(ts.Pages, 1), Footer: memory.Footer{Text: ts.Footer}}
		for _, tb := range ts.Blocks {
			if tb.Table == nil {
				s.Blocks = append(s.Blocks, memory.Para(p.parse(tb.Text)...))
				continue
			}
			rows := make([]*memory.Row, 0, len(tb.Table))
			for _, cells := range tb.Table {
				row := &memory.Row{}
				for _, c := range cells {
					row.Cells = append(row.Cells, memory.CellOf(p.parse(c)...))
				}
				rows = append(rows, row)
			}
			s.Blocks = append(s.Blocks, memory.TableOf(rows...))
		}
		sections = append(sections, s)
	}
	return memory.NewDocument(tf.Name, sections...), nil
}

// runParser splits text into literal and control runs. A name used more than
// once gets a "__<n>" suffix, since a document cannot hold two controls with
// one name.
type runParser struct {
	seen map[string]int
}

func (p *runParser) parse(text string) []*memory.Run {
	var runs []*memory.Run
	last := 0
	for _, m := range controlPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			runs = append(runs, memory.Text(text[last:m[0]]))
		}
		block := m[3] > m[2]
		name := strings.TrimSpace(text[m[4]:m[5]])
		key := strings.ToLower(name)
		p.seen[key]++
		if n := p.seen[key]; n > 1 {
			name = fmt.Sprintf("%s__%d", name, n)
		}
		def := ""
		if m[6] >= 0 {
			def = strings.TrimPrefix(text[m[6]:m[7]], " ")
		}
		if block {
			runs = append(runs, memory.BlockField(name, def))
		} else {
			runs = append(runs, memory.Field(name, def))
		}
		last = m[1]
	}
	if last < len(text) {
		runs = append(runs, memory.Text(text[last:]))
	}
	return runs
}
