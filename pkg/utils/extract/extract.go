package extract

import (
	"strings"

	"github.com/m-mizutani/pagewright/pkg/domain/model"
)

const fence = "```"

// State is the position of the parser relative to the file being collected
type State int

const (
	// StateIdle means no file is active
	StateIdle State = iota
	// StateInFencedBlock means the parser is inside a fenced block. The active
	// file name is empty for blocks that carry no file name
	StateInFencedBlock
	// StateAfterHeadingMatch means a heading or label line named the active file
	// and no fence has been opened yet
	StateAfterHeadingMatch
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateInFencedBlock:
		return "InFencedBlock"
	case StateAfterHeadingMatch:
		return "AfterHeadingMatch"
	default:
		return "Unknown"
	}
}

type lineKind int

const (
	lineText lineKind = iota
	lineFenceNamed
	lineFenceBare
	lineFenceInfo
	lineFileHeading
)

// wellKnownFiles are matched in heading and emphasis lines, first match wins
var wellKnownFiles = []string{
	"index.html",
	"README.md",
	"style.css",
	"styles.css",
	"script.js",
	"main.js",
}

var fileExtTokens = []string{".html", ".js", ".css", ".md"}
var fileNameTokens = []string{"index", "README", "LICENSE"}

// Parser collects named files from generated text fed line by line
type Parser struct {
	state State
	name  string
	buf   []string
	files model.FileSet
}

// NewParser returns a parser in the Idle state
func NewParser() *Parser {
	return &Parser{
		state: StateIdle,
		files: model.FileSet{},
	}
}

// State returns the current state and the active file name
func (p *Parser) State() (State, string) {
	return p.state, p.name
}

// Feed consumes one line of input without its line terminator
func (p *Parser) Feed(line string) {
	kind, name := classify(line, p.state == StateInFencedBlock)

	switch p.state {
	case StateIdle:
		switch kind {
		case lineFenceNamed:
			p.open(StateInFencedBlock, name)
		case lineFenceBare, lineFenceInfo:
			p.open(StateInFencedBlock, "")
		case lineFileHeading:
			p.open(StateAfterHeadingMatch, name)
		}

	case StateInFencedBlock:
		switch kind {
		case lineFenceNamed:
			p.flush()
			p.open(StateInFencedBlock, name)
		case lineFenceInfo:
			// "```filename: x" followed by its own "```html" opener
			if p.name != "" && !p.hasContent() {
				return
			}
			p.append(line)
		case lineFenceBare:
			p.flush()
			p.state = StateIdle
		default:
			p.append(line)
		}

	case StateAfterHeadingMatch:
		switch kind {
		case lineFenceNamed:
			p.flush()
			p.open(StateInFencedBlock, name)
		case lineFenceBare, lineFenceInfo:
			if !p.hasContent() {
				p.state = StateInFencedBlock
				return
			}
			if kind == lineFenceInfo {
				p.append(line)
				return
			}
			p.flush()
			p.state = StateIdle
		case lineFileHeading:
			p.flush()
			p.open(StateAfterHeadingMatch, name)
		default:
			if !strings.HasPrefix(line, "#") {
				p.append(line)
			}
		}
	}
}

// Close flushes the active file and returns every file collected so far
func (p *Parser) Close() model.FileSet {
	p.flush()
	p.state = StateIdle
	return p.files
}

func (p *Parser) open(s State, name string) {
	p.state = s
	p.name = name
	p.buf = p.buf[:0]
}

func (p *Parser) append(line string) {
	if p.name == "" {
		return
	}
	p.buf = append(p.buf, line)
}

func (p *Parser) hasContent() bool {
	for _, l := range p.buf {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

func (p *Parser) flush() {
	defer func() {
		p.name = ""
		p.buf = p.buf[:0]
	}()

	if p.name == "" {
		return
	}
	if content := trimBlankLines(p.buf); content != "" {
		p.files[p.name] = content
	}
}

// Files extracts a file name to content mapping from free-form generated text.
// It never fails: malformed input yields whatever could be recovered, possibly nothing.
func Files(text string) model.FileSet {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	p := NewParser()
	for _, line := range strings.Split(text, "\n") {
		p.Feed(line)
	}
	files := p.Close()

	if len(files) == 0 {
		if html, ok := htmlDocument(text); ok {
			files[model.FileIndex] = html
		}
	}

	return files
}

func classify(line string, inFence bool) (lineKind, string) {
	if strings.Contains(line, fence) {
		if strings.TrimSpace(line) == fence {
			return lineFenceBare, ""
		}
		if name := fenceFileName(line); name != "" {
			return lineFenceNamed, name
		}
		return lineFenceInfo, ""
	}

	if !inFence {
		if name := headingFileName(line); name != "" {
			return lineFileHeading, name
		}
	}

	return lineText, ""
}

// fenceFileName finds a file name on a fence line such as "```filename: app.js" or "```html index.html"
func fenceFileName(line string) string {
	for _, part := range strings.Split(line, fence) {
		if i := strings.Index(asciiLower(part), "filename:"); i >= 0 {
			if name := firstField(part[i+len("filename:"):]); name != "" {
				return name
			}
			continue
		}
		for _, field := range strings.Fields(part) {
			if name := trimDecoration(field); hasFileToken(name) {
				return name
			}
		}
	}
	return ""
}

// headingFileName matches "### index.html", "**style.css**" and label lines like "File: main.js".
// A label counts only at the start of the line; "File:" names only well-known files.
func headingFileName(line string) string {
	trimmed := strings.TrimSpace(line)
	lower := asciiLower(trimmed)

	label := strings.TrimLeft(trimmed, "#* \t")
	labelLower := asciiLower(label)
	switch {
	case strings.HasPrefix(labelLower, "filename:"):
		return firstField(label[len("filename:"):])
	case strings.HasPrefix(labelLower, "file:"):
		return wellKnownName(firstField(label[len("file:"):]))
	}

	if !strings.HasPrefix(trimmed, "#") && !strings.Contains(trimmed, "**") {
		return ""
	}
	for _, name := range wellKnownFiles {
		if strings.Contains(lower, asciiLower(name)) {
			return name
		}
	}
	return ""
}

func wellKnownName(s string) string {
	for _, name := range wellKnownFiles {
		if strings.EqualFold(s, name) {
			return name
		}
	}
	return ""
}

func firstField(s string) string {
	for _, field := range strings.Fields(s) {
		if name := trimDecoration(field); name != "" {
			return name
		}
	}
	return ""
}

func trimDecoration(s string) string {
	return strings.Trim(s, "`*\"'():,")
}

func hasFileToken(s string) bool {
	lower := asciiLower(s)
	for _, ext := range fileExtTokens {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	for _, token := range fileNameTokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

func htmlDocument(text string) (string, bool) {
	lower := asciiLower(text)
	start := strings.Index(lower, "<!doctype html>")
	if start < 0 {
		start = strings.Index(lower, "<html")
	}
	if start < 0 {
		return "", false
	}

	end := strings.LastIndex(lower, "</html>")
	if end < start {
		return "", false
	}
	return text[start : end+len("</html>")], true
}

func trimBlankLines(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

// asciiLower lowercases ASCII letters only, so byte offsets stay valid for the original string
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
