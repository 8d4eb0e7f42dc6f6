package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/dshills/stdland/pkg/types"
)

// SupportedExtensions lists the source file extensions the parser reads
var SupportedExtensions = []string{".ts", ".tsx", ".js", ".mjs"}

const ident = `([A-Za-z_$][\w$]*)`

// declPattern maps one kind of top-level export to an item type. Patterns
// are tried in order; the first match wins.
type declPattern struct {
	kind types.ItemType
	re   *regexp.Regexp
}

var declPatterns = []declPattern{
	{types.TypeFunction, regexp.MustCompile(`^export\s+(?:default\s+)?(?:declare\s+)?(?:async\s+)?function\s*\*?\s*` + ident)},
	{types.TypeClass, regexp.MustCompile(`^export\s+(?:default\s+)?(?:declare\s+)?(?:abstract\s+)?class\s+` + ident)},
	{types.TypeEnum, regexp.MustCompile(`^export\s+(?:declare\s+)?(?:const\s+)?enum\s+` + ident)},
	{types.TypeInterface, regexp.MustCompile(`^export\s+(?:default\s+)?(?:declare\s+)?interface\s+` + ident)},
	{types.TypeTypeAlias, regexp.MustCompile(`^export\s+(?:declare\s+)?type\s+` + ident + `\s*(?:<|=)`)},
	{types.TypeNamespace, regexp.MustCompile(`^export\s+(?:declare\s+)?(?:namespace|module)\s+` + ident)},
	{types.TypeVariable, regexp.MustCompile(`^export\s+(?:declare\s+)?(?:const|let|var)\s+` + ident)},
}

var (
	// export * from "m", export * as ns from "m", export { a, b } from "m"
	reExport = regexp.MustCompile(`^export\s+(?:type\s+)?(?:\*(?:\s+as\s+[\w$]+)?|\{[^}]*\})\s*from\s*["']([^"']+)["']`)
	// start of a brace list that continues on the following lines
	reExportOpen = regexp.MustCompile(`^export\s+(?:type\s+)?\{[^}]*$`)
)

// Parser extracts top-level exports from TypeScript and JavaScript modules
type Parser struct{}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{}
}

// Supported reports whether filePath has an extension the parser reads
func Supported(filePath string) bool {
	ext := path.Ext(filePath)
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ParseFile reads filePath and extracts its symbols. relPath is the
// forward-slash path recorded on every symbol.
func (p *Parser) ParseFile(filePath, relPath string) (*types.ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return p.ParseSource(relPath, content), nil
}

// ParseSource extracts symbols from module source. The first symbol is
// always the file itself; the rest follow in source order.
func (p *Parser) ParseSource(relPath string, content []byte) *types.ParseResult {
	result := &types.ParseResult{}
	ext := strings.TrimPrefix(path.Ext(relPath), ".")

	result.Symbols = append(result.Symbols, types.Symbol{
		Name:      path.Base(relPath),
		Extension: ext,
		Path:      relPath,
		Type:      types.TypeFile,
	})

	s := &scanner{relPath: relPath, ext: ext, result: result}

	lines := bufio.NewScanner(bytes.NewReader(content))
	lines.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for lines.Scan() {
		lineNo++
		s.line(lineNo, lines.Text())
	}
	if err := lines.Err(); err != nil {
		result.AddError(relPath, lineNo, fmt.Sprintf("read error: %v", err))
	}

	s.finish()
	return result
}

// scanner holds the state carried between lines
type scanner struct {
	relPath string
	ext     string
	result  *types.ParseResult

	inComment    bool
	commentStart int

	pending      strings.Builder // multi-line export { ... } from "m"
	pendingStart int
}

func (s *scanner) line(lineNo int, raw string) {
	wasInComment := s.inComment
	code, inComment := stripComments(raw, s.inComment)
	if inComment && !wasInComment {
		s.commentStart = lineNo
	}
	s.inComment = inComment

	code = strings.TrimSpace(code)

	if s.pendingStart > 0 {
		s.pending.WriteByte(' ')
		s.pending.WriteString(code)
		if strings.Contains(code, "}") {
			s.statement(s.pendingStart, s.pending.String())
			s.pending.Reset()
			s.pendingStart = 0
		}
		return
	}

	if !strings.HasPrefix(code, "export") {
		return
	}

	if reExportOpen.MatchString(code) {
		s.pending.WriteString(code)
		s.pendingStart = lineNo
		return
	}

	s.statement(lineNo, code)
}

// statement classifies one export statement
func (s *scanner) statement(lineNo int, code string) {
	if m := reExport.FindStringSubmatch(code); m != nil {
		s.add(m[1], types.TypeImport, lineNo)
		return
	}

	for _, dp := range declPatterns {
		if m := dp.re.FindStringSubmatch(code); m != nil {
			s.add(m[1], dp.kind, lineNo)
			return
		}
	}
}

func (s *scanner) add(name string, kind types.ItemType, lineNo int) {
	s.result.Symbols = append(s.result.Symbols, types.Symbol{
		Name:       name,
		Extension:  s.ext,
		Path:       s.relPath,
		Type:       kind,
		LineNumber: lineNo,
	})
}

func (s *scanner) finish() {
	if s.inComment {
		s.result.AddError(s.relPath, s.commentStart, "unterminated block comment")
	}
	if s.pendingStart > 0 {
		s.result.AddError(s.relPath, s.pendingStart, "unterminated export list")
	}
}

// stripComments removes block and line comments from a line, honouring
// string literals. inComment reports whether a block comment is open at the
// start of the line; the returned flag whether one is open at its end.
func stripComments(line string, inComment bool) (string, bool) {
	var out strings.Builder
	var quote byte

	for i := 0; i < len(line); i++ {
		c := line[i]

		if inComment {
			if c == '*' && i+1 < len(line) && line[i+1] == '/' {
				inComment = false
				i++
			}
			continue
		}

		if quote != 0 {
			out.WriteByte(c)
			if c == '\\' && i+1 < len(line) {
				i++
				out.WriteByte(line[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}

		switch {
		case c == '"' || c == '\'' || c == '`':
			quote = c
			out.WriteByte(c)
		case c == '/' && i+1 < len(line) && line[i+1] == '*':
			inComment = true
			i++
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return out.String(), false
		default:
			out.WriteByte(c)
		}
	}

	return out.String(), inComment
}
