// Package shell turns a line of input into a Pipeline.
//
// The grammar is a deliberately small subset of the shell command language:
//
//	line     := stage ('|' stage)* ['&'] ['?']
//	stage    := name {arg | '<'path | '>'path | '>>'path}*
//
// Arguments may be wrapped whole in single or double quotes. The stage name is
// unquoted the same way, so "'ls'" runs ls. A '|' with nothing after it is
// dropped rather than producing an empty stage. There is no
// variable expansion, globbing, escaping or compound command support. Parsing
// never fails: malformed input degrades to empty or ignored fields.
package shell

import (
	"strings"
	"unicode"
)

const (
	// AutoCompleteTrigger at the end of a line requests completion.
	AutoCompleteTrigger = "?"
	// BackgroundMarker at the end of a line runs the pipeline in the background.
	BackgroundMarker = "&"
	// PipeToken separates stages.
	PipeToken = "|"
)

// Parse converts one raw input line into a Pipeline. The result always has at
// least one stage; a blank line yields a single stage with an empty name.
func Parse(line string) *Pipeline {
	p := &Pipeline{}
	p.parse(line)
	return p
}

func (p *Pipeline) parse(line string) {
	line = strings.TrimSpace(line)

	var stage Stage
	body := line
	if strings.HasSuffix(body, AutoCompleteTrigger) {
		stage.AutoComplete = true
		body = strings.TrimSuffix(body, AutoCompleteTrigger)
	}
	if strings.HasSuffix(body, BackgroundMarker) {
		stage.Background = true
		body = strings.TrimSuffix(body, BackgroundMarker)
	}

	tokens := splitFields(body)
	if len(tokens) == 0 {
		p.Stages = append(p.Stages, stage)
		return
	}
	stage.Name = unquote(tokens[0].text)

	// pending holds a bare redirect operator waiting for its path.
	pending := Redirect(-1)
	for _, tok := range tokens[1:] {
		arg := tok.text

		switch {
		case arg == PipeToken:
			// body is a prefix of line so the offset is valid for both; parsing
			// the rest of line keeps any trailing markers for the last stage.
			rest := Parse(line[tok.end:])
			if rest.Empty() {
				// A trailing pipe feeds nothing and adds no stage.
				stage.Background = rest.Head().Background
				stage.AutoComplete = rest.Head().AutoComplete
				p.Stages = append(p.Stages, stage)
				return
			}

			// Only the final stage keeps the trailing markers.
			stage.Background = false
			stage.AutoComplete = false
			p.Stages = append(p.Stages, stage)
			p.Stages = append(p.Stages, rest.Stages...)
			return

		case pending >= 0:
			stage.setRedirect(pending, arg)
			pending = -1

		case arg == BackgroundMarker:
			// Consumed above.

		case strings.HasPrefix(arg, "<"):
			pending = stage.redirectOrPending(RedirectIn, arg[1:])

		case strings.HasPrefix(arg, ">>"):
			pending = stage.redirectOrPending(RedirectAppend, arg[2:])

		case strings.HasPrefix(arg, ">"):
			pending = stage.redirectOrPending(RedirectOut, arg[1:])

		default:
			stage.Args = append(stage.Args, unquote(arg))
		}
	}

	p.Stages = append(p.Stages, stage)
}

// redirectOrPending sets the slot when the operator carried its path and
// otherwise returns the slot so the next token can fill it.
func (s *Stage) redirectOrPending(r Redirect, path string) Redirect {
	if path == "" {
		return r
	}
	s.setRedirect(r, path)
	return -1
}

// unquote strips a single pair of matching quotes spanning the whole token.
// Tokens shorter than three characters are never treated as quoted.
func unquote(arg string) string {
	if len(arg) < 3 {
		return arg
	}
	first, last := arg[0], arg[len(arg)-1]
	if first == last && (first == '"' || first == '\'') {
		return arg[1 : len(arg)-1]
	}
	return arg
}

type field struct {
	text string
	end  int
}

// splitFields splits s on runs of whitespace, remembering where each field
// ends so callers can recover the untouched remainder of the line.
func splitFields(s string) []field {
	var out []field
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, field{text: s[start:i], end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, field{text: s[start:], end: len(s)})
	}
	return out
}
