package lexer

// LineInfo summarises what one physical line holds
type LineInfo struct {
	Code    bool // A significant token touches the line
	Comment int  // Index in Tokens of the first comment touching the line, -1 if none
}

// LineMap returns per-line info indexed by 1-based line number. Index 0 is unused.
func (r *Result) LineMap() []LineInfo {
	last := r.Lines
	for _, t := range r.Tokens {
		if end := t.EndLine(); end > last && t.Kind != EOF {
			last = end
		}
	}

	lines := make([]LineInfo, last+1)
	for i := range lines {
		lines[i].Comment = -1
	}
	for i, t := range r.Tokens {
		switch {
		case t.Kind == Comment:
			for l := t.Line; l <= t.EndLine() && l <= last; l++ {
				if lines[l].Comment < 0 {
					lines[l].Comment = i
				}
			}
		case t.Significant():
			for l := t.Line; l <= t.EndLine() && l <= last; l++ {
				lines[l].Code = true
			}
		}
	}
	return lines
}
