package postag

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// ReadCorpus reads training sentences from CSV: one sentence per row, one
// ('word', 'TAG') tuple literal per cell. Malformed cells are logged and
// skipped; rows left without any tuple are dropped.
func ReadCorpus(r io.Reader, log *zap.Logger) ([][]TaggedWord, int, error) {
	if log == nil {
		log = zap.NewNop()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var sentences [][]TaggedWord
	skipped := 0
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("row %d: %w", row, err)
		}

		var sentence []TaggedWord
		for _, cell := range record {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			tw, err := ParseCell(cell)
			if err != nil {
				skipped++
				log.Warn("Skipping malformed cell",
					zap.Int("row", row),
					zap.String("cell", cell),
					zap.Error(err),
				)
				continue
			}
			sentence = append(sentence, tw)
		}
		if len(sentence) > 0 {
			sentences = append(sentences, sentence)
		}
	}
	return sentences, skipped, nil
}

// ParseCell parses a two-element tuple literal of quoted strings, for example
// ('මම', 'PRP') or ("it's", "PRP").
func ParseCell(cell string) (TaggedWord, error) {
	s := strings.TrimSpace(cell)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return TaggedWord{}, fmt.Errorf("not a tuple: %q", cell)
	}
	p := &literalParser{src: []rune(s[1 : len(s)-1])}

	word, err := p.str()
	if err != nil {
		return TaggedWord{}, err
	}
	if !p.consume(',') {
		return TaggedWord{}, fmt.Errorf("expected ',' after first element")
	}
	tag, err := p.str()
	if err != nil {
		return TaggedWord{}, err
	}
	p.consume(',')
	p.skipSpace()
	if !p.done() {
		return TaggedWord{}, fmt.Errorf("tuple has more than two elements")
	}
	if tag == "" {
		return TaggedWord{}, fmt.Errorf("empty tag")
	}
	return TaggedWord{Word: word, Tag: tag}, nil
}

type literalParser struct {
	src []rune
	pos int
}

func (p *literalParser) done() bool {
	return p.pos >= len(p.src)
}

func (p *literalParser) skipSpace() {
	for !p.done() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *literalParser) consume(r rune) bool {
	p.skipSpace()
	if !p.done() && p.src[p.pos] == r {
		p.pos++
		return true
	}
	return false
}

// str reads one single- or double-quoted string with backslash escapes
func (p *literalParser) str() (string, error) {
	p.skipSpace()
	if p.done() {
		return "", fmt.Errorf("expected string")
	}
	quote := p.src[p.pos]
	if quote != '\'' && quote != '"' {
		return "", fmt.Errorf("expected quote, got %q", quote)
	}
	p.pos++

	var b strings.Builder
	for !p.done() {
		r := p.src[p.pos]
		p.pos++
		switch {
		case r == '\\':
			if p.done() {
				return "", fmt.Errorf("dangling escape")
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			default:
				b.WriteRune(esc)
			}
		case r == quote:
			return b.String(), nil
		default:
			b.WriteRune(r)
		}
	}
	return "", fmt.Errorf("unterminated string")
}
