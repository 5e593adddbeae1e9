package receipt

import (
	"regexp"
	"strings"
)

type TokenKind int

const (
	TokenText TokenKind = iota
	TokenBitmap
	TokenBarcode
)

func (k TokenKind) String() string {
	switch k {
	case TokenBitmap:
		return "bitmap"
	case TokenBarcode:
		return "barcode"
	default:
		return "text"
	}
}

// Token is one receipt line with printer pseudo-commands unwrapped. Text is
// the literal text payload; Ref holds the bitmap name or barcode data.
type Token struct {
	Kind       TokenKind
	Text       string
	Ref        string
	Emphasized bool
	Raw        string
}

var (
	doubleCommand  = regexp.MustCompile(`PrintDouble\('(.*?)',\s*\d+\)`)
	bitmapCommand  = regexp.MustCompile(`PrintBitmap\(\s*\d+\s*,\s*'([^']*)'[^)]*\)`)
	barcodeCommand = regexp.MustCompile(`PrintBarCode\('([^']*)'[^)]*\)`)
)

// Tokenize unwraps every line. It never fails; a wrapper it does not
// recognize stays in the output as literal text.
func Tokenize(lines []string) []Token {
	tokens := make([]Token, 0, len(lines))
	for _, line := range lines {
		tokens = append(tokens, TokenizeLine(line))
	}
	return tokens
}

func TokenizeLine(line string) Token {
	if m := bitmapCommand.FindStringSubmatchIndex(line); m != nil {
		return Token{
			Kind: TokenBitmap,
			Ref:  line[m[2]:m[3]],
			Text: strings.TrimSpace(line[:m[0]] + line[m[1]:]),
			Raw:  line,
		}
	}

	if m := barcodeCommand.FindStringSubmatchIndex(line); m != nil {
		return Token{
			Kind: TokenBarcode,
			Ref:  line[m[2]:m[3]],
			Text: strings.TrimSpace(line[:m[0]] + line[m[1]:]),
			Raw:  line,
		}
	}

	if doubleCommand.MatchString(line) {
		return Token{
			Kind:       TokenText,
			Text:       doubleCommand.ReplaceAllString(line, "$1"),
			Emphasized: true,
			Raw:        line,
		}
	}

	return Token{Kind: TokenText, Text: line, Raw: line}
}
