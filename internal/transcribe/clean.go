package transcribe

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CleanTranscript normalizes backend output: NFC composition, a space on
// each side of punctuation sitting between two word characters (apostrophes
// excepted), whitespace runs collapsed to one space, and the ends trimmed.
// Applying it twice gives the same result as once.
func CleanTranscript(text string) string {
	runes := []rune(norm.NFC.String(text))

	var b strings.Builder
	b.Grow(len(text) + 8)
	for i, r := range runes {
		if i > 0 && i < len(runes)-1 && isPunct(r) && isWord(runes[i-1]) && isWord(runes[i+1]) {
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func isPunct(r rune) bool {
	return r != '\'' && !isWord(r) && !unicode.IsSpace(r)
}
