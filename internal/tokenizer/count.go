package tokenizer

import (
	"errors"
	"unicode/utf8"

	"github.com/temirov/dirtree/internal/utils"
)

// CountResult captures the outcome of counting a document.
type CountResult struct {
	Tokens  int
	Counted bool
}

// CountText estimates tokens for text. Binary or invalid UTF-8 input is reported as not
// counted.
func CountText(counter Counter, text string) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errors.New("nil tokenizer counter")
	}
	data := []byte(text)
	if utils.IsBinary(data) || !utf8.Valid(data) {
		return CountResult{Counted: false}, nil
	}
	tokens, countErr := counter.CountString(text)
	if countErr != nil {
		return CountResult{}, countErr
	}
	return CountResult{Tokens: tokens, Counted: true}, nil
}
