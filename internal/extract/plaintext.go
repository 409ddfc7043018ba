// Package extract provides text extraction adapters for uploaded files.
package extract

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// PlainText handles .txt and .md uploads: the bytes are the text.
type PlainText struct{}

func NewPlainText() *PlainText {
	return &PlainText{}
}

func (p *PlainText) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: not valid UTF-8 text", filename)
	}
	return string(data), nil
}
