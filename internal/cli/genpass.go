package cli

import (
	"context"
	"fmt"

	"github.com/digivault/digivault/internal/passgen"
)

func (a *App) GenPass(ctx context.Context) error {
	length, err := GetInt(a.reader, "Password length", passgen.DefaultLength, a.out)
	if err != nil {
		return a.reportError(err)
	}
	digits, err := GetYesNo(a.reader, "Include digits?", a.out)
	if err != nil {
		return a.reportError(err)
	}
	symbols, err := GetYesNo(a.reader, "Include symbols?", a.out)
	if err != nil {
		return a.reportError(err)
	}

	pw, err := passgen.Generate(passgen.Options{Length: length, Digits: digits, Symbols: symbols})
	if err != nil {
		return a.reportError(err)
	}

	fmt.Fprintln(a.out, pw)
	return nil
}
