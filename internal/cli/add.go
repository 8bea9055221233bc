package cli

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/digivault/digivault/internal/filex"
	"github.com/digivault/digivault/internal/passgen"
	"github.com/digivault/digivault/internal/vault"
)

func (a *App) AddLogin(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	title, err := GetSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		return a.reportError(err)
	}
	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return a.reportError(err)
	}

	generate, err := GetYesNo(a.reader, "Generate a password?", a.out)
	if err != nil {
		return a.reportError(err)
	}
	var secret string
	if generate {
		secret, err = passgen.Generate(passgen.DefaultOptions())
		if err != nil {
			return a.reportError(err)
		}
		fmt.Fprintln(a.out, "Generated password:", secret)
	} else {
		pw, err := GetPassword(a.out, "Enter the password to store")
		if err != nil {
			return a.reportError(err)
		}
		secret = string(pw)
	}

	website, err := GetSimpleText(a.reader, "Enter website (optional)", a.out)
	if err != nil {
		return a.reportError(err)
	}
	notes, err := GetMultiline(a.reader, "Enter notes (optional)", a.out)
	if err != nil {
		return a.reportError(err)
	}

	entry := vault.PasswordEntry{Title: title, Username: username, Secret: secret, Website: website, Notes: notes}
	id, err := a.vault.Create(ctx, a.sess, entry, nil)
	if err != nil {
		return a.reportError(err)
	}

	fmt.Fprintln(a.out, "Saved:", id)
	return nil
}

func (a *App) AddNote(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	title, err := GetSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		return a.reportError(err)
	}
	content, err := GetMultiline(a.reader, "Enter note text", a.out)
	if err != nil {
		return a.reportError(err)
	}
	destructible, err := GetYesNo(a.reader, "Self-destruct after first viewing?", a.out)
	if err != nil {
		return a.reportError(err)
	}

	entry := vault.NoteEntry{Title: title, Content: content, Destructible: destructible}
	id, err := a.vault.Create(ctx, a.sess, entry, nil)
	if err != nil {
		return a.reportError(err)
	}

	fmt.Fprintln(a.out, "Saved:", id)
	return nil
}

func (a *App) AddDocument(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	path, err := GetSimpleText(a.reader, "Enter file path", a.out)
	if err != nil {
		return a.reportError(err)
	}

	data, err := filex.ReadCapped(path, vault.MaxDocumentSize)
	if err != nil {
		return a.reportError(err)
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	entry := vault.DocumentEntry{Name: filepath.Base(path), MimeType: http.DetectContentType(head)}

	id, err := a.vault.Create(ctx, a.sess, entry, data)
	if err != nil {
		return a.reportError(err)
	}

	fmt.Fprintln(a.out, "Saved:", id)
	return nil
}
