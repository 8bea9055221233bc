package cli

import (
	"context"
	"fmt"

	"github.com/digivault/digivault/internal/vault"
)

// orKeep returns the replacement if the user typed one, the current value
// otherwise.
func orKeep(replacement, current string) string {
	if replacement == "" {
		return current
	}
	return replacement
}

func (a *App) Edit(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	id, err := GetSimpleText(a.reader, "Enter record id", a.out)
	if err != nil {
		return a.reportError(err)
	}

	item, err := a.vault.DecryptOne(ctx, a.sess, id)
	if err != nil {
		return a.reportError(err)
	}

	entry, err := item.Envelope.Unwrap()
	if err != nil {
		return a.reportError(err)
	}

	fmt.Fprintln(a.out, "Leave a field empty to keep its current value.")

	var updated vault.TypedEntry
	switch v := entry.(type) {
	case vault.PasswordEntry:
		title, _ := GetSimpleText(a.reader, fmt.Sprintf("Title [%s]", v.Title), a.out)
		username, _ := GetSimpleText(a.reader, fmt.Sprintf("Username [%s]", v.Username), a.out)
		secret, _ := GetSimpleText(a.reader, "Password [unchanged]", a.out)
		website, _ := GetSimpleText(a.reader, fmt.Sprintf("Website [%s]", v.Website), a.out)

		v.Title = orKeep(title, v.Title)
		v.Username = orKeep(username, v.Username)
		v.Secret = orKeep(secret, v.Secret)
		v.Website = orKeep(website, v.Website)
		updated = v

	case vault.NoteEntry:
		title, _ := GetSimpleText(a.reader, fmt.Sprintf("Title [%s]", v.Title), a.out)
		content, err := GetMultiline(a.reader, "Note text (empty to keep current)", a.out)
		if err != nil {
			return a.reportError(err)
		}

		v.Title = orKeep(title, v.Title)
		v.Content = orKeep(content, v.Content)
		updated = v

	case vault.DocumentEntry:
		name, _ := GetSimpleText(a.reader, fmt.Sprintf("Name [%s]", v.Name), a.out)
		v.Name = orKeep(name, v.Name)
		updated = v
	}

	if err := a.vault.Update(ctx, a.sess, id, updated, nil); err != nil {
		return a.reportError(err)
	}

	fmt.Fprintln(a.out, "Updated:", id)
	return nil
}
