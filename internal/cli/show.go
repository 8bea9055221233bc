package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/digivault/digivault/internal/filex"
	"github.com/digivault/digivault/internal/vault"
)

func (a *App) Show(ctx context.Context) error {
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

	switch v := entry.(type) {
	case vault.PasswordEntry:
		fmt.Fprintln(a.out, "Title:   ", v.Title)
		fmt.Fprintln(a.out, "Username:", v.Username)
		fmt.Fprintln(a.out, "Password:", v.Secret)
		if v.Website != "" {
			fmt.Fprintln(a.out, "Website: ", v.Website)
		}
		if v.Notes != "" {
			fmt.Fprintln(a.out, "Notes:   ", v.Notes)
		}

	case vault.NoteEntry:
		return a.showNote(ctx, item.ID, v)

	case vault.DocumentEntry:
		fmt.Fprintf(a.out, "Document %s (%s, %d bytes)\n", v.Name, v.MimeType, v.SizeBytes)
		save, err := GetYesNo(a.reader, "Save to the downloads folder?", a.out)
		if err != nil {
			return a.reportError(err)
		}
		if save {
			dir, err := filex.EnsureSubDir("downloads")
			if err != nil {
				return a.reportError(err)
			}
			target := filepath.Join(dir, v.Name)
			if err := os.WriteFile(target, item.Payload, 0o600); err != nil {
				return a.reportError(err)
			}
			fmt.Fprintln(a.out, "Saved to", target)
		}
	}

	return nil
}

// showNote displays a note and drives the one-time-view lifecycle for
// destructible notes: the note is marked viewed while it is on screen and
// deleted once the user closes it.
func (a *App) showNote(ctx context.Context, id string, note vault.NoteEntry) error {
	if note.Destructible {
		if err := a.destruct.MarkViewed(ctx, a.sess, id); err != nil {
			return a.reportError(err)
		}
		fmt.Fprintln(a.out, "This note will self-destruct when you close it.")
	}

	fmt.Fprintln(a.out, "Title:", note.Title)
	fmt.Fprintln(a.out, note.Content)

	if note.Destructible {
		if _, err := GetSimpleText(a.reader, "Press Enter to close", a.out); err != nil {
			return a.reportError(err)
		}
		if err := a.destruct.ViewerClosed(ctx, a.sess, id); err != nil {
			return a.reportError(err)
		}
		fmt.Fprintln(a.out, "The note has been destroyed.")
	}
	return nil
}
