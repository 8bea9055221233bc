package cli

import (
	"context"
	"fmt"
)

func (a *App) List(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	items, err := a.vault.List(ctx, a.sess)
	if err != nil {
		return a.reportError(err)
	}

	if len(items) == 0 {
		fmt.Fprintln(a.out, "The vault is empty.")
		return nil
	}

	for _, item := range items {
		fmt.Fprintf(a.out, "%s  %-8s  %s  (%s)\n",
			item.ID, item.Envelope.Type, item.Envelope.Title, item.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
