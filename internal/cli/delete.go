package cli

import (
	"context"
	"fmt"
)

func (a *App) Delete(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	id, err := GetSimpleText(a.reader, "Enter record id", a.out)
	if err != nil {
		return a.reportError(err)
	}

	confirmed, err := GetYesNo(a.reader, "Delete "+id+"?", a.out)
	if err != nil {
		return a.reportError(err)
	}
	if !confirmed {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	if err := a.vault.Delete(ctx, a.sess, id); err != nil {
		return a.reportError(err)
	}

	fmt.Fprintln(a.out, "Deleted:", id)
	return nil
}
