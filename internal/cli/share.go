package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/digivault/digivault/internal/share"
)

func (a *App) Share(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	recordID, err := GetSimpleText(a.reader, "Enter record id to share", a.out)
	if err != nil {
		return a.reportError(err)
	}
	ttlMinutes, err := GetInt(a.reader, "Link lifetime in minutes", 60, a.out)
	if err != nil {
		return a.reportError(err)
	}
	maxViews, err := GetInt(a.reader, "Maximum views (-1 for unlimited)", 1, a.out)
	if err != nil {
		return a.reportError(err)
	}

	id, key, err := a.shares.Issue(ctx, a.sess, recordID, time.Duration(ttlMinutes)*time.Minute, maxViews)
	if err != nil {
		return a.reportError(err)
	}

	fmt.Fprintln(a.out, "Share link (the key is part of the link and is not stored anywhere):")
	fmt.Fprintln(a.out, share.ShareURL(a.config.PublicOrigin, id, key))
	return nil
}

func (a *App) Shares(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	tokens, err := a.shares.List(ctx, a.sess)
	if err != nil {
		return a.reportError(err)
	}

	if len(tokens) == 0 {
		fmt.Fprintln(a.out, "No active shares.")
		return nil
	}

	for _, tok := range tokens {
		views := fmt.Sprintf("%d/%d", tok.CurrentViews, tok.MaxViews)
		if tok.MaxViews == share.UnlimitedViews {
			views = fmt.Sprintf("%d/unlimited", tok.CurrentViews)
		}
		fmt.Fprintf(a.out, "%s  %-8s  %s  views %s  expires %s\n",
			tok.ID, tok.RecordType, tok.Title, views, tok.ExpiresAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *App) Revoke(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	id, err := GetSimpleText(a.reader, "Enter share id to revoke", a.out)
	if err != nil {
		return a.reportError(err)
	}

	if err := a.shares.Revoke(ctx, a.sess, id); err != nil {
		return a.reportError(err)
	}

	fmt.Fprintln(a.out, "Revoked:", id)
	return nil
}
