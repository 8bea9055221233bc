package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/digivault/digivault/internal/common"
)

var errNotLoggedIn = errors.New("login first")

func (a *App) requireLogin() error {
	if a.sess == nil {
		fmt.Fprintln(a.out, "You need to login first.")
		return errNotLoggedIn
	}
	return nil
}

func (a *App) reportError(err error) error {
	fmt.Fprintln(a.out, "Error:", err)
	return err
}

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.reportError(err)
	}
	password, err := GetPassword(a.out, "Enter password")
	if err != nil {
		return a.reportError(err)
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Register(ctx, email, password); err != nil {
		return a.reportError(err)
	}

	fmt.Fprintln(a.out, "Account created. Use 'login' to open your vault.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.reportError(err)
	}
	password, err := GetPassword(a.out, "Enter password")
	if err != nil {
		return a.reportError(err)
	}
	defer common.WipeByteArray(password)

	sess, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return a.reportError(err)
	}
	a.sess = sess

	// finish any viewed one-time notes left over from a crashed session
	if err := a.destruct.Sweep(ctx, a.sess); err != nil {
		a.logger.Warn(ctx, "self-destruct sweep failed", "error", err)
	}

	fmt.Fprintln(a.out, "Welcome,", sess.Email)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.auth.Logout(a.sess)
	a.sess = nil
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
