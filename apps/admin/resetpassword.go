package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	usr, err := cli.usrSvc.ChangePassword(ctx, email, pwd)
	if err != nil {
		return err
	}
	fmt.Printf("password of %q updated\n", usr.Email)
	return nil
}
