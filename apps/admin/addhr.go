package main

import (
	"context"
	"fmt"
)

// addHR creates an HR account, or promotes the existing account with the same email.
func (cli *commandLine) addHR(ctx context.Context, name, email, pwd string) error {
	usr, err := cli.usrSvc.SaveHR(ctx, name, email, pwd)
	if err != nil {
		return err
	}
	fmt.Printf("HR account %q (id %d) saved\n", usr.Email, usr.ID)
	return nil
}
