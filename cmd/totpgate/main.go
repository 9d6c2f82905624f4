// Command totpgate runs the TOTP authentication gateway.
package main

import "github.com/relayauth/totpgate/cmd/totpgate/cmd"

func main() {
	cmd.Execute()
}
