package cmd

import "fmt"

const banner = `
  _        _                       _
 | |_ ___ | |_ _ __   __ _  __ _| |_ ___
 | __/ _ \| __| '_ \ / _` + "`" + ` |/ _` + "`" + ` | __/ _ \
 | || (_) | |_| |_) | (_| | (_| | ||  __/
  \__\___/ \__| .__/ \__, |\__,_|\__\___|
              |_|    |___/
`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  TOTP authentication gateway - version %s\x1b[0m\n\n", Version)
}
