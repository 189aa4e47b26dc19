package main

import (
	"os"

	"github.com/rollcall-admin/rollcall/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
