//go:build baremetal

package main

import (
	"nucleus/app"
	"nucleus/hal"
)

func main() {
	app.Run(hal.New(), app.Config{})
}
