// Command scantrace encodes text as PS/2 set 1 scan codes and decodes scan
// code streams through the kernel's keyboard bridge and decoder.
package main

import (
	"fmt"
	"os"
	"strings"

	"nucleus/internal/buildinfo"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    "scantrace",
		Usage:   "encode and decode PS/2 set 1 scan codes",
		Version: buildinfo.Short(),
		Commands: []*cli.Command{
			encodeCommand(),
			decodeCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Aliases:   []string{"e"},
		Usage:     "print the scan codes typed for TEXT",
		ArgsUsage: "TEXT...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "newline",
				Aliases: []string{"n"},
				Usage:   "press Enter after the text",
			},
		},
		Action: encodeAction,
	}
}

func encodeAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("encode: missing TEXT", 2)
	}
	text := strings.Join(c.Args().Slice(), " ")
	if c.Bool("newline") {
		text += "\n"
	}
	fmt.Fprintln(c.App.Writer, formatHex(encode(text)))
	return nil
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Aliases:   []string{"d"},
		Usage:     "feed hex scan codes through the keyboard bridge and print the decoded keys",
		ArgsUsage: "HEX...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "capacity",
				Value: 255,
				Usage: "scan code queue capacity",
			},
			&cli.BoolFlag{
				Name:  "burst",
				Usage: "deliver every scan code before the decoder task runs",
			},
		},
		Action: decodeAction,
	}
}

func decodeAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("decode: missing HEX scan codes", 2)
	}
	codes, err := parseHex(c.Args().Slice())
	if err != nil {
		return cli.Exit(fmt.Sprintf("decode: %v", err), 2)
	}
	capacity := c.Int("capacity")
	if capacity <= 0 {
		return cli.Exit("decode: capacity must be positive", 2)
	}
	res := decode(codes, capacity, c.Bool("burst"))
	for _, key := range res.keys {
		fmt.Fprintln(c.App.Writer, key)
	}
	if res.dropped > 0 {
		fmt.Fprintf(c.App.Writer, "dropped: %d\n", res.dropped)
	}
	return nil
}
