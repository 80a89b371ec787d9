package main

import (
	"flag"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/Makepad-fr/destinai/internal/cli"
)

func main() {
	// Root flags (apply to every subcommand)
	server := flag.String("server", "", "API base URL (overrides DESTINAI_SERVER)")
	theme := flag.String("theme", "", "classic, neon or mono (overrides DESTINAI_THEME)")
	flag.Usage = func() { cli.PrintHelp(os.Stderr) }
	flag.Parse()

	// No subcommand starts the interactive client.
	code := cli.Run(flag.Args(), cli.Options{
		Server: *server,
		Theme:  *theme,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
