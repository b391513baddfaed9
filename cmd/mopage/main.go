// Command mopage runs the mobile page builder: the editor/viewer server
// and a local development page store.
package main

import (
	"fmt"
	"os"

	"github.com/mopage/mopage/cmd/mopage/commands"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "serve":
		err = commands.ServeCommand(args)
	case "devstore":
		err = commands.DevStoreCommand(args)
	case "version":
		fmt.Printf("mopage version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("mopage - Mobile page builder")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mopage serve [flags]      Start the editor/viewer server")
	fmt.Println("  mopage devstore [flags]   Start a local page store")
	fmt.Println("  mopage version            Show version")
	fmt.Println("  mopage help               Show this help")
	fmt.Println()
	fmt.Println("Serve flags:")
	fmt.Println("  --config PATH     Config file (YAML)")
	fmt.Println("  --host HOST       Bind address (default localhost)")
	fmt.Println("  --port PORT       Listen port (default 8090)")
	fmt.Println("  --store URL       Page store endpoint (default http://localhost:8091)")
	fmt.Println("  --templates DIR   Page template directory")
	fmt.Println("  --no-watch        Disable template hot-reload")
	fmt.Println()
	fmt.Println("Devstore flags:")
	fmt.Println("  --port PORT       Listen port (default 8091)")
	fmt.Println("  --db PATH         SQLite database file (default mopage-dev.db)")
	fmt.Println("  --postgres DSN    Use PostgreSQL instead of SQLite")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  mopage devstore                      # Local store on :8091")
	fmt.Println("  mopage serve                         # Editor against the local store")
	fmt.Println("  mopage serve --config mopage.yaml    # Editor with a config file")
	fmt.Println("  mopage serve --templates ./templates # Custom page templates")
}
