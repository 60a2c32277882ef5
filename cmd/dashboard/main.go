// Command dashboard runs the subscription analytics dashboard server: the
// JSON API, the WebSocket event stream, the Prometheus endpoint, and the
// source file watcher.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"subscli/internal/app"
)

func main() {
	// Optional .env for local development. A missing file is fine;
	// configuration falls back to config.yaml and process env.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	application, err := app.NewApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "application exited with error: %v\n", err)
		os.Exit(1)
	}
}
