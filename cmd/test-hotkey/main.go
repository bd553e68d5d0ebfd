// Command test-hotkey is a manual test for the global hotkey listener.
// Run it, then press the shortcut to see toggle events.
// Press Ctrl+C to exit.
//
// Usage:
//
//	go run ./cmd/test-hotkey [--shortcut win+alt+d]
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/davemaier/chirp-stt/internal/hotkey"
)

func main() {
	shortcut := flag.String("shortcut", "win+alt+d", "shortcut to listen for")
	flag.Parse()

	listener, err := hotkey.NewListener(*shortcut)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Listening for %s...\n", strings.Join(listener.Keys(), "+"))
	fmt.Println("Press Ctrl+C to exit.")

	// Handle Ctrl+C
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		listener.Stop()
	}()

	// Read events
	go func() {
		n := 0
		for range listener.Events() {
			n++
			fmt.Printf(">>> TOGGLE %d\n", n)
		}
		fmt.Println("Event channel closed.")
	}()

	// Blocks until stopped
	listener.Start()
	fmt.Println("Done.")
}
