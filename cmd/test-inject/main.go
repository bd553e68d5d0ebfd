// Command test-inject is a manual test for text injection.
// It waits 3 seconds, then types or pastes test text.
// Focus a text editor before the countdown finishes.
//
// Usage:
//
//	go run ./cmd/test-inject [--method type|paste] [--paste-mode ctrl|ctrl+shift]
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/davemaier/chirp-stt/internal/inject"
)

func main() {
	method := flag.String("method", "type", "inject method: type or paste")
	pasteMode := flag.String("paste-mode", "ctrl", "paste chord: ctrl or ctrl+shift")
	flag.Parse()

	text := "Hello from chirp!"

	fmt.Printf("Will inject %q using %q method in 3 seconds...\n", text, *method)
	fmt.Println("Focus a text editor now!")

	for i := 3; i > 0; i-- {
		fmt.Printf("%d...\n", i)
		time.Sleep(time.Second)
	}

	inj := inject.New(inject.Method(*method), *pasteMode, true, 750*time.Millisecond, zerolog.Nop())
	if err := inj.Inject(text); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println("\nDone!")
}
