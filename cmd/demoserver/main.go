// Command demoserver serves a fictional real-estate agency site whose
// branding can be switched between versions, for trying out brandscout.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/raysh454/brandscout/internal/demoserver"
)

func main() {
	cfg := demoserver.DefaultConfig()

	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("Harbour Realty demo site")
	fmt.Println()
	fmt.Println("Pages:")
	fmt.Println("  /       logo, Google Fonts, @font-face, contact links (v1 and v2 rebrand)")
	fmt.Println("  /about  contact details only in text")
	fmt.Println("  /late   header and stylesheet injected after load")
	fmt.Println("  /gone   404")
	fmt.Println()
	fmt.Printf("Control panel: http://%s/demo/control\n", cfg.Addr())
	fmt.Printf("Try: brandscout scrape http://%s/\n", cfg.Addr())

	server := demoserver.NewDemoServer(cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
