// Command brandscout extracts logos, fonts and agency details from websites.
//
//	brandscout scrape https://www.example-realty.com
//	brandscout serve --listen :8080
package main

import (
	"context"

	"github.com/raysh454/brandscout/internal/cli"
)

func main() {
	cli.ExecuteContext(context.Background())
}
