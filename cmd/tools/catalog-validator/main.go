// cmd/tools/catalog-validator/main.go
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"visa-pathway-workers/internal/catalog"
)

func main() {
	path := flag.String("path", "configs/catalog.json", "Path to catalog file")
	asJSON := flag.Bool("json", false, "Emit machine-readable output")
	flag.Parse()

	c, err := catalog.Load(*path)
	if err != nil {
		var ierr *catalog.IntegrityError
		if errors.As(err, &ierr) {
			report(*asJSON, *path, ierr.Problems)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		out := map[string]interface{}{
			"valid":     true,
			"version":   c.Version,
			"stages":    len(c.Stages),
			"templates": len(c.Templates),
		}
		json.NewEncoder(os.Stdout).Encode(out)
		return
	}

	fmt.Printf("Catalog %s is valid\n", c.Version)
	fmt.Printf("  stages:       %d\n", len(c.Stages))
	fmt.Printf("  templates:    %d\n", len(c.Templates))
	fmt.Printf("  fundBrackets: %d\n", len(c.FundBrackets))
}

func report(asJSON bool, path string, problems []string) {
	if asJSON {
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"valid":    false,
			"path":     path,
			"problems": problems,
		})
		return
	}
	fmt.Printf("Catalog %s is INVALID (%d problems):\n", path, len(problems))
	for _, p := range problems {
		fmt.Printf("  - %s\n", p)
	}
}
