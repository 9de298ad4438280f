package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

const (
	cssInput  = "assets/css/input.css"
	cssOutput = "assets/css/output.css"
)

func CSSCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "css",
		Short: "Build the tailwind stylesheet from the page templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force && cssUpToDate() {
				fmt.Println("[tailwindcss] skipped")
				return nil
			}
			return runTailwind()
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rebuild even if output.css is newer than its inputs")
	return cmd
}

func runTailwind() error {
	if _, err := exec.LookPath("tailwindcss"); err != nil {
		fmt.Println("Missing binary: tailwindcss")
		fmt.Println("  # tailwindcss: https://tailwindcss.com/blog/standalone-cli")
		return fmt.Errorf("tailwindcss not found")
	}

	start := time.Now()
	build := exec.Command("tailwindcss", "-i", cssInput, "-o", cssOutput, "--minify")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		return fmt.Errorf("tailwindcss: %w", err)
	}

	fmt.Printf("[tailwindcss] done (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func cssUpToDate() bool {
	inputs := []string{cssInput}
	templates, _ := filepath.Glob("internal/ui/pages/templates/*.html")
	inputs = append(inputs, templates...)
	inputs = append(inputs, "internal/ui/pages/pages.go")
	return isUpToDate(cssOutput, inputs)
}

func isUpToDate(output string, inputs []string) bool {
	outInfo, err := os.Stat(output)
	if err != nil {
		return false
	}
	outMod := outInfo.ModTime()

	for _, input := range inputs {
		inInfo, err := os.Stat(input)
		if err != nil {
			continue
		}
		if inInfo.ModTime().After(outMod) {
			return false
		}
	}
	return true
}
