package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
)

func DevCmd() *cobra.Command {
	var appPort, proxyPort int

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Run the server under air with hot reload",
		Long: `Rebuilds the CSS and the server on every change to Go code, templates,
migrations, the catalog or policy pages. Open the proxy port in the browser
for automatic reloads.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(appPort, proxyPort)
		},
	}

	cmd.Flags().IntVar(&appPort, "port", 8090, "port the server listens on")
	cmd.Flags().IntVar(&proxyPort, "proxy-port", 8080, "port of air's live-reload proxy")
	return cmd
}

func runDev(appPort, proxyPort int) error {
	airPath, err := exec.LookPath("air")
	if err != nil {
		return fmt.Errorf("air not found, install it with: go install github.com/air-verse/air@latest")
	}

	args := []string{
		"air",
		"-c", "/dev/null",
		"-root", ".",
		"-build.cmd", "go run ./cmd/bazar css && go build -o ./tmp/server ./cmd/server",
		"-build.bin", "./tmp/server",
		"-build.delay", "100",
		"-build.exclude_dir", "bin,tmp,data,_examples",
		"-build.exclude_regex", "_test.go$|output\\.css$",
		"-build.include_ext", "go,html,css,md,sql,yaml",
		"-build.kill_delay", "500ms",
		"-build.send_interrupt", "true",
		"-proxy.enabled", "true",
		"-proxy.proxy_port", strconv.Itoa(proxyPort),
		"-proxy.app_port", strconv.Itoa(appPort),
	}

	env := append(os.Environ(), "PORT="+strconv.Itoa(appPort), "APP_ENV=development")
	return syscall.Exec(airPath, args, env)
}
