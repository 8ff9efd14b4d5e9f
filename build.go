//go:build ignore

// build.go - feedback exporter build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, web, cli, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const module = "cxfeedback"

var (
	distDir = "dist"

	// Executables (key = source dir under cmd/, value = output name)
	executables = map[string]string{
		"web":         "cxfeedback-web",
		"feedbackctl": "feedbackctl",
	}

	// Release platforms as GOOS/GOARCH
	platforms = []string{"linux/amd64", "linux/arm64", "darwin/arm64", "windows/amd64"}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	var err error
	switch *target {
	case "all":
		err = buildAll(*verbose)
	case "web":
		err = buildExecutable("web", runtime.GOOS, runtime.GOARCH, *verbose)
	case "cli", "feedbackctl":
		err = buildExecutable("feedbackctl", runtime.GOOS, runtime.GOARCH, *verbose)
	case "test":
		err = runTests(*verbose)
	case "clean":
		err = os.RemoveAll(distDir)
	case "release":
		err = buildRelease(*verbose)
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "   Call Center Feedback - Build System    " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

func buildAll(verbose bool) error {
	printInfo("Building all executables...")
	for name := range executables {
		if err := buildExecutable(name, runtime.GOOS, runtime.GOARCH, verbose); err != nil {
			return err
		}
	}
	return copyConfigFiles(distDir, verbose)
}

// ldflags stamps the build time and commit into pkg/contracts.
func ldflags() string {
	commit := "unknown"
	if out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
		commit = strings.TrimSpace(string(out))
	} else {
		printWarning("git commit not available, stamping \"unknown\"")
	}
	return fmt.Sprintf("-s -w -X %s/pkg/contracts.BuildTime=%s -X %s/pkg/contracts.GitCommit=%s",
		module, time.Now().UTC().Format(time.RFC3339), module, commit)
}

func buildExecutable(name, goos, goarch string, verbose bool) error {
	exeName, ok := executables[name]
	if !ok {
		return fmt.Errorf("unknown executable %q", name)
	}
	if goos == "windows" {
		exeName += ".exe"
	}

	outDir := distDir
	if goos != runtime.GOOS || goarch != runtime.GOARCH {
		outDir = filepath.Join(distDir, goos+"_"+goarch)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}
	outputPath := filepath.Join(outDir, exeName)

	printInfo(fmt.Sprintf("Building %s (%s/%s)...", exeName, goos, goarch))

	args := []string{"build"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "-trimpath", "-ldflags", ldflags(), "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(), "GOOS="+goos, "GOARCH="+goarch, "CGO_ENABLED=0")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build %s failed: %w", name, err)
	}

	printSuccess(fmt.Sprintf("Built %s", outputPath))
	return nil
}

func runTests(verbose bool) error {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go tests failed: %w", err)
	}
	return nil
}

func buildRelease(verbose bool) error {
	printInfo("Building release binaries...")
	if err := os.RemoveAll(distDir); err != nil {
		return err
	}
	for _, p := range platforms {
		goos, goarch, _ := strings.Cut(p, "/")
		for name := range executables {
			if err := buildExecutable(name, goos, goarch, verbose); err != nil {
				return err
			}
		}
		if err := copyConfigFiles(filepath.Join(distDir, goos+"_"+goarch), verbose); err != nil {
			return err
		}
	}
	return nil
}

// copyConfigFiles copies the sample configuration next to the binaries.
func copyConfigFiles(dest string, verbose bool) error {
	for _, name := range []string{"config.example.yaml", ".env.example"} {
		data, err := os.ReadFile(filepath.Join("configs", name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dest, name), data, 0644); err != nil {
			return err
		}
		if verbose {
			printInfo("Copied " + name)
		}
	}
	return nil
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all      Build every executable for this platform (default)")
	fmt.Println("  web      Build the web server")
	fmt.Println("  cli      Build feedbackctl")
	fmt.Println("  test     Run the Go tests with -race")
	fmt.Println("  clean    Remove dist/")
	fmt.Println("  release  Cross-compile every executable into dist/GOOS_GOARCH")
}
