//go:build ignore

// build.go - surveydash build system
// Usage: go run build.go [-target=TARGET]
// Targets: all, dashboard, surveyreport, clean, test, release, package

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	module = "surveydash"
)

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	GOOS    string
	GOARCH  string
}

var (
	rootDir string
	distDir string

	// Executable names (key = source dir name under cmd/, value = output name)
	executables = map[string]string{
		"dashboard":    "surveydash",
		"surveyreport": "surveyreport",
	}

	// Files shipped next to the executables
	configFiles = []string{"surveydash.yaml", ".env.example"}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s; run build.go from the repository root", rootDir))
	}
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	goos := flag.String("os", runtime.GOOS, "Target operating system")
	goarch := flag.String("arch", runtime.GOARCH, "Target architecture")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	buildCtx := &BuildContext{
		Verbose: *verbose,
		GOOS:    *goos,
		GOARCH:  *goarch,
	}

	switch *target {
	case "all":
		buildAll(buildCtx)
	case "dashboard", "surveyreport":
		buildExecutable(*target, buildCtx)
	case "clean":
		clean(buildCtx.Verbose)
	case "test":
		runTests(buildCtx.Verbose)
	case "release":
		buildRelease(buildCtx)
	case "package":
		createPackage(buildCtx)
	default:
		showHelp()
		os.Exit(1)
	}

	duration := time.Since(startTime)
	printSuccess(fmt.Sprintf("Build completed in %s", duration.Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "        surveydash - Build System          " + colorReset)
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

// Build all components
func buildAll(ctx *BuildContext) {
	printInfo("Building all components...")

	if err := checkPrerequisites(); err != nil {
		printError(fmt.Sprintf("Prerequisites check failed: %v", err))
		os.Exit(1)
	}

	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create dist directory: %v", err))
		os.Exit(1)
	}

	for name := range executables {
		buildExecutable(name, ctx)
	}

	copyConfigFiles(ctx.Verbose)

	printSuccess("All components built successfully!")
}

// Build a specific executable
func buildExecutable(name string, ctx *BuildContext) {
	exeName := executables[name]
	if ctx.GOOS == "windows" {
		exeName += ".exe"
	}

	printInfo(fmt.Sprintf("Building %s for %s/%s...", name, ctx.GOOS, ctx.GOARCH))

	outputPath := filepath.Join(distDir, exeName)
	ldflags := fmt.Sprintf("-s -w -X %s/internal/app.BuildTime=%s",
		module, time.Now().Format(time.RFC3339))

	args := []string{"build"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "-trimpath", "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Env = append(os.Environ(), "GOOS="+ctx.GOOS, "GOARCH="+ctx.GOARCH)
	cmd.Stderr = os.Stderr
	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		sizeMB := float64(info.Size()) / 1024 / 1024
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", exeName, sizeMB))
	}
}

func clean(verbose bool) {
	printInfo("Cleaning build artifacts...")

	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
	}

	// Exports and logs written by local runs
	for _, dir := range []string{"exports", "logs"} {
		path := filepath.Join(rootDir, dir)
		if verbose {
			printInfo("Removing " + path)
		}
		if err := os.RemoveAll(path); err != nil {
			printWarning(fmt.Sprintf("Failed to clean %s: %v", path, err))
		}
	}

	printSuccess("Build artifacts cleaned")
}

// Run tests
func runTests(verbose bool) {
	printInfo("Running Go tests...")

	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}

	printSuccess("All tests passed")
}

// Build release version with optimizations
func buildRelease(ctx *BuildContext) {
	printInfo("Building release version...")

	clean(ctx.Verbose)
	os.Setenv("CGO_ENABLED", "0")
	buildAll(ctx)

	versionFile := filepath.Join(distDir, "VERSION.txt")
	content := fmt.Sprintf("%s\nBuilt: %s\nTarget: %s/%s\n",
		module, time.Now().Format("2006-01-02 15:04:05"), ctx.GOOS, ctx.GOARCH)
	if err := os.WriteFile(versionFile, []byte(content), 0644); err != nil {
		printWarning(fmt.Sprintf("Failed to write version file: %v", err))
	}

	printSuccess("Release build completed")
}

// Create distribution package
func createPackage(ctx *BuildContext) {
	printInfo("Creating distribution package...")

	if _, err := os.Stat(filepath.Join(distDir, "VERSION.txt")); os.IsNotExist(err) {
		printWarning("No release build found, building now...")
		buildRelease(ctx)
	}

	packageName := fmt.Sprintf("%s-%s-%s", module, ctx.GOOS, ctx.GOARCH)
	packageDir := filepath.Join(rootDir, packageName)
	os.RemoveAll(packageDir)

	if err := copyDir(distDir, packageDir); err != nil {
		printError(fmt.Sprintf("Failed to create package: %v", err))
		os.Exit(1)
	}

	printInfo(fmt.Sprintf("Package created in %s", packageDir))
	printSuccess("Distribution package ready")
}

func checkPrerequisites() error {
	if err := exec.Command("go", "version").Run(); err != nil {
		return fmt.Errorf("Go is not installed or not in PATH")
	}
	return nil
}

func copyConfigFiles(verbose bool) {
	for _, name := range configFiles {
		src := filepath.Join(rootDir, name)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := copyFile(src, filepath.Join(distDir, name)); err != nil {
			printWarning(fmt.Sprintf("Failed to copy %s: %v", name, err))
			continue
		}
		if verbose {
			printInfo("Copied " + name)
		}
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func copyDir(src, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v] [-os=GOOS] [-arch=GOARCH]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all               Build both executables (default)")
	fmt.Println("  dashboard         Build the dashboard server")
	fmt.Println("  surveyreport      Build the report CLI")
	fmt.Println("  clean             Remove dist/, exports/ and logs/")
	fmt.Println("  test              Run all tests with the race detector")
	fmt.Println("  release           Clean, then build with CGO disabled")
	fmt.Println("  package           Copy the release build into a versioned directory")
}
