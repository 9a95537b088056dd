package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/nicogarcia/now-builders/pkg/gobridge"
)

func main() {
	if err := run(); err != nil {
		log.Fatalln(err)
	}
}

func run() error {
	var version, installDir, workspace, platform, arch, output, analyzer string
	var modules, verify bool

	flag.StringVar(&version, "version", "1.12", "The toolchain version to provision")
	flag.StringVar(&installDir, "install-dir", "", "The toolchain installation directory (default <workspace>/.toolchain)")
	flag.StringVar(&workspace, "workspace", "", "The workspace root (default a gobridge directory under the user cache dir)")
	flag.StringVar(&platform, "platform", runtime.GOOS, "The target platform")
	flag.StringVar(&arch, "arch", runtime.GOARCH, "The target architecture")
	flag.StringVar(&output, "o", "handler", "The output binary path")
	flag.StringVar(&analyzer, "analyzer", "", "An entry point detector binary; when set, the detected handler name is printed")
	flag.BoolVar(&modules, "modules", false, "Whether to force module mode on")
	flag.BoolVar(&verify, "verify", false, "Whether to verify the archive against the published checksum")
	flag.Parse()

	sources := flag.Args()
	if len(sources) == 0 {
		return fmt.Errorf("no source files given")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if workspace == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return err
		}
		workspace = filepath.Join(cache, "gobridge", "workspace")
	}
	if installDir == "" {
		installDir = filepath.Join(workspace, ".toolchain")
	}

	goBin := filepath.Join(installDir, "bin", "go")
	if gobridge.ResolvePlatform(platform) == "windows" {
		goBin += ".exe"
	}

	var toolchain *gobridge.Toolchain
	var err error

	if _, statErr := os.Stat(goBin); statErr == nil {
		toolchain, err = gobridge.New(goBin, workspace, platform, arch, modules, nil)
	} else {
		log.Printf("provisioning go%s for %s/%s into %s", version, platform, arch, installDir)
		toolchain, err = gobridge.Install(ctx, installDir, workspace, version, platform, arch, &gobridge.InstallOptions{
			Modules:                 modules,
			VerifyPublishedChecksum: verify,
		})
	}
	if err != nil {
		return err
	}

	if analyzer != "" {
		name, err := gobridge.Analyzer{Bin: analyzer}.EntryPoint(ctx, sources[0])
		if err != nil {
			return err
		}
		fmt.Printf("Entry point: %s\n", name)
	}

	if err := toolchain.Get(ctx, sources[0]); err != nil {
		return err
	}

	return toolchain.Build(ctx, output, sources...)
}
