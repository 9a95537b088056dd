package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nicogarcia/now-builders/pkg/gobridge"
)

func main() {
	var osFilter, archFilter string
	var timeout time.Duration

	flag.StringVar(&osFilter, "os", "", "Only show files for this operating system")
	flag.StringVar(&archFilter, "arch", "", "Only show files for this architecture")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "The request timeout")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := &gobridge.Client{Timeout: timeout}

	releases, err := client.Releases(ctx)
	if err != nil {
		log.Fatalln(err)
	}

	if osFilter != "" || archFilter != "" {
		for i := range releases {
			releases[i].Files = filterFiles(releases[i].Files, osFilter, archFilter)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(releases); err != nil {
		log.Fatalln(err)
	}
}

func filterFiles(files []gobridge.ReleaseFile, osFilter, archFilter string) []gobridge.ReleaseFile {
	var kept []gobridge.ReleaseFile

	for _, f := range files {
		if osFilter != "" && !strings.EqualFold(f.OS, osFilter) {
			continue
		}
		if archFilter != "" && !strings.EqualFold(f.Arch, archFilter) {
			continue
		}
		kept = append(kept, f)
	}

	return kept
}
