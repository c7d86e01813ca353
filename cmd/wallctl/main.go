// Command wallctl submits a light/dark image pair to the wallpaper backend,
// follows the job until it finishes and prints the gallery.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"wallclient/internal/domain"
	"wallclient/internal/gallery"
	"wallclient/internal/i18n"
	"wallclient/internal/infra"
	"wallclient/internal/jobclient"
	"wallclient/internal/providers/wallpaper"
	"wallclient/internal/storage"
	"wallclient/pkg/zip"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var newTicker jobclient.TickerFunc = jobclient.NewTimeTicker

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  wallctl create -light <file> -dark <file> [-out dir] [-lang id]")
	fmt.Fprintln(w, "  wallctl gallery [-zip file] [-lang id]")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	logger := infra.NewLoggerTo(cfg.AppEnv, stderr)

	client, err := wallpaper.NewClient(wallpaper.Options{
		BaseURL:        cfg.APIBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	loader := gallery.NewLoader(client, &logger)

	switch args[0] {
	case "create":
		return runCreate(ctx, args[1:], cfg, client, loader, &logger, stdout, stderr)
	case "gallery":
		return runGallery(ctx, args[1:], cfg, client, loader, stdout, stderr)
	default:
		usage(stderr)
		return exitUsage
	}
}

type downloader interface {
	Download(ctx context.Context, rawURL string) (*domain.ImageFile, error)
}

type backend interface {
	jobclient.Backend
	downloader
}

func runCreate(ctx context.Context, args []string, cfg *infra.Config, client backend, loader *gallery.Loader, logger *infra.Logger, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	lightPath := fs.String("light", "", "path to the light-mode image")
	darkPath := fs.String("dark", "", "path to the dark-mode image")
	lang := fs.String("lang", cfg.DefaultLocale, "message language (en, id)")
	outDir := fs.String("out", "", "save the finished wallpaper into this directory")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	tag := i18n.Match(*lang)

	var store *storage.FileStore
	if *outDir != "" {
		var err error
		if store, err = storage.NewFileStore(*outDir); err != nil {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
	}

	light, err := domain.ReadImageFile(*lightPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	dark, err := domain.ReadImageFile(*darkPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	ctrl, err := jobclient.NewController(jobclient.Options{
		Backend:   client,
		Gallery:   loader,
		Logger:    logger,
		NewTicker: newTicker,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	defer ctrl.Close()

	ctrl.Subscribe(func(snap jobclient.Snapshot) {
		printSnapshot(stdout, tag, snap)
	})
	loader.OnRefresh(func(res gallery.Result) {
		fmt.Fprintln(stdout)
		printGallery(stdout, tag, res)
	})

	if _, err := ctrl.Submit(ctx, light, dark); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			fmt.Fprintln(stderr, i18n.Text(tag, i18n.Validation))
			return exitUsage
		}
		return exitFailure
	}

	snap, err := ctrl.Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(stderr, "interrupted; job", snap.JobID, "keeps running on the server")
		}
		return exitFailure
	}
	if snap.FinalURL == "" {
		return exitOK
	}
	fmt.Fprintln(stdout, snap.FinalURL)
	if store != nil {
		saved, err := save(ctx, client, store, snap)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		fmt.Fprintln(stdout, saved)
	}
	return exitOK
}

func save(ctx context.Context, client downloader, store *storage.FileStore, snap jobclient.Snapshot) (string, error) {
	file, err := client.Download(ctx, snap.FinalURL)
	if err != nil {
		return "", err
	}
	return store.Write(ctx, storage.KeyForURL(snap.FinalURL, snap.JobID+".heic"), file.Data)
}

func runGallery(ctx context.Context, args []string, cfg *infra.Config, client downloader, loader *gallery.Loader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gallery", flag.ContinueOnError)
	fs.SetOutput(stderr)
	lang := fs.String("lang", cfg.DefaultLocale, "message language (en, id)")
	archive := fs.String("zip", "", "download every wallpaper into this zip file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	tag := i18n.Match(*lang)
	res := loader.Load(ctx)
	printGallery(stdout, tag, res)
	if res.Err != nil {
		return exitFailure
	}
	if *archive == "" {
		return exitOK
	}
	n, err := writeArchive(ctx, client, res.View(tag), *archive)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	fmt.Fprintf(stdout, "%d -> %s\n", n, *archive)
	return exitOK
}

func writeArchive(ctx context.Context, client downloader, view gallery.View, dest string) (int, error) {
	entries := make([]zip.Entry, 0, len(view.Items))
	for _, item := range view.Items {
		file, err := client.Download(ctx, item.DownloadURL)
		if err != nil {
			return 0, err
		}
		entries = append(entries, zip.Entry{Name: file.Name, Data: file.Data, Modified: time.Now()})
	}
	f, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	if err := zip.Write(f, entries); err != nil {
		f.Close()
		return 0, err
	}
	return len(entries), f.Close()
}

func printSnapshot(w io.Writer, tag language.Tag, snap jobclient.Snapshot) {
	msg := snap.Message(tag)
	if msg == "" {
		return
	}
	fmt.Fprintf(w, "[%s] %s\n", i18n.Title(tag, string(snap.State)), msg)
}

func printGallery(w io.Writer, tag language.Tag, res gallery.Result) {
	fmt.Fprintln(w, i18n.Text(tag, i18n.GalleryHeading)+":")
	_ = gallery.RenderText(w, res.View(tag))
}
