// Command cleanse runs the upload, profile and clean flows for one file
// from the terminal and saves the cleaned CSV.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/datacleanser/internal/api"
	"github.com/JonMunkholm/datacleanser/internal/auth"
	"github.com/JonMunkholm/datacleanser/internal/cache"
	"github.com/JonMunkholm/datacleanser/internal/config"
	"github.com/JonMunkholm/datacleanser/internal/core"
	"github.com/JonMunkholm/datacleanser/internal/logging"
)

// errReported marks a failure already shown to the user.
var errReported = errors.New("reported")

func main() {
	var (
		email       = flag.String("email", os.Getenv("CLEANSE_EMAIL"), "account email")
		outDir      = flag.String("out", ".", "directory for the cleaned file")
		profileOnly = flag.Bool("profile-only", false, "stop after printing the profile")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <file.csv|file.xlsx|file.xls>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 || *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	godotenv.Load()

	// Exit only here so every deferred cleanup in run has happened.
	if err := run(*email, flag.Arg(0), *outDir, *profileOnly); err != nil {
		os.Exit(1)
	}
}

func run(email, path, outDir string, profileOnly bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fail("load configuration", err)
	}
	logCloser := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sessions := auth.NewProvider(auth.NewIdentity(cfg.Identity.URL, cfg.Identity.AnonKey, cfg.API.Timeout), cfg.Session.TTL)
	defer sessions.Close()

	sess, err := sessions.SignIn(ctx, email, os.Getenv("CLEANSE_PASSWORD"))
	if err != nil {
		return fail("sign in", err)
	}
	defer sessions.SignOut(context.WithoutCancel(ctx), sess.ID)
	ctx = auth.NewContext(ctx, sess)
	color.Cyan("Signed in as %s", sess.Email)

	store := cache.NewMemory(0)
	defer store.Close()
	service := core.NewService(store, core.Options{MaxFileSize: cfg.Upload.MaxFileSize.Int64()})
	backend := api.New(cfg.API.BaseURL, api.WithTimeout(cfg.API.Timeout)).WithTokens(sess)

	out, err := upload(ctx, service, backend, path)
	if err != nil {
		return fail("upload", err)
	}
	color.Green("Uploaded: %s rows, %d columns (session %s)", humanize.Comma(int64(out.Rows)), len(out.Columns), out.SessionID)

	if !printProfile(ctx, service, backend, out.SessionID) {
		return errReported
	}
	if profileOnly {
		return nil
	}

	clean, err := service.RunCleaning(ctx, backend, out.SessionID)
	if err != nil {
		return fail("clean", err)
	}
	printResult(clean)

	if err := service.Download(ctx, backend, out.SessionID, core.DirSaver{Dir: outDir}); err != nil {
		return fail("download", err)
	}
	color.Green("Saved %s", filepath.Join(outDir, core.CleanedFileName))
	return nil
}

func upload(ctx context.Context, service *core.Service, backend core.Backend, path string) (*core.UploadOutcome, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	f := core.UploadFile{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}

	last := -1
	out, err := service.Upload(ctx, backend, []core.UploadFile{f}, func(p int) {
		if p != last {
			last = p
			fmt.Printf("\rUploading %s... %3d%%", f.Name, p)
		}
	})
	if last >= 0 {
		fmt.Println()
	}
	return out, err
}

// printProfile prints each column's statistics. It reports false when the
// profile could not be loaded.
func printProfile(ctx context.Context, service *core.Service, backend core.Backend, sessionID string) bool {
	ok := true
	service.LoadProfile(ctx, backend, sessionID, nil, func(st core.ProfileState) {
		if st.Err != nil {
			msg := core.MapError(st.Err)
			color.Red("%s (%s)", msg.Message, msg.Code)
			ok = false
			return
		}
		if st.Source == core.SourceCache {
			return
		}
		color.Yellow("\nProfile")
		for _, card := range core.StatCards(st.Profile.Profile) {
			color.New(color.Bold).Printf("  %s\n", card.Column)
			for _, f := range card.Fields {
				fmt.Printf("    %-15s %s\n", f.Label, f.Value)
			}
		}
	})
	return ok
}

func printResult(out *core.CleanOutcome) {
	s := out.Clean.Summary
	color.Yellow("\nSummary")
	fmt.Printf("  Rows processed  %s\n", humanize.Comma(int64(s.RowsProcessed)))
	fmt.Printf("  Rows cleaned    %s\n", humanize.Comma(int64(s.RowsCleaned)))
	for _, t := range s.Transformations {
		fmt.Printf("  - %s: %s %s\n", t.Column, t.Action, t.Details)
	}

	color.Yellow("\nAudit log")
	if len(out.Logs) == 0 {
		fmt.Println("  No operations recorded")
	}
	for _, l := range out.Logs {
		ts := l.Timestamp
		if t, ok := l.Time(); ok {
			ts = humanize.Time(t)
		}
		fmt.Printf("  %-16s %-12s %s\n", ts, l.Action, strings.TrimSpace(l.Details.String()))
	}
}

// fail prints the user-facing message for err and returns it wrapped with
// the step that failed.
func fail(step string, err error) error {
	msg := core.MapError(err)
	color.Red("%s failed: %s (%s)", step, msg.Message, msg.Code)
	if msg.Action != "" {
		fmt.Fprintln(os.Stderr, msg.Action)
	}
	return fmt.Errorf("%s: %w", step, err)
}
