// Command etextupload pushes an etext file to Wikisource: one proofread
// Page: save per page, then a transcluding mainspace page. Oversized main
// pages are split into /1, /2, ... subpages.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"wikiutils/pkg/cache"
	"wikiutils/pkg/config"
	"wikiutils/pkg/logging"
	"wikiutils/pkg/pagetext"
	"wikiutils/pkg/request"
	"wikiutils/pkg/sheets"
	"wikiutils/pkg/tracker"
	"wikiutils/pkg/uploadlog"
	"wikiutils/pkg/version"
	"wikiutils/pkg/wiki"
)

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", "configs/wikiutils.yaml", "Path to config file")
	textFile   = flag.String("file", "", "Path to the etext file (Page no: N format)")
	indexTitle = flag.String("index", "", "Index page title, e.g. Index:SomeBook.pdf")
	dryRun     = flag.Bool("dry-run", false, "Print what would be saved without editing")
	quality    = flag.Int("quality", 3, "ProofreadPage quality level for uploaded pages")
	listSheet  = flag.Bool("list-sheet", false, "List etext/Wikisource link pairs from the tracking spreadsheet and exit")
	tagLinks   = flag.Bool("tag-links", false, "Convert 'Page no:' references on the mainspace page into Page: links and exit")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if *listSheet {
		if err := runListSheet(context.Background(), *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL ERROR: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *tagLinks {
		if *indexTitle == "" {
			fmt.Fprintf(os.Stderr, "Usage: %s -tag-links -index <Index:Title> [flags]\n", os.Args[0])
			flag.PrintDefaults()
			os.Exit(2)
		}
		if err := runTagLinks(context.Background(), *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL ERROR: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *textFile == "" || *indexTitle == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -file <etext.txt> -index <Index:Title> [flags]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *dryRun {
		appCfg.Wiki.DryRun = true
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("etextupload started", "version", version.Version,
		"file", *textFile, "index", *indexTitle, "dry_run", appCfg.Wiki.DryRun)

	pages, err := pagetext.ParsePageFile(*textFile)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("no pages found in %s", *textFile)
	}
	slog.Info("Parsed etext file", "pages", len(pages))

	tr := tracker.New()
	reqClient := request.New(&appCfg.Request, cache.NullCache{}, tr)
	reqClient.SetLogger(logging.RequestLogger)
	wikiClient := wiki.NewClient(reqClient, &appCfg.Wiki, slog.With("component", "wiki"))

	if !appCfg.Wiki.DryRun {
		if err := wikiClient.Login(ctx); err != nil {
			return err
		}
	}

	ulog, err := uploadlog.Open(appCfg.Wiki.UploadLog)
	if err != nil {
		return err
	}
	defer ulog.Close()

	done, err := uploadlog.Uploaded(appCfg.Wiki.UploadLog)
	if err != nil {
		slog.Warn("Failed to read previous upload log, not resuming", "error", err)
		done = map[string]bool{}
	}

	if err := uploadPages(ctx, wikiClient, ulog, appCfg.Wiki.DryRun, pages, done); err != nil {
		return err
	}

	return saveMainpage(ctx, wikiClient, ulog, appCfg.Wiki.DryRun, pages)
}

// runTagLinks converts bare "Page no: N" references on the mainspace page of
// the index into [[Page:...]] links, then re-renders the page to confirm the
// links are live.
func runTagLinks(ctx context.Context, configPath string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *dryRun {
		appCfg.Wiki.DryRun = true
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("tag-links started", "version", version.Version,
		"index", *indexTitle, "dry_run", appCfg.Wiki.DryRun)

	reqClient := request.New(&appCfg.Request, cache.NullCache{}, tracker.New())
	reqClient.SetLogger(logging.RequestLogger)
	wikiClient := wiki.NewClient(reqClient, &appCfg.Wiki, slog.With("component", "wiki"))

	mainTitle := pagetext.MainTitleForIndex(*indexTitle)
	text, err := wikiClient.GetPageText(ctx, mainTitle)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", mainTitle, err)
	}

	tagged, changed := pagetext.TagPageLinks(text, *indexTitle)
	if !changed {
		slog.Info("No references to convert", "title", mainTitle)
		fmt.Printf("%s: nothing to convert\n", mainTitle)
		return nil
	}

	if appCfg.Wiki.DryRun {
		preview := tagged
		if len(preview) > 300 {
			preview = preview[:300] + "..."
		}
		fmt.Printf("[DRY RUN] Would save %s:\n%s\n\n", mainTitle, preview)
		return nil
	}

	if err := wikiClient.Login(ctx); err != nil {
		return err
	}
	err = wikiClient.SavePage(ctx, mainTitle, tagged, wiki.SaveOptions{
		Summary: "Bot: Converted 'Page no:' references to page links.",
	})
	if err != nil {
		return err
	}

	return verifyPageLinks(ctx, wikiClient, mainTitle)
}

// verifyPageLinks re-renders the saved page and counts the Page: links that
// made it into the HTML.
func verifyPageLinks(ctx context.Context, c *wiki.Client, title string) error {
	rendered, err := c.GetRenderedHTML(ctx, title)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", title, err)
	}
	links, err := wiki.ExtractPageLinks(strings.NewReader(rendered))
	if err != nil {
		return err
	}

	count := 0
	for _, l := range links {
		if strings.HasPrefix(l.Title, "Page:") {
			count++
		}
	}
	slog.Info("Converted page references", "title", title, "page_links", count)
	fmt.Printf("%s: %d page links live\n", title, count)
	return nil
}

// runListSheet prints the etext file / Wikisource page pairs recorded in the
// tracking spreadsheet, one per line.
func runListSheet(ctx context.Context, configPath string) error {
	_ = godotenv.Load()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	svc, err := sheets.New(ctx, &appCfg.Sheets, slog.With("component", "sheets"))
	if err != nil {
		return err
	}

	pairs, err := svc.FetchLinkPairs(ctx)
	if err != nil {
		return err
	}

	for _, p := range pairs {
		title := sheets.TitleFromURL(p.WikisourceURL)
		if title == "" {
			title = p.WikisourceURL
		}
		fmt.Printf("%s\t%s\n", title, p.TextFileURL)
	}
	fmt.Fprintf(os.Stderr, "%d link pairs\n", len(pairs))
	return nil
}

func uploadPages(ctx context.Context, c *wiki.Client, ulog *uploadlog.Log, dryRun bool, pages map[string]string, done map[string]bool) error {
	user := c.Username()
	if user == "" {
		user = "bot"
	}

	for _, num := range pagetext.SortedPageNumbers(pages) {
		if err := ctx.Err(); err != nil {
			return err
		}

		title := pagetext.PageTitle(*indexTitle, num)
		if done[title] {
			slog.Info("Skipping already uploaded page", "title", title)
			continue
		}

		text := pagetext.WrapProofreadText(pages[num], user, *quality)
		if dryRun {
			fmt.Printf("[DRY RUN] Would save %s (%d bytes)\n", title, len(text))
			continue
		}

		err := c.SavePage(ctx, title, text, wiki.SaveOptions{
			Summary: "Bot: Adding OCR/provided text and marking as proofread.",
		})
		if err != nil {
			slog.Error("Page upload failed", "title", title, "error", err)
			if lerr := ulog.Record(title, uploadlog.StatusFailed, err.Error()); lerr != nil {
				return lerr
			}
			continue
		}
		if err := ulog.Record(title, uploadlog.StatusUploaded, ""); err != nil {
			return err
		}
	}
	return nil
}

func saveMainpage(ctx context.Context, c *wiki.Client, ulog *uploadlog.Log, dryRun bool, pages map[string]string) error {
	mainTitle := pagetext.MainTitleForIndex(*indexTitle)
	content := pagetext.PrepareMainpageContent(pages, *indexTitle)

	if len(content) <= pagetext.SafePageSize {
		return saveOne(ctx, c, ulog, dryRun, mainTitle, content, "Bot: Creating transcluding main page.")
	}

	// Oversized: split page blocks across /1, /2, ... and transclude them
	blocks := pagetext.MainpageBlocks(pages, *indexTitle)
	subpages := pagetext.SplitIntoSubpages(mainTitle, blocks, pagetext.SafePageSize)

	transclusions := make([]string, 0, len(subpages))
	for _, sp := range subpages {
		slog.Info("Saving subpage", "title", sp.Title, "start_page", sp.StartPage, "end_page", sp.EndPage)
		if err := saveOne(ctx, c, ulog, dryRun, sp.Title, sp.Text, "Bot: Split large main page content"); err != nil {
			return err
		}
		transclusions = append(transclusions, fmt.Sprintf("{{:%s}}", sp.Title))
	}

	index := strings.Join(transclusions, "\n\n")
	return saveOne(ctx, c, ulog, dryRun, mainTitle, index, "Bot: Split oversized main page and added subpage transclusions.")
}

func saveOne(ctx context.Context, c *wiki.Client, ulog *uploadlog.Log, dryRun bool, title, text, summary string) error {
	if dryRun {
		preview := text
		if len(preview) > 300 {
			preview = preview[:300] + "..."
		}
		fmt.Printf("[DRY RUN] Would save %s:\n%s\n\n", title, preview)
		return nil
	}

	if err := c.SavePage(ctx, title, text, wiki.SaveOptions{Summary: summary}); err != nil {
		if lerr := ulog.Record(title, uploadlog.StatusFailed, err.Error()); lerr != nil {
			return errors.Join(err, lerr)
		}
		return err
	}
	return ulog.Record(title, uploadlog.StatusUploaded, "")
}
