package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/schollz/progressbar/v3"

	"chublink/internal/chub"
	"chublink/internal/config"
	"chublink/internal/host"
	"chublink/internal/logger"
	"chublink/internal/queryparse"
	"chublink/internal/session"
	"chublink/internal/settings"
)

func main() {
	cfg := config.Get()
	lg := logger.New(cfg.CLI.Debug)
	if !cfg.CLI.Debug {
		lg.SetOutput(io.Discard) // keep the prompt clean, logs belong to services
	}

	store, err := settings.Open(cfg.Settings.Path)
	if err != nil {
		fmt.Printf("Error: cannot open settings store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	prefs, err := store.Load(context.Background())
	if err != nil {
		fmt.Printf("Warning: settings load failed, using defaults: %v\n", err)
		prefs = settings.Settings{FindCount: settings.DefaultFindCount, NSFW: settings.DefaultNSFW}
	}

	client := chub.NewClient(cfg.Chub, lg)
	importer := host.NewImporter(cfg.Host, lg, host.DirIntake{Dir: "characters"}, store)
	importer.Progress = func(total int64) io.Writer {
		return progressbar.DefaultBytes(total, "downloading")
	}

	sess := session.New(client, session.WithDefaults(prefs.FindCount, prefs.NSFW))
	defer sess.Close()

	app := &app{sess: sess, importer: importer, store: store}

	if len(os.Args) > 1 {
		// one-shot mode: search, print, exit
		app.search(strings.Join(os.Args[1:], " "))
		return
	}

	rl := liner.NewLiner()
	defer rl.Close()
	rl.SetCtrlCAborts(true)
	loadHistory(rl, cfg.CLI.HistoryFile)

	fmt.Println("Chublink Interactive Shell — type a query, 'help' for commands")
	for {
		line, err := rl.Prompt("chub> ")
		if err != nil {
			break
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		rl.AppendHistory(input)
		if input == "exit" || input == "quit" {
			break
		}
		app.execute(input)
	}
	saveHistory(rl, cfg.CLI.HistoryFile)
}

type app struct {
	sess     *session.Session
	importer *host.Importer
	store    *settings.Store
}

func (a *app) execute(input string) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "help":
		printHelp()
	case "next":
		a.sess.NextPage()
		a.flush()
	case "prev":
		a.sess.PrevPage()
		a.flush()
	case "page":
		if len(fields) < 2 {
			fmt.Println("usage: page <n>")
			return
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Println("usage: page <n>")
			return
		}
		a.sess.SetPage(n)
		a.flush()
	case "get":
		if len(fields) < 2 {
			fmt.Println("usage: get <index>")
			return
		}
		a.download(fields[1])
	case "show":
		if len(fields) < 2 {
			fmt.Println("usage: show <index>")
			return
		}
		a.show(fields[1])
	case "history":
		a.printHistory()
	case "set":
		a.set(fields[1:])
	default:
		a.search(input)
	}
}

// search parses a query line into criteria and runs it immediately.
func (a *app) search(input string) {
	crit := queryparse.Parse(input)
	a.sess.Apply(crit)
	a.flush()
}

func (a *app) flush() {
	start := time.Now()
	a.sess.SearchNow()
	render(a.sess.Results(), a.sess.Criteria().Page)
	fmt.Printf("⏱ took %v\n\n", time.Since(start).Round(time.Millisecond))
}

func (a *app) entry(arg string) (chub.CharacterSummary, bool) {
	idx, err := strconv.Atoi(arg)
	results := a.sess.Results()
	if err != nil || idx < 1 || idx > len(results) {
		fmt.Printf("No such entry %q (list has %d)\n", arg, len(results))
		return chub.CharacterSummary{}, false
	}
	return results[idx-1], true
}

func (a *app) download(arg string) {
	c, ok := a.entry(arg)
	if !ok {
		return
	}
	out := a.importer.Import(context.Background(), c.FullPath)
	switch out.Status {
	case host.StatusImported:
		fmt.Printf("Imported %s as %s\n", c.FullPath, out.Filename)
	case host.StatusRejected:
		fmt.Printf("Host rejected the import: %v\n", out.Err)
		fmt.Printf("You can grab it manually: %s\n", out.FallbackURL)
	case host.StatusUnsupported:
		fmt.Printf("Unsupported content type %q, nothing imported\n", out.ContentType)
	default:
		fmt.Printf("Import failed: %v\n", out.Err)
	}
}

func (a *app) show(arg string) {
	c, ok := a.entry(arg)
	if !ok {
		return
	}
	fmt.Printf("\n%s (%s)\n", c.Name, c.FullPath)
	fmt.Printf("Author: %s\n", c.Author)
	if c.Tagline != "" {
		fmt.Printf("Tagline: %s\n", c.Tagline)
	}
	if len(c.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(c.Tags, ", "))
	}
	fmt.Printf("Page: %s\n", c.PageURL())
	if c.Description != "" {
		fmt.Printf("\n%s\n", c.Description)
	}
	fmt.Println()
}

func (a *app) printHistory() {
	recs, err := a.store.RecentImports(context.Background(), 20)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(recs) == 0 {
		fmt.Println("No imports yet.")
		return
	}
	for _, r := range recs {
		fmt.Printf("%s  %-11s %s\n", r.At.Format("2006-01-02 15:04"), r.Status, r.FullPath)
	}
}

func (a *app) set(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: set findCount <n> | set nsfw <on|off>")
		return
	}
	prefs, err := a.store.Load(context.Background())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	switch args[0] {
	case "findCount":
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			fmt.Println("findCount must be a positive integer")
			return
		}
		prefs.FindCount = n
	case "nsfw":
		prefs.NSFW = args[1] == "on" || args[1] == "true"
	default:
		fmt.Printf("unknown setting %q\n", args[0])
		return
	}
	if err := a.store.Save(context.Background(), prefs); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Saved. Takes effect on the next shell start.")
}

func render(results []chub.CharacterSummary, page int) {
	if len(results) == 0 {
		fmt.Println("No results found.")
		return
	}
	fmt.Printf("%-3s | %-3s | %-25s | %-15s | %s\n", "#", "img", "Name", "Author", "Tags")
	fmt.Println(strings.Repeat("-", 78))
	for i, c := range results {
		img := " ✓ "
		if c.Avatar == nil {
			img = " - " // placeholder: avatar fetch failed or no image
		}
		fmt.Printf("%-3d | %s | %-25s | %-15s | %s\n",
			i+1, img, clip(c.Name, 25), clip(c.Author, 15), clip(strings.Join(c.Tags, ","), 25))
	}
	fmt.Printf("(page %d — 'next'/'prev' to page, 'show N', 'get N' to import)\n", page)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printHelp() {
	fmt.Print(`Commands:
  <query line>          search, e.g.: elf tags:fantasy,magic -tags:horror sort:rating page:2 nsfw:on
  next / prev / page N  pagination
  show N                full details of entry N
  get N                 import entry N into the host
  history               recent import attempts
  set findCount N       page size (persisted)
  set nsfw on|off       default maturity filter (persisted)
  exit
`)
}

func loadHistory(rl *liner.State, path string) {
	if path == "" {
		return
	}
	if f, err := os.Open(path); err == nil {
		rl.ReadHistory(f)
		f.Close()
	}
}

func saveHistory(rl *liner.State, path string) {
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		rl.WriteHistory(f)
		f.Close()
	}
}
