package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/kevinaaaquil/readinglist/config"
	"github.com/kevinaaaquil/readinglist/library"
	"github.com/kevinaaaquil/readinglist/mockserver"
	"github.com/kevinaaaquil/readinglist/models"
	"github.com/kevinaaaquil/readinglist/store"
	"github.com/sirupsen/logrus"
)

var errUsage = errors.New("usage")

const usage = `usage: readinglist <command> [flags]

commands:
  list   [-q text] [-status all|want_to_read|reading|completed|dropped] [-json]
  show   <id> [-json]
  add    -title T -author A -genre G [-status S] [-description D] [-pages N] [-rating N]
  edit   <id> [-title T] [-author A] [-genre G] [-status S] [-description D] [-pages N] [-rating N]
  rm     <id>
  genres
  serve  run the mock book service on $PORT
`

type app struct {
	cfg  *config.Config
	log  *logrus.Logger
	out  io.Writer
	open func(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (backend, func(), error)
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list", "ls":
		return a.list(ctx, rest)
	case "show":
		return a.show(ctx, rest)
	case "add":
		return a.add(ctx, rest)
	case "edit":
		return a.edit(ctx, rest)
	case "rm", "delete":
		return a.remove(ctx, rest)
	case "genres":
		for _, g := range models.Genres {
			fmt.Fprintln(a.out, g)
		}
		return nil
	case "serve":
		return a.serve(ctx)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	}
	fmt.Fprintf(a.out, "unknown command %q\n\n%s", cmd, usage)
	return errUsage
}

// openLibrary opens the configured backend and loads the collection.
func (a *app) openLibrary(ctx context.Context) (*library.Library, func(), error) {
	b, closeFn, err := a.open(ctx, a.cfg, a.log)
	if err != nil {
		return nil, nil, err
	}
	lib := library.New(b,
		library.WithLogger(a.log.WithField("component", "library")),
		library.WithNotifier(library.LogNotifier{Log: a.log}),
	)
	if err := lib.Initialize(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("%s: %w", lib.LastError(), err)
	}
	return lib, closeFn, nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := a.flagSet("list")
	search := fs.String("q", "", "match title or author (case-insensitive)")
	status := fs.String("status", string(models.FilterAll), "status filter")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	filter, err := models.ParseStatusFilter(*status)
	if err != nil {
		return err
	}

	lib, closeFn, err := a.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	lib.SetSearch(*search)
	lib.SetFilter(filter)
	books := lib.Filtered()

	if *asJSON {
		return a.printJSON(books)
	}
	if len(books) == 0 {
		if len(lib.Books()) == 0 {
			fmt.Fprintln(a.out, "Your library is empty. Add a book with: readinglist add")
		} else {
			fmt.Fprintln(a.out, "No books match your search.")
		}
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tSTATUS\tRATING")
	for _, b := range books {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, b.Genre, b.Status.Label(), stars(b.Rating))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	c := lib.Counts()
	parts := []string{fmt.Sprintf("%d books", c.Total)}
	for _, st := range models.ValidStatuses {
		parts = append(parts, fmt.Sprintf("%s %d", st.Label(), c.ByStatus[st]))
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, strings.Join(parts, " | "))
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	id, args, err := leadingID(args)
	if err != nil {
		return err
	}
	fs := a.flagSet("show")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	// one book needs no full fetch
	st, closeFn, err := a.open(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	defer closeFn()
	b, err := st.GetBook(ctx, id)
	if err != nil {
		return err
	}
	if *asJSON {
		return a.printJSON(b)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Title:\t%s\n", b.Title)
	fmt.Fprintf(tw, "Author:\t%s\n", b.Author)
	fmt.Fprintf(tw, "Genre:\t%s\n", b.Genre)
	fmt.Fprintf(tw, "Status:\t%s\n", b.Status.Label())
	if b.Pages != nil {
		fmt.Fprintf(tw, "Pages:\t%d\n", *b.Pages)
	}
	if b.Rating != nil {
		fmt.Fprintf(tw, "Rating:\t%s\n", stars(b.Rating))
	}
	if b.Description != nil {
		fmt.Fprintf(tw, "Description:\t%s\n", *b.Description)
	}
	return tw.Flush()
}

// bookFlags registers the form fields shared by add and edit.
type bookFlags struct {
	title, author, genre, status, description *string
	pages, rating                             *int
}

func registerBookFlags(fs *flag.FlagSet, defaultStatus string) bookFlags {
	return bookFlags{
		title:       fs.String("title", "", "title"),
		author:      fs.String("author", "", "author"),
		genre:       fs.String("genre", "", "genre, see: readinglist genres"),
		status:      fs.String("status", defaultStatus, "want_to_read, reading, completed or dropped"),
		description: fs.String("description", "", "short description"),
		pages:       fs.Int("pages", 0, "page count"),
		rating:      fs.Int("rating", 0, "rating 1-5"),
	}
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := a.flagSet("add")
	f := registerBookFlags(fs, string(models.StatusWantToRead))
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	status, err := models.ParseReadingStatus(*f.status)
	if err != nil {
		return err
	}
	payload := models.BookCreate{
		Title:  strings.TrimSpace(*f.title),
		Author: strings.TrimSpace(*f.author),
		Genre:  strings.TrimSpace(*f.genre),
		Status: status,
	}
	// unset optional fields stay nil instead of becoming "" or 0
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "description":
			payload.Description = models.String(*f.description)
		case "pages":
			payload.Pages = models.Int(*f.pages)
		case "rating":
			payload.Rating = models.Int(*f.rating)
		}
	})
	if err := models.ValidateCreate(payload); err != nil {
		return err
	}

	lib, closeFn, err := a.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	book, err := lib.AddBook(ctx, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "added %d: %s\n", book.ID, book.Title)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	id, args, err := leadingID(args)
	if err != nil {
		return err
	}
	fs := a.flagSet("edit")
	f := registerBookFlags(fs, "")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var patch models.BookUpdate
	var statusErr error
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "title":
			patch.Title = models.String(strings.TrimSpace(*f.title))
		case "author":
			patch.Author = models.String(strings.TrimSpace(*f.author))
		case "genre":
			patch.Genre = models.String(strings.TrimSpace(*f.genre))
		case "status":
			st, err := models.ParseReadingStatus(*f.status)
			statusErr = err
			patch.Status = &st
		case "description":
			patch.Description = models.String(*f.description)
		case "pages":
			patch.Pages = models.Int(*f.pages)
		case "rating":
			patch.Rating = models.Int(*f.rating)
		}
	})
	if statusErr != nil {
		return statusErr
	}
	if patch.IsEmpty() {
		return errors.New("edit: nothing to change, pass at least one field flag")
	}
	if err := models.ValidateUpdate(patch); err != nil {
		return err
	}

	lib, closeFn, err := a.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	if err := lib.EditBook(ctx, id, patch); err != nil {
		return err
	}
	b, _ := lib.Book(id)
	fmt.Fprintf(a.out, "updated %d: %s (%s)\n", id, b.Title, b.Status.Label())
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	id, args, err := leadingID(args)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		return fmt.Errorf("rm: unexpected arguments %v", args)
	}

	lib, closeFn, err := a.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	if err := lib.RemoveBook(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %d\n", id)
	return nil
}

// serve runs the mock service over the configured store. The http backend
// has nothing local to serve, so it falls back to mock data.
func (a *app) serve(ctx context.Context) error {
	var st mockserver.Store
	switch a.cfg.Backend {
	case config.BackendHTTP:
		st = store.NewMemory(store.MockBooks()...)
	default:
		b, closeFn, err := a.open(ctx, a.cfg, a.log)
		if err != nil {
			return err
		}
		defer closeFn()
		st = b
	}
	srv := mockserver.NewServer(":"+a.cfg.Port, st, mockserver.Options{
		JWTSecret: a.cfg.JWTSecret,
		Log:       a.log.WithField("component", "server"),
	})
	return srv.Run(ctx)
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// leadingID takes the book id off the front of args so flags may follow it.
func leadingID(args []string) (int64, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return 0, nil, errors.New("missing book id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		return 0, nil, fmt.Errorf("invalid book id %q", args[0])
	}
	return id, args[1:], nil
}

func stars(rating *int) string {
	if rating == nil {
		return "-"
	}
	n := min(max(*rating, 0), 5)
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}
