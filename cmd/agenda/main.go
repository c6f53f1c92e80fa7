package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"agenda/internal/config"
	"agenda/internal/expand"
	"agenda/internal/ics"
	"agenda/internal/model"
	"agenda/internal/notify"
	"agenda/internal/storage"
	"agenda/internal/timeutil"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Fatalf("create data directory: %v", err)
		}
	}
	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	switch os.Args[1] {
	case "add":
		err = cmdAdd(ctx, store, os.Args[2:])
	case "list":
		err = cmdList(ctx, store, os.Args[2:])
	case "delete":
		err = cmdDelete(ctx, store, os.Args[2:])
	case "notify":
		err = cmdNotify(ctx, store, os.Args[2:])
	case "import":
		err = cmdImport(ctx, store, os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: agenda <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  add      Add an event")
	fmt.Fprintln(os.Stderr, "  list     List upcoming occurrences")
	fmt.Fprintln(os.Stderr, "  delete   Delete an event by ID")
	fmt.Fprintln(os.Stderr, "  notify   Set an event's notification preference")
	fmt.Fprintln(os.Stderr, "  import   Import events from an iCalendar file")
}

func cmdAdd(ctx context.Context, store storage.Storage, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	title := fs.String("title", "", "event title (required)")
	date := fs.String("date", "", "start date, YYYY-MM-DD (required)")
	timeOfDay := fs.String("time", "", "start time, HH:MM (ignored for -all-day)")
	duration := fs.Int("duration", 60, "duration in minutes")
	description := fs.String("description", "", "event description")
	location := fs.String("location", "", "event location")
	allDay := fs.Bool("all-day", false, "all-day event")
	rrule := fs.String("rrule", "", "recurrence rule, e.g. FREQ=WEEKLY;BYDAY=MO,WE")
	notifyArg := fs.String("notify", "", "notification thresholds: month,week,day,hour,now, or never, or default")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *title == "" {
		return fmt.Errorf("-title is required")
	}
	if *date == "" {
		return fmt.Errorf("-date is required")
	}

	tod := *timeOfDay
	if *allDay {
		tod = ""
	}
	start, err := timeutil.CombineDateTime(*date, tod, time.Local)
	if err != nil {
		return err
	}

	ev := model.Event{
		Title:       *title,
		Description: *description,
		Location:    *location,
		Start:       start,
		End:         start.Add(time.Duration(*duration) * time.Minute),
		AllDay:      *allDay,
		RRule:       *rrule,
	}
	if err := store.CreateEvent(ctx, &ev); err != nil {
		return err
	}

	if *notifyArg != "" {
		pref, err := notify.Normalize(*notifyArg)
		if err != nil {
			fmt.Printf("Added event #%d: %s (notify=default). Invalid -notify ignored: %v\n", ev.ID, ev.Title, err)
			return nil
		}
		// The default preference is implied by the absence of a stored
		// row, so it is not persisted.
		if pref != notify.DefaultPreference {
			if err := store.SetNotifyPreference(ctx, ev.ID, pref); err != nil {
				return err
			}
		}
		fmt.Printf("Added event #%d: %s (notify=%s)\n", ev.ID, ev.Title, pref)
		return nil
	}

	fmt.Printf("Added event #%d: %s\n", ev.ID, ev.Title)
	return nil
}

func cmdList(ctx context.Context, store storage.Storage, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	days := fs.Int("days", 14, "how many days ahead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	events, err := store.ListEvents(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	occs, err := expand.Between(events, now, now.AddDate(0, 0, *days))
	if err != nil {
		return err
	}
	if len(occs) == 0 {
		fmt.Println("No upcoming events.")
		return nil
	}
	for _, o := range occs {
		fmt.Printf("- [%d] %s :: %s\n", o.Event.ID, o.DisplayTitle(), o.DisplayTimeRange(time.Local))
	}
	return nil
}

func cmdDelete(ctx context.Context, store storage.Storage, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	if _, err := store.GetEvent(ctx, id); err != nil {
		return fmt.Errorf("event #%d: %w", id, err)
	}
	if err := store.DeleteEvent(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted event #%d\n", id)
	return nil
}

func cmdNotify(ctx context.Context, store storage.Storage, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: agenda notify <id> <thresholds|never|default>")
	}
	id, err := parseID(args[:1])
	if err != nil {
		return err
	}
	pref, err := notify.Normalize(args[1])
	if err != nil {
		return err
	}
	if _, err := store.GetEvent(ctx, id); err != nil {
		return fmt.Errorf("event #%d: %w", id, err)
	}
	if err := store.SetNotifyPreference(ctx, id, pref); err != nil {
		return err
	}
	fmt.Printf("Event #%d notify=%s\n", id, pref)
	return nil
}

func cmdImport(ctx context.Context, store storage.Storage, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: agenda import <file.ics>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	events, err := ics.Parse(f, time.Local)
	if err != nil {
		return err
	}
	for i := range events {
		if err := store.CreateEvent(ctx, &events[i]); err != nil {
			return fmt.Errorf("store event %q: %w", events[i].Title, err)
		}
	}
	fmt.Printf("Imported %d event(s).\n", len(events))
	return nil
}

func parseID(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("event ID is required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid event ID %q", args[0])
	}
	return id, nil
}
