package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/target/mmk-jobqueue/internal/bootstrap"
	"github.com/target/mmk-jobqueue/internal/domain/model"
	"github.com/target/mmk-jobqueue/internal/service"
)

// queueAdmin is the subset of service.QueueService used by the CLI.
type queueAdmin interface {
	List(ctx context.Context, status string) ([]*model.QueueItem, error)
	Get(ctx context.Context, id string) (*model.QueueItem, error)
	Delete(ctx context.Context, id string) error
	EnqueueInvitation(ctx context.Context, membershipID string) (*model.QueueItem, error)
	ScheduleRecurring(ctx context.Context) error
}

// withQueueAdmin opens the configured store and runs fn against a queue service
// that is never started; the CLI only reads and writes records.
func withQueueAdmin(cmdCtx *commandContext, fn func(ctx context.Context, admin queueAdmin) error) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	store, err := bootstrap.OpenStore(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.DB,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("store close failed", "error", closeErr)
		}
	}()

	q, err := bootstrap.BuildQueue(bootstrap.QueueDeps{
		Config:   cmdCtx.Config.Queue,
		Postmark: cmdCtx.Config.Postmark,
		Store:    store,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	admin, err := service.NewQueueService(service.QueueServiceOptions{
		Store:  store.Queue,
		Engine: q,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	return fn(ctx, admin)
}

type listOptions struct {
	Status string
	JSON   bool
}

func parseListFlags(args []string) (listOptions, error) {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts listOptions
	fs.StringVar(&opts.Status, "status", "", "Filter by status (pending, success, failed)")
	fs.BoolVar(&opts.JSON, "json", false, "Print items as JSON instead of a table")

	if err := fs.Parse(args); err != nil {
		return listOptions{}, err
	}
	return opts, nil
}

func runList(cmdCtx *commandContext, args []string) error {
	opts, err := parseListFlags(args)
	if err != nil {
		return err
	}
	return withQueueAdmin(cmdCtx, func(ctx context.Context, admin queueAdmin) error {
		return listItems(ctx, cmdCtx.Out, admin, opts)
	})
}

func listItems(ctx context.Context, w io.Writer, admin queueAdmin, opts listOptions) error {
	items, err := admin.List(ctx, opts.Status)
	if err != nil {
		return err
	}
	if opts.JSON {
		return printJSON(w, items)
	}
	if len(items) == 0 {
		return writeln(w, "No queue items found.")
	}
	return writeln(w, renderQueueTable(items))
}

func renderQueueTable(items []*model.QueueItem) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Type", "Status", "Failures", "Updated", "Scheduled", "Parent", "Child"})
	for _, item := range items {
		tw.AppendRow(table.Row{
			item.ID,
			item.JobType(),
			item.Status.String(),
			strconv.Itoa(item.FailureCount),
			item.UpdatedAt.UTC().Format(time.RFC3339),
			formatOptionalTime(item.ScheduledAt),
			formatOptionalID(item.ParentID),
			formatOptionalID(item.ChildID),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalID(id *string) string {
	if id == nil || *id == "" {
		return "-"
	}
	return *id
}

func requireID(name string, args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("usage: mmk-jobqueue-admin %s <id>", name)
	}
	return strings.TrimSpace(args[0]), nil
}

func runShow(cmdCtx *commandContext, args []string) error {
	id, err := requireID("show", args)
	if err != nil {
		return err
	}
	return withQueueAdmin(cmdCtx, func(ctx context.Context, admin queueAdmin) error {
		item, getErr := admin.Get(ctx, id)
		if getErr != nil {
			return getErr
		}
		return printJSON(cmdCtx.Out, item)
	})
}

func runDelete(cmdCtx *commandContext, args []string) error {
	id, err := requireID("delete", args)
	if err != nil {
		return err
	}
	return withQueueAdmin(cmdCtx, func(ctx context.Context, admin queueAdmin) error {
		if delErr := admin.Delete(ctx, id); delErr != nil {
			return delErr
		}
		return writef(cmdCtx.Out, "Deleted queue item %s\n", id)
	})
}

func runEnqueueInvitation(cmdCtx *commandContext, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: mmk-jobqueue-admin enqueue-invitation <membership-id>")
	}
	return withQueueAdmin(cmdCtx, func(ctx context.Context, admin queueAdmin) error {
		item, enqErr := admin.EnqueueInvitation(ctx, args[0])
		if enqErr != nil {
			return enqErr
		}
		return writef(cmdCtx.Out, "Enqueued %s as %s\n", item.JobType(), item.ID)
	})
}

func runScheduleRecurring(cmdCtx *commandContext, args []string) error {
	if len(args) != 0 {
		return errors.New("usage: mmk-jobqueue-admin schedule-recurring")
	}
	return withQueueAdmin(cmdCtx, func(ctx context.Context, admin queueAdmin) error {
		if err := admin.ScheduleRecurring(ctx); err != nil {
			return err
		}
		return writeln(cmdCtx.Out, "Recurring jobs scheduled.")
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
