package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/waiav123/bilibili-api/notify"
)

func (a *app) runFeed(args []string) error {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)
	kind := fs.String("kind", "unread", "like | reply | at | unread | system")
	pageSize := fs.Int("n", 20, "系统通知的每页条数")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	svc := notify.NewService(a.client, notify.WithLogger(a.log))
	switch *kind {
	case "like":
		feed, err := svc.Like(ctx, notify.Cursor{})
		if err != nil {
			return err
		}
		return printJSON(feed)
	case "reply":
		feed, err := svc.Reply(ctx, notify.Cursor{})
		if err != nil {
			return err
		}
		return printJSON(feed)
	case "at":
		feed, err := svc.At(ctx, notify.Cursor{})
		if err != nil {
			return err
		}
		return printJSON(feed)
	case "unread":
		counts, err := svc.Unread(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("total %d (like %d, reply %d, at %d, sysmsg %d, up %d; chat %d)\n",
			counts.Total(), counts.Like, counts.Reply, counts.At, counts.SysMsg, counts.Up, counts.Chat)
		return nil
	case "system":
		items, err := svc.SystemNotify(ctx, 0, *pageSize)
		if err != nil {
			return err
		}
		return printJSON(items)
	default:
		return fmt.Errorf("unknown feed kind %q", *kind)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
