package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/waiav123/bilibili-api/event"
	"github.com/waiav123/bilibili-api/pkg/config"
	"github.com/waiav123/bilibili-api/session"
)

func (a *app) runSessions(args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	size := fs.Int("n", 20, "返回的会话数")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	svc := session.NewService(a.client, session.WithLogger(a.log))
	list, err := svc.Sessions(ctx, session.ListOptions{Size: *size})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TALKER\tTYPE\tUNREAD\tTIME\tLAST")
	for _, info := range list.Sessions {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
			info.TalkerID,
			sessionTypeLabel(info.SessionType),
			info.UnreadCount,
			info.Time().Format("01-02 15:04"),
			lastMessagePreview(info),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if list.More() {
		fmt.Println("(more sessions available)")
	}
	return nil
}

func (a *app) runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	talker := fs.Int64("talker", 0, "对方 UID(必填)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text := strings.Join(fs.Args(), " ")
	if *talker <= 0 {
		return fmt.Errorf("-talker is required")
	}
	if text == "" {
		return fmt.Errorf("message text is required, e.g. bilicli send -talker 123 hello")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	svc := session.NewService(a.client, session.WithLogger(a.log))
	receipt, err := svc.SendText(ctx, *talker, text)
	if err != nil {
		return err
	}
	fmt.Printf("sent, msg_key=%d\n", receipt.MsgKey)
	return nil
}

func (a *app) runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	interval := fs.Duration("interval", a.cfg.Watcher.Interval, "轮询间隔")
	autoAck := fs.Bool("ack", a.cfg.Watcher.AutoAck, "转发后自动已读")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := session.NewService(a.client, session.WithLogger(a.log))
	opts := []session.WatcherOption{
		session.WithPollInterval(*interval),
		session.WithAutoAck(*autoAck),
		session.WithWatcherLogger(a.log),
	}

	// 配置了 redis 时已读位置跨进程保留, 否则进程内存续
	if rdb := config.NewRedisClient(a.cfg.Redis); rdb != nil {
		defer rdb.Close()
		uid, ok := a.client.Credential().UserID()
		if !ok {
			return fmt.Errorf("redis seen store needs dedeuserid in the credential")
		}
		store := session.NewRedisSeenStore(rdb, uid,
			session.WithSeenTTL(a.cfg.Redis.SeenTTL))
		opts = append(opts, session.WithSeenStore(store))
	}

	w := session.NewWatcher(svc, nil, opts...)
	w.Events().On(session.MsgTypeText.EventName(), func(ev event.Event) {
		msg := ev.Data.(session.Message)
		text, _ := msg.Text()
		fmt.Printf("[%s] %d: %s\n", msg.Time().Format("15:04:05"), msg.SenderUID, text)
	})
	w.Events().On(session.MsgTypeImage.EventName(), func(ev event.Event) {
		msg := ev.Data.(session.Message)
		url, _ := msg.ImageURL()
		fmt.Printf("[%s] %d 发来图片: %s\n", msg.Time().Format("15:04:05"), msg.SenderUID, url)
	})
	w.Events().On(session.MsgTypeRecall.EventName(), func(ev event.Event) {
		msg := ev.Data.(session.Message)
		fmt.Printf("[%s] %d 撤回了一条消息\n", msg.Time().Format("15:04:05"), msg.SenderUID)
	})
	w.Events().On(session.EventPollFailed, func(ev event.Event) {
		if err, ok := ev.Data.(error); ok {
			fmt.Fprintf(os.Stderr, "poll failed: %v\n", err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("watching messages every %s, Ctrl+C to stop\n", *interval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nstopping watcher...")
	w.Close()
	return nil
}

func sessionTypeLabel(st session.SessionType) string {
	switch st {
	case session.SessionTypeUser:
		return "user"
	case session.SessionTypeGroup:
		return "group"
	default:
		return fmt.Sprintf("type%d", st)
	}
}

// lastMessagePreview 从会话的最后一条消息里提取一行预览
func lastMessagePreview(info session.Info) string {
	if len(info.LastMsg) == 0 {
		return ""
	}
	var msg session.Message
	if err := json.Unmarshal(info.LastMsg, &msg); err != nil {
		return ""
	}
	if text, ok := msg.Text(); ok && text != "" {
		return text
	}
	return "<" + strings.ToLower(msg.MsgType.EventName()) + ">"
}
