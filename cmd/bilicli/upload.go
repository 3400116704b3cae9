package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/waiav123/bilibili-api/audio"
	"github.com/waiav123/bilibili-api/event"
)

func (a *app) runUpload(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	var (
		file    = fs.String("file", "", "音频文件路径(必填)")
		title   = fs.String("title", "", "标题(必填)")
		intro   = fs.String("intro", "", "简介")
		tags    = fs.String("tags", "", "标签, 逗号分隔")
		cover   = fs.String("cover", "", "封面图片路径")
		lyric   = fs.String("lyric", "", "LRC 歌词文件路径")
		songTyp = fs.Int("song-type", int(audio.SongInstrumental), "歌曲类型: 1 人声 2 VOCALOID 3 人力鬼畜 4 纯音乐")
		singers = fs.String("singers", "", "歌手, 形如 名字:UID, 逗号分隔, UID 可省略")
		retry   = fs.Int("chunk-retry", 1, "单个分片失败后的重发次数")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}
	if *title == "" {
		return fmt.Errorf("-title is required")
	}

	meta := &audio.SongMeta{
		Title:    *title,
		Intro:    *intro,
		Tags:     splitList(*tags),
		SongType: audio.SongType(*songTyp),
	}
	if *singers != "" {
		authors, err := parseAuthors(*singers)
		if err != nil {
			return err
		}
		meta.Singers = authors
	}
	if *lyric != "" {
		data, err := os.ReadFile(*lyric)
		if err != nil {
			return fmt.Errorf("failed to read lyric file: %w", err)
		}
		meta.Lyric = string(data)
	}

	opts := []audio.UploaderOption{
		audio.WithChunkRetry(*retry),
		audio.WithLogger(a.log),
	}
	if *cover != "" {
		opts = append(opts, audio.WithCoverFile(*cover))
	}

	up := audio.NewUploader(a.client, meta, opts...)
	up.Events().On(audio.EventPreupload, func(ev event.Event) {
		fmt.Println("upload ticket issued")
	})
	up.Events().On(audio.EventAfterChunk, func(ev event.Event) {
		info := ev.Data.(audio.ChunkInfo)
		fmt.Printf("chunk %d/%d uploaded (%d bytes)\n", info.Index+1, info.Total, info.Size)
	})
	up.Events().On(audio.EventAfterComplete, func(ev event.Event) {
		fmt.Println("chunks merged")
	})
	up.Events().On(audio.EventAfterCover, func(ev event.Event) {
		fmt.Printf("cover uploaded: %v\n", ev.Data)
	})
	up.Events().On(audio.EventAborted, func(ev event.Event) {
		fmt.Println("upload aborted")
	})

	// Ctrl+C 走软中止, 让上传器在分片边界收尾,
	// 单个请求仍受 http.timeout 约束
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		up.Abort()
	}()

	songID, err := up.Upload(context.Background(), *file)
	if err != nil {
		return err
	}
	fmt.Printf("song submitted: https://www.bilibili.com/audio/au%d\n", songID)
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseAuthors 解析 "名字:UID,名字" 形式的成员列表
func parseAuthors(s string) ([]audio.AuthorInfo, error) {
	var authors []audio.AuthorInfo
	for _, item := range splitList(s) {
		name, rawMID, hasMID := strings.Cut(item, ":")
		if name == "" {
			return nil, fmt.Errorf("invalid singer %q", item)
		}
		author := audio.AuthorInfo{Name: name}
		if hasMID && rawMID != "" {
			mid, err := strconv.ParseInt(rawMID, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid singer uid in %q: %w", item, err)
			}
			author.MID = mid
		}
		authors = append(authors, author)
	}
	return authors, nil
}
