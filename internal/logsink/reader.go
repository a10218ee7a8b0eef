package logsink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"path"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// Entry is one line written by Handler. It encodes back to the same flat
// shape.
type Entry struct {
	Time  time.Time
	Level string
	Msg   string
	Attrs map[string]any
}

func (e Entry) MarshalJSON() ([]byte, error) {
	all := make(map[string]any, len(e.Attrs)+3)
	maps.Copy(all, e.Attrs)
	all["time"] = e.Time.UTC().Format(time.RFC3339Nano)
	all["level"] = e.Level
	all["msg"] = e.Msg
	return json.Marshal(all)
}

// UnmarshalJSON keeps every field besides time, level and msg in Attrs.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	if raw, ok := all["time"].(string); ok {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fmt.Errorf("bad time %q: %w", raw, err)
		}
		e.Time = t
	}
	e.Level, _ = all["level"].(string)
	e.Msg, _ = all["msg"].(string)
	delete(all, "time")
	delete(all, "level")
	delete(all, "msg")
	if len(all) > 0 {
		e.Attrs = all
	}
	return nil
}

type blobSource interface {
	list(ctx context.Context, prefix string) ([]string, error)
	open(ctx context.Context, name string) (io.ReadCloser, error)
}

type containerSource struct {
	client    *azblob.Client
	container string
}

func (c containerSource) list(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	pager := c.client.NewListBlobsFlatPager(c.container, &azblob.ListBlobsFlatOptions{Prefix: &prefix})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}
		for _, item := range resp.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

func (c containerSource) open(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := c.client.DownloadStream(ctx, c.container, name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", name, err)
	}
	return resp.Body, nil
}

// Reader reads back what Handler appended under one prefix.
type Reader struct {
	source blobSource
	prefix string
	now    func() time.Time
}

func NewReader(client *azblob.Client, cfg Config) *Reader {
	return &Reader{
		source: containerSource{client: client, container: cfg.Container},
		prefix: cfg.Prefix,
		now:    time.Now,
	}
}

// Logs returns entries at or above minLevel logged since the given time,
// oldest first. Blobs that cannot be read are skipped and reported on the
// default logger.
func (r *Reader) Logs(ctx context.Context, since time.Time, minLevel slog.Level) ([]Entry, error) {
	var out []Entry
	for _, prefix := range r.datePrefixes(since, r.now()) {
		names, err := r.source.list(ctx, prefix)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			entries, err := r.readBlob(ctx, name, since, minLevel)
			if err != nil {
				slog.WarnContext(ctx, "skipping unreadable log blob", "blob", name, "error", err)
				continue
			}
			out = append(out, entries...)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (r *Reader) datePrefixes(since, until time.Time) []string {
	var prefixes []string
	day := since.UTC().Truncate(24 * time.Hour)
	end := until.UTC().Truncate(24 * time.Hour)
	for !day.After(end) {
		prefixes = append(prefixes, path.Join(r.prefix, FormatDateFolder(day.Year(), int(day.Month()), day.Day()))+"/")
		day = day.Add(24 * time.Hour)
	}
	return prefixes
}

func (r *Reader) readBlob(ctx context.Context, name string, since time.Time, minLevel slog.Level) ([]Entry, error) {
	body, err := r.source.open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var entries []Entry
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxPending)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		if e.Time.Before(since) {
			continue
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(e.Level)); err == nil && level < minLevel {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("error scanning %s: %w", name, err)
	}
	return entries, nil
}
