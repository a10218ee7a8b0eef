// Package logsink ships structured logs to Azure append blobs.
package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// appends larger than this are flushed early; the service caps a block at 4 MiB
const maxPending = 1 << 20

type Config struct {
	Container  string
	Prefix     string        // e.g. "barkeep/prod"
	Host       string        // defaults to os.Hostname
	FlushEvery time.Duration // default 2s
	Level      slog.Leveler  // default Info
}

type appender interface {
	Create(ctx context.Context, o *appendblob.CreateOptions) (appendblob.CreateResponse, error)
	AppendBlock(ctx context.Context, body io.ReadSeekCloser, o *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error)
}

type Handler struct {
	cfg  Config
	open func(name string) appender
	now  func() time.Time

	ch     chan []byte
	stop   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// owned by loop
	current     appender
	currentName string
}

// New starts a handler appending to blobs in cfg.Container through client.
func New(client *azblob.Client, cfg Config) *Handler {
	container := client.ServiceClient().NewContainerClient(cfg.Container)
	return newHandler(cfg, func(name string) appender {
		return container.NewAppendBlobClient(name)
	})
}

func newHandler(cfg Config, open func(string) appender) *Handler {
	if cfg.Host == "" {
		cfg.Host, _ = os.Hostname()
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = 2 * time.Second
	}
	if cfg.Level == nil {
		cfg.Level = slog.LevelInfo
	}
	stop, cancel := context.WithCancel(context.Background())
	h := &Handler{
		cfg:    cfg,
		open:   open,
		now:    time.Now,
		ch:     make(chan []byte, 1024),
		stop:   stop,
		cancel: cancel,
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

// Close stops accepting records and flushes what is buffered.
func (h *Handler) Close() error {
	h.cancel()
	h.wg.Wait()
	return nil
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.Level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	if err := h.stop.Err(); err != nil {
		return err
	}
	ev := make(map[string]any, r.NumAttrs()+3)
	ts := r.Time
	if ts.IsZero() {
		ts = h.now()
	}
	ev["time"] = ts.UTC().Format(time.RFC3339Nano)
	ev["level"] = r.Level.String()
	ev["msg"] = r.Message

	r.Attrs(func(a slog.Attr) bool {
		addAttr(ev, a)
		return true
	})

	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return err
	}

	select {
	case h.ch <- b.Bytes():
		return nil
	case <-h.stop.Done():
		return h.stop.Err()
	}
}

func addAttr(ev map[string]any, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() != slog.KindGroup {
		if err, ok := a.Value.Any().(error); ok {
			ev[a.Key] = err.Error()
			return
		}
		ev[a.Key] = a.Value.Any()
		return
	}
	m := map[string]any{}
	for _, aa := range a.Value.Group() {
		addAttr(m, aa)
	}
	ev[a.Key] = m
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{Handler: h, attrs: attrs}
}

// WithGroup is a no-op; group names are dropped and their attrs stay flat.
func (h *Handler) WithGroup(string) slog.Handler { return h }

func (h *Handler) loop() {
	defer h.wg.Done()
	ticker := time.NewTicker(h.cfg.FlushEvery)
	defer ticker.Stop()

	var buf []byte
	flush := func(ctx context.Context) {
		if len(buf) == 0 {
			return
		}
		if err := h.append(ctx, buf); err != nil {
			// slog would loop back into this handler
			fmt.Fprintf(os.Stderr, "logsink: dropping %d bytes: %v\n", len(buf), err)
		}
		buf = buf[:0]
	}

	for {
		select {
		case <-h.stop.Done():
		drain:
			for {
				select {
				case line := <-h.ch:
					buf = append(buf, line...)
				default:
					break drain
				}
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(ctx)
			cancel()
			return
		case line := <-h.ch:
			buf = append(buf, line...)
			if len(buf) >= maxPending {
				flush(h.stop)
			}
		case <-ticker.C:
			flush(h.stop)
		}
	}
}

func (h *Handler) append(ctx context.Context, data []byte) error {
	name := BlobName(h.cfg.Prefix, h.cfg.Host, h.now())
	if name != h.currentName {
		ab := h.open(name)
		if _, err := ab.Create(ctx, nil); err != nil && !bloberror.HasCode(err, bloberror.BlobAlreadyExists) {
			return fmt.Errorf("create %s: %w", name, err)
		}
		h.current, h.currentName = ab, name
	}
	_, err := h.current.AppendBlock(ctx, readSeekNopCloser{bytes.NewReader(data)}, nil)
	return err
}

type withAttrs struct {
	*Handler
	attrs []slog.Attr
}

func (w *withAttrs) Handle(ctx context.Context, r slog.Record) error {
	r2 := r.Clone()
	r2.AddAttrs(w.attrs...)
	return w.Handler.Handle(ctx, r2)
}

func (w *withAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &withAttrs{Handler: w.Handler, attrs: append(append([]slog.Attr{}, w.attrs...), attrs...)}
}

type readSeekNopCloser struct{ io.ReadSeeker }

func (r readSeekNopCloser) Close() error { return nil }
