package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"g2-yoyodex/internal/logger"
)

const maxImageBytes = 32 << 20

// Outcome is what happened to one task.
type Outcome string

const (
	OutcomeSaved   Outcome = "saved"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result reports one finished task.
type Result struct {
	Task     Task
	Outcome  Outcome
	Attempts int
	Err      error
}

// Report totals a run.
type Report struct {
	Saved    int      `json:"saved"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Failures []Result `json:"-"`
}

// Config tunes a Downloader.
type Config struct {
	Workers       int
	Retries       int
	RetryDelay    time.Duration // doubled after every failed attempt
	RatePerSecond float64       // 0 = unlimited
	ThumbWidth    int           // 0 = no thumbnails
	UserAgent     string
}

// DefaultConfig mirrors ten images at a time with three attempts each.
func DefaultConfig() Config {
	return Config{
		Workers:       10,
		Retries:       3,
		RetryDelay:    2 * time.Second,
		RatePerSecond: 5,
	}
}

// Downloader fetches images with a bounded worker pool.
type Downloader struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewDownloader creates a downloader. A nil client gets a 30s timeout client.
func NewDownloader(cfg Config, client *http.Client, log *logger.Logger) *Downloader {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 1
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Downloader{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(limit, cfg.Workers),
		log:     logger.OrNop(log).Component("images"),
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run processes tasks and calls onDone, serially, after each one. A failed
// task never stops the others; Run only returns an error when ctx ends.
func (d *Downloader) Run(ctx context.Context, tasks []Task, onDone func(Result)) (Report, error) {
	var (
		mu     sync.Mutex
		report Report
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			res := d.process(gctx, task)
			if res.Outcome == OutcomeFailed && gctx.Err() != nil {
				return gctx.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			switch res.Outcome {
			case OutcomeSaved:
				report.Saved++
			case OutcomeSkipped:
				report.Skipped++
			case OutcomeFailed:
				report.Failed++
				report.Failures = append(report.Failures, res)
			}
			if onDone != nil {
				onDone(res)
			}
			return nil
		})
	}

	err := g.Wait()
	d.log.Info("mirror finished", "saved", report.Saved, "skipped", report.Skipped, "failed", report.Failed)
	return report, err
}

func (d *Downloader) process(ctx context.Context, task Task) Result {
	res := Result{Task: task}
	if _, err := os.Stat(task.Path); err == nil {
		res.Outcome = OutcomeSkipped
		return res
	}

	var data []byte
	for attempt := 1; attempt <= d.cfg.Retries; attempt++ {
		res.Attempts = attempt
		if err := d.limiter.Wait(ctx); err != nil {
			res.Outcome, res.Err = OutcomeFailed, err
			return res
		}

		var err error
		data, err = d.fetch(ctx, task.URL)
		if err == nil {
			res.Err = nil
			break
		}
		res.Err = err
		d.log.Debug("download attempt failed", "url", task.URL, "attempt", attempt, "error", err)

		if attempt < d.cfg.Retries {
			backoff := d.cfg.RetryDelay << (attempt - 1)
			if err := d.sleep(ctx, backoff); err != nil {
				res.Err = err
				break
			}
		}
	}
	if res.Err != nil {
		res.Outcome = OutcomeFailed
		d.log.Warn("download failed", "url", task.URL, "path", task.Path, "error", res.Err)
		return res
	}

	if err := writeFile(task.Path, data); err != nil {
		res.Outcome, res.Err = OutcomeFailed, err
		return res
	}
	res.Outcome = OutcomeSaved

	if d.cfg.ThumbWidth > 0 {
		if err := writeThumbnail(task.Path, data, d.cfg.ThumbWidth); err != nil {
			d.log.Warn("thumbnail failed", "path", task.Path, "error", err)
		}
	}
	return res
}

func (d *Downloader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, errors.New("image too large")
	}
	return data, nil
}

// writeFile writes through a temp file so an interrupted run never leaves
// a partial image that the next run would skip.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ThumbnailPath is where the thumbnail of the image at path is written.
func ThumbnailPath(path string) string {
	return filepath.Join(filepath.Dir(path), "thumbs", filepath.Base(path))
}

func writeThumbnail(path string, data []byte, width int) error {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	thumb := ThumbnailPath(path)
	if err := os.MkdirAll(filepath.Dir(thumb), 0o755); err != nil {
		return err
	}
	return imaging.Save(img, thumb, imaging.JPEGQuality(75))
}
