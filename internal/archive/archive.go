// Package archive mirrors electionline weekly pages into a local cache so
// listing parsing never refetches a week it already has.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/scraper"
)

// Config controls the mirror.
type Config struct {
	BaseURL   string
	CacheDir  string
	FirstYear int
	// LastYear bounds the sync; zero means the current year.
	LastYear int
}

// WeekPage is one cached weekly page.
type WeekPage struct {
	Year int
	Date string
	Path string
}

// Downloader syncs the remote weekly archive into CacheDir.
type Downloader struct {
	cfg     Config
	fetcher scraper.Fetcher
	logger  *zap.Logger
}

// New builds a Downloader on top of any Fetcher; the static fetcher is the
// intended one, the archive serves plain HTML.
func New(cfg Config, fetcher scraper.Fetcher, logger *zap.Logger) *Downloader {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://electionline.org"
	}
	if cfg.FirstYear == 0 {
		cfg.FirstYear = 2011
	}
	return &Downloader{cfg: cfg, fetcher: fetcher, logger: logger}
}

// Sync downloads every week page not yet cached and returns the pages it
// added. Individual week failures are logged and skipped; a year index that
// cannot be fetched fails the sync.
func (d *Downloader) Sync(ctx context.Context) ([]WeekPage, error) {
	var added []WeekPage
	lastYear := d.cfg.LastYear
	if lastYear == 0 {
		lastYear = time.Now().Year()
	}
	for year := d.cfg.FirstYear; year <= lastYear; year++ {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		pages, err := d.syncYear(ctx, year)
		if err != nil {
			return added, fmt.Errorf("sync year %d: %w", year, err)
		}
		added = append(added, pages...)
	}
	return added, nil
}

func (d *Downloader) syncYear(ctx context.Context, year int) ([]WeekPage, error) {
	indexURL := fmt.Sprintf("%s/electionline-weekly/%d", d.cfg.BaseURL, year)
	result, err := d.fetcher.Fetch(ctx, scraper.FetchTarget{URL: indexURL})
	if err != nil {
		return nil, fmt.Errorf("fetch year index: %w", err)
	}

	links, err := weekLinks(result.HTML, indexURL)
	if err != nil {
		return nil, err
	}

	yearDir := filepath.Join(d.cfg.CacheDir, strconv.Itoa(year))
	var added []WeekPage
	for _, link := range links {
		date := path.Base(strings.TrimSuffix(link, "/"))
		dest := filepath.Join(yearDir, date+".html")
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return added, err
		}
		page, err := d.fetcher.Fetch(ctx, scraper.FetchTarget{URL: link})
		if err != nil {
			d.logger.Warn("week page fetch failed",
				zap.String("url", link), zap.Error(err))
			continue
		}
		if err := os.MkdirAll(yearDir, 0o755); err != nil {
			return added, fmt.Errorf("create cache dir: %w", err)
		}
		if err := os.WriteFile(dest, page.HTML, 0o644); err != nil {
			return added, fmt.Errorf("write week page: %w", err)
		}
		d.logger.Info("cached weekly page",
			zap.Int("year", year), zap.String("week", date))
		added = append(added, WeekPage{Year: year, Date: date, Path: dest})
	}
	return added, nil
}

// weekLinks pulls the ul.weeks anchor targets off a year index page,
// resolved against the index URL.
func weekLinks(html []byte, indexURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse year index: %w", err)
	}
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("parse index url: %w", err)
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("ul.weeks a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref).String()
		if !seen[resolved] {
			seen[resolved] = true
			links = append(links, resolved)
		}
	})
	return links, nil
}

// LocalWeeks lists every cached page, oldest year first, dates ascending
// within the year.
func (d *Downloader) LocalWeeks() ([]WeekPage, error) {
	years, err := os.ReadDir(d.cfg.CacheDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	var pages []WeekPage
	for _, y := range years {
		year, err := strconv.Atoi(y.Name())
		if !y.IsDir() || err != nil {
			continue
		}
		yearDir := filepath.Join(d.cfg.CacheDir, y.Name())
		files, err := os.ReadDir(yearDir)
		if err != nil {
			return nil, fmt.Errorf("read year dir: %w", err)
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".html") {
				continue
			}
			pages = append(pages, WeekPage{
				Year: year,
				Date: strings.TrimSuffix(f.Name(), ".html"),
				Path: filepath.Join(yearDir, f.Name()),
			})
		}
	}
	sort.Slice(pages, func(i, j int) bool {
		if pages[i].Year != pages[j].Year {
			return pages[i].Year < pages[j].Year
		}
		return pages[i].Date < pages[j].Date
	})
	return pages, nil
}
