package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"crossposter/pkg/models"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	progressWidth = 20
	captionWidth  = 40
)

// PublishProgress prints one line per published post with a progress bar
type PublishProgress struct {
	mu        sync.Mutex
	total     int
	published int
	failed    int
	startTime time.Time
}

// NewPublishProgress creates a progress printer
func NewPublishProgress() *PublishProgress {
	return &PublishProgress{startTime: time.Now()}
}

// Start sets the number of posts waiting to be published
func (p *PublishProgress) Start(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.startTime = time.Now()
	if total == 0 {
		emit(false, Dim("Nothing new to publish")+"\n")
		return
	}
	emit(false, fmt.Sprintf("%s %d new post(s)\n", Magenta("[QUEUED]"), total))
}

// Published records a successful post
func (p *PublishProgress) Published(post models.Post) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.published++
	emit(false, fmt.Sprintf("%s %s %s %s\n",
		Green("[POSTED]"),
		p.bar(),
		Cyan(string(post.Kind())),
		shorten(post.CaptionText, captionWidth)))
}

// Failed records a post that could not be published
func (p *PublishProgress) Failed(post models.Post, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failed++
	emit(true, fmt.Sprintf("%s %s %s: %v\n",
		Red("[FAILED]"),
		Cyan(string(post.Kind())),
		shorten(post.CaptionText, captionWidth),
		err))
}

// Counts returns published and failed totals
func (p *PublishProgress) Counts() (published, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published, p.failed
}

// Rate returns published posts per minute since Start
func (p *PublishProgress) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime).Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(p.published) / elapsed
}

func (p *PublishProgress) bar() string {
	filled := progressWidth
	if p.total > 0 {
		filled = p.published * progressWidth / p.total
	}
	if filled > progressWidth {
		filled = progressWidth
	}

	bar := strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, progressWidth-filled)
	return fmt.Sprintf("[%s] %d/%d", bar, p.published, p.total)
}

// shorten cuts s to max runes on a single line
func shorten(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return Dim("(no caption)")
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
