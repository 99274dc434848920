package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultImageCap bounds how many creatives get an image per request.
	DefaultImageCap = 3
	// DefaultImageTimeout is the deadline of each image synthesis task.
	DefaultImageTimeout = 30 * time.Second
)

// Synthesizer fans out image generation for a batch of creatives.
type Synthesizer struct {
	llm     LLMClient
	router  *Router
	model   string
	cap     int
	timeout time.Duration
	logger  *zap.Logger
}

// SynthSettings configures the image fan-out.
type SynthSettings struct {
	Model   string
	Cap     int
	Timeout time.Duration
}

func NewSynthesizer(llm LLMClient, router *Router, settings SynthSettings, logger *zap.Logger) *Synthesizer {
	if settings.Cap <= 0 {
		settings.Cap = DefaultImageCap
	}
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultImageTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		llm:     llm,
		router:  router,
		model:   settings.Model,
		cap:     settings.Cap,
		timeout: settings.Timeout,
		logger:  logger,
	}
}

// Run attaches an image or a failure note to each of the first cap creatives and
// returns once every task has finished or hit its deadline. Failures stay on the
// owning creative; creatives past the cap are left untouched.
func (s *Synthesizer) Run(ctx context.Context, creatives []Creative) {
	n := min(len(creatives), s.cap)
	if n == 0 {
		return
	}
	route, routeErr := s.router.Resolve(s.model)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		c := &creatives[i]
		g.Go(func() error {
			start := time.Now()
			if routeErr != nil {
				c.ImageNote = failureNote(routeErr, s.timeout)
			} else {
				s.synthesize(ctx, route, c)
			}
			s.logger.Debug("image task finished",
				zap.Int("index", i),
				zap.Bool("ok", c.ImageData != ""),
				zap.Duration("took", time.Since(start)))
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Synthesizer) synthesize(ctx context.Context, route Route, c *Creative) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		comp Completion
		err  error
	}
	// Buffered so the call can finish after the deadline without blocking.
	done := make(chan result, 1)
	go func() {
		comp, err := s.llm.Complete(tctx, route, BuildImagePrompt(c.VisualPrompt))
		done <- result{comp, err}
	}()

	var comp Completion
	var err error
	select {
	case r := <-done:
		comp, err = r.comp, r.err
	case <-tctx.Done():
		err = tctx.Err()
	}
	if err == nil && len(comp.Images) == 0 {
		err = errors.New("model returned no image")
	}
	if err != nil {
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			err = context.DeadlineExceeded
		}
		s.logger.Warn("image synthesis failed", zap.String("headline", c.Headline), zap.Error(err))
		c.ImageNote = failureNote(err, s.timeout)
		return
	}
	c.ImageData = comp.Images[0]
}

func failureNote(err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("Image generation timed out after %s. Use the visual prompt to generate it manually.", timeout)
	}
	return fmt.Sprintf("Image generation failed (%s). Use the visual prompt to generate it manually.", KindOf(Classify(err)))
}
