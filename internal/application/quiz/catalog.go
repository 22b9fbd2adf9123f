// Package quiz loads, validates and serves the quiz definitions the scoring
// engine runs against. The built-in definitions are embedded in the binary;
// an optional directory can override them per type and is hot-reloaded.
package quiz

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/SIMPLE/internal/domain/maturity"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/prometheus"
)

// Provider is the read side of the catalog used by the services.
type Provider interface {
	Get(t maturity.EvaluationType) (*maturity.Quiz, error)
}

// Options configures a Catalog.
type Options struct {
	// Dir is an optional override directory holding initial.yaml and/or
	// advanced.yaml. Types without a file there keep the embedded definition.
	Dir     string
	Scoring maturity.ScoringConfig
}

// Catalog holds an immutable snapshot of the current quizzes.
type Catalog struct {
	opts    Options
	logger  logging.Logger
	metrics *prometheus.AppMetrics

	mu      sync.RWMutex
	quizzes map[maturity.EvaluationType]*maturity.Quiz

	group singleflight.Group
}

// NewCatalog builds a catalog and performs the first load. A broken embedded
// or override definition fails construction.
func NewCatalog(opts Options, logger logging.Logger, metrics *prometheus.AppMetrics) (*Catalog, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Catalog{
		opts:    opts,
		logger:  logger.Named("quiz"),
		metrics: metrics,
	}
	if err := c.Reload(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the quiz for t. The returned value is shared and must not be
// modified.
func (c *Catalog) Get(t maturity.EvaluationType) (*maturity.Quiz, error) {
	c.mu.RLock()
	qz, ok := c.quizzes[t]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	return qz, nil
}

// Types lists the loaded types in sorted order.
func (c *Catalog) Types() []maturity.EvaluationType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]maturity.EvaluationType, 0, len(c.quizzes))
	for t := range c.quizzes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reload rebuilds the snapshot from the embedded definitions and the override
// directory. On error the previous snapshot stays in place. Concurrent calls
// share one load.
func (c *Catalog) Reload(ctx context.Context) error {
	_, err, _ := c.group.Do("reload", func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := c.load()
		prometheus.RecordQuizReload(c.metrics, err == nil)
		if err != nil {
			c.logger.Error("quiz reload failed", logging.Err(err))
			return nil, err
		}
		c.mu.Lock()
		c.quizzes = next
		c.mu.Unlock()

		for t, qz := range next {
			prometheus.SetQuizQuestions(c.metrics, t.String(), len(qz.Questions))
			c.checkMax(qz)
		}
		c.logger.Info("quizzes loaded", logging.Int("count", len(next)), logging.String("dir", c.opts.Dir))
		return nil, nil
	})
	return err
}

func (c *Catalog) load() (map[maturity.EvaluationType]*maturity.Quiz, error) {
	out := make(map[maturity.EvaluationType]*maturity.Quiz, 2)
	for _, t := range []maturity.EvaluationType{maturity.TypeInitial, maturity.TypeAdvanced} {
		name := FileName(t)
		if c.opts.Dir != "" {
			path := filepath.Join(c.opts.Dir, name)
			qz, err := LoadFile(path)
			if err == nil {
				out[t] = qz
				continue
			}
			if !stderrors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
		data, err := assets.ReadFile("quizzes/" + name)
		if err != nil {
			return nil, fmt.Errorf("%w: embedded %s: %v", ErrLoadFailed, name, err)
		}
		qz, err := Parse(data, name)
		if err != nil {
			return nil, err
		}
		out[t] = qz
	}
	return out, nil
}

// checkMax warns when a quiz's attainable total differs from the configured
// maximum used for classification. Such a quiz is still served.
func (c *Catalog) checkMax(qz *maturity.Quiz) {
	want := c.opts.Scoring.MaxScore(qz.Type)
	if got := qz.MaxScore(); got != want {
		c.logger.Warn("quiz max score differs from configured max",
			logging.String(logging.KeyEvalType, qz.Type.String()),
			logging.Int("quiz_max", got),
			logging.Int("configured_max", want))
	}
}

// Watch reloads the catalog whenever a YAML file in the override directory
// changes. It blocks until ctx is done. Without a directory it returns
// immediately.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.opts.Dir == "" {
		return nil
	}
	if _, err := os.Stat(c.opts.Dir); err != nil {
		return fmt.Errorf("%w: watch %s: %v", ErrLoadFailed, c.opts.Dir, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer w.Close()
	if err := w.Add(c.opts.Dir); err != nil {
		return fmt.Errorf("%w: watch %s: %v", ErrLoadFailed, c.opts.Dir, err)
	}
	c.logger.Info("watching quiz directory", logging.String("dir", c.opts.Dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isQuizEvent(ev) {
				continue
			}
			c.logger.Debug("quiz file changed", logging.String("file", ev.Name), logging.String("op", ev.Op.String()))
			// The previous snapshot stays live on failure; Reload already logged it.
			_ = c.Reload(ctx)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("quiz watcher error", logging.Err(err))
		}
	}
}

func isQuizEvent(ev fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(ev.Name), ".yaml") {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
