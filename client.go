package canc

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Client wraps a Learner with prediction tracking and optional snapshot
// persistence.
type Client struct {
	learner *Learner
	store   *Store
	session *Session
	logger  *zap.SugaredLogger
	config  Config

	mu     sync.Mutex
	closed bool
}

// PredictResult is a prediction with the reference used to label it later.
type PredictResult struct {
	Ref        string     `json:"ref"`
	Prediction Prediction `json:"prediction"`
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Logger == nil && (cfg.Debug || cfg.DebugLogPath != "") {
		logger, err := NewLogger(cfg.Debug, cfg.DebugLogPath)
		if err != nil {
			return nil, errors.Wrap(err, "client")
		}
		cfg.Logger = logger
	}

	learner, err := NewLearner(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "client")
	}

	c := &Client{
		learner: learner,
		session: NewSession(0),
		logger:  orNop(cfg.Logger),
		config:  cfg,
	}

	if cfg.Persistent() {
		store, err := NewStore(cfg.LocalPath)
		if err != nil {
			return nil, errors.Wrap(err, "client")
		}
		c.store = store
	}
	return c, nil
}

func (c *Client) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// Learn processes one labelled record.
func (c *Client) Learn(ctx context.Context, rec Record) (*LearnResult, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	res, err := c.learner.Learn(rec)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Predict scores an unlabelled record and tracks it so Label can learn it.
func (c *Client) Predict(ctx context.Context, rec Record) (*PredictResult, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	pred := c.learner.Predict(rec)
	ref := c.session.Track(rec, pred)
	return &PredictResult{Ref: ref, Prediction: pred}, nil
}

// Label supplies the true label of a tracked prediction and learns the
// record. A reference is learned at most once: concurrent calls for the same
// ref see ErrUnknownRef once one of them has taken it. If learning fails the
// prediction stays pending.
func (c *Client) Label(ctx context.Context, ref, label string) (*LearnResult, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	pending, ok := c.session.Resolve(ref)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownRef, "%q", ref)
	}

	rec := pending.Record
	rec.Label = label
	res, err := c.learner.Learn(rec)
	if err != nil {
		c.session.Restore(pending)
		return nil, err
	}
	return &res, nil
}

// Rules returns the current rules.
func (c *Client) Rules() []Rule {
	return c.learner.Rules()
}

// Concepts returns the current concepts.
func (c *Client) Concepts() []Concept {
	return c.learner.Concepts()
}

// Stats returns the learner's measurements.
func (c *Client) Stats() Stats {
	return c.learner.Stats()
}

// Snapshot returns the current model.
func (c *Client) Snapshot() Model {
	return c.learner.Snapshot()
}

// Learner returns the underlying learner.
func (c *Client) Learner() *Learner {
	return c.learner
}

// Store returns the snapshot store, or nil when persistence is off.
func (c *Client) Store() *Store {
	return c.store
}

// Checkpoint saves the current model as a snapshot.
func (c *Client) Checkpoint(ctx context.Context, label string) (*SnapshotInfo, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	if c.store == nil {
		return nil, ErrNoStore
	}

	info, err := c.store.SaveSnapshot(ctx, c.learner.Snapshot(), label)
	if err != nil {
		return nil, err
	}
	c.logger.Infow("checkpoint saved", "id", info.ID, "rules", info.RuleCount, "concepts", info.ConceptCount)
	return info, nil
}

// Close releases the snapshot store. It does not save a snapshot.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.logger.Sync()
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
