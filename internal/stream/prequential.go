package stream

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/hyperengineering/canc"
)

// Source yields records until io.EOF.
type Source interface {
	Next() (canc.Record, error)
}

// Learner is the test-then-train interface a prequential run drives.
// *canc.Client satisfies it.
type Learner interface {
	Learn(ctx context.Context, rec canc.Record) (*canc.LearnResult, error)
}

// Point is one sample of the learning curve.
type Point struct {
	Records  int     `json:"records"`
	Accuracy float64 `json:"accuracy"`
	Window   float64 `json:"window_accuracy"`
}

// Summary is the outcome of a prequential run.
type Summary struct {
	Records   int     `json:"records"`
	Skipped   int     `json:"skipped"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Rejected  int     `json:"rejected"`
	Rebuilds  int     `json:"rebuilds"`
	Curve     []Point `json:"curve,omitempty"`
}

// Predictions returns the number of test-then-train predictions.
func (s Summary) Predictions() int {
	return s.Correct + s.Incorrect + s.Rejected
}

// Accuracy is the share of predictions that were correct. Rejections count
// as misses.
func (s Summary) Accuracy() float64 {
	if s.Predictions() == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions())
}

// Prequential evaluates a learner on a stream.
type Prequential struct {
	// Every samples the learning curve every Every records. Zero disables it.
	Every int

	// SkipInvalid drops unlabelled or empty records instead of failing.
	SkipInvalid bool

	// Limit stops after Limit records. Zero reads the whole stream.
	Limit int

	// OnSample is called with each curve point as it is taken.
	OnSample func(Point)

	Logger *zap.SugaredLogger
}

// Run feeds every record of src to l and tallies the outcomes. It stops at
// io.EOF, at Limit, or when ctx is cancelled; the summary so far is
// returned with the error in the latter case.
func (p *Prequential) Run(ctx context.Context, src Source, l Learner) (Summary, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	var (
		sum                Summary
		winCorrect, winAll int
	)
	for p.Limit == 0 || sum.Records < p.Limit {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sum, err
		}

		res, err := l.Learn(ctx, rec)
		if err != nil {
			if p.SkipInvalid && (errors.Is(err, canc.ErrMissingLabel) || errors.Is(err, canc.ErrEmptyRecord)) {
				sum.Skipped++
				logger.Debugw("skipping record", "record", sum.Records+sum.Skipped, "error", err)
				continue
			}
			return sum, errors.Wrapf(err, "record %d", sum.Records+sum.Skipped+1)
		}
		sum.Records++

		switch res.Outcome {
		case canc.OutcomeCorrect:
			sum.Correct++
			winCorrect++
			winAll++
		case canc.OutcomeIncorrect:
			sum.Incorrect++
			winAll++
		case canc.OutcomeRejected:
			sum.Rejected++
			winAll++
		}
		if res.Rebuilt {
			sum.Rebuilds++
		}
		if res.Built {
			logger.Infow("grace period complete", "records", sum.Records)
		}

		if p.Every > 0 && sum.Records%p.Every == 0 {
			pt := Point{Records: sum.Records, Accuracy: sum.Accuracy()}
			if winAll > 0 {
				pt.Window = float64(winCorrect) / float64(winAll)
			}
			winCorrect, winAll = 0, 0
			sum.Curve = append(sum.Curve, pt)
			if p.OnSample != nil {
				p.OnSample(pt)
			}
		}
	}
	return sum, nil
}
