package diff

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Strategy is one way of turning canonical diff text into concrete writes.
type Strategy struct {
	Name  string
	Apply func(root, text string) ([]RewrittenFile, error)
}

// Strategies returns the fallback chain in the order it is attempted:
// full-file rewrite, then loose content-anchored application, then strict
// positional replay. Strict is omitted entirely when headers are
// untrustworthy, since positional replay with corrected numbers is known
// unreliable.
func Strategies(untrustworthyHeaders bool) []Strategy {
	s := []Strategy{
		{Name: "full-rewrite", Apply: fullRewriteStrategy},
		{Name: "loose", Apply: looseStrategy},
	}
	if !untrustworthyHeaders {
		s = append(s, Strategy{Name: "strict", Apply: strictStrategy})
	}
	return s
}

// Fallback runs the strategy chain and returns the first non-empty write set
// along with the name of the strategy that produced it. Strategies are never
// mixed across files within one call. When every strategy declines, the
// aggregated per-strategy errors are returned.
func Fallback(root, text string, untrustworthyHeaders bool) ([]RewrittenFile, string, error) {
	var errs error
	for _, s := range Strategies(untrustworthyHeaders) {
		files, err := s.Apply(root, text)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		if len(files) > 0 {
			return files, s.Name, nil
		}
		errs = multierr.Append(errs, fmt.Errorf("%s: produced no writes", s.Name))
	}
	return nil, "", errs
}

func fullRewriteStrategy(root, text string) ([]RewrittenFile, error) {
	diffs, err := ParseLoose(text)
	if err != nil {
		return nil, err
	}
	files := DetectFullRewrite(diffs)
	if len(files) == 0 {
		return nil, errors.New("diff is not a full-file rewrite")
	}
	return files, nil
}

func looseStrategy(root, text string) ([]RewrittenFile, error) {
	diffs, err := ParseLoose(text)
	if err != nil {
		return nil, err
	}
	return ApplyLoose(root, diffs)
}

func strictStrategy(root, text string) ([]RewrittenFile, error) {
	diffs, err := ParseStrict(text)
	if err != nil {
		return nil, err
	}
	files, err := ApplyStrict(root, diffs)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no files rewritten")
	}
	return files, nil
}
