package reviewer

import (
	"log/slog"

	"github.com/nsxbet/ddl-validator/pkg/advisor"
	"github.com/nsxbet/ddl-validator/pkg/config"
	"github.com/nsxbet/ddl-validator/pkg/dml"
)

// Option is a functional option for customizing a Reviewer.
type Option func(*Reviewer)

// WithConfig replaces the default configuration.
//
// Example:
//
//	cfg, err := config.LoadFromFile(".ddl-validator.yaml")
//	if err != nil {
//	    return err
//	}
//	r := reviewer.New(reviewer.WithConfig(cfg))
func WithConfig(cfg *config.Config) Option {
	return func(r *Reviewer) {
		if cfg != nil {
			r.config = cfg
		}
	}
}

// WithAdvisory enables the advisory checks of the SYNTAX and STANDARDS stages.
//
// Advisory findings are labeled as such in the report. When the advisory
// cannot be reached the syntax check is treated as inconclusive, while the
// standards check records a stage error.
func WithAdvisory(client advisor.Client) Option {
	return func(r *Reviewer) {
		r.advisory = client
	}
}

// WithKnowledge provides the standards documents the STANDARDS stage sends to
// the advisory.
func WithKnowledge(knowledge advisor.KnowledgeSearch) Option {
	return func(r *Reviewer) {
		r.knowledge = knowledge
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reviewer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithExtractor replaces the reference extractor used for DML statements.
func WithExtractor(extractor dml.Extractor) Option {
	return func(r *Reviewer) {
		r.extractor = extractor
	}
}

// WithConnectionErrorClassifier overrides how stage errors are recognized as
// connection failures. The default is db.IsConnectionError.
func WithConnectionErrorClassifier(fn func(error) bool) Option {
	return func(r *Reviewer) {
		if fn != nil {
			r.isConnectionError = fn
		}
	}
}
