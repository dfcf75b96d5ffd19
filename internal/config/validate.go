package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced but does not
	// block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "transform[1].options.indexes").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains at least one error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Known kinds per section. Unknown kinds are warnings so that backends
// registered out of tree still validate.
var (
	knownSources    = []string{"file", "none"}
	knownParsers    = []string{"csv", "json", "generate"}
	knownStorages   = []string{"sqlite", "postgres", "mssql", "mysql", "csv"}
	knownTransforms = []string{"filter", "normalize", "select", "sort", "distinct", "dedup", "group", "pivot", "unpivot", "log", "require"}
	knownAggregates = []string{"first", "last", "count", "summary"}
	knownPolicies   = []string{"keep-first", "keep-last", "most-complete"}
)

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source, p.Parser)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateTransforms(p.Transform)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

func validateSource(s Source, p Parser) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		if p.Kind == "generate" {
			return nil
		}
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
	}
	if !contains(knownSources, s.Kind) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "none":
		if p.Kind != "generate" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.kind",
				Message:  fmt.Sprintf("source kind \"none\" only works with the generate parser, not %q", p.Kind),
			})
		}
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Kind) == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  "parser.kind must not be empty",
		})
	}
	if !contains(knownParsers, p.Kind) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q; ensure a matching implementation exists", p.Kind),
		})
	}

	switch p.Kind {
	case "csv":
		if c := p.Options.String("comma", ","); len([]rune(c)) != 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.options.comma",
				Message:  fmt.Sprintf("comma must be a single character, got %q", c),
			})
		}
	case "generate":
		if p.Options.Int("count", -1) < 0 && p.Options.Int("until_index", -1) < 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "parser.options",
				Message:  "generate parser has neither count nor until_index; it will run until cancelled",
			})
		}
	}
	return issues
}

func validateTransforms(ts []Transform) []Issue {
	var issues []Issue

	if len(ts) == 0 {
		return append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transform",
			Message:  "no transforms configured; parsed records will be written as-is",
		})
	}

	for i, t := range ts {
		path := fmt.Sprintf("transform[%d].kind", i)
		opt := func(name string) string { return fmt.Sprintf("transform[%d].options.%s", i, name) }

		if strings.TrimSpace(t.Kind) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "transform kind must not be empty",
			})
			continue
		}
		if !contains(knownTransforms, t.Kind) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("unknown transform kind %q", t.Kind),
			})
			continue
		}

		switch t.Kind {
		case "select":
			if len(t.Options.IntSlice("indexes")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("indexes"),
					Message:  "select requires at least one index",
				})
			}
		case "require":
			if len(t.Options.IntSlice("indexes")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     opt("indexes"),
					Message:  "require without indexes keeps every record",
				})
			}
		case "dedup":
			if p := t.Options.String("policy", ""); p != "" && !contains(knownPolicies, strings.ToLower(p)) {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("policy"),
					Message:  fmt.Sprintf("unknown dedup policy %q", p),
				})
			}
		case "group":
			if a := t.Options.String("aggregate", "first"); !contains(knownAggregates, a) {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("aggregate"),
					Message:  fmt.Sprintf("unknown aggregate %q", a),
				})
			}
		case "pivot":
			if len(t.Options.IntSlice("key_indexes")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     opt("key_indexes"),
					Message:  "pivot without key indexes folds the whole input into one record",
				})
			}
			if len(t.Options.StringSlice("labels")) > 0 {
				if t.Options.Int("label_index", -1) < 0 || t.Options.Int("value_index", -1) < 0 {
					issues = append(issues, Issue{
						Severity: SeverityError,
						Path:     opt("labels"),
						Message:  "classification pivot requires label_index and value_index",
					})
				}
			} else if t.Options.Int("new_record_size", 0) <= 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("new_record_size"),
					Message:  "index pivot requires a positive new_record_size",
				})
			}
		case "unpivot":
			if len(t.Options.IntSlice("value_indexes")) == 0 && t.Options.Any("value_groups") == nil {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     opt("value_indexes"),
					Message:  "unpivot requires value_indexes or value_groups",
				})
			}
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
	}
	if !contains(knownStorages, s.Kind) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	db := s.DB
	if strings.TrimSpace(db.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	if s.Kind != "csv" && strings.TrimSpace(db.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  "storage.db.table must not be empty",
		})
	}
	if len(db.Columns) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.columns",
			Message:  "storage.db.columns must not be empty; at least one destination column is required",
		})
	}
	seen := map[string]bool{}
	for _, c := range db.AllColumns() {
		if seen[c] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.columns",
				Message:  fmt.Sprintf("column %q is listed more than once", c),
			})
		}
		seen[c] = true
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}
	return issues
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
