package pipeline

import (
	"cmp"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"recflow/internal/config"
	"recflow/internal/logging"
	"recflow/internal/transformer"
	"recflow/internal/transformer/builtin"
	"recflow/pkg/records"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Modifier is the record-to-record transform the pipeline runs.
type Modifier = transformer.Modifier[records.Record, records.Record]

type stageBuilder func(t config.Transform, log *zap.Logger) (Modifier, error)

var stageBuilders = map[string]stageBuilder{
	"filter":    buildFilter,
	"normalize": buildNormalize,
	"select":    buildSelect,
	"sort":      buildSort,
	"distinct":  buildDistinct,
	"dedup":     buildDedup,
	"group":     buildGroup,
	"pivot":     buildPivot,
	"unpivot":   buildUnpivot,
	"log":       buildLog,
	"require":   buildRequire,
}

// StageKinds lists the transform kinds Build understands.
func StageKinds() []string {
	out := make([]string, 0, len(stageBuilders))
	for k := range stageBuilders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build compiles the configured transforms into one modifier. Every stage is
// instrumented under its stage name.
func Build(job string, ts []config.Transform, log *zap.Logger) (Modifier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	mods := make([]Modifier, 0, len(ts))
	for i, t := range ts {
		b, ok := stageBuilders[t.Kind]
		if !ok {
			return nil, fmt.Errorf("pipeline: transform[%d]: unsupported kind %q", i, t.Kind)
		}
		m, err := b(t, log)
		if err != nil {
			return nil, fmt.Errorf("pipeline: transform[%d] %s: %w", i, t.Kind, err)
		}
		mods = append(mods, transformer.Instrument(job, t.StageName(), m))
	}
	return transformer.Chain(mods...), nil
}

func buildFilter(t config.Transform, _ *zap.Logger) (Modifier, error) {
	o := t.Options
	var f records.Filter
	switch {
	case o.Any("category") != nil:
		f = records.CategoryEquals(o.String("category", ""))
	case o.Bool("has_category", false):
		f = records.HasCategory()
	case o.Bool("has_record_id", false):
		f = records.HasRecordID()
	case o.Any("equals") != nil:
		f = records.TextEquals(o.Int("index", 0), o.String("equals", ""))
	case o.Any("matches") != nil:
		re, err := regexp.Compile(o.String("matches", ""))
		if err != nil {
			return nil, fmt.Errorf("matches: %w", err)
		}
		f = records.MessageMatches(records.TextMessage(o.Int("index", 0)), func(t records.Text) bool {
			v, ok := t.Get()
			return ok && re.MatchString(v)
		})
	case o.Any("size") != nil:
		f = records.SizeEquals(o.Int("size", 0))
	case o.Any("index") != nil:
		f = records.TextPresent(o.Int("index", 0), o.Bool("non_empty", false))
	default:
		return nil, fmt.Errorf("filter needs one of category, has_category, has_record_id, equals, matches, size or index")
	}
	if o.Bool("not", false) {
		f = records.Not(f)
	}
	return transformer.Filter(f), nil
}

func buildNormalize(t config.Transform, _ *zap.Logger) (Modifier, error) {
	n := builtin.Normalize{
		Indexes:         t.Options.IntSlice("indexes"),
		StripDiacritics: t.Options.Bool("strip_diacritics", false),
		Lower:           t.Options.Bool("lower", false),
		StripMarkup:     t.Options.Bool("strip_markup", false),
		CollapseSpace:   t.Options.Bool("collapse_space", false),
	}
	return transformer.Map(n.Mapper()), nil
}

func buildSelect(t config.Transform, _ *zap.Logger) (Modifier, error) {
	idx := t.Options.IntSlice("indexes")
	if len(idx) == 0 {
		return nil, fmt.Errorf("indexes must not be empty")
	}
	m := records.SelectIndexes(idx...)
	if t.Options.Bool("without_category", false) {
		m = records.AndThen(m, records.WithoutCategoryMapper())
	}
	return transformer.Map(m), nil
}

func buildSort(t config.Transform, _ *zap.Logger) (Modifier, error) {
	index := t.Options.Int("index", 0)
	var by func(a, b records.Record) int
	if tag := t.Options.String("collation", ""); tag != "" {
		lang, err := language.Parse(tag)
		if err != nil {
			return nil, fmt.Errorf("collation %q: %w", tag, err)
		}
		by = builtin.CollateBy(lang, index)
	} else {
		by = func(a, b records.Record) int {
			at, _ := a.Text(index)
			bt, _ := b.Text(index)
			av, aok := at.Get()
			bv, bok := bt.Get()
			if aok != bok {
				if aok {
					return 1
				}
				return -1
			}
			return cmp.Compare(av, bv)
		}
	}
	if t.Options.Bool("desc", false) {
		by = transformer.Reverse(by)
	}
	return transformer.Sort(by), nil
}

// keyMessage is the compare-message over indexes, or over the whole record
// when indexes is empty.
func keyMessage(indexes []int) records.NonNullMessage {
	if len(indexes) == 0 {
		return records.AllFieldsMessage()
	}
	return records.IndexesMessage(indexes...)
}

func buildDistinct(t config.Transform, _ *zap.Logger) (Modifier, error) {
	return builtin.DistinctRecords(keyMessage(t.Options.IntSlice("indexes"))), nil
}

func buildDedup(t config.Transform, _ *zap.Logger) (Modifier, error) {
	policy, err := builtin.ParsePolicy(t.Options.String("policy", ""))
	if err != nil {
		return nil, err
	}
	return builtin.DeDup{
		Key:           keyMessage(t.Options.IntSlice("indexes")),
		Policy:        policy,
		PreferIndexes: t.Options.IntSlice("prefer_indexes"),
	}.Modifier(), nil
}

func buildGroup(t config.Transform, _ *zap.Logger) (Modifier, error) {
	keys := t.Options.IntSlice("key_indexes")
	having := havingFrom(t.Options)

	var aggregate func([]records.Record) records.Record
	switch a := t.Options.String("aggregate", "first"); a {
	case "first":
		aggregate = builtin.First[records.Record]()
	case "last":
		aggregate = builtin.Last[records.Record]()
	case "count":
		values := make([]builtin.MemberText, 0, len(keys)+1)
		for _, k := range keys {
			values = append(values, builtin.FirstText(k))
		}
		aggregate = builtin.RecordOf(builtin.FirstCategory(), append(values, builtin.CountText())...)
	case "summary":
		summary := builtin.NumericSummary(t.Options.Int("value_index", 0))
		aggregate = func(members []records.Record) records.Record {
			return summary(members).Prepend(members[0].Select(keys...).Texts()...)
		}
	default:
		return nil, fmt.Errorf("unknown aggregate %q", a)
	}
	return builtin.GroupRecords(keyMessage(keys), having, aggregate), nil
}

func havingFrom(o config.Options) builtin.Having[records.Record] {
	lo, hi := o.Int("min_members", 0), o.Int("max_members", 0)
	if lo <= 0 && hi <= 0 {
		return nil
	}
	return func(members []records.Record) bool {
		return (lo <= 0 || len(members) >= lo) && (hi <= 0 || len(members) <= hi)
	}
}

// nullText reads an optional text option; an absent key is null.
func nullText(o config.Options, key string) records.Text {
	if s, ok := o.Any(key).(string); ok {
		return records.TextOf(s)
	}
	return records.NullText()
}

func buildPivot(t config.Transform, _ *zap.Logger) (Modifier, error) {
	o := t.Options
	category := builtin.FirstCategory()
	if o.Bool("without_category", false) {
		category = builtin.WithoutCategory()
	}

	if labels := o.StringSlice("labels"); len(labels) > 0 {
		labelIndex, valueIndex := o.Int("label_index", -1), o.Int("value_index", -1)
		if labelIndex < 0 || valueIndex < 0 {
			return nil, fmt.Errorf("classification pivot needs label_index and value_index")
		}
		return builtin.PivotWithClassification(builtin.ClassPivot[string]{
			KeyIndexes: o.IntSlice("key_indexes"),
			Labels:     labels,
			Classify:   func(r records.Record) string { return r.StringAt(labelIndex, "") },
			Value:      records.TextMessage(valueIndex),
			NullText:   nullText(o, "null_text"),
			Category:   category,
			Having:     havingFrom(o),
		}), nil
	}

	size := o.Int("new_record_size", 0)
	if size <= 0 {
		return nil, fmt.Errorf("new_record_size must be positive, got %d", size)
	}
	return builtin.PivotWithIndexes(builtin.IndexPivot{
		KeyIndexes:    o.IntSlice("key_indexes"),
		ValueIndexes:  o.IntSlice("value_indexes"),
		NewRecordSize: size,
		NullText:      nullText(o, "null_text"),
		Category:      category,
		Having:        havingFrom(o),
	}), nil
}

func buildUnpivot(t config.Transform, _ *zap.Logger) (Modifier, error) {
	o := t.Options
	keys := o.IntSlice("key_indexes")

	if raw := o.Any("value_groups"); raw != nil {
		groups, err := intGroups(raw)
		if err != nil {
			return nil, err
		}
		u := builtin.GroupUnpivot{KeyIndexes: keys, ValueGroups: groups}
		if names := o.StringSlice("identifiers"); len(names) > 0 {
			u.Identifier = func(i int) string {
				if i < len(names) {
					return names[i]
				}
				return strconv.Itoa(i)
			}
		}
		return builtin.UnpivotPerGroup(u), nil
	}

	values := o.IntSlice("value_indexes")
	if len(values) == 0 {
		return nil, fmt.Errorf("value_indexes or value_groups required")
	}
	ids := make(map[int]string)
	for k, v := range o.StringMap("identifiers") {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("identifier key %q is not an index", k)
		}
		ids[n] = v
	}
	return builtin.UnpivotPerValue(builtin.ValueUnpivot{
		KeyIndexes:         keys,
		ValueIndexes:       values,
		Identifier:         builtin.IdentifiersFromMap(ids),
		OnlyExistingValues: o.Bool("only_existing_values", false),
	}), nil
}

func intGroups(raw any) ([][]int, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("value_groups must be a list of index lists")
	}
	out := make([][]int, len(list))
	for i, g := range list {
		idx := config.Options{"g": g}.IntSlice("g")
		if idx == nil {
			return nil, fmt.Errorf("value_groups[%d] must be a list of indexes", i)
		}
		out[i] = idx
	}
	return out, nil
}

func buildLog(t config.Transform, log *zap.Logger) (Modifier, error) {
	level, err := logging.ParseLevel(t.Options.String("level", "info"))
	if err != nil {
		return nil, err
	}
	render := records.TextsMessage(t.Options.String("separator", ","), t.Options.String("null_text", ""))
	if prefix := t.Options.String("prefix", ""); prefix != "" {
		render = records.PrefixMessage(prefix, render)
	}
	var only func(records.Record) bool
	if c := t.Options.String("category", ""); c != "" {
		only = records.CategoryEquals(c)
	}
	return transformer.LogFilter(log.Named(t.StageName()), level, only, render), nil
}

func buildRequire(t config.Transform, _ *zap.Logger) (Modifier, error) {
	r := builtin.Require{Indexes: t.Options.IntSlice("indexes")}
	return transformer.Filter(r.Filter()), nil
}
