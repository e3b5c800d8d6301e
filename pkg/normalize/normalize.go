// Package normalize turns raw records into canonical records: owner names,
// addresses and parcel ids in canonical form, typed attributes, and
// validation flags. Raw values are copied through verbatim.
package normalize

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/parcelmap/pkg/errors"
	"github.com/agentstation/parcelmap/pkg/logging"
	"github.com/agentstation/parcelmap/pkg/records"
	"github.com/agentstation/parcelmap/pkg/rules"
)

// Normalizer is safe for concurrent use; its tables are built once in New.
type Normalizer struct {
	cfg *rules.Config

	suffixes  []suffixVariant
	canonical map[string]bool
	tokens    map[string]string
	units     map[string]bool
	poBox     *regexp.Regexp
}

// New builds a Normalizer from a validated rule set.
func New(cfg *rules.Config) (*Normalizer, error) {
	if cfg == nil {
		return nil, errors.NewConfigError("normalize", "rules are required", nil)
	}
	poBox, err := cfg.CompilePOBox()
	if err != nil {
		return nil, errors.NewConfigError("normalize", "invalid po_box_pattern", err)
	}

	n := &Normalizer{
		cfg:    cfg,
		tokens: buildTokenTable(cfg.StreetSuffixes, cfg.Directionals),
		units:  make(map[string]bool, len(cfg.UnitDesignators)),
		poBox:  poBox,
	}
	n.suffixes, n.canonical = buildSuffixes(cfg.EntitySuffixes)
	for _, u := range cfg.UnitDesignators {
		n.units[strings.ToUpper(strings.TrimSpace(u))] = true
	}
	return n, nil
}

// RecordID is the stable per-run id of the raw record at index.
func RecordID(origin records.Origin, index int) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(string(origin)), index)
}

// Normalize produces the canonical form of one raw record. When the record
// carries a fetch error or lacks a required field, the partially normalized
// record is returned together with a *errors.FetchError or
// *errors.MissingFieldError and must be excluded from reconciliation.
// Log events carry the fields of the context logger.
func (n *Normalizer) Normalize(ctx context.Context, raw records.RawRecord, index int) (*records.CanonicalRecord, error) {
	id := RecordID(raw.Origin, index)
	ctx = logging.WithField(logging.WithOrigin(ctx, raw.Origin.String()), "record_id", id)
	log := logging.FromContext(ctx)
	fields, verbatim := n.fields(raw.Fields)

	rec := &records.CanonicalRecord{
		ID:         id,
		Origin:     raw.Origin,
		DataSource: records.SourceFor(raw.Origin),
		FetchedAt:  raw.FetchedAt,
		OwnerType:  records.OwnerIndividual,
	}

	rec.OwnerNameRaw = verbatim[records.FieldOwnerName]
	name, ok := n.OwnerName(fields[records.FieldOwnerName])
	rec.OwnerNameNorm = name
	if !ok {
		rec.AddFlag(FlagAmbiguousName)
		log.Warn().
			Err(errors.NewNormalizationError(records.FieldOwnerName, rec.OwnerNameRaw, "unresolved comma pattern")).
			Msg("Owner name fell back to minimal normalization")
	}

	rec.AddressRaw = verbatim[records.FieldPropertyAddress]
	addr, unit, poBox := n.Address(fields[records.FieldPropertyAddress])
	rec.AddressNorm = addr
	rec.UnitNumber = unit
	if rec.UnitNumber == "" {
		rec.UnitNumber = unitValue(strings.ToUpper(strings.TrimLeft(fields[records.FieldUnitNumber], "# ")))
	}
	if poBox {
		rec.AddFlag(FlagPOBox)
		rec.AddNote(records.NotePOBox)
	}

	rec.ParcelIDRaw = verbatim[records.FieldParcelID]
	rec.ParcelID = n.ParcelID(fields[records.FieldParcelID], raw.Origin)

	n.location(rec, fields)
	n.attributes(rec, fields)

	if raw.FetchError != "" {
		return rec, errors.NewFetchError(id, raw.Origin.String(), raw.FetchError)
	}

	var missing []string
	for _, f := range records.RequiredFields {
		if !records.Populated(rec, f, n.cfg.Placeholders) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return rec, errors.NewMissingFieldError(id, missing...)
	}

	rec.Validated = true
	log.Debug().Str("parcel_id", rec.ParcelID).Strs("flags", rec.Flags).Msg("Normalized record")
	return rec, nil
}

// NormalizeAll normalizes raws in parallel, bounded by the configured worker
// count. Kept records preserve input order. A canceled context aborts the
// whole batch.
func (n *Normalizer) NormalizeAll(ctx context.Context, raws []records.RawRecord) ([]*records.CanonicalRecord, []records.Rejection, error) {
	out := make([]*records.CanonicalRecord, len(raws))
	errs := make([]error, len(raws))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(n.cfg.Workers, 1))
	for i := range raws {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i], errs[i] = n.Normalize(gctx, raws[i], i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, errors.WrapCanceled(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.WrapCanceled(err)
	}

	logger := logging.FromContext(ctx)
	kept := make([]*records.CanonicalRecord, 0, len(raws))
	var rejected []records.Rejection
	for i, rec := range out {
		if errs[i] != nil {
			rejected = append(rejected, records.Rejection{Record: rec, Err: errs[i]})
			logRejection(logger, rec, errs[i])
			continue
		}
		kept = append(kept, rec)
	}
	return kept, rejected, nil
}

func logRejection(logger *zerolog.Logger, rec *records.CanonicalRecord, err error) {
	event := logger.Warn()
	if errors.IsCritical(err) {
		event = logger.Error()
	}
	event.Err(err).
		Str("record_id", rec.ID).
		Str("parcel_id", rec.ParcelID).
		Msg("Record excluded from reconciliation")
}

// fields resolves aliases and returns trimmed values with placeholders
// dropped, plus the untouched values for the raw attributes. Canonical keys
// take precedence over aliases.
func (n *Normalizer) fields(in map[string]string) (map[string]string, map[string]string) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clean := make(map[string]string, len(in))
	verbatim := make(map[string]string, len(in))
	exact := make(map[string]bool, len(in))
	for _, k := range keys {
		canon := n.cfg.CanonicalField(k)
		isExact := strings.ToLower(strings.TrimSpace(k)) == canon
		v := strings.TrimSpace(in[k])
		if !records.IsValue(v, n.cfg.Placeholders) {
			continue
		}
		if _, seen := clean[canon]; seen && (exact[canon] || !isExact) {
			continue
		}
		clean[canon] = v
		verbatim[canon] = in[k]
		exact[canon] = isExact
	}
	return clean, verbatim
}

func (n *Normalizer) location(rec *records.CanonicalRecord, fields map[string]string) {
	rec.City = City(fields[records.FieldCity])

	if v := fields[records.FieldState]; v != "" {
		state, ok := n.State(v)
		if ok {
			rec.State = state
		} else {
			rec.AddFlag(FlagInvalidState)
		}
	}

	if v := fields[records.FieldZip]; v != "" {
		zip, ok := Zip(v)
		if ok {
			rec.Zip = zip
		} else {
			rec.AddFlag(FlagInvalidZip)
		}
	}
}

func (n *Normalizer) attributes(rec *records.CanonicalRecord, fields map[string]string) {
	floats := []struct {
		field string
		dst   **float64
	}{
		{records.FieldAssessedValue, &rec.AssessedValue},
		{records.FieldSalePrice, &rec.SalePrice},
		{records.FieldBathrooms, &rec.Bathrooms},
	}
	for _, f := range floats {
		if v, present := fields[f.field]; present {
			if parsed, ok := Number(v); ok {
				*f.dst = records.Ptr(parsed)
			} else {
				rec.AddFlag(FlagInvalidNumber(f.field))
			}
		}
	}

	ints := []struct {
		field string
		dst   **int
		parse func(string) (int, bool)
	}{
		{records.FieldSquareFootage, &rec.SquareFootage, Integer},
		{records.FieldBedrooms, &rec.Bedrooms, Integer},
		{records.FieldYearBuilt, &rec.YearBuilt, Year},
	}
	for _, f := range ints {
		if v, present := fields[f.field]; present {
			if parsed, ok := f.parse(v); ok {
				*f.dst = records.Ptr(parsed)
			} else {
				rec.AddFlag(FlagInvalidNumber(f.field))
			}
		}
	}

	if v, present := fields[records.FieldSaleDate]; present {
		if d, ok := Date(v); ok {
			rec.SaleDate = records.Ptr(d)
		} else {
			rec.AddFlag(FlagInvalidDate)
		}
	}
	if v, present := fields[records.FieldDeedBook]; present {
		rec.DeedBook = records.Ptr(strings.ToUpper(v))
	}
	if v, present := fields[records.FieldDeedPage]; present {
		rec.DeedPage = records.Ptr(strings.ToUpper(v))
	}
}
