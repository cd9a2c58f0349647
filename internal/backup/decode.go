package backup

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/hivekeep/internal/apiary"
)

//go:embed schema.cue
var schemaCUE string

// header holds the fields checked before the full shape check, so an
// unsupported version is reported as such rather than as a schema error.
type header struct {
	Version json.RawMessage `json:"version"`
	Hives   json.RawMessage `json:"hives"`
}

// Decode parses and validates a backup document without touching any
// store. All failures are INVALID_INPUT errors.
func Decode(data []byte) (Document, error) {
	if err := checkHeader(data); err != nil {
		return Document{}, err
	}
	if err := checkShape(data); err != nil {
		return Document{}, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, apiary.WrapInvalid("backup", "decode document", err)
	}
	doc.truncateTimes()

	if err := validateRecords(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func checkHeader(data []byte) error {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return apiary.WrapInvalid("backup", "not a JSON object", err)
	}
	if len(h.Version) == 0 {
		return apiary.Invalid("backup", "", "missing version")
	}
	var version int
	if err := json.Unmarshal(h.Version, &version); err != nil {
		return apiary.Invalid("backup", "", fmt.Sprintf("version must be an integer, got %s", h.Version))
	}
	if version != Version {
		return apiary.Invalid("backup", "", fmt.Sprintf("unsupported version %d", version))
	}
	if len(h.Hives) == 0 || string(h.Hives) == "null" {
		return apiary.Invalid("backup", "", "missing hives")
	}
	return nil
}

// checkShape unifies the document with the #Backup definition.
func checkShape(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile backup schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Backup"))

	expr, err := cuejson.Extract("backup.json", data)
	if err != nil {
		return apiary.WrapInvalid("backup", "parse document", err)
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return apiary.WrapInvalid("backup", "build document", err)
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return shapeError(err)
	}
	return nil
}

// shapeError reports the first CUE error, with its document position when
// one is available.
func shapeError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return apiary.WrapInvalid("backup", "shape check failed", err)
	}

	first := errs[0]
	for _, pos := range errors.Positions(first) {
		if pos.Filename() == "backup.json" {
			msg := fmt.Sprintf("shape check failed at line %d, column %d", pos.Line(), pos.Column())
			return apiary.WrapInvalid("backup", msg, first)
		}
	}
	return apiary.WrapInvalid("backup", "shape check failed", first)
}

func (d *Document) truncateTimes() {
	d.ExportedAt = d.ExportedAt.UTC()
	for i := range d.Inspections {
		d.Inspections[i].Date = millis(d.Inspections[i].Date)
	}
	for i := range d.Harvests {
		d.Harvests[i].Date = millis(d.Harvests[i].Date)
	}
	for i := range d.Treatments {
		t := &d.Treatments[i]
		t.DateStart = millis(t.DateStart)
		if t.DateEnd != nil {
			end := millis(*t.DateEnd)
			t.DateEnd = &end
		}
	}
}

// millis matches the store's timestamp precision.
func millis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli()).UTC()
}

// validateRecords applies domain rules the shape check does not express:
// unique ids per collection and hive references that resolve within the
// document.
func validateRecords(doc Document) error {
	hives := make(map[string]bool, len(doc.Hives))
	for _, h := range doc.Hives {
		if err := h.Validate(); err != nil {
			return err
		}
		if hives[h.ID] {
			return apiary.Invalid("backup", h.ID, "duplicate hive id")
		}
		hives[h.ID] = true
	}

	seen := make(map[string]bool)
	check := func(entity, id, hiveID string, validate func() error) error {
		if err := validate(); err != nil {
			return err
		}
		key := entity + "/" + id
		if seen[key] {
			return apiary.Invalid("backup", id, "duplicate "+entity+" id")
		}
		seen[key] = true
		if !hives[hiveID] {
			return apiary.Invalid("backup", id, fmt.Sprintf("%s references unknown hive %s", entity, hiveID))
		}
		return nil
	}

	for _, i := range doc.Inspections {
		if err := check("inspection", i.ID, i.HiveID, i.Validate); err != nil {
			return err
		}
	}
	for _, h := range doc.Harvests {
		if err := check("harvest", h.ID, h.HiveID, h.Validate); err != nil {
			return err
		}
	}
	for _, t := range doc.Treatments {
		if err := check("treatment", t.ID, t.HiveID, t.Validate); err != nil {
			return err
		}
	}
	return nil
}
