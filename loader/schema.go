package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nathoo/sparksaga/types"
)

var idPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

var elements = map[string]bool{
	"slash": true, "pierce": true, "blunt": true, "fire": true, "ice": true,
	"lightning": true, "wind": true, "earth": true, "water": true, "holy": true, "dark": true,
}

var resistanceTags = map[string]bool{
	"poison_resistance": true, "bleed_resistance": true, "paralysis_resistance": true,
	"stun_resistance": true, "sleep_resistance": true, "confusion_resistance": true,
	"silence_resistance": true, "petrification_resistance": true,
	"freeze_resistance": true, "burn_resistance": true,
}

// newValidator builds a validator that reports JSON field names and knows
// the content-specific tags.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "contentid", func(fl validator.FieldLevel) bool {
		return idPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "element", func(fl validator.FieldLevel) bool {
		return elements[fl.Field().String()]
	})
	mustRegister(v, "resistance", func(fl validator.FieldLevel) bool {
		k := fl.Field().String()
		return elements[k] || resistanceTags[k]
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// schema decodes and validates content files, appending one
// SCHEMA_VALIDATION_ERROR per violation.
type schema struct {
	v    *validator.Validate
	logs *Logs
}

// decodeArray decodes an array-shaped file, applies defaults, validates
// every record and checks id uniqueness.
func decodeArray[T any](sc *schema, file string, data []byte, id func(*T) string, defaults func(*T)) []T {
	var items []T
	if !sc.decode(file, data, &items) {
		return nil
	}

	seen := make(map[string]int, len(items))
	for i := range items {
		if defaults != nil {
			defaults(&items[i])
		}
		sc.validate(file, fmt.Sprintf("[%d]", i), &items[i])

		key := id(&items[i])
		if first, dup := seen[key]; dup {
			sc.fail(file, fmt.Sprintf("[%d].id", i),
				fmt.Sprintf("duplicate id %q (first at [%d])", key, first))
			continue
		}
		seen[key] = i
	}
	return items
}

// decodeObject decodes and validates an object-shaped file.
func decodeObject[T any](sc *schema, file string, data []byte) T {
	var obj T
	if sc.decode(file, data, &obj) {
		sc.validate(file, "", &obj)
	}
	return obj
}

func (sc *schema) decode(file string, data []byte, into any) bool {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(into); err != nil {
		var typeErr *json.UnmarshalTypeError
		var syntaxErr *json.SyntaxError
		switch {
		case errors.As(err, &typeErr):
			sc.fail(file, typeErr.Field,
				fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value))
		case errors.As(err, &syntaxErr),
			errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
			sc.logs.fatal(CodeUnexpected, file,
				fmt.Sprintf("Failed to parse %s: %v", file, err))
		default:
			sc.fail(file, "", err.Error())
		}
		return false
	}
	return true
}

func (sc *schema) validate(file, prefix string, rec any) {
	err := sc.v.Struct(rec)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		sc.logs.fatal(CodeUnexpected, file, err.Error())
		return
	}
	for _, fe := range verrs {
		sc.fail(file, joinPath(prefix, fe.Namespace()), describe(fe))
	}
}

func (sc *schema) fail(file, path, msg string) {
	if path == "" {
		path = "(root)"
	}
	sc.logs.fatal(CodeSchemaValidation, file,
		fmt.Sprintf("Schema validation failed for %s: %s - %s", file, path, msg))
}

// joinPath drops the struct type name that heads a validator namespace
// ("Skill.cost.wp") and prefixes the record index ("[3].cost.wp").
func joinPath(prefix, ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		rest = ""
	}
	switch {
	case prefix == "":
		return rest
	case rest == "":
		return prefix
	default:
		return prefix + "." + rest
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "contentid":
		return fmt.Sprintf("%q does not match %s", fe.Value(), idPattern)
	case "element":
		return fmt.Sprintf("%q is not a known element", fe.Value())
	case "resistance":
		return fmt.Sprintf("%q is not a known resistance key", fe.Value())
	case "oneof":
		return fmt.Sprintf("%v must be one of [%s]", fe.Value(), fe.Param())
	case "min", "max", "gt", "gte", "lt", "lte":
		return fmt.Sprintf("%v must satisfy %s %s", fe.Value(), fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

// Defaults applied after decoding, before validation.

func skillDefaults(s *types.Skill) {
	if s.Type == "" {
		s.Type = types.Physical
	}
}

func partyDefaults(p *types.Party) {
	for i := range p.Members {
		if p.Members[i].FormationPosition == "" {
			p.Members[i].FormationPosition = types.Front
		}
		for j := range p.Members[i].Commands {
			for k := range p.Members[i].Commands[j].Items {
				if p.Members[i].Commands[j].Items[k].Quantity == 0 {
					p.Members[i].Commands[j].Items[k].Quantity = 1
				}
			}
		}
	}
}

func encounterDefaults(e *types.Encounter) {
	for i := range e.Enemies {
		if e.Enemies[i].FormationPosition == "" {
			e.Enemies[i].FormationPosition = types.Front
		}
	}
	for i := range e.Rewards.Items {
		if e.Rewards.Items[i].Quantity == 0 {
			e.Rewards.Items[i].Quantity = 1
		}
	}
	for i := range e.QuestProgress {
		if e.QuestProgress[i].State == "" {
			e.QuestProgress[i].State = types.QuestUpdated
		}
	}
}
