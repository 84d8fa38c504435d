package crud

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/posadmin/internal/domain"
	"github.com/simp-lee/posadmin/internal/pkg"
)

// Field types understood by the admin frontend.
const (
	FieldText           = "text"
	FieldTextarea       = "textarea"
	FieldSelect         = "select"
	FieldSwitch         = "switch"
	FieldDatetimepicker = "datetimepicker"
	FieldNumber         = "number"
)

// Option is one choice of a select or switch field.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Field is one form input. Validation uses validator tag syntax.
type Field struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Value       any      `json:"value"`
	Options     []Option `json:"options,omitempty"`
	Validation  string   `json:"validation,omitempty"`
}

// Tab groups fields on the form.
type Tab struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Fields []Field `json:"fields"`
}

// FormSpec is the form definition returned to the frontend.
type FormSpec struct {
	Main Field `json:"main"`
	Tabs []Tab `json:"tabs"`
}

// Fields returns the main field followed by every tab field.
func (f FormSpec) Fields() []Field {
	out := []Field{f.Main}
	for _, t := range f.Tabs {
		out = append(out, t.Fields...)
	}
	return out
}

// Field returns the field named name.
func (f FormSpec) Field(name string) (Field, bool) {
	for _, fld := range f.Fields() {
		if fld.Name == name {
			return fld, true
		}
	}
	return Field{}, false
}

// Flatten merges tab-nested input ({"general": {...}}) into a flat map
// keyed by field name. Top-level keys win over nested ones.
func (f FormSpec) Flatten(in Input) Input {
	out := make(Input, len(in))
	for _, t := range f.Tabs {
		nested, ok := in[t.Key].(map[string]any)
		if !ok {
			continue
		}
		for k, v := range nested {
			out[k] = v
		}
	}
	for k, v := range in {
		if _, nested := v.(map[string]any); nested && f.hasTab(k) {
			continue
		}
		out[k] = v
	}
	return out
}

func (f FormSpec) hasTab(key string) bool {
	for _, t := range f.Tabs {
		if t.Key == key {
			return true
		}
	}
	return false
}

// Validate checks in against the validation rule of every field.
func (f FormSpec) Validate(v *validator.Validate, in Input) error {
	errs := domain.FieldErrors{}
	for _, field := range f.Fields() {
		if field.Validation == "" {
			continue
		}

		required := false
		var rules []string
		for _, rule := range strings.Split(field.Validation, ",") {
			if rule == "required" {
				required = true
				continue
			}
			rules = append(rules, rule)
		}

		value := in[field.Name]
		if blank(value) {
			if required {
				errs[field.Name] = pkg.FieldMessage("required", "")
			}
			continue
		}
		if len(rules) == 0 {
			continue
		}

		if err := v.Var(value, strings.Join(rules, ",")); err != nil {
			var ve validator.ValidationErrors
			if errors.As(err, &ve) && len(ve) > 0 {
				errs[field.Name] = pkg.FieldMessage(ve[0].Tag(), ve[0].Param())
			} else {
				errs[field.Name] = err.Error()
			}
		}
	}

	if len(errs) > 0 {
		return domain.ValidationFailure(errs)
	}
	return nil
}

func blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}
