package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"
)

var (
	kebabPattern       = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	placeholderPattern = regexp.MustCompile(`(?i)\b(TODO|FIXME|placeholder)\b`)
)

// FieldError is one failed rule, addressed by its json path relative to the
// validated value (e.g. "levels[3].keyTerms[0].term").
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   interface{}
	Message string
}

// Validator provides validation functionality
type Validator interface {
	// Validate returns every failed rule on obj; nil when obj passes.
	Validate(obj interface{}) ([]FieldError, error)
	// RegisterOneOf binds tag to a closed set of string values.
	RegisterOneOf(tag string, allowed map[string]bool) error
	// Allowed returns the sorted members of a closed set registered under tag.
	Allowed(tag string) []string
}

type validator struct {
	engine *playground.Validate
	mu     sync.RWMutex
	sets   map[string][]string
}

// New builds a validator using json field names and the custom tags
// notblank, kebab and noplaceholder.
func New() Validator {
	engine := playground.New()
	engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = engine.RegisterValidation("notblank", func(fl playground.FieldLevel) bool {
		return IsNotBlank(fl.Field().String())
	})
	_ = engine.RegisterValidation("kebab", func(fl playground.FieldLevel) bool {
		return IsKebabCase(fl.Field().String())
	})
	_ = engine.RegisterValidation("noplaceholder", func(fl playground.FieldLevel) bool {
		return !ContainsPlaceholder(fl.Field().String())
	})

	return &validator{
		engine: engine,
		sets:   make(map[string][]string),
	}
}

func (v *validator) RegisterOneOf(tag string, allowed map[string]bool) error {
	members := make([]string, 0, len(allowed))
	for k := range allowed {
		members = append(members, k)
	}
	sort.Strings(members)

	v.mu.Lock()
	v.sets[tag] = members
	v.mu.Unlock()

	return v.engine.RegisterValidation(tag, func(fl playground.FieldLevel) bool {
		return allowed[fl.Field().String()]
	})
}

func (v *validator) Allowed(tag string) []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.sets[tag]...)
}

func (v *validator) Validate(obj interface{}) ([]FieldError, error) {
	err := v.engine.Struct(obj)
	if err == nil {
		return nil, nil
	}

	verrs, ok := err.(playground.ValidationErrors)
	if !ok {
		// InvalidValidationError: obj was nil or not a struct.
		return nil, err
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   relativeNamespace(fe.Namespace()),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: v.message(fe),
		})
	}
	return out, nil
}

func (v *validator) message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "must not be empty"
	case "kebab":
		return "must be kebab-case (lowercase letters, digits, single hyphens)"
	case "noplaceholder":
		return "contains placeholder text"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "required_without":
		return fmt.Sprintf("is required when %s is empty", strings.ToLower(fe.Param()))
	case "url":
		return "must be a valid URL"
	}
	if allowed := v.Allowed(fe.Tag()); len(allowed) > 0 {
		return fmt.Sprintf("invalid value %q; must be one of: %s", fmt.Sprint(fe.Value()), strings.Join(allowed, ", "))
	}
	return fmt.Sprintf("failed %q rule", fe.Tag())
}

// relativeNamespace drops the root struct name: "EducationalContent.tags.systems[0]"
// becomes "tags.systems[0]".
func relativeNamespace(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func IsNotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

func IsKebabCase(s string) bool {
	return kebabPattern.MatchString(s)
}

func ContainsPlaceholder(s string) bool {
	return placeholderPattern.MatchString(s)
}
