package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/rewind/internal/snapshot"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	specs := []KindSpec{
		{Name: "Todo", Model: "linear", Fields: []FieldSpec{{Name: "done", Default: snapshot.Bool(false)}}},
		{Name: "List", Model: "branching", Composite: true, Children: []string{"Todo", "List"}},
	}
	assert.Empty(t, Validate(specs))
}

func TestValidateDuplicateKind(t *testing.T) {
	errs := Validate([]KindSpec{{Name: "A", Model: "linear"}, {Name: "A", Model: "linear"}})
	assert.Equal(t, []string{ErrDuplicateKind}, codes(errs))
}

func TestValidateKindErrors(t *testing.T) {
	tests := []struct {
		name string
		spec KindSpec
		code string
	}{
		{"bad name", KindSpec{Name: "a:b", Model: "linear"}, ErrKindNameInvalid},
		{"empty name", KindSpec{Name: "", Model: "linear"}, ErrKindNameInvalid},
		{"duplicate field", KindSpec{Name: "K", Model: "linear", Fields: []FieldSpec{{Name: "x"}, {Name: "x"}}}, ErrDuplicateField},
		{"reserved field", KindSpec{Name: "K", Model: "linear", Fields: []FieldSpec{{Name: "children"}}}, ErrReservedField},
		{"bad model", KindSpec{Name: "K", Model: "tree"}, ErrInvalidModel},
		{"negative debounce", KindSpec{Name: "K", Model: "linear", DebounceMS: -5}, ErrNegativeDebounce},
		{"children on leaf", KindSpec{Name: "K", Model: "linear", Children: []string{"K"}}, ErrChildrenNotAllowed},
		{"unknown child", KindSpec{Name: "K", Model: "linear", Composite: true, Children: []string{"Nope"}}, ErrUnknownChildKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate([]KindSpec{tt.spec})
			assert.Equal(t, []string{tt.code}, codes(errs))
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	errs := Validate([]KindSpec{{
		Name:       "K",
		Model:      "tree",
		DebounceMS: -1,
		Fields:     []FieldSpec{{Name: "children"}},
	}})
	assert.ElementsMatch(t, []string{ErrReservedField, ErrInvalidModel, ErrNegativeDebounce}, codes(errs))
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "kind.K.model", Message: "bad", Code: ErrInvalidModel}
	assert.Equal(t, "[E105] kind.K.model: bad", err.Error())
}
