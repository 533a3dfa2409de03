package model_test

import (
	"reflect"
	"testing"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
	"github.com/unclebandit/bidtracker-backend/internal/model"
)

func TestDeclareVariable(t *testing.T) {
	tpl := model.Template{Name: "Intro", Subject: "Hi", TemplateType: model.TemplateGeneral}

	tpl, err := tpl.DeclareVariable("name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tpl, _ = tpl.DeclareVariable("company")
	tpl, _ = tpl.DeclareVariable("name")
	tpl, _ = tpl.DeclareVariable("Name")

	want := []string{"name", "company", "Name"}
	if !reflect.DeepEqual([]string(tpl.Variables), want) {
		t.Errorf("expected %v, got %v", want, tpl.Variables)
	}

	for _, bad := range []string{"", "   ", "\t"} {
		if _, err := tpl.DeclareVariable(bad); !appErrors.IsValidation(err) {
			t.Errorf("%q: expected validation error, got %v", bad, err)
		}
	}
}

func TestDeclareVariableDoesNotShareBacking(t *testing.T) {
	base := model.Template{Variables: make([]string, 1, 4)}
	base.Variables[0] = "a"

	x, _ := base.DeclareVariable("x")
	y, _ := base.DeclareVariable("y")
	if x.Variables[1] != "x" || y.Variables[1] != "y" {
		t.Errorf("derived templates share storage: %v %v", x.Variables, y.Variables)
	}
}

func TestRemoveVariableKeepsText(t *testing.T) {
	tpl := model.Template{
		Subject:   "Hello {{name}}",
		Body:      "<p>{{name}} at {{company}}</p>",
		Variables: []string{"name", "company"},
	}
	out := tpl.RemoveVariable("name")

	if !reflect.DeepEqual([]string(out.Variables), []string{"company"}) {
		t.Errorf("unexpected variables %v", out.Variables)
	}
	if out.Subject != tpl.Subject || out.Body != tpl.Body {
		t.Error("remove variable altered template text")
	}
	if len(tpl.Variables) != 2 {
		t.Error("original template was mutated")
	}
}

func TestDuplicate(t *testing.T) {
	tpl := model.Template{
		ID:           "t1",
		Name:         "Proposal",
		Subject:      "Bid for {{project}}",
		Body:         "body",
		TemplateType: model.TemplateProposal,
		Variables:    []string{"project"},
	}
	dup := tpl.Duplicate("t2")
	if dup.ID != "t2" {
		t.Errorf("expected new id, got %s", dup.ID)
	}
	dup.ID = tpl.ID
	if !reflect.DeepEqual(dup, tpl) {
		t.Errorf("duplicate differs: %+v", dup)
	}
	dup.Variables[0] = "changed"
	if tpl.Variables[0] != "project" {
		t.Error("duplicate shares variables with original")
	}
}

func TestDuplicateWithoutVariablesStoresEmptyArray(t *testing.T) {
	var vars pq.StringArray
	if err := vars.Scan([]byte("{}")); err != nil {
		t.Fatal(err)
	}
	tpl := model.Template{ID: "t1", Name: "Blank", Subject: "s", Variables: vars}

	dup := tpl.Duplicate("t2")

	v, err := dup.Variables.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != "{}" {
		t.Errorf("expected '{}', got %#v", v)
	}
}

func TestTemplateValidate(t *testing.T) {
	ok := model.Template{Name: "n", Subject: "s {{undeclared}}", TemplateType: model.TemplateFollowUp}
	if err := ok.Validate(); err != nil {
		t.Errorf("undeclared placeholders must not fail validation: %v", err)
	}
	bad := ok
	bad.TemplateType = "newsletter"
	if err := bad.Validate(); !appErrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestNormalizeVariables(t *testing.T) {
	got := model.NormalizeVariables([]string{"a", "", "b", "a", " "})
	if !reflect.DeepEqual([]string(got), []string{"a", "b"}) {
		t.Errorf("unexpected %v", got)
	}
}
