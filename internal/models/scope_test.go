package models

import (
	"reflect"
	"testing"

	inverr "github.com/pankaj-dahiya-devops/orginv/internal/errors"
)

func TestRequest_Validate(t *testing.T) {
	ok := Request{Scope: ScopeOU, Target: "Platform", Resources: []string{"EC2"}, Email: "a@b.com"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	blank := Request{Scope: ScopeAccount, Target: " ", Resources: []string{" ", ""}}
	err := blank.Validate()
	if !inverr.HasCode(err, inverr.ErrCodeValidation) {
		t.Fatalf("err = %v, want VALIDATION", err)
	}
	if got, want := blank.MissingFields(), []string{"target", "resources", "email"}; !reflect.DeepEqual(got, want) {
		t.Errorf("MissingFields = %v, want %v", got, want)
	}
}

func TestRequest_NormalizedResources(t *testing.T) {
	r := Request{Resources: []string{" EC2 ", "", "S3", "EC2"}}
	if got, want := r.NormalizedResources(), []string{"EC2", "S3", "EC2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizedResources = %v, want %v", got, want)
	}
}
