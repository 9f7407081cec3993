package service

import (
	"errors"
	"testing"

	entity2 "mlops_webapp/entity"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionLegalEdges(t *testing.T) {
	cases := []struct {
		name string
		from entity2.DatasetStatus
		op   DatasetOperation
		to   entity2.DatasetStatus
	}{
		{"raw auto-annotate", entity2.DatasetStatusRaw, OpAutoAnnotate, entity2.DatasetStatusAutoAnnotated},
		{"annotated validate", entity2.DatasetStatusAutoAnnotated, OpValidate, entity2.DatasetStatusValidated},
		{"validated augment", entity2.DatasetStatusValidated, OpAugment, entity2.DatasetStatusAugmented},
		{"augmented augment again", entity2.DatasetStatusAugmented, OpAugment, entity2.DatasetStatusAugmented},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			to, err := CanTransition(tc.from, tc.op)
			assert.NoError(t, err)
			assert.Equal(t, tc.to, to)
		})
	}
}

func TestCanTransitionRejectsEverythingElse(t *testing.T) {
	statuses := []entity2.DatasetStatus{
		entity2.DatasetStatusRaw,
		entity2.DatasetStatusAutoAnnotated,
		entity2.DatasetStatusValidated,
		entity2.DatasetStatusAugmented,
	}
	legal := map[entity2.DatasetStatus]map[DatasetOperation]bool{
		entity2.DatasetStatusRaw:           {OpAutoAnnotate: true},
		entity2.DatasetStatusAutoAnnotated: {OpValidate: true},
		entity2.DatasetStatusValidated:     {OpAugment: true},
		entity2.DatasetStatusAugmented:     {OpAugment: true},
	}

	for _, from := range statuses {
		for _, op := range []DatasetOperation{OpAutoAnnotate, OpValidate, OpAugment} {
			if legal[from][op] {
				continue
			}
			_, err := CanTransition(from, op)
			assert.ErrorIs(t, err, ErrInvalidTransition, "from=%s op=%s", from, op)
		}
	}
}

func TestCanTransitionUnknownOperation(t *testing.T) {
	_, err := CanTransition(entity2.DatasetStatusRaw, DatasetOperation("shuffle"))
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, errors.Is(err, ErrInvalidTransition))
}

func TestNextActions(t *testing.T) {
	assert.Equal(t, []DatasetOperation{OpAutoAnnotate}, NextActions(entity2.DatasetStatusRaw))
	assert.Equal(t, []DatasetOperation{OpValidate}, NextActions(entity2.DatasetStatusAutoAnnotated))
	assert.Equal(t, []DatasetOperation{OpAugment}, NextActions(entity2.DatasetStatusValidated))
	assert.Equal(t, []DatasetOperation{OpAugment}, NextActions(entity2.DatasetStatusAugmented))
}
