package conversation

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OttoOtter-hub/TyreTerra/pkg/apperr"
)

func numberStep(field string) Step {
	return Step{
		Field:  field,
		Prompt: "Enter " + field + ":",
		Parse: func(ctx context.Context, text string) (interface{}, error) {
			n, err := strconv.Atoi(text)
			if err != nil {
				return nil, apperr.Validation("Enter a number:")
			}
			return n, nil
		},
	}
}

// twoStepFlow records the committed fields into got.
func twoStepFlow(got *Fields) *Flow {
	return &Flow{
		Name:  "pair",
		Steps: []Step{numberStep("first"), numberStep("second")},
		Commit: func(ctx context.Context, fields Fields) error {
			*got = fields
			return nil
		},
	}
}

func TestEngine_HappyPath(t *testing.T) {
	e := NewEngine("/cancel")
	var committed Fields

	prompt, err := e.Start(1, twoStepFlow(&committed))
	require.NoError(t, err)
	assert.Equal(t, "Enter first:", prompt)
	assert.True(t, e.Active(1))

	res, err := e.Submit(context.Background(), 1, "10")
	require.NoError(t, err)
	assert.Equal(t, Advanced, res.Kind)
	assert.Equal(t, "Enter second:", res.Prompt)

	res, err = e.Submit(context.Background(), 1, "20")
	require.NoError(t, err)
	assert.Equal(t, Completed, res.Kind)
	assert.Equal(t, Fields{"first": 10, "second": 20}, committed)
	assert.False(t, e.Active(1))
}

func TestEngine_RejectionKeepsStep(t *testing.T) {
	e := NewEngine("/cancel")
	var committed Fields

	_, err := e.Start(1, twoStepFlow(&committed))
	require.NoError(t, err)

	res, err := e.Submit(context.Background(), 1, "not a number")
	require.NoError(t, err)
	assert.Equal(t, Rejected, res.Kind)
	assert.Equal(t, "Enter a number:", res.Reason)

	// A second rejection still leaves the flow on the same step.
	res, err = e.Submit(context.Background(), 1, "still not")
	require.NoError(t, err)
	assert.Equal(t, Rejected, res.Kind)

	res, err = e.Submit(context.Background(), 1, "5")
	require.NoError(t, err)
	assert.Equal(t, Advanced, res.Kind)
	assert.Equal(t, "Enter second:", res.Prompt)
}

func TestEngine_CancelBeforeValidation(t *testing.T) {
	e := NewEngine("/cancel")
	var committed Fields

	_, err := e.Start(1, twoStepFlow(&committed))
	require.NoError(t, err)

	// The cancel token is honored even though it would fail parsing.
	res, err := e.Submit(context.Background(), 1, "/cancel")
	require.NoError(t, err)
	assert.Equal(t, Cancelled, res.Kind)
	assert.False(t, e.Active(1))
	assert.Nil(t, committed)

	// After cancelling, a fresh flow starts from the first step.
	prompt, err := e.Start(1, twoStepFlow(&committed))
	require.NoError(t, err)
	assert.Equal(t, "Enter first:", prompt)
}

func TestEngine_StartWhileActiveRejected(t *testing.T) {
	e := NewEngine("/cancel")
	var committed Fields

	_, err := e.Start(1, twoStepFlow(&committed))
	require.NoError(t, err)

	_, err = e.Start(1, twoStepFlow(&committed))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeConflict))

	// A different user is unaffected.
	_, err = e.Start(2, twoStepFlow(&committed))
	require.NoError(t, err)
}

func TestEngine_CommitFailureClearsState(t *testing.T) {
	e := NewEngine("/cancel")
	flow := &Flow{
		Name:  "failing",
		Steps: []Step{numberStep("only")},
		Commit: func(ctx context.Context, fields Fields) error {
			return fmt.Errorf("store unavailable")
		},
	}

	_, err := e.Start(1, flow)
	require.NoError(t, err)

	res, err := e.Submit(context.Background(), 1, "1")
	require.NoError(t, err)
	assert.Equal(t, CommitFailed, res.Kind)
	assert.EqualError(t, res.Err, "store unavailable")
	assert.Equal(t, Fields{"only": 1}, res.Fields)

	// The failed flow is not resumable.
	assert.False(t, e.Active(1))
	_, err = e.Submit(context.Background(), 1, "1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEngine_StepFailureHidesCause(t *testing.T) {
	e := NewEngine("/cancel")
	cause := fmt.Errorf("failed to find stock item: %w", fmt.Errorf("database is locked"))
	flow := &Flow{
		Name: "lookup",
		Steps: []Step{{
			Field:  "item",
			Prompt: "Enter SKU:",
			Parse: func(ctx context.Context, text string) (interface{}, error) {
				return nil, cause
			},
		}},
		Commit: func(ctx context.Context, fields Fields) error { return nil },
	}

	_, err := e.Start(1, flow)
	require.NoError(t, err)

	res, err := e.Submit(context.Background(), 1, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, Rejected, res.Kind)
	assert.Equal(t, "An error occurred. Please try again.", res.Reason)
	assert.NotContains(t, res.Reason, "database is locked")

	// The cause is surfaced for logging and the step stays active.
	assert.ErrorIs(t, res.Err, cause)
	assert.True(t, e.Active(1))
}

func TestEngine_TerminalShortCircuit(t *testing.T) {
	e := NewEngine("/cancel")
	var committed Fields

	flow := &Flow{
		Name: "search",
		Steps: []Step{
			{
				Field:  "kind",
				Prompt: "Choose:",
				Parse: func(ctx context.Context, text string) (interface{}, error) {
					return text, nil
				},
				Terminal: func(value interface{}) bool { return value == "All" },
			},
			{
				Field:  "value",
				Prompt: "Enter value:",
				Parse: func(ctx context.Context, text string) (interface{}, error) {
					return text, nil
				},
			},
		},
		Commit: func(ctx context.Context, fields Fields) error {
			committed = fields
			return nil
		},
	}

	_, err := e.Start(1, flow)
	require.NoError(t, err)

	res, err := e.Submit(context.Background(), 1, "All")
	require.NoError(t, err)
	assert.Equal(t, Completed, res.Kind)
	assert.Equal(t, Fields{"kind": "All"}, committed)
	assert.False(t, e.Active(1))
}

func TestEngine_DynamicPrompt(t *testing.T) {
	e := NewEngine("/cancel")
	flow := &Flow{
		Name: "dynamic",
		Steps: []Step{
			{
				Field:  "kind",
				Prompt: "Choose:",
				Parse: func(ctx context.Context, text string) (interface{}, error) {
					return text, nil
				},
			},
			{
				Field: "value",
				PromptFunc: func(fields Fields) string {
					return "Enter " + fields.String("kind") + ":"
				},
				Parse: func(ctx context.Context, text string) (interface{}, error) {
					return text, nil
				},
			},
		},
		Commit: func(ctx context.Context, fields Fields) error { return nil },
	}

	_, err := e.Start(1, flow)
	require.NoError(t, err)

	res, err := e.Submit(context.Background(), 1, "Brand")
	require.NoError(t, err)
	assert.Equal(t, "Enter Brand:", res.Prompt)
}

func TestEngine_SubmitWithoutSession(t *testing.T) {
	e := NewEngine("/cancel")
	_, err := e.Submit(context.Background(), 1, "hello")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEngine_CancelIdleUser(t *testing.T) {
	e := NewEngine("/cancel")
	assert.False(t, e.Cancel(1))

	var committed Fields
	_, err := e.Start(1, twoStepFlow(&committed))
	require.NoError(t, err)
	assert.True(t, e.Cancel(1))
	assert.False(t, e.Active(1))
}

func TestEngine_UsersAreIsolated(t *testing.T) {
	e := NewEngine("/cancel")
	var first, second Fields

	_, err := e.Start(1, twoStepFlow(&first))
	require.NoError(t, err)
	_, err = e.Start(2, twoStepFlow(&second))
	require.NoError(t, err)

	_, err = e.Submit(context.Background(), 1, "1")
	require.NoError(t, err)

	// User 2 is still on their first step.
	res, err := e.Submit(context.Background(), 2, "7")
	require.NoError(t, err)
	assert.Equal(t, Advanced, res.Kind)
	assert.Equal(t, "Enter second:", res.Prompt)
}
