// Package conversation implements the per-user multi-step form engine.
// A flow is an ordered list of steps; each step collects exactly one
// field. The reserved cancel token aborts at any step, validation
// failures re-prompt the same step, and the collected record is handed
// to the flow's commit function in a single call after the last step.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/OttoOtter-hub/TyreTerra/pkg/apperr"
)

// Fields is the partial record accumulated across steps, keyed by field name.
type Fields map[string]interface{}

// String returns the field as a string, or "" when absent.
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Step is one prompt/validate/advance unit of a flow.
type Step struct {
	// Field is the name the parsed value is stored under.
	Field string

	// Prompt is the text shown when the step becomes active.
	Prompt string

	// PromptFunc, when set, builds the prompt from the fields
	// collected so far and takes precedence over Prompt.
	PromptFunc func(fields Fields) string

	// Parse validates raw input and returns the value to store.
	// A returned error keeps the flow on this step.
	Parse func(ctx context.Context, text string) (interface{}, error)

	// Terminal, when set, lets a parsed value complete the flow
	// immediately instead of advancing (wildcard short-circuit).
	Terminal func(value interface{}) bool
}

// Flow is one ordered sequence of steps ending in a commit. Flows are
// built per invocation, so steps and commit may close over the user
// they serve.
type Flow struct {
	Name  string
	Steps []Step

	// Commit receives the full field map exactly once, after the last
	// step. It must be all-or-nothing; the engine never retries it.
	Commit func(ctx context.Context, fields Fields) error
}

// ResultKind classifies the outcome of one Submit call.
type ResultKind int

const (
	// Advanced means the step was accepted and the flow moved on.
	Advanced ResultKind = iota
	// Rejected means the input failed validation; the step is unchanged.
	Rejected
	// Cancelled means the cancel token was received; state is cleared.
	Cancelled
	// Completed means the last step was accepted and commit succeeded.
	Completed
	// CommitFailed means the last step was accepted but commit failed;
	// state is cleared, the flow is not resumable.
	CommitFailed
)

// Result describes the outcome of one Submit call.
type Result struct {
	Kind   ResultKind
	Flow   string
	Prompt string // set when Kind == Advanced, the next step's prompt
	Reason string // set when Kind == Rejected, user-visible
	Fields Fields // set when Kind == Completed or CommitFailed
	Err    error  // the cause for CommitFailed, or a store-class step failure
}

// ErrNoSession is returned by Submit when no flow is active for the user.
var ErrNoSession = fmt.Errorf("no active conversation")

type session struct {
	mu     sync.Mutex
	flow   *Flow
	step   int
	fields Fields
}

// Engine drives conversations. State is private per user: transitions
// for one user are serialized, and no other user's processing can touch
// them.
type Engine struct {
	cancelToken string

	mu       sync.Mutex
	sessions map[int64]*session
}

// NewEngine creates an engine with the given reserved cancel token.
func NewEngine(cancelToken string) *Engine {
	return &Engine{
		cancelToken: cancelToken,
		sessions:    make(map[int64]*session),
	}
}

// Start begins a flow for the user and returns the first prompt.
// If a conversation is already active the start is rejected: the user
// must finish or cancel first.
func (e *Engine) Start(userID int64, flow *Flow) (string, error) {
	if len(flow.Steps) == 0 {
		return "", fmt.Errorf("flow %q has no steps", flow.Name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, active := e.sessions[userID]; active {
		return "", apperr.Conflict("⚠️ You have an unfinished operation. Complete it or cancel with /cancel")
	}

	sess := &session{flow: flow, fields: make(Fields)}
	e.sessions[userID] = sess
	return promptFor(&flow.Steps[0], sess.fields), nil
}

// Active reports whether a conversation is in progress for the user.
func (e *Engine) Active(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[userID]
	return ok
}

// Cancel clears the user's conversation state, if any, and reports
// whether there was one.
func (e *Engine) Cancel(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[userID]
	delete(e.sessions, userID)
	return ok
}

// Submit feeds one message into the user's active conversation.
// The cancel token is honored before any validation, at every step.
func (e *Engine) Submit(ctx context.Context, userID int64, text string) (Result, error) {
	e.mu.Lock()
	sess, ok := e.sessions[userID]
	e.mu.Unlock()
	if !ok {
		return Result{}, ErrNoSession
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	flowName := sess.flow.Name

	if text == e.cancelToken {
		e.clear(userID, sess)
		return Result{Kind: Cancelled, Flow: flowName}, nil
	}

	step := sess.flow.Steps[sess.step]
	value, err := step.Parse(ctx, text)
	if err != nil {
		res := Result{Kind: Rejected, Flow: flowName, Reason: rejectionReason(err)}
		if apperr.CodeOf(err) == apperr.CodeStore {
			res.Err = err
		}
		return res, nil
	}

	sess.fields[step.Field] = value

	last := sess.step == len(sess.flow.Steps)-1
	if !last && step.Terminal != nil && step.Terminal(value) {
		last = true
	}

	if !last {
		sess.step++
		next := &sess.flow.Steps[sess.step]
		return Result{Kind: Advanced, Flow: flowName, Prompt: promptFor(next, sess.fields)}, nil
	}

	// Copy the record before releasing state so the caller owns it.
	record := make(Fields, len(sess.fields))
	for k, v := range sess.fields {
		record[k] = v
	}
	e.clear(userID, sess)

	if err := sess.flow.Commit(ctx, record); err != nil {
		return Result{Kind: CommitFailed, Flow: flowName, Fields: record, Err: err}, nil
	}
	return Result{Kind: Completed, Flow: flowName, Fields: record}, nil
}

// clear removes the session if it is still the registered one. A newer
// session started after this one's removal is left untouched.
func (e *Engine) clear(userID int64, sess *session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessions[userID] == sess {
		delete(e.sessions, userID)
	}
}

func promptFor(step *Step, fields Fields) string {
	if step.PromptFunc != nil {
		return step.PromptFunc(fields)
	}
	return step.Prompt
}

// rejectionReason is the user-visible text for a failed step. An
// unclassified error comes from a collaborator, not the user's input,
// so its text never reaches the user.
func rejectionReason(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.UserMessage()
	}
	return apperr.Store(err).UserMessage()
}
