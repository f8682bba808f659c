package rules

import (
	"fmt"
	"sync"

	"go.starlark.net/starlark"
)

// MaxScriptSteps bounds the work of one transform call. A rule that loops
// past it fails the element instead of hanging the run.
const MaxScriptSteps = 100_000

// maxIdleThreads caps the threads a script keeps between calls.
const maxIdleThreads = 16

// script is a compiled Starlark transform. Elements are converted on
// several goroutines and a Starlark thread must not be shared, so every
// call checks out a thread of its own. Idle threads are kept per script so
// their names stay fixed and error messages point at the rule.
type script struct {
	name string // file:attr
	fn   starlark.Callable

	mu   sync.Mutex
	idle []*starlark.Thread
}

// compileScript evaluates src, which must be an expression producing a
// callable such as a lambda. The result is frozen so it can be called from
// several goroutines.
func compileScript(name, src string) (*script, error) {
	s := &script{name: name}
	thread := s.newThread()
	v, err := starlark.Eval(thread, name, src, nil) //nolint:staticcheck // SA1019: will migrate to EvalOptions later
	if err != nil {
		return nil, err
	}
	fn, ok := v.(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("expression evaluates to %s, want a callable", v.Type())
	}
	v.Freeze()
	s.fn = fn
	return s, nil
}

func (s *script) newThread() *starlark.Thread {
	thread := &starlark.Thread{
		Name:  s.name,
		Print: func(_ *starlark.Thread, _ string) {},
	}
	thread.SetMaxExecutionSteps(MaxScriptSteps)
	return thread
}

// acquire returns an idle thread with a fresh step budget, or a new one.
func (s *script) acquire() *starlark.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.idle)
	if n == 0 {
		return s.newThread()
	}
	thread := s.idle[n-1]
	s.idle = s.idle[:n-1]
	thread.Steps = 0
	thread.Uncancel()
	return thread
}

func (s *script) release(thread *starlark.Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.idle) < maxIdleThreads {
		s.idle = append(s.idle, thread)
	}
}

// call invokes the script as fn(name, value, arbitrary).
func (s *script) call(name, value string, arbitrary bool) (string, error) {
	thread := s.acquire()
	defer s.release(thread)

	args := starlark.Tuple{starlark.String(name), starlark.String(value), starlark.Bool(arbitrary)}
	v, err := starlark.Call(thread, s.fn, args, nil)
	if err != nil {
		return "", err
	}
	if v == starlark.None {
		return "", nil
	}
	str, ok := starlark.AsString(v)
	if !ok {
		return "", fmt.Errorf("%s returned %s, want string", s.name, v.Type())
	}
	return str, nil
}
