package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/temoto/doorlock/internal/state"
	"github.com/temoto/doorlock/internal/types"
)

type mockLock struct {
	mu     sync.Mutex
	seq    []bool
	locked bool
}

func (self *mockLock) SetLocked(ctx context.Context, locked bool) error {
	self.mu.Lock()
	self.seq = append(self.seq, locked)
	self.locked = locked
	self.mu.Unlock()
	return nil
}

func (self *mockLock) Locked() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.locked
}

func (self *mockLock) takeSeq() []bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	r := self.seq
	self.seq = nil
	return r
}

type tenv struct {
	ctx   context.Context
	g     *state.Global
	clock clockwork.Clock // nil = real time
	ui    *UI
	lock  *mockLock
	// Loop pushes every transition here, buffered enough for any scenario.
	statech chan State
}

// uiTestSetup finishes a tenv: mock lock, inited UI, state hook, input
// bus pump, teardown. Callers seed hardware mocks before this.
func uiTestSetup(t testing.TB, env *tenv) {
	env.lock = &mockLock{locked: true}
	env.statech = make(chan State, 32)
	env.ui = &UI{lock: env.lock, clock: env.clock}
	require.NoError(t, env.ui.Init(env.ctx))
	env.ui.XXX_testHook = func(s State) { env.statech <- s }
	go env.g.Hardware.Input.Run(nil)
	t.Cleanup(func() {
		env.g.Alive.Stop()
		env.g.Alive.Wait()
	})
}

func fsmTestSetup(t testing.TB, confUI string) *tenv {
	env := &tenv{}
	env.ctx, env.g = state.NewTestContext(t, confUI)
	uiTestSetup(t, env)
	return env
}

func requireState(t testing.TB, env *tenv, expect State) {
	t.Helper()
	select {
	case s := <-env.statech:
		require.Equal(t, expect, s, "ui state expect=%s actual=%s", expect.String(), s.String())
	case <-time.After(5 * time.Second):
		t.Fatalf("ui state timeout expect=%s", expect.String())
	}
}

// sendKey bypasses the dispatch bus so each event is handed to the ui
// loop synchronously, no coalescing, no drops.
func sendKey(t testing.TB, env *tenv, key types.InputKey) {
	t.Helper()
	select {
	case env.ui.inputch <- types.InputEvent{Source: "test", Key: key}:
	case <-time.After(5 * time.Second):
		t.Fatalf("ui does not accept input key=%d", key)
	}
}

func sendCode(t testing.TB, env *tenv, digits string) {
	t.Helper()
	for i := 0; i < len(digits); i++ {
		sendKey(t, env, types.InputKey(digits[i]))
	}
}

func TestBootToIdle(t *testing.T) {
	t.Parallel()
	env := fsmTestSetup(t, `ui { password = "123456" }`)
	go env.ui.Loop(env.ctx)
	requireState(t, env, StateIdle)
	require.Equal(t, StateIdle, env.ui.State())
	require.Empty(t, env.lock.takeSeq())
}

func TestAcceptCorrectCode(t *testing.T) {
	t.Parallel()
	env := fsmTestSetup(t, `ui {
  password = "123456"
  unlock_hold_ms = 150
  deny_hold_ms = 50
}`)
	go env.ui.Loop(env.ctx)
	requireState(t, env, StateIdle)

	begin := time.Now()
	sendCode(t, env, "123456")
	sendKey(t, env, types.KeyConfirm)
	requireState(t, env, StateAccept)
	requireState(t, env, StateIdle)

	require.Equal(t, []bool{false, true}, env.lock.takeSeq())
	require.True(t, env.lock.Locked())
	require.True(t, time.Since(begin) >= 150*time.Millisecond, "unlock hold was skipped")
	require.Equal(t, uint8(0), env.ui.entry.Snapshot().Length)
}

func TestDenyWrongCode(t *testing.T) {
	t.Parallel()
	env := fsmTestSetup(t, `ui {
  password = "123456"
  unlock_hold_ms = 150
  deny_hold_ms = 50
}`)
	go env.ui.Loop(env.ctx)
	requireState(t, env, StateIdle)

	sendCode(t, env, "999999")
	sendKey(t, env, types.KeyConfirm)
	requireState(t, env, StateDeny)
	requireState(t, env, StateIdle)

	require.Equal(t, []bool{true}, env.lock.takeSeq())
	require.True(t, env.lock.Locked())
	require.Equal(t, uint8(0), env.ui.entry.Snapshot().Length)
}

// The buffer keeps the first six digits, the rest fall on the floor.
func TestEntryOverflow(t *testing.T) {
	t.Parallel()
	env := fsmTestSetup(t, `ui {
  password = "123456"
  unlock_hold_ms = 50
  deny_hold_ms = 50
}`)
	go env.ui.Loop(env.ctx)
	requireState(t, env, StateIdle)

	sendCode(t, env, "1234567890")
	sendKey(t, env, types.KeyConfirm)
	requireState(t, env, StateAccept)
	requireState(t, env, StateIdle)
	require.Equal(t, []bool{false, true}, env.lock.takeSeq())
}

func TestClearMidEntry(t *testing.T) {
	t.Parallel()
	// Clear drops the first attempt. Five digits then confirm: the sixth
	// position was never typed, it holds zero and matches the trailing
	// zero of the reference code.
	env := fsmTestSetup(t, `ui {
  password = "345670"
  unlock_hold_ms = 50
  deny_hold_ms = 50
}`)
	go env.ui.Loop(env.ctx)
	requireState(t, env, StateIdle)

	sendCode(t, env, "12")
	sendKey(t, env, types.KeyClear)
	require.Eventually(t, func() bool { return env.ui.entry.Snapshot().Length == 0 },
		2*time.Second, 5*time.Millisecond)
	sendCode(t, env, "34567")
	sendKey(t, env, types.KeyConfirm)
	requireState(t, env, StateAccept)
	requireState(t, env, StateIdle)
	require.Equal(t, []bool{false, true}, env.lock.takeSeq())
}

func TestConfirmShortEntry(t *testing.T) {
	t.Parallel()
	t.Run("zero-pad-match", func(t *testing.T) {
		env := fsmTestSetup(t, `ui {
  password = "100000"
  unlock_hold_ms = 50
  deny_hold_ms = 50
}`)
		go env.ui.Loop(env.ctx)
		requireState(t, env, StateIdle)

		sendCode(t, env, "1")
		sendKey(t, env, types.KeyConfirm)
		requireState(t, env, StateAccept)
		requireState(t, env, StateIdle)
		require.Equal(t, []bool{false, true}, env.lock.takeSeq())
	})
	t.Run("empty-deny", func(t *testing.T) {
		env := fsmTestSetup(t, `ui {
  password = "123456"
  unlock_hold_ms = 50
  deny_hold_ms = 50
}`)
		go env.ui.Loop(env.ctx)
		requireState(t, env, StateIdle)

		sendKey(t, env, types.KeyConfirm)
		requireState(t, env, StateDeny)
		requireState(t, env, StateIdle)
		require.Equal(t, []bool{true}, env.lock.takeSeq())
	})
}

func TestDenyThenAccept(t *testing.T) {
	t.Parallel()
	env := fsmTestSetup(t, `ui {
  password = "123456"
  unlock_hold_ms = 50
  deny_hold_ms = 50
}`)
	go env.ui.Loop(env.ctx)
	requireState(t, env, StateIdle)

	sendCode(t, env, "123455")
	sendKey(t, env, types.KeyConfirm)
	requireState(t, env, StateDeny)
	requireState(t, env, StateIdle)
	require.Equal(t, []bool{true}, env.lock.takeSeq())

	sendCode(t, env, "123456")
	sendKey(t, env, types.KeyConfirm)
	requireState(t, env, StateAccept)
	requireState(t, env, StateIdle)
	require.Equal(t, []bool{false, true}, env.lock.takeSeq())
}

// A key pressed while the outcome screen holds must not leak into the
// next entry. It goes through the dispatch bus here: the ui is asleep,
// not receiving, so the dispatch drops the event.
func TestKeyDuringHoldDropped(t *testing.T) {
	t.Parallel()
	env := fsmTestSetup(t, `ui {
  password = "123456"
  unlock_hold_ms = 300
  deny_hold_ms = 50
}`)
	go env.ui.Loop(env.ctx)
	requireState(t, env, StateIdle)

	sendCode(t, env, "123456")
	sendKey(t, env, types.KeyConfirm)
	requireState(t, env, StateAccept)
	env.g.Hardware.Input.Emit(types.InputEvent{Source: "test", Key: '9'})
	requireState(t, env, StateIdle)
	require.Equal(t, []bool{false, true}, env.lock.takeSeq())
	require.Equal(t, uint8(0), env.ui.entry.Snapshot().Length)

	sendCode(t, env, "123456")
	sendKey(t, env, types.KeyConfirm)
	requireState(t, env, StateAccept)
	requireState(t, env, StateIdle)
	require.Equal(t, []bool{false, true}, env.lock.takeSeq())
}

func TestEntryBuffer(t *testing.T) {
	t.Parallel()
	e := &entry{}
	require.Equal(t, EntrySnapshot{}, e.Snapshot())

	for i := byte(1); i <= 6; i++ {
		require.True(t, e.Append(i))
	}
	require.False(t, e.Append(7), "seventh digit must be dropped")
	require.Equal(t, EntrySnapshot{Digits: [6]byte{1, 2, 3, 4, 5, 6}, Length: 6}, e.Snapshot())
	require.True(t, e.Match([6]byte{1, 2, 3, 4, 5, 6}))
	require.False(t, e.Match([6]byte{1, 2, 3, 4, 5, 7}))

	e.Clear()
	require.Equal(t, EntrySnapshot{}, e.Snapshot())
	require.True(t, e.Match([6]byte{}), "cleared buffer matches all-zero reference")

	require.True(t, e.Append(0))
	require.Equal(t, EntrySnapshot{Digits: [6]byte{}, Length: 1}, e.Snapshot())
}
