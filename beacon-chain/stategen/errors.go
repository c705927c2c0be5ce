package stategen

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/lodestone-chain/statecore/consensus/primitives"
)

// Kind tags the caller-visible error categories this package returns.
type Kind int

const (
	// KindBlockNotInForkChoice: parent lookup failed.
	KindBlockNotInForkChoice Kind = iota
	// KindHeadUnavailable: head state not yet regenerated.
	KindHeadUnavailable
	// KindBeforeFinalized: dependant root requested before finalized epoch.
	KindBeforeFinalized
	// KindUnresolvable: dependant-root traversal exhausted.
	KindUnresolvable
	// KindQueueFull: regen queue at capacity.
	KindQueueFull
	// KindCancelled: shutdown cancellation.
	KindCancelled
	// KindTransition wraps an error from the transition engine.
	KindTransition
	// KindPersistent wraps an error from the persistent reader.
	KindPersistent
)

func (k Kind) String() string {
	switch k {
	case KindBlockNotInForkChoice:
		return "BlockNotInForkChoice"
	case KindHeadUnavailable:
		return "HeadUnavailable"
	case KindBeforeFinalized:
		return "BeforeFinalized"
	case KindUnresolvable:
		return "Unresolvable"
	case KindQueueFull:
		return "QueueFull"
	case KindCancelled:
		return "Cancelled"
	case KindTransition:
		return "Transition"
	case KindPersistent:
		return "Persistent"
	default:
		return "Unknown"
	}
}

// Error is the tagged-variant error type every facade operation can
// return. Callers branch on Kind via errors.As. The core never
// retries automatically; every error surfaces to the caller verbatim.
type Error struct {
	Kind  Kind
	Inner error

	// Context fields, populated depending on Kind.
	Root  [32]byte
	Slot  primitives.Slot
	Epoch primitives.Epoch
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBlockNotInForkChoice:
		return fmt.Sprintf("block not in fork choice: %x", e.Root)
	case KindHeadUnavailable:
		return "head state unavailable"
	case KindBeforeFinalized:
		return fmt.Sprintf("dependant root requested before finalized epoch %d", e.Epoch)
	case KindUnresolvable:
		return fmt.Sprintf("could not resolve dependant root for block %x at slot %d", e.Root, e.Slot)
	case KindQueueFull:
		return "regen queue full"
	case KindCancelled:
		return "regen cancelled"
	case KindTransition:
		return errors.Wrap(e.Inner, "state transition").Error()
	case KindPersistent:
		return errors.Wrap(e.Inner, "persistent reader").Error()
	default:
		return "unknown regen error"
	}
}

// Unwrap lets errors.Is/errors.As reach the wrapped collaborator error.
func (e *Error) Unwrap() error {
	return e.Inner
}

func errBlockNotInForkChoice(root [32]byte) error {
	return &Error{Kind: KindBlockNotInForkChoice, Root: root}
}

func errHeadUnavailable() error {
	return &Error{Kind: KindHeadUnavailable}
}

func errBeforeFinalized(epoch primitives.Epoch) error {
	return &Error{Kind: KindBeforeFinalized, Epoch: epoch}
}

func errUnresolvable(root [32]byte, slot primitives.Slot) error {
	return &Error{Kind: KindUnresolvable, Root: root, Slot: slot}
}

func errQueueFull() error {
	return &Error{Kind: KindQueueFull}
}

func errCancelled() error {
	return &Error{Kind: KindCancelled}
}

func errTransition(inner error) error {
	return &Error{Kind: KindTransition, Inner: inner}
}

func errPersistent(inner error) error {
	return &Error{Kind: KindPersistent, Inner: inner}
}
