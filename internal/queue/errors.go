package queue

import (
	"errors"

	"github.com/billie-coop/rollcall/internal/credit"
	"github.com/billie-coop/rollcall/internal/draw"
	"github.com/billie-coop/rollcall/internal/roster"
	"github.com/billie-coop/rollcall/internal/state"
)

var (
	// ErrNotRunning is returned for chat admissions to a stopped sub-queue.
	ErrNotRunning = errors.New("sub-queue not running")

	// ErrDuplicateMembership is returned when the viewer was already
	// admitted to that sub-queue since it last started.
	ErrDuplicateMembership = errors.New("already admitted")

	// ErrNotEligible means no roster entry can back the request.
	ErrNotEligible = errors.New("no eligible roster entry")

	// ErrTicketNotFound is returned when a completion or cancellation
	// names a ticket that is not queued.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrEngineStopped is returned once Run has exited.
	ErrEngineStopped = errors.New("engine stopped")
)

// Re-exported so callers can match every engine failure from one package.
var (
	ErrInsufficientConsolidatedCredit = credit.ErrInsufficientConsolidatedCredit
	ErrPoolTooSmall                   = draw.ErrPoolTooSmall
	ErrRosterFileMissing              = roster.ErrRosterFileMissing
	ErrRosterWrite                    = roster.ErrRosterWrite
	ErrStateRead                      = state.ErrStateRead
	ErrStateWrite                     = state.ErrStateWrite
)
