// Package host is the process-wide entry point an embedder drives, the
// Go-native counterpart of spec.md §6's C-callable surface
// (create_batch_mcts/select/update/set_temperature/play_best_moves/
// all_games_over/proportion_of_games_over/results/current_sector/destroy).
// There is no cgo boundary here — spec.md explicitly scopes the FFI layer
// itself out — but Handle's method names and call ordering match it so a
// thin cgo shim could be dropped on top without touching this package.
//
// Grounded on the teacher's datatypes.go/agogo.go (Config, New, fail-fast
// config validation).
package host

import (
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/kingside-labs/batchmcts/board"
	"github.com/kingside-labs/batchmcts/evaluator"
	"github.com/kingside-labs/batchmcts/mcts"
	"github.com/kingside-labs/batchmcts/move"
	"github.com/kingside-labs/batchmcts/policyindex"
	"github.com/kingside-labs/batchmcts/scheduler"
)

var (
	initOnce sync.Once
	initDone bool
)

// Initialize runs the process-wide setup every Handle needs: precomputing
// the policy-index lookup table. tablebasePath is accepted for parity with
// the original engine's endgame-tablebase hook (spec.md §4's Supplemented
// Features) but is otherwise unused — tablebase probing is an external
// evaluator concern, not this module's.
func Initialize(tablebasePath string) {
	initOnce.Do(func() {
		policyindex.Init()
		initDone = true
	})
	_ = tablebasePath
}

// Config configures a Handle's underlying Scheduler. Boards and Metadata
// mirror spec.md §6's create_batch_mcts constructor parameters
// boards_tensor/metadata_tensor: supply them to have the search engine
// write directly into caller-owned tensors, or leave them nil to let the
// Handle allocate its own. A caller-supplied tensor whose shape does not
// match (NumSectors*SectorSize, 8, 8) / (NumSectors*SectorSize, 5) is a
// construction-time fatal error (spec.md §6/§7), surfaced by CreateBatchMCTS
// as a panic rather than a returned error, matching the teacher's
// agogo.go fail-fast config validation.
type Config struct {
	NumSectors int
	SectorSize int
	Workers    int
	Tree       mcts.Config
	Boards     *tensor.Dense
	Metadata   *tensor.Dense
}

// IsValid reports whether c can be used to build a Handle.
func (c Config) IsValid() bool {
	return c.NumSectors > 0 && c.SectorSize > 0
}

// Handle is one batched self-play/search session.
type Handle struct {
	sched *scheduler.Scheduler
}

// CreateBatchMCTS builds a Handle (create_batch_mcts). Initialize must have
// been called first.
func CreateBatchMCTS(cfg Config, eval evaluator.Evaluator) (*Handle, error) {
	if !initDone {
		return nil, errors.New("host: Initialize was never called")
	}
	if !cfg.IsValid() {
		return nil, errors.New("host: invalid Config")
	}

	sched, err := scheduler.New(scheduler.Config{
		NumSectors: cfg.NumSectors,
		SectorSize: cfg.SectorSize,
		Workers:    cfg.Workers,
		TreeConfig: cfg.Tree,
		Boards:     cfg.Boards,
		Metadata:   cfg.Metadata,
	}, eval)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Handle{sched: sched}, nil
}

// Select corresponds to the original's select(): descend every game in the
// current sector and return its board/metadata tensors for evaluation.
func (h *Handle) Select() (*scheduler.Sector, error) { return h.sched.Select() }

// Update corresponds to update(): apply the evaluator's results (already
// written into the Sector returned by Select) to the current sector.
func (h *Handle) Update() error { return h.sched.Update() }

// SetTemperature corresponds to set_temperature().
func (h *Handle) SetTemperature(t float32) { h.sched.SetTemperature(t) }

// PlayBestMoves corresponds to play_best_moves().
func (h *Handle) PlayBestMoves() error { return h.sched.PlayBestMoves() }

// AllGamesOver corresponds to all_games_over().
func (h *Handle) AllGamesOver() bool { return h.sched.AllGamesOver() }

// ProportionOfGamesOver corresponds to proportion_of_games_over().
func (h *Handle) ProportionOfGamesOver() float64 { return h.sched.ProportionOfGamesOver() }

// Results corresponds to results().
func (h *Handle) Results() []board.Outcome { return h.sched.Results() }

// CurrentSector corresponds to current_sector().
func (h *Handle) CurrentSector() int { return h.sched.CurrentSector() }

// CurrentSectorSnapshots returns one scheduler.GameSnapshot per game in the
// current sector, for a caller to fold into a record.Game right before
// PlayBestMoves advances each tree's root past the position it describes.
func (h *Handle) CurrentSectorSnapshots() []scheduler.GameSnapshot {
	return h.sched.CurrentSectorSnapshots()
}

// FinishedThisCall returns the outcome of every game that ended during the
// most recent PlayBestMoves call, keyed by global game index.
func (h *Handle) FinishedThisCall() map[int]board.Outcome {
	return h.sched.FinishedThisCall()
}

// PlayedThisCall returns the move each still-in-progress game played during
// the most recent PlayBestMoves call, keyed by global game index.
func (h *Handle) PlayedThisCall() map[int]move.Move {
	return h.sched.PlayedThisCall()
}

// NumGames returns the total number of games this Handle manages.
func (h *Handle) NumGames() int { return h.sched.NumGames() }

// Boards returns the shared (NumSectors*SectorSize, 8, 8) board slab.
func (h *Handle) Boards() *tensor.Dense { return h.sched.Boards() }

// Metadata returns the shared (NumSectors*SectorSize, 5) metadata slab.
func (h *Handle) Metadata() *tensor.Dense { return h.sched.Metadata() }

// Destroy corresponds to destroy(): release the Handle's resources.
func (h *Handle) Destroy() error {
	var result *multierror.Error
	if err := h.sched.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
