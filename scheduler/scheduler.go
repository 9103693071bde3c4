// Package scheduler implements the batched MCTS scheduler: B*S independent
// mcts.Tree games arranged into S sectors of B games each, advanced one
// sector at a time through a select/update cycle so a single external
// neural-network batch call can serve an entire sector at once.
//
// Grounded on _examples/original_source/backend/BatchMCTS.{h,cpp} (working
// sectors, round-robin sector advance, contiguous-range worker fan-out) and
// the teacher's agogo.go prepareExamples (building gorgonia.org/tensor
// slabs for board/policy/value batches). The original's queue_consumer
// background thread plus mutex/condvar pair is modeled here as a per-call
// worker-pool fan-out guarded by a single sync.Mutex/sync.Cond rather than a
// long-lived consumer goroutine — Select and Update are synchronous calls
// from the caller's perspective, which fits Go's request/response style
// better than a standing producer/consumer thread; see DESIGN.md.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/kingside-labs/batchmcts/board"
	"github.com/kingside-labs/batchmcts/evaluator"
	"github.com/kingside-labs/batchmcts/mcts"
	"github.com/kingside-labs/batchmcts/move"
	"github.com/kingside-labs/batchmcts/policyindex"
	"github.com/kingside-labs/batchmcts/record"
)

const metadataLength = 5

// Sector is one batch's worth of live search state: the B games currently
// selected down to a leaf, and the tensors an external evaluator reads from
// and writes into.
type Sector struct {
	leaves    []int32
	needsEval []bool

	Policy *tensor.Dense // shape (B, 8, 8, policyindex.Planes); scatter-filled
	Q      *tensor.Dense // shape (B,)
}

// Config configures a Scheduler. Boards and Metadata are the spec.md §6
// constructor's caller-supplied `boards_tensor`/`metadata_tensor`: if
// non-nil their shape must already be (NumSectors*SectorSize, 8, 8) and
// (NumSectors*SectorSize, 5) respectively, or New panics with an input
// shape error (spec.md §6/§7's construction-time fatal error). If nil, the
// Scheduler allocates its own, correctly-shaped slabs.
type Config struct {
	NumSectors int
	SectorSize int
	Workers    int // goroutines used to fan Select/Update out across a sector
	TreeConfig mcts.Config
	Boards     *tensor.Dense
	Metadata   *tensor.Dense
}

// Scheduler owns NumSectors*SectorSize independent games and cycles through
// sectors round-robin, mirroring BatchMCTS::get_next_sector.
type Scheduler struct {
	mu   sync.Mutex
	cond *sync.Cond

	cfg       Config
	evaluator evaluator.Evaluator

	// boards and metadata are the full (NumSectors*SectorSize, 8, 8) and
	// (NumSectors*SectorSize, 5) slabs spec.md §4.6 describes; Select/Update
	// address into them with the global game index, not a per-sector one.
	boards   *tensor.Dense
	metadata *tensor.Dense

	trees   []*mcts.Tree
	sectors []*Sector
	busy    []bool
	cur     int

	lastFinished map[int]board.Outcome
	lastPlayed   map[int]move.Move
}

// New builds a Scheduler. eval may be nil if the caller only intends to use
// the tensor-level Select/Update pair (e.g. the host package's FFI-shaped
// API, where the neural network runs out of process).
func New(cfg Config, eval evaluator.Evaluator) (*Scheduler, error) {
	if cfg.NumSectors <= 0 || cfg.SectorSize <= 0 {
		return nil, errors.New("scheduler: NumSectors and SectorSize must be positive")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	total := cfg.NumSectors * cfg.SectorSize

	boards := cfg.Boards
	if boards == nil {
		boards = tensor.New(tensor.WithShape(total, 8, 8), tensor.Of(tensor.Float32))
	} else if !shapeEquals(boards.Shape(), total, 8, 8) {
		panic(fmt.Sprintf("scheduler: input shape error: boards tensor shape %v, want (%d, 8, 8)", boards.Shape(), total))
	}

	metadata := cfg.Metadata
	if metadata == nil {
		metadata = tensor.New(tensor.WithShape(total, metadataLength), tensor.Of(tensor.Float32))
	} else if !shapeEquals(metadata.Shape(), total, metadataLength) {
		panic(fmt.Sprintf("scheduler: input shape error: metadata tensor shape %v, want (%d, %d)", metadata.Shape(), total, metadataLength))
	}

	s := &Scheduler{
		cfg:       cfg,
		evaluator: eval,
		boards:    boards,
		metadata:  metadata,
		trees:     make([]*mcts.Tree, total),
		sectors:   make([]*Sector, cfg.NumSectors),
		busy:      make([]bool, cfg.NumSectors),
	}
	s.cond = sync.NewCond(&s.mu)

	for i := range s.trees {
		s.trees[i] = mcts.NewTree(board.NewPosition(), cfg.TreeConfig, uint64(i)+1)
	}
	for i := range s.sectors {
		s.sectors[i] = newSector(cfg.SectorSize)
	}
	return s, nil
}

func shapeEquals(shape tensor.Shape, dims ...int) bool {
	if len(shape) != len(dims) {
		return false
	}
	for i, d := range dims {
		if shape[i] != d {
			return false
		}
	}
	return true
}

func newSector(size int) *Sector {
	return &Sector{
		leaves:    make([]int32, size),
		needsEval: make([]bool, size),
		Policy:    tensor.New(tensor.WithShape(size, 8, 8, policyindex.Planes), tensor.Of(tensor.Float32)),
		Q:         tensor.New(tensor.WithShape(size), tensor.Of(tensor.Float32)),
	}
}

// CurrentSector returns the index of the sector a caller should next
// Select/Update.
func (s *Scheduler) CurrentSector() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// gamesInSector returns the [start, end) range of global game indices for
// sector idx.
func (s *Scheduler) gamesInSector(idx int) (start, end int) {
	start = idx * s.cfg.SectorSize
	return start, start + s.cfg.SectorSize
}

// Select walks every game in the current sector down to a leaf via PUCT,
// blocking until that sector is not already mid-flight (waiting on a prior
// Update), then writes every game's board/metadata encoding into the
// Scheduler's shared slabs (spec.md §4.3: the leaf's encoding is written
// whether or not it turned out to be terminal). It returns the sector for
// the caller to run its Policy/Q tensors through a neural network (or its
// own logic); the board/metadata rows for this sector live at
// Boards()/Metadata()[start*8*8 : end*8*8] and [start*5 : end*5].
func (s *Scheduler) Select() (*Sector, error) {
	s.mu.Lock()
	for s.busy[s.cur] {
		s.cond.Wait()
	}
	idx := s.cur
	s.busy[idx] = true
	s.mu.Unlock()

	sector := s.sectors[idx]
	start, end := s.gamesInSector(idx)

	if err := s.parallelRange(start, end, func(g int) error {
		local := g - start
		tree := s.trees[g]
		leaf, err := tree.Select()
		if err != nil {
			return errors.Wrapf(err, "scheduler: select game %d", g)
		}
		if tree.NeedsEvaluation(leaf) && tree.NodeAt(leaf).NumChildren() == 0 {
			if pos := tree.Position(); len(pos.LegalMoves(nil)) == 0 {
				var v float32
				if pos.InCheckmate() {
					v = -1
				}
				tree.MarkTerminal(leaf, v)
			}
		}
		sector.leaves[local] = leaf
		sector.needsEval[local] = tree.NeedsEvaluation(leaf)
		writeBoard(s.boards, g, tree)
		writeMetadata(s.metadata, g, tree)
		return nil
	}); err != nil {
		return nil, err
	}

	return sector, nil
}

// Boards returns the Scheduler's shared (NumSectors*SectorSize, 8, 8) board
// slab, addressed by global game index.
func (s *Scheduler) Boards() *tensor.Dense { return s.boards }

// Metadata returns the Scheduler's shared (NumSectors*SectorSize, 5)
// metadata slab, addressed by global game index.
func (s *Scheduler) Metadata() *tensor.Dense { return s.metadata }

// Update consumes the evaluated Policy/Q tensors for the current sector,
// expanding each leaf that needed evaluation (decoding its legal moves'
// priors out of the dense policy tensor via policyindex) and backing up
// every game's value, then advances to the next sector and wakes any
// Select waiting on it.
func (s *Scheduler) Update() error {
	s.mu.Lock()
	idx := s.cur
	s.mu.Unlock()

	sector := s.sectors[idx]
	start, end := s.gamesInSector(idx)

	err := s.parallelRange(start, end, func(g int) error {
		local := g - start
		tree := s.trees[g]
		leaf := sector.leaves[local]

		if sector.needsEval[local] && tree.NodeAt(leaf).NumChildren() == 0 {
			if err := s.expandFromTensor(tree, leaf, sector, local); err != nil {
				return errors.Wrapf(err, "scheduler: expand game %d", g)
			}
		}
		q, err := sector.Q.At(local)
		if err != nil {
			return errors.WithStack(err)
		}
		tree.Update(q.(float32))
		return nil
	})

	s.mu.Lock()
	s.busy[idx] = false
	s.cur = (s.cur + 1) % s.cfg.NumSectors
	s.cond.Broadcast()
	s.mu.Unlock()

	return err
}

// Advance is a convenience wrapper around Select/Update for callers that
// have a Go-native evaluator.Evaluator rather than an out-of-process
// network: it runs Select, asks the evaluator for priors/values directly
// (skipping the dense-tensor round trip at the call site, though internally
// it still scatters the evaluator's per-legal-move priors into the Policy
// tensor so Update's decode path is exercised identically either way), and
// calls Update.
func (s *Scheduler) Advance() error {
	if s.evaluator == nil {
		return errors.New("scheduler: Advance requires a non-nil Evaluator")
	}
	sector, err := s.Select()
	if err != nil {
		return err
	}

	start, _ := s.gamesInSector(s.CurrentSector())
	inputs := make([]evaluator.Input, 0, s.cfg.SectorSize)
	indices := make([]int, 0, s.cfg.SectorSize)
	for local, needs := range sector.needsEval {
		if !needs {
			continue
		}
		g := start + local
		tree := s.trees[g]
		pos := tree.Position()
		inputs = append(inputs, evaluator.Input{
			LegalMoves: pos.LegalMoves(nil),
			Side:       pos.Turn(),
		})
		indices = append(indices, local)
	}

	outputs, err := s.evaluator.Infer(inputs)
	if err != nil {
		return errors.WithStack(err)
	}

	for i, local := range indices {
		g := start + local
		tree := s.trees[g]
		pos := tree.Position()
		legal := inputs[i].LegalMoves
		for j, m := range legal {
			piece := pos.Piece(m.From())
			pi, err := policyindex.Encode(pos.Turn(), piece.Type(), m)
			if err != nil {
				return err
			}
			if err := sector.Policy.SetAt(outputs[i].Priors[j], local, pi.Rank, pi.File, pi.Plane); err != nil {
				return errors.WithStack(err)
			}
		}
		if err := sector.Q.SetAt(outputs[i].Value, local); err != nil {
			return errors.WithStack(err)
		}
	}

	return s.Update()
}

func (s *Scheduler) expandFromTensor(tree *mcts.Tree, leaf int32, sector *Sector, local int) error {
	pos := tree.Position()
	legal := pos.LegalMoves(nil)
	side := pos.Turn()

	raw := make([]float32, len(legal))
	var total float32
	for i, m := range legal {
		piece := pos.Piece(m.From())
		pi, err := policyindex.Encode(side, piece.Type(), m)
		if err != nil {
			return err
		}
		v, err := sector.Policy.At(local, pi.Rank, pi.File, pi.Plane)
		if err != nil {
			return errors.WithStack(err)
		}
		raw[i] = v.(float32)
		total += raw[i]
	}
	if total <= 0 {
		uniform := 1.0 / float32(len(legal))
		for i := range raw {
			raw[i] = uniform
		}
	} else {
		for i := range raw {
			raw[i] /= total
		}
	}
	if err := tree.Expand(leaf, legal, raw); err != nil {
		return err
	}
	if leaf == tree.RootIndex() {
		tree.AddRootNoise()
	}
	return nil
}

// GameSnapshot is one game's recordable state at the moment its best move
// is about to be played: the board/metadata encoding of the position it was
// played from, the root's visit-count policy over that position projected
// into policy-tensor cells, and who is to move.
type GameSnapshot struct {
	Board    [64]int
	Metadata [5]int
	Policy   []record.PolicyCell
	Side     chess.Color
	GameIdx  int
}

// CurrentSectorSnapshots returns a GameSnapshot for every game in the
// current sector, for a self-play driver to fold into a record.Game before
// calling PlayBestMoves.
func (s *Scheduler) CurrentSectorSnapshots() []GameSnapshot {
	idx := s.CurrentSector()
	start, end := s.gamesInSector(idx)
	out := make([]GameSnapshot, 0, end-start)
	for g := start; g < end; g++ {
		tree := s.trees[g]
		pos := tree.Position()
		side := pos.Turn()

		moves, visits := tree.Policy()
		var total uint32
		for _, v := range visits {
			total += v
		}

		var cells []record.PolicyCell
		if total > 0 {
			cells = make([]record.PolicyCell, 0, len(moves))
			for i, m := range moves {
				if visits[i] == 0 {
					continue
				}
				piece := pos.Piece(m.From())
				pi, err := policyindex.Encode(side, piece.Type(), m)
				if err != nil {
					continue
				}
				cells = append(cells, record.PolicyCell{
					Rank:  pi.Rank,
					File:  pi.File,
					Plane: pi.Plane,
					Prob:  float32(visits[i]) / float32(total),
				})
			}
		}

		out = append(out, GameSnapshot{
			Board:    pos.EncodeBoard(),
			Metadata: pos.EncodeMetadata(),
			Policy:   cells,
			Side:     side,
			GameIdx:  g,
		})
	}
	return out
}

// SetTemperature overrides every game's move-selection temperature,
// mirroring BatchMCTS::set_temperature.
func (s *Scheduler) SetTemperature(t float32) {
	for _, tree := range s.trees {
		tree.SetTemperatureOverride(t)
	}
}

// PlayBestMoves plays the sampled/argmax move for every game in the current
// sector (each tree first unwinds any in-flight selection, matching
// BatchMCTS::play_best_moves's undo_select-then-play ordering), resetting
// any game whose move ended it. It does not re-select; the next Select call
// descends from the new roots. Any game that finishes during this call has its outcome
// recorded and retrievable via FinishedThisCall before its tree resets to a
// fresh position.
func (s *Scheduler) PlayBestMoves() error {
	idx := s.CurrentSector()
	start, end := s.gamesInSector(idx)

	finished := make(map[int]board.Outcome)
	played := make(map[int]move.Move)
	var mapMu sync.Mutex

	if err := s.parallelRange(start, end, func(g int) error {
		tree := s.trees[g]
		if outcome, terminal := tree.Position().Terminal(); terminal {
			mapMu.Lock()
			finished[g] = outcome
			mapMu.Unlock()
			_, err := tree.PlayBestMoveAndReset()
			return err
		}
		m, err := tree.PlayBestMove()
		if err != nil {
			return err
		}
		mapMu.Lock()
		played[g] = m
		mapMu.Unlock()
		if outcome, terminal := tree.Position().Terminal(); terminal {
			// the move just played ended the game; record it, then reset
			// for the next one.
			mapMu.Lock()
			finished[g] = outcome
			mapMu.Unlock()
			tree.Reset()
		}
		return nil
	}); err != nil {
		return err
	}

	s.mu.Lock()
	s.busy[idx] = false
	s.lastFinished = finished
	s.lastPlayed = played
	s.mu.Unlock()
	return nil
}

// PlayedThisCall returns, for every game that was not already terminal when
// the most recent PlayBestMoves call began, the move it played — keyed by
// global game index, so a caller can fold it into the ply it snapshotted
// just before calling PlayBestMoves.
func (s *Scheduler) PlayedThisCall() map[int]move.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]move.Move, len(s.lastPlayed))
	for g, m := range s.lastPlayed {
		out[g] = m
	}
	return out
}

// FinishedThisCall returns, for every game that reached a terminal position
// during the most recent PlayBestMoves call, its final outcome keyed by
// global game index. Games still in progress are absent from the map.
func (s *Scheduler) FinishedThisCall() map[int]board.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]board.Outcome, len(s.lastFinished))
	for g, o := range s.lastFinished {
		out[g] = o
	}
	return out
}

// NumGames returns the total number of games the Scheduler manages
// (NumSectors*SectorSize).
func (s *Scheduler) NumGames() int { return len(s.trees) }

// AllGamesOver reports whether every game across every sector currently
// sits at a terminal position.
func (s *Scheduler) AllGamesOver() bool {
	for _, tree := range s.trees {
		if _, terminal := tree.Position().Terminal(); !terminal {
			return false
		}
	}
	return true
}

// ProportionOfGamesOver reports the fraction of games currently at a
// terminal position.
func (s *Scheduler) ProportionOfGamesOver() float64 {
	var over int
	for _, tree := range s.trees {
		if _, terminal := tree.Position().Terminal(); terminal {
			over++
		}
	}
	return float64(over) / float64(len(s.trees))
}

// Results returns the terminal outcome of every game currently at a
// terminal position, in game-index order; games still in progress are
// reported as board.Ongoing.
func (s *Scheduler) Results() []board.Outcome {
	out := make([]board.Outcome, len(s.trees))
	for i, tree := range s.trees {
		outcome, terminal := tree.Position().Terminal()
		if terminal {
			out[i] = outcome
		} else {
			out[i] = board.Ongoing
		}
	}
	return out
}

// SimCounts returns each game's root visit count, for monitoring search
// budget consumption across the fleet.
func (s *Scheduler) SimCounts() []uint32 {
	out := make([]uint32, len(s.trees))
	for i, tree := range s.trees {
		out[i] = tree.Root().Visits()
	}
	return out
}

// Close releases the scheduler. There is no external resource to release in
// this synchronous design (see package doc), and Select, Update and
// PlayBestMoves return their errors directly, so Close always returns nil.
func (s *Scheduler) Close() error {
	var result *multierror.Error
	return result.ErrorOrNil()
}

func (s *Scheduler) parallelRange(start, end int, fn func(g int) error) error {
	n := end - start
	workers := s.cfg.Workers
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		var result *multierror.Error
		for g := start; g < end; g++ {
			if err := fn(g); err != nil {
				result = multierror.Append(result, err)
			}
		}
		return result.ErrorOrNil()
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for w := 0; w < workers; w++ {
		lo := start + w*chunk
		hi := lo + chunk
		if hi > end {
			hi = end
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi, slot int) {
			defer wg.Done()
			var result *multierror.Error
			for g := lo; g < hi; g++ {
				if err := fn(g); err != nil {
					result = multierror.Append(result, err)
				}
			}
			errs[slot] = result.ErrorOrNil()
		}(lo, hi, w)
	}
	wg.Wait()

	var result *multierror.Error
	for _, err := range errs {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// writeBoard encodes the position at tree's live leaf into row of t via
// board.Position.EncodeBoard (spec.md §4.3, verified by the Rotation
// round-trip law in §8).
func writeBoard(t *tensor.Dense, row int, tree *mcts.Tree) {
	codes := tree.Position().EncodeBoard()
	for sq, code := range codes {
		_ = t.SetAt(float32(code), row, sq/8, sq%8)
	}
}

// writeMetadata encodes castling rights and the en passant square into row
// of t via board.Position.EncodeMetadata (spec.md §4.3, verified by
// concrete scenarios 2 and 3).
func writeMetadata(t *tensor.Dense, row int, tree *mcts.Tree) {
	vals := tree.Position().EncodeMetadata()
	for i, v := range vals {
		_ = t.SetAt(float32(v), row, i)
	}
}
