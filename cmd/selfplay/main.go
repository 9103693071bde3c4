// Command selfplay drives the batched self-play loop end to end (spec.md
// §5/§6), writing each finished game out in record's text format, one file
// per game under -out.
//
// Grounded on the teacher's cmd/train/main.go (flag-based CLI, log.Fatal on
// setup failure).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/kingside-labs/batchmcts/archive"
	"github.com/kingside-labs/batchmcts/evaluator"
	"github.com/kingside-labs/batchmcts/host"
	"github.com/kingside-labs/batchmcts/mcts"
	"github.com/kingside-labs/batchmcts/record"
)

var (
	numSectors   = flag.Int("sectors", 4, "number of sectors")
	sectorSize   = flag.Int("sector_size", 64, "games per sector")
	workers      = flag.Int("workers", 4, "worker goroutines per select/update call")
	simsPerMove  = flag.Int("sims", 800, "MCTS simulations spent per move")
	outDir       = flag.String("out", "games", "directory finished game records are written to")
	tablebaseDir = flag.String("tablebase", "", "optional tablebase directory")

	hdfsAddr = flag.String("hdfs_addr", "", "namenode address to archive finished game records to; skipped if empty")
	hdfsUser = flag.String("hdfs_user", "", "HDFS user to authenticate as")
	hdfsPath = flag.String("hdfs_path", "", "destination path on HDFS for the archived game records")
)

func main() {
	flag.Parse()

	host.Initialize(*tablebaseDir)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("selfplay: creating output directory: %v", err)
	}

	cfg := host.Config{
		NumSectors: *numSectors,
		SectorSize: *sectorSize,
		Workers:    *workers,
		Tree:       mcts.DefaultConfig(),
	}

	h, err := host.CreateBatchMCTS(cfg, evaluator.UniformEvaluator{})
	if err != nil {
		log.Fatalf("selfplay: %v", err)
	}
	defer h.Destroy()

	games := make([]*record.Game, h.NumGames())
	for i := range games {
		games[i] = &record.Game{}
	}
	written := 0

	for sel := 0; !h.AllGamesOver(); sel++ {
		if _, err := h.Select(); err != nil {
			log.Fatalf("selfplay: select: %v", err)
		}
		if err := h.Update(); err != nil {
			log.Fatalf("selfplay: update: %v", err)
		}

		if sel == 0 || sel%*simsPerMove != 0 {
			continue
		}

		snapshots := h.CurrentSectorSnapshots()

		if err := h.PlayBestMoves(); err != nil {
			log.Fatalf("selfplay: play best moves: %v", err)
		}

		played := h.PlayedThisCall()
		for _, snap := range snapshots {
			m, ok := played[snap.GameIdx]
			if !ok {
				// the game was already terminal before this call; nothing
				// was played from this snapshot's position.
				continue
			}
			games[snap.GameIdx].AddPly(snap.Board, snap.Metadata, snap.Policy, m, snap.Side)
		}

		for idx, outcome := range h.FinishedThisCall() {
			g := games[idx]
			g.DeclareWinner(outcome)
			if err := writeGame(*outDir, idx, written, g); err != nil {
				log.Fatalf("selfplay: writing game %d: %v", idx, err)
			}
			written++
			games[idx] = &record.Game{}
		}
	}

	log.Printf("selfplay: wrote %d games to %s", written, *outDir)

	if *hdfsAddr != "" {
		if err := archiveGames(*outDir, *hdfsAddr, *hdfsUser, *hdfsPath); err != nil {
			log.Fatalf("selfplay: archiving to hdfs: %v", err)
		}
		log.Printf("selfplay: archived %s to hdfs://%s%s", *outDir, *hdfsAddr, *hdfsPath)
	}
}

func archiveGames(dir, addr, user, hdfsPath string) error {
	data, err := archive.CompressDir(dir)
	if err != nil {
		return err
	}
	return archive.WriteToHDFS(addr, user, data, hdfsPath)
}

func writeGame(dir string, gameIdx, sequence int, g *record.Game) error {
	path := filepath.Join(dir, fmt.Sprintf("game-%05d-slot%03d.txt", sequence, gameIdx))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return record.Write(f, g)
}
