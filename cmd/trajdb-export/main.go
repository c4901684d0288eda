// Command trajdb-export copies the trajectory summaries from a processing
// ledger into a sqlite archive, where they can be queried and aggregated
// without touching the flat file. The export is idempotent: re-running it
// only inserts keys the archive has not seen.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/skywatch-data/trajectory.report/internal/fsutil"
	"github.com/skywatch-data/trajectory.report/internal/julian"
	"github.com/skywatch-data/trajectory.report/internal/ledger"
	"github.com/skywatch-data/trajectory.report/internal/trajdb"
)

var (
	ledgerPath    = flag.String("ledger", "processed_trajectories.json", "Path to the processing ledger")
	dbPath        = flag.String("db", "trajectories.db", "Path to the sqlite archive database")
	migrationsDir = flag.String("migrations", "migrations", "Path to the schema migrations directory")
)

func main() {
	flag.Parse()

	led, err := ledger.Load(fsutil.OSFileSystem{}, *ledgerPath)
	if err != nil {
		log.Fatalf("failed to load ledger: %v", err)
	}

	db, err := trajdb.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open archive: %v", err)
	}
	defer db.Close()

	if err := db.MigrateUp(*migrationsDir); err != nil {
		log.Fatalf("failed to migrate archive schema: %v", err)
	}

	store := trajdb.NewStore(db)

	inserted := 0
	trajectories := led.Trajectories()
	for key, summary := range trajectories {
		var refNs int64
		var jd float64
		if _, err := fmt.Sscanf(key, "%f", &jd); err == nil {
			refNs = julian.Time(jd).UnixNano()
		}

		wrote, err := store.Insert(&trajdb.Trajectory{
			Key:       key,
			RefTimeNs: refNs,
			Summary:   summary,
		})
		if err != nil {
			log.Fatalf("failed to archive trajectory %s: %v", key, err)
		}
		if wrote {
			inserted++
		}
	}

	fmt.Printf("archived %d of %d trajectories (%d already present)\n",
		inserted, len(trajectories), len(trajectories)-inserted)
}
