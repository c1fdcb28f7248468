// Command craftsim runs a scripted crafting sequence against a fresh item and
// prints the item after every step.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lawnchairsociety/crucible/internal/bench"
	"github.com/lawnchairsociety/crucible/internal/command"
	"github.com/lawnchairsociety/crucible/internal/currency"
	"github.com/lawnchairsociety/crucible/internal/database"
	"github.com/lawnchairsociety/crucible/internal/items"
	"github.com/lawnchairsociety/crucible/internal/logger"
	"github.com/lawnchairsociety/crucible/internal/mods"
	"github.com/lawnchairsociety/crucible/internal/mutator"
	"github.com/lawnchairsociety/crucible/internal/stats"
)

func main() {
	scriptFile := flag.String("script", "data/sequence.yaml", "Path to crafting script YAML file")
	modsFile := flag.String("mods", "data/mods.yaml", "Path to modifier pool YAML file")
	basesFile := flag.String("bases", "data/bases.yaml", "Path to item bases YAML file")
	seed := flag.Int64("seed", 0, "Random seed (overrides the script; 0 keeps the script's seed)")
	journalPath := flag.String("journal", "", "SQLite file to journal transactions into (empty disables)")
	asJSON := flag.Bool("json", false, "Print the final item as JSON")
	verbose := flag.Bool("v", false, "Verbose output - log every transaction")
	flag.Parse()

	// The step listing is the output; logs only appear with -v.
	if *verbose {
		logConfig := logger.DefaultConfig()
		logConfig.FileEnabled = false
		logConfig.Level = "debug"
		if err := logger.Initialize(logConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Close()
	}

	if err := run(*scriptFile, *modsFile, *basesFile, *seed, *journalPath, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(scriptFile, modsFile, basesFile string, seed int64, journalPath string, asJSON bool) error {
	script, err := bench.LoadScript(scriptFile)
	if err != nil {
		return err
	}
	if seed != 0 {
		script.Seed = seed
	}

	pool, err := mods.LoadPoolFromYAML(modsFile)
	if err != nil {
		return err
	}
	bases, err := items.LoadBasesFromYAML(basesFile)
	if err != nil {
		return err
	}

	src := stats.NewSource(script.Seed)
	m := mutator.New(pool, mods.NewRoller(src))

	var opts []bench.Option
	if journalPath != "" {
		db, err := database.Open(journalPath)
		if err != nil {
			return err
		}
		defer db.Close()
		m.SetRecorder(db)
		opts = append(opts, bench.WithJournal(db))
	}

	session := bench.NewSession(m, currency.DefaultRegistry(), bases, opts...)
	if script.Seed == 0 {
		fmt.Printf("Running %d steps on %s (random seed)\n\n", len(script.Steps), script.Base)
	} else {
		fmt.Printf("Running %d steps on %s (seed %d)\n\n", len(script.Steps), script.Base, script.Seed)
	}

	results, runErr := session.Run(script)
	for i, res := range results {
		switch {
		case res.Err != nil:
			fmt.Printf("%2d. %s: %v\n\n", i+1, res.Step, res.Err)
		default:
			fmt.Printf("%2d. %s [%s]\n%s\n\n", i+1, res.Step, res.Transaction, command.FormatItem(res.Item))
		}
	}
	if runErr != nil {
		return runErr
	}

	ok, err := session.Verify()
	if err != nil {
		return err
	}
	fmt.Printf("Transactions logged: %d, verified: %t\n", len(session.History()), ok)

	if journalPath != "" {
		entries, err := session.Journal()
		if err != nil {
			return err
		}
		fmt.Printf("Journal entries for this item: %d\n", len(entries))
	}

	if asJSON {
		item, _ := session.Item()
		fmt.Println(item.Serialize())
	}
	return nil
}
