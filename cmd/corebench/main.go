// ════════════════════════════════════════════════════════════════════════════════════════════════
// corebench - Concurrency Core Scenario Runner
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Bench entry point
//
// Description:
//   Runs the end-to-end pool/queue scenario, the allocator churn scenario and
//   the shared-ownership scenario, records every run in sqlite, and leaves
//   through control.Exit so singletons are torn down in priority order.
//
// Usage:
//   corebench [-config scenario.json] [-db corebench.db]
//   corebench -history alloc_churn [-limit 20] [-db corebench.db]
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"flag"

	"concore/control"
	"concore/debug"
	"concore/utils"
)

func main() {
	configPath := flag.String("config", "", "scenario JSON file (built-in scenario when empty)")
	dbPath := flag.String("db", "corebench.db", "sqlite file receiving run records")
	historyName := flag.String("history", "", "print stored runs of this scenario and exit")
	limit := flag.Int("limit", 20, "number of runs printed by -history")
	flag.Parse()

	control.HandleSignals()

	store, err := openStore(*dbPath)
	if err != nil {
		debug.DropError("DB_OPEN", err)
		control.Exit(2)
	}
	control.OnExit(func() {
		if err := store.Close(); err != nil {
			debug.DropError("DB_CLOSE", err)
		}
	})

	if *historyName != "" {
		n, err := store.printHistory(*historyName, *limit)
		if err != nil {
			debug.DropError("DB_HISTORY", err)
			control.Exit(1)
		}
		if n == 0 {
			debug.DropMessage("HISTORY", "no runs named "+*historyName)
		}
		control.Exit(0)
	}

	sc, err := loadScenario(*configPath)
	if err != nil {
		debug.DropError("CONFIG", err)
		control.Exit(2)
	}

	code := 0
	for _, r := range sc.runs() {
		if control.Stopping() {
			break
		}
		res := r(sc)
		id, err := store.record(res)
		if err != nil {
			debug.DropError("DB_RECORD", err)
			code = 1
		}
		status := "ok"
		if !res.OK {
			status = "FAILED"
			code = 1
		}
		debug.DropMessage("RUN", "#"+utils.Itoa(int(id))+" "+res.Name+" "+status+" in "+res.Duration.String()+" ("+res.Detail+") "+res.Fingerprint[:min(16, len(res.Fingerprint))])
	}
	control.Exit(code)
}
