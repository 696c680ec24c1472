// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// testArgs are the flags shared by the single-matrix and paired
// calculate commands.
type testArgs struct {
	pprof         string
	profileDir    string
	geneSets      string
	rankedGenes   string
	pathways      string
	outputDir     string
	iterations    int
	q             int
	seed          uint64
	threads       int
	pathwayLoaded PathwayCatalog
}

func (a *testArgs) Flags(flags *flag.FlagSet) {
	flags.StringVar(&a.pprof, "pprof", "", "serve Go profile data at http://`[addr]:port`")
	flags.StringVar(&a.profileDir, "profile-dir", "", "write cpu and heap profiles to `directory` every minute")
	flags.StringVar(&a.geneSets, "gene-sets", "", "gene set `file`, or "+RankedSets+" (needs -ranked-genes) or "+PathwaySets+" (needs -pathways)")
	flags.StringVar(&a.rankedGenes, "ranked-genes", "", "ranked gene list `file` (gene<TAB>score)")
	flags.StringVar(&a.pathways, "pathways", "", "pathway catalog GMT `file`")
	flags.StringVar(&a.outputDir, "output-dir", "./out", "output `directory`")
	flags.IntVar(&a.iterations, "iterations", 1000, "number of random shuffles `N`")
	flags.IntVar(&a.q, "q", DefaultQ, "trial swaps per edge in each shuffle")
	flags.Uint64Var(&a.seed, "seed", 0, "PRNG seed (0 = random)")
	flags.IntVar(&a.threads, "threads", 1, "number of matrix replicas to shuffle concurrently")
}

func (a *testArgs) check() error {
	if a.geneSets == "" {
		return errors.New("no -gene-sets specified")
	}
	if a.iterations < 1 {
		return fmt.Errorf("invalid -iterations %d", a.iterations)
	}
	return nil
}

func (a *testArgs) startProfiling(ctx context.Context) {
	if a.pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(a.pprof, nil))
		}()
	}
	if a.profileDir != "" {
		go writeProfilesPeriodically(ctx, a.profileDir, time.Minute)
	}
}

// loadGeneSets loads the gene sets named by -gene-sets, restricted to
// genes present in all the given matrices.
func (a *testArgs) loadGeneSets(ms ...*Matrix) (GeneSets, error) {
	loader := &GeneSetLoader{Matrices: ms}
	switch a.geneSets {
	case RankedSets:
		if a.rankedGenes == "" {
			return nil, fmt.Errorf("-gene-sets=%s requires -ranked-genes", RankedSets)
		}
		list, err := LoadRankedGeneList(a.rankedGenes)
		if err != nil {
			return nil, err
		}
		return loader.LoadRanked(list), nil
	case PathwaySets:
		if a.pathways == "" {
			return nil, fmt.Errorf("-gene-sets=%s requires -pathways", PathwaySets)
		}
		cat, err := LoadGMT(a.pathways)
		if err != nil {
			return nil, err
		}
		a.pathwayLoaded = cat
		return loader.LoadPathways(cat), nil
	default:
		return loader.LoadFile(a.geneSets)
	}
}

// addNames writes results-with-names.txt next to the result table
// when the gene sets came from the pathway catalog.
func (a *testArgs) addNames() error {
	if a.pathwayLoaded == nil {
		return nil
	}
	return AddNamesFile(
		filepath.Join(a.outputDir, ResultsFilename),
		filepath.Join(a.outputDir, "results-with-names.txt"),
		a.pathwayLoaded)
}

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

type calculate struct {
	testArgs
}

func (cmd *calculate) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	matrixFilename := flags.String("matrix", "", "alteration matrix `file`")
	cmd.testArgs.Flags(flags)
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if flags.NArg() > 0 {
		err = fmt.Errorf("errant command line arguments after parsed flags: %v", flags.Args())
		return 2
	}
	if *matrixFilename == "" {
		err = errors.New("no -matrix specified")
		return 2
	}
	if err = cmd.check(); err != nil {
		return 2
	}
	ctx, cancel := interruptContext()
	defer cancel()
	cmd.startProfiling(ctx)

	m, err := LoadMatrix(*matrixFilename)
	if err != nil {
		return 1
	}
	sets, err := cmd.loadGeneSets(m)
	if err != nil {
		return 1
	}
	tester := &MutexTester{
		Matrix:     m,
		GeneSets:   sets,
		Iterations: cmd.iterations,
		Q:          cmd.q,
		Seed:       cmd.seed,
		Threads:    cmd.threads,
	}
	_, err = tester.Run(ctx, cmd.outputDir)
	if err != nil {
		return 1
	}
	err = cmd.addNames()
	if err != nil {
		return 1
	}
	return 0
}

type calculateDifferential struct {
	testArgs
}

func (cmd *calculateDifferential) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	testFilename := flags.String("test-matrix", "", "test alteration matrix `file`")
	ctrlFilename := flags.String("ctrl-matrix", "", "control alteration matrix `file`")
	cmd.testArgs.Flags(flags)
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if flags.NArg() > 0 {
		err = fmt.Errorf("errant command line arguments after parsed flags: %v", flags.Args())
		return 2
	}
	if *testFilename == "" || *ctrlFilename == "" {
		err = errors.New("must provide both -test-matrix and -ctrl-matrix")
		return 2
	}
	if err = cmd.check(); err != nil {
		return 2
	}
	ctx, cancel := interruptContext()
	defer cancel()
	cmd.startProfiling(ctx)

	test, err := LoadMatrix(*testFilename)
	if err != nil {
		return 1
	}
	ctrl, err := LoadMatrix(*ctrlFilename)
	if err != nil {
		return 1
	}
	sets, err := cmd.loadGeneSets(test, ctrl)
	if err != nil {
		return 1
	}
	tester := &DifferentialMutexTester{
		TestMatrix: test,
		CtrlMatrix: ctrl,
		GeneSets:   sets,
		Iterations: cmd.iterations,
		Q:          cmd.q,
		Seed:       cmd.seed,
		Threads:    cmd.threads,
	}
	_, err = tester.Run(ctx, cmd.outputDir)
	if err != nil {
		return 1
	}
	err = cmd.addNames()
	if err != nil {
		return 1
	}
	return 0
}
