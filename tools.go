// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
)

// openOutput returns stdout for "-", otherwise a new file.
func openOutput(fnm string, stdout io.Writer) (io.WriteCloser, error) {
	if fnm == "-" {
		return nopCloser{stdout}, nil
	}
	return zcreate(fnm)
}

func parseFloatList(s string) ([]float64, error) {
	var list []float64
	for _, item := range splitList(s) {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", item, err)
		}
		list = append(list, f)
	}
	return list, nil
}

// parseToolFlags handles the flag parsing and exit codes common to
// the result post-processing commands. It returns -1 if the command
// should proceed.
func parseToolFlags(flags *flag.FlagSet, args []string, err *error) int {
	*err = flags.Parse(args)
	if *err == flag.ErrHelp {
		*err = nil
		return 0
	} else if *err != nil {
		return 2
	} else if flags.NArg() > 0 {
		*err = fmt.Errorf("errant command line arguments after parsed flags: %v", flags.Args())
		return 2
	}
	return -1
}

type exploreSignificance struct{}

func (cmd *exploreSignificance) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "", "result table `file`")
	outputFilename := flags.String("o", "-", "output `file`")
	patternName := flags.String("pattern", "mutex", "pattern type: mutex or cooc")
	fdrList := flags.String("fdr", "0.1,0.2", "comma-separated FDR cutoffs")
	if code := parseToolFlags(flags, args, &err); code >= 0 {
		return code
	}
	if *inputFilename == "" {
		err = errors.New("no -i specified")
		return 2
	}
	pattern, err := ParsePatternType(*patternName)
	if err != nil {
		return 2
	}
	fdrs, err := parseFloatList(*fdrList)
	if err != nil {
		return 2
	}
	out, err := openOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer out.Close()
	err = ExploreSignificance(*inputFilename, out, pattern, fdrs)
	if err != nil {
		return 1
	}
	err = out.Close()
	if err != nil {
		return 1
	}
	return 0
}

type filterTopHit struct{}

func (cmd *filterTopHit) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "", "result table `file`")
	outputFilename := flags.String("o", "-", "output `file`")
	patternName := flags.String("pattern", "mutex", "pattern type: mutex or cooc")
	topX := flags.Int("top", 100, "number of most-hit gene sets to keep")
	if code := parseToolFlags(flags, args, &err); code >= 0 {
		return code
	}
	if *inputFilename == "" {
		err = errors.New("no -i specified")
		return 2
	}
	pattern, err := ParsePatternType(*patternName)
	if err != nil {
		return 2
	}
	out, err := openOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer out.Close()
	err = FilterToTopHit(*inputFilename, out, pattern, *topX)
	if err != nil {
		return 1
	}
	err = out.Close()
	if err != nil {
		return 1
	}
	return 0
}

type findMembers struct{}

func (cmd *findMembers) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	dir := flags.String("dir", "", "results `directory` containing member files")
	suffix := flags.String("suffix", "-mutex.txt", "member file name suffix")
	fdr := flags.Float64("fdr", 0.1, "false discovery rate")
	outputFilename := flags.String("o", "-", "output `file`")
	if code := parseToolFlags(flags, args, &err); code >= 0 {
		return code
	}
	if *dir == "" {
		err = errors.New("no -dir specified")
		return 2
	}
	out, err := openOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer out.Close()
	err = FindSignificantMembers(*dir, *suffix, *fdr, out)
	if err != nil {
		return 1
	}
	err = out.Close()
	if err != nil {
		return 1
	}
	return 0
}

type annotateMembers struct{}

func (cmd *annotateMembers) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "", "member result `file`")
	matrixFilename := flags.String("matrix", "", "alteration matrix `file` the result was computed from")
	rankedFilename := flags.String("ranked-genes", "", "ranked gene list `file` (optional)")
	outputFilename := flags.String("o", "-", "output `file`")
	if code := parseToolFlags(flags, args, &err); code >= 0 {
		return code
	}
	if *inputFilename == "" || *matrixFilename == "" {
		err = errors.New("must provide both -i and -matrix")
		return 2
	}
	m, err := LoadMatrix(*matrixFilename)
	if err != nil {
		return 1
	}
	var ranked RankedGeneList
	if *rankedFilename != "" {
		ranked, err = LoadRankedGeneList(*rankedFilename)
		if err != nil {
			return 1
		}
	}
	out, err := openOutput(*outputFilename, stdout)
	if err != nil {
		return 1
	}
	defer out.Close()
	err = AnnotateSetMembers(*inputFilename, m, ranked, out)
	if err != nil {
		return 1
	}
	err = out.Close()
	if err != nil {
		return 1
	}
	return 0
}

type addNames struct{}

func (cmd *addNames) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilename := flags.String("i", "", "result table `file`")
	outputFilename := flags.String("o", "", "output `file`")
	pathwaysFilename := flags.String("pathways", "", "pathway catalog GMT `file`")
	if code := parseToolFlags(flags, args, &err); code >= 0 {
		return code
	}
	if *inputFilename == "" || *outputFilename == "" || *pathwaysFilename == "" {
		err = errors.New("must provide -i, -o and -pathways")
		return 2
	}
	cat, err := LoadGMT(*pathwaysFilename)
	if err != nil {
		return 1
	}
	err = AddNamesFile(*inputFilename, *outputFilename, cat)
	if err != nil {
		return 1
	}
	return 0
}
