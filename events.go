// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Event is one observed alteration of a gene in a sample.
type Event struct {
	Sample        string
	Gene          string
	Phenotype     string
	Study         string
	FunctionClass string
}

// EventStream is a source of alteration events, such as a de novo
// mutation database.
type EventStream interface {
	// Stream calls fn for every event accepted by filter, stopping
	// at the first error.
	Stream(filter EventFilter, fn func(Event) error) error
}

// EventFilter selects events by metadata. An empty field accepts
// every value.
type EventFilter struct {
	Phenotypes      []string
	Studies         []string
	FunctionClasses []string
}

func (f EventFilter) Match(e Event) bool {
	return matchAny(f.Phenotypes, e.Phenotype) &&
		matchAny(f.Studies, e.Study) &&
		matchAny(f.FunctionClasses, e.FunctionClass)
}

func matchAny(accept []string, v string) bool {
	if len(accept) == 0 {
		return true
	}
	for _, a := range accept {
		if a == v {
			return true
		}
	}
	return false
}

// MatrixFromEvents builds a matrix from the events of src accepted by
// filter. Columns are the distinct sample names in sorted order.
func MatrixFromEvents(src EventStream, filter EventFilter) (*Matrix, error) {
	hits := map[string]map[string]bool{}
	sampleSet := map[string]bool{}
	err := src.Stream(filter, func(e Event) error {
		sampleSet[e.Sample] = true
		if hits[e.Gene] == nil {
			hits[e.Gene] = map[string]bool{}
		}
		hits[e.Gene][e.Sample] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	samples := make([]string, 0, len(sampleSet))
	for s := range sampleSet {
		samples = append(samples, s)
	}
	sort.Strings(samples)
	rows := make(map[string][]bool, len(hits))
	for gene, hit := range hits {
		row := make([]bool, len(samples))
		for i, s := range samples {
			row[i] = hit[s]
		}
		rows[gene] = row
	}
	return NewMatrix(samples, rows)
}

// EventDB reads events from a denovo-db style tab-separated file
// (optionally gzipped). Lines starting with "##" are comments; the
// first other line is the header, optionally prefixed by "#".
type EventDB struct {
	Filename string
}

func (db *EventDB) Stream(filter EventFilter, fn func(Event) error) error {
	f, err := zopen(db.Filename)
	if err != nil {
		return err
	}
	defer f.Close()
	err = readEvents(f, filter, fn)
	if err != nil {
		return fmt.Errorf("%s: %w", db.Filename, err)
	}
	return nil
}

func readEvents(r io.Reader, filter EventFilter, fn func(Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<16), 1<<24)
	var col map[string]int
	sampleCol, geneCol := -1, -1
	get := func(fields []string, name string) string {
		if i, ok := col[name]; ok && i < len(fields) {
			return fields[i]
		}
		return ""
	}
	matched, skipped := 0, 0
	for lineIdx := 1; scanner.Scan(); lineIdx++ {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "##") {
			continue
		}
		fields := strings.Split(line, "\t")
		if col == nil {
			col = map[string]int{}
			for i, name := range fields {
				col[strings.TrimPrefix(name, "#")] = i
			}
			var ok bool
			if sampleCol, ok = col["SampleID"]; !ok {
				return fmt.Errorf("line %d: no SampleID column in header %q", lineIdx, line)
			}
			if geneCol, ok = col["Gene"]; !ok {
				return fmt.Errorf("line %d: no Gene column in header %q", lineIdx, line)
			}
			continue
		}
		if len(fields) <= sampleCol || len(fields) <= geneCol {
			return fmt.Errorf("line %d: wrong number of fields (%d)", lineIdx, len(fields))
		}
		e := Event{
			Sample:        fields[sampleCol],
			Gene:          fields[geneCol],
			Phenotype:     get(fields, "PrimaryPhenotype"),
			Study:         get(fields, "StudyName"),
			FunctionClass: get(fields, "FunctionClass"),
		}
		if e.Sample == "" || e.Gene == "" {
			skipped++
			continue
		}
		if !filter.Match(e) {
			continue
		}
		matched++
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if col == nil {
		return errors.New("no header line")
	}
	if skipped > 0 {
		log.Warnf("skipped %d events with no sample or gene", skipped)
	}
	log.Infof("%d events matched filter", matched)
	return nil
}

type generateMatrix struct{}

func (cmd *generateMatrix) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	eventsFilename := flags.String("events", "", "denovo-db style events `file`")
	phenotypes := flags.String("phenotype", "", "comma-separated primary phenotypes to include (default all)")
	studies := flags.String("study", "", "comma-separated study names to include (default all)")
	classes := flags.String("function-class", "", "comma-separated function classes to include (default all)")
	outputFilename := flags.String("o", "", "output matrix `file` (.gz suffix to compress)")
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
	if *eventsFilename == "" || *outputFilename == "" {
		err = errors.New("must provide both -events and -o")
		return 2
	}
	filter := EventFilter{
		Phenotypes:      splitList(*phenotypes),
		Studies:         splitList(*studies),
		FunctionClasses: splitList(*classes),
	}
	m, err := MatrixFromEvents(&EventDB{Filename: *eventsFilename}, filter)
	if err != nil {
		return 1
	}
	log.Infof("matrix has %d genes, %d samples, %d alterations", len(m.Genes()), m.NumSamples(), len(m.Edges()))
	err = m.WriteFile(*outputFilename)
	if err != nil {
		return 1
	}
	return 0
}

// splitList splits a comma-separated flag value, dropping empty
// items.
func splitList(s string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
