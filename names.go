// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PathwayIDPrefix is prepended to a result ID to form the pathway's
// catalog ID.
const PathwayIDPrefix = "http://identifiers.org/reactome/"

// AddNames copies a result table, inserting a "Name" column after the
// ID column with each pathway's name from cat (empty if unknown).
func AddNames(in io.Reader, out io.Writer, cat PathwayCatalog) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 1<<16), 1<<26)
	bufw := bufio.NewWriter(out)
	first := true
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		t := strings.SplitN(line, "\t", 2)
		var name string
		if first && t[0] == singleHeader[0] {
			name = "Name"
		} else if name = cat.Name(PathwayIDPrefix + t[0]); name == "" {
			name = cat.Name(t[0])
		}
		first = false
		t = append([]string{t[0], name}, t[1:]...)
		fmt.Fprintln(bufw, strings.Join(t, "\t"))
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return bufw.Flush()
}

// AddNamesFile runs AddNames from inFile to outFile.
func AddNamesFile(inFile, outFile string, cat PathwayCatalog) error {
	in, err := zopen(inFile)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := zcreate(outFile)
	if err != nil {
		return err
	}
	defer out.Close()
	err = AddNames(in, out, cat)
	if err != nil {
		return fmt.Errorf("%s: %w", outFile, err)
	}
	return out.Close()
}
