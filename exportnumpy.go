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
	"os"

	"github.com/kshedden/gonpy"
	log "github.com/sirupsen/logrus"
)

type exportNumpy struct{}

func (cmd *exportNumpy) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	matrixFilename := flags.String("matrix", "", "alteration matrix `file`")
	outputFilename := flags.String("o", "-", "output `file`")
	labelsFilename := flags.String("output-labels", "", "also output gene labels csv `file`")
	samplesFilename := flags.String("output-samples", "", "also output sample labels csv `file`")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	if *matrixFilename == "" {
		err = errors.New("no -matrix specified")
		return 2
	}

	m, err := LoadMatrix(*matrixFilename)
	if err != nil {
		return 1
	}
	if *labelsFilename != "" {
		log.Infof("writing labels to %s", *labelsFilename)
		err = writeLabels(*labelsFilename, m.Genes())
		if err != nil {
			return 1
		}
	}
	if *samplesFilename != "" {
		log.Infof("writing sample labels to %s", *samplesFilename)
		err = writeLabels(*samplesFilename, m.Samples())
		if err != nil {
			return 1
		}
	}

	var output io.WriteCloser
	if *outputFilename == "-" {
		output = nopCloser{stdout}
	} else {
		output, err = os.OpenFile(*outputFilename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0777)
		if err != nil {
			return 1
		}
		defer output.Close()
	}
	bufw := bufio.NewWriter(output)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return 1
	}
	out, rows, cols := matrix2array(m)
	npw.Shape = []int{rows, cols}
	err = npw.WriteUint8(out)
	if err != nil {
		return 1
	}
	err = bufw.Flush()
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	return 0
}

// matrix2array returns the matrix as a row-major genes × samples
// array of 0/1 values, genes in sorted order.
func matrix2array(m *Matrix) (data []uint8, rows, cols int) {
	rows, cols = len(m.rows), len(m.samples)
	data = make([]uint8, rows*cols)
	var idx []int
	for row, bits := range m.rows {
		idx = bits.indices(idx[:0])
		for _, s := range idx {
			data[row*cols+s] = 1
		}
	}
	return
}

func writeLabels(fnm string, labels []string) error {
	f, err := zcreate(fnm)
	if err != nil {
		return err
	}
	defer f.Close()
	for i, label := range labels {
		_, err = fmt.Fprintf(f, "%d,%q\n", i, label)
		if err != nil {
			return fmt.Errorf("write %s: %w", fnm, err)
		}
	}
	err = f.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", fnm, err)
	}
	return nil
}
