// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
	"gonum.org/v1/gonum/stat"
)

type matrixStats struct{}

func (cmd *matrixStats) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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

	var output io.WriteCloser
	if *outputFilename == "-" {
		output = nopCloser{stdout}
	} else {
		output, err = zcreate(*outputFilename)
		if err != nil {
			return 1
		}
		defer output.Close()
	}
	err = doMatrixStats(m, output)
	if err != nil {
		return 1
	}
	err = output.Close()
	if err != nil {
		return 1
	}
	return 0
}

// degreeSummary returns the mean, standard deviation and maximum of
// degrees. Fewer than two values have zero deviation.
func degreeSummary(degrees []int) (mean, std float64, max int) {
	if len(degrees) == 0 {
		return 0, 0, 0
	}
	x := make([]float64, len(degrees))
	for i, d := range degrees {
		x[i] = float64(d)
		if d > max {
			max = d
		}
	}
	if len(x) == 1 {
		return x[0], 0, max
	}
	mean, std = stat.MeanStdDev(x, nil)
	return mean, std, max
}

func doMatrixStats(m *Matrix, output io.Writer) error {
	var ret struct {
		Genes                   int
		Samples                 int
		Edges                   int
		GeneDegreeMean          float64
		GeneDegreeStdDev        float64
		GeneDegreeMax           int
		SampleDegreeMean        float64
		SampleDegreeStdDev      float64
		SampleDegreeMax         int
		SampleDegreeUniformityP float64
		Blake2b                 string
	}
	geneDeg := m.GeneDegrees()
	sampleDeg := m.SampleDegrees()
	ret.Genes = len(geneDeg)
	ret.Samples = len(sampleDeg)
	ret.Edges = len(m.Edges())
	ret.GeneDegreeMean, ret.GeneDegreeStdDev, ret.GeneDegreeMax = degreeSummary(geneDeg)
	ret.SampleDegreeMean, ret.SampleDegreeStdDev, ret.SampleDegreeMax = degreeSummary(sampleDeg)
	ret.SampleDegreeUniformityP = uniformityPvalue(sampleDeg)

	h, err := blake2b.New256(nil)
	if err != nil {
		return err
	}
	_, err = m.WriteTo(h)
	if err != nil {
		return err
	}
	ret.Blake2b = fmt.Sprintf("%x", h.Sum(nil))

	enc := json.NewEncoder(output)
	enc.SetIndent("", "  ")
	return enc.Encode(ret)
}
