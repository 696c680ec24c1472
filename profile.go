// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"

	log "github.com/sirupsen/logrus"
)

// writeProfilesPeriodically writes heap and CPU profiles into outdir
// every interval until ctx is done.
func writeProfilesPeriodically(ctx context.Context, outdir string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			writeMemProfile(outdir)
			writeCPUProfile(outdir)
		}
	}
}

// writeProfile writes to outdir/name~ and renames it into place.
func writeProfile(outdir, name string, write func(io.Writer) error) {
	tmp := filepath.Join(outdir, name+"~")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		log.Print(err)
		return
	}
	defer f.Close()
	runtime.GC()
	if err := write(f); err != nil {
		log.Print(err)
		return
	}
	err = f.Close()
	if err != nil {
		log.Print(err)
		return
	}
	err = os.Rename(tmp, filepath.Join(outdir, name))
	if err != nil {
		log.Print(err)
	}
}

func writeCPUProfile(outdir string) {
	writeProfile(outdir, "cpu.prof", func(w io.Writer) error {
		if err := pprof.StartCPUProfile(w); err != nil {
			return err
		}
		time.Sleep(time.Second)
		pprof.StopCPUProfile()
		return nil
	})
}

func writeMemProfile(outdir string) {
	writeProfile(outdir, "mem.prof", pprof.WriteHeapProfile)
}
