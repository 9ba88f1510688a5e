package dwpack

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/dwbits/dwpack/internal/dwo"
	"github.com/dwbits/dwpack/internal/elfout"
	"github.com/dwbits/dwpack/internal/strtable"
)

// Package merges the split DWARF objects named by inputs and writes the
// resulting package file to out.
//
// Inputs are loaded concurrently (bounded by WithParallelism) but merged in
// argument order: the shared string table assigns offsets by insertion
// order, so processing order determines the output bytes. The rebuilt
// str_offsets sections are concatenated in the same order, which keeps every
// object's entry indices valid against its slice of the packaged section.
//
// The context cancels input loading; once merging has begun the build runs
// to completion or fails on the offending object.
func Package(ctx context.Context, inputs []string, out io.Writer, opts ...Option) error {
	cfg := config{parallelism: DefaultParallelism}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.parallelism <= 0 {
		cfg.parallelism = DefaultParallelism
	}
	logger := cfg.log()

	if len(inputs) == 0 {
		return ErrNoInputs
	}

	// Loading only parses and decompresses; each object's sections are
	// disjoint, so this phase is safe to parallelize.
	objs := make([]*dwo.Object, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.parallelism)
	for i, path := range inputs {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			obj, err := dwo.Load(path)
			if err != nil {
				return err
			}
			objs[i] = obj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	order := objs[0].ByteOrder
	machine := objs[0].Machine
	for _, obj := range objs[1:] {
		if obj.ByteOrder != order {
			return fmt.Errorf("%w: %s", ErrEndianMismatch, obj.Path)
		}
	}

	tbl := strtable.New()
	var strOffsets []byte
	passThrough := make(map[string][]byte)

	for _, obj := range objs {
		logger.Debug("remapping str_offsets",
			"object", obj.Path,
			"format", obj.Encoding.Format.String(),
			"version", obj.Encoding.Version,
			"size", len(obj.StrOffsets))

		rebuilt, err := tbl.RemapStrOffsets(obj.StrData, obj.StrOffsets, uint64(len(obj.StrOffsets)), obj.Encoding, order)
		if err != nil {
			return fmt.Errorf("remap %s: %w", obj.Path, err)
		}
		strOffsets = append(strOffsets, rebuilt...)

		for _, name := range dwo.PassThroughSections {
			if data, ok := obj.Sections[name]; ok {
				passThrough[name] = append(passThrough[name], data...)
			}
		}
	}

	logger.Info("merged string table",
		"objects", len(objs),
		"strings", tbl.Len(),
		"bytes", tbl.Size())

	sections := []elfout.Section{
		{Name: dwo.SectionStr, Data: tbl.Finish()},
		{Name: dwo.SectionStrOffsets, Data: strOffsets},
	}
	for _, name := range dwo.PassThroughSections {
		if data, ok := passThrough[name]; ok {
			sections = append(sections, elfout.Section{Name: name, Data: data})
		}
	}

	return elfout.Write(out, order, machine, sections)
}
