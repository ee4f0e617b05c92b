//
// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package groupify

import (
	"fmt"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/lattice"
	"golang.org/x/sync/errgroup"
)

// minShardRecords is the smallest number of records worth a goroutine.
const minShardRecords = 4096

// Options configures how tables are built. The zero value builds tables
// sequentially without distributions or row lists.
type Options struct {
	// Sensitive lists the sensitive attributes whose distributions are
	// tracked.
	Sensitive []int
	// Parallelism is the maximal number of shards built concurrently.
	// Values of 0 and 1 build sequentially.
	Parallelism int
	// TrackRows records the members of every class.
	TrackRows bool
}

// Build groups the records of ds under transformation t.
func Build(ds *data.Dataset, t lattice.Transformation, opt Options) (*Table, error) {
	if err := checkTransformation(ds, t); err != nil {
		return nil, err
	}
	for _, s := range opt.Sensitive {
		if s < 0 || s >= ds.NumSensitive() {
			return nil, fmt.Errorf("groupify.Build: sensitive attribute %d out of range [0, %d)", s, ds.NumSensitive())
		}
	}
	n := ds.NumRecords()
	shards := opt.Parallelism
	if limit := n / minShardRecords; shards > limit {
		shards = limit
	}
	if shards <= 1 {
		return buildRange(ds, t, opt, 0, n), nil
	}

	tables := make([]*Table, shards)
	var g errgroup.Group
	for i := 0; i < shards; i++ {
		i := i
		lo, hi := i*n/shards, (i+1)*n/shards
		g.Go(func() error {
			tables[i] = buildRange(ds, t, opt, lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.V(2).Infof("groupify: built %v from %d shards", t, shards)
	return merge(t, tables), nil
}

func checkTransformation(ds *data.Dataset, t lattice.Transformation) error {
	if len(t) != ds.NumQuasiIdentifiers() {
		return fmt.Errorf("groupify: transformation %v has %d levels, want %d", t, len(t), ds.NumQuasiIdentifiers())
	}
	for i, level := range t {
		if level < 0 || level > ds.Hierarchy(i).Height() {
			return fmt.Errorf("groupify: level %d of attribute %d is out of range [0, %d]", level, i, ds.Hierarchy(i).Height())
		}
	}
	return nil
}

// buildRange groups records [lo, hi).
func buildRange(ds *data.Dataset, t lattice.Transformation, opt Options, lo, hi int) *Table {
	table := newTable(t, (hi-lo)/4)
	width := len(t)
	scratch := make([]int, width)
	for r := lo; r < hi; r++ {
		qi := ds.QuasiIdentifiers(r)
		for i, code := range qi {
			scratch[i] = ds.Hierarchy(i).Generalize(code, t[i])
		}
		h := hashKey(scratch)
		e, created := table.insert(scratch, h)
		if created {
			scratch = make([]int, width)
			e.Representative = r
			if len(opt.Sensitive) > 0 {
				e.Distributions = make([]*Distribution, ds.NumSensitive())
				for _, s := range opt.Sensitive {
					e.Distributions[s] = NewDistribution(ds.SensitiveDomain(s))
				}
			}
		}
		e.Count++
		for _, s := range opt.Sensitive {
			e.Distributions[s].Add(ds.Sensitive(r, s), 1)
		}
		if opt.TrackRows {
			e.Rows = append(e.Rows, r)
		}
	}
	table.records = hi - lo
	return table
}

// merge combines tables built over consecutive record ranges. Counts and
// distributions are added, so the merged classes do not depend on the order
// of tables; passing them in record order also preserves first-seen order
// and increasing row lists.
func merge(t lattice.Transformation, tables []*Table) *Table {
	capacity := 0
	for _, s := range tables {
		capacity += s.size
	}
	out := newTable(t, capacity)
	for _, s := range tables {
		for e := s.first; e != nil; e = e.nextOrdered {
			absorb(out, e.Key, e.hash, e)
		}
		out.records += s.records
	}
	return out
}

// absorb adds the classes of src into the entry of dst with the given key.
func absorb(dst *Table, key []int, h uint64, src *Entry) {
	e, created := dst.insert(key, h)
	if created {
		e.Key = append([]int(nil), key...)
		e.Representative = src.Representative
		e.Count = src.Count
		if src.Distributions != nil {
			e.Distributions = make([]*Distribution, len(src.Distributions))
			for j, d := range src.Distributions {
				if d != nil {
					e.Distributions[j] = d.Clone()
				}
			}
		}
		if src.Rows != nil {
			e.Rows = append([]int(nil), src.Rows...)
		}
		return
	}
	e.Count += src.Count
	for j, d := range src.Distributions {
		if d != nil {
			e.Distributions[j].Merge(d)
		}
	}
	if src.Rows != nil {
		e.Rows = append(e.Rows, src.Rows...)
	}
	if src.Representative < e.Representative {
		e.Representative = src.Representative
	}
}

// Rollup builds the table of transformation t from the table of a
// transformation base ≤ t without rescanning the dataset. Every class of
// base lies within a single class of t, so its representative record
// determines the new key. The result equals Build(ds, t, opt) for the
// options base was built with, including first-seen order. Row lists are
// not carried over.
func Rollup(ds *data.Dataset, base *Table, t lattice.Transformation) (*Table, error) {
	if err := checkTransformation(ds, t); err != nil {
		return nil, err
	}
	if !base.transformation.LessOrEqual(t) {
		return nil, fmt.Errorf("groupify.Rollup: %v is not a generalization of %v", t, base.transformation)
	}
	out := newTable(t, base.size)
	key := make([]int, len(t))
	// From a direct predecessor only one attribute's codes change.
	changed := lattice.ChangedAttribute(base.transformation, t)
	for e := base.first; e != nil; e = e.nextOrdered {
		qi := ds.QuasiIdentifiers(e.Representative)
		if changed >= 0 {
			copy(key, e.Key)
			key[changed] = ds.Hierarchy(changed).Generalize(qi[changed], t[changed])
		} else {
			for i, code := range qi {
				key[i] = ds.Hierarchy(i).Generalize(code, t[i])
			}
		}
		absorb(out, key, hashKey(key), &Entry{
			Count:          e.Count,
			Distributions:  e.Distributions,
			Representative: e.Representative,
		})
	}
	out.records = base.records
	return out, nil
}
