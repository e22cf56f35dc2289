/*
 * tuple.go, part of goqdk.
 *
 * Copyright 2024 The goqdk authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package chemjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	//TypeKey marks an object as a tagged value.
	TypeKey = "@type"
	//TupleTag is the value of TypeKey for tuples.
	TupleTag = "tuple"
	//the kernel has used both spellings.
	altTupleTag = "@tuple"
	itemPrefix  = "Item"
)

//Tuple is an ordered, fixed-arity value. It survives a JSON round trip
//only through MapTuples/UnmapTuples.
type Tuple []any

//T builds a Tuple from its elements.
func T(items ...any) Tuple {
	return Tuple(items)
}

//MapTuples returns a copy of v where every Tuple, at any depth, has been
//replaced by its tagged object form. Maps of type map[string]any and
//slices of type []any are walked, everything else is returned as is.
func MapTuples(v any) any {
	switch val := v.(type) {
	case Tuple:
		ret := make(map[string]any, len(val)+1)
		ret[TypeKey] = TupleTag
		for i, item := range val {
			ret[itemPrefix+strconv.Itoa(i+1)] = MapTuples(item)
		}
		return ret
	case map[string]any:
		if val == nil {
			return val
		}
		ret := make(map[string]any, len(val))
		for k, item := range val {
			ret[k] = MapTuples(item)
		}
		return ret
	case []any:
		if val == nil {
			return val
		}
		ret := make([]any, len(val))
		for i, item := range val {
			ret[i] = MapTuples(item)
		}
		return ret
	default:
		return v
	}
}

//UnmapTuples is the inverse of MapTuples. Objects tagged as tuples become
//Tuple values ordered by the number in their ItemN keys. An object with the
//tuple tag but unusable item keys is not an error: it is returned as a map
//(with its values walked), since the kernel may send plain data where we
//expect a tuple.
func UnmapTuples(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if tag, _ := val[TypeKey].(string); tag == TupleTag || tag == altTupleTag {
			if t, ok := tupleFromMap(val); ok {
				return t
			}
		}
		if val == nil {
			return val
		}
		ret := make(map[string]any, len(val))
		for k, item := range val {
			ret[k] = UnmapTuples(item)
		}
		return ret
	case []any:
		if val == nil {
			return val
		}
		ret := make([]any, len(val))
		for i, item := range val {
			ret[i] = UnmapTuples(item)
		}
		return ret
	default:
		return v
	}
}

//tupleFromMap collects the ItemN entries of a tagged object. It fails if
//any other key is present, if an item key has a non-numeric suffix or if
//the indexes are not 1..N.
func tupleFromMap(m map[string]any) (Tuple, bool) {
	type item struct {
		idx int
		val any
	}
	items := make([]item, 0, len(m))
	for k, v := range m {
		if k == TypeKey {
			continue
		}
		if !strings.HasPrefix(k, itemPrefix) {
			return nil, false
		}
		idx, err := strconv.Atoi(k[len(itemPrefix):])
		if err != nil || idx < 1 {
			return nil, false
		}
		items = append(items, item{idx, v})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].idx < items[j].idx })
	ret := make(Tuple, len(items))
	for i, it := range items {
		if it.idx != i+1 {
			return nil, false
		}
		ret[i] = UnmapTuples(it.val)
	}
	return ret, true
}

//Marshal encodes v as JSON after tagging its tuples.
func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(MapTuples(v))
	if err != nil {
		return nil, fmt.Errorf("chemjson/Marshal: %w", err)
	}
	return b, nil
}

//Unmarshal decodes JSON data and restores tagged tuples. Numbers
//are decoded as float64, as encoding/json does by default.
func Unmarshal(data []byte) (any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("chemjson/Unmarshal: %w", err)
	}
	return UnmapTuples(v), nil
}
